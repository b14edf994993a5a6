package setting

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-puja/internal/setting/entity"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

// Handler contains dependencies for handling setting endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

// NewHandler constructs a new Handler.
func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// List serves ?category=&limit=&offset=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := utilities.Page(r, 50, 500)
	list, err := h.svc.List(r.Context(), r.URL.Query().Get("category"), limit, offset)
	if err != nil {
		h.logger.Errorw("list settings failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "could not load settings")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, "could not load setting", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, st)
}

// TempleConfig returns the temple profile as one JSON object.
func (h *Handler) TempleConfig(w http.ResponseWriter, r *http.Request) {
	h.values(w, r, CategoryTemple)
}

// Flags returns feature flags as one JSON object.
func (h *Handler) Flags(w http.ResponseWriter, r *http.Request) {
	h.values(w, r, CategoryFlags)
}

func (h *Handler) values(w http.ResponseWriter, r *http.Request, category string) {
	vals, err := h.svc.Values(r.Context(), category)
	if err != nil {
		h.logger.Errorw("load settings failed", "category", category, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "could not load settings")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, vals)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in entity.Setting
	if err := utilities.DecodeJSON(r, &in); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	st, err := h.svc.Create(r.Context(), &in)
	if err != nil {
		h.writeError(w, "could not create setting", err)
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, st)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in entity.Setting
	if err := utilities.DecodeJSON(r, &in); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	in.ID = r.PathValue("id")
	st, err := h.svc.Update(r.Context(), &in)
	if err != nil {
		h.writeError(w, "could not update setting", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, "could not delete setting", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		utilities.WriteError(w, http.StatusNotFound, "setting not found")
	case errors.Is(err, ErrVersionConflict), errors.Is(err, ErrDuplicate):
		utilities.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput):
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Errorw(msg, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, msg)
	}
}
