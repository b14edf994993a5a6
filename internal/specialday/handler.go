package specialday

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-puja/internal/specialday/entity"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Errorw("list special pujas failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "could not load special pujas")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, list)
}

// Upcoming serves ?days= (default 30, max 365).
func (h *Handler) Upcoming(w http.ResponseWriter, r *http.Request) {
	days := DefaultWindowDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 365 {
			utilities.WriteError(w, http.StatusBadRequest, "days must be between 0 and 365")
			return
		}
		days = n
	}
	list, err := h.svc.Upcoming(r.Context(), days)
	if err != nil {
		h.logger.Errorw("upcoming special pujas failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "could not load special pujas")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{"days": days, "pujas": list})
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DateMapping string `json:"date_mapping"`
	NextDate    string `json:"next_date"` // YYYY-MM-DD
}

// Create adds a puja to the calendar.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := utilities.DecodeJSON(r, &req); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	p := &entity.SpecialPuja{Name: req.Name, Description: req.Description, DateMapping: req.DateMapping}
	if req.NextDate != "" {
		d, err := time.Parse(time.DateOnly, req.NextDate)
		if err != nil {
			utilities.WriteError(w, http.StatusBadRequest, "next_date must be YYYY-MM-DD")
			return
		}
		p.NextDate = &d
	}
	if err := h.svc.Create(r.Context(), p); err != nil {
		if errors.Is(err, ErrInvalidInput) {
			utilities.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Errorw("create special puja failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "could not create special puja")
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, p)
}
