package booking

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-puja/internal/oidc"
	"github.com/ovaphlow/pitchfork/service-puja/internal/user"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Providers serves ?q=&service=.
func (h *Handler) Providers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.svc.ListProviders(r.Context(), q.Get("q"), q.Get("service"))
	if err != nil {
		h.logger.Errorw("list providers failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "could not load providers")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := oidc.UserIDFrom(r.Context())
	var in BookingInput
	if err := utilities.DecodeJSON(r, &in); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	b, err := h.svc.Create(r.Context(), userID, in)
	if err != nil {
		var verr *user.ValidationError
		switch {
		case errors.As(err, &verr):
			utilities.WriteJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid input", "fields": verr.Fields})
		case errors.Is(err, ErrProviderNotFound):
			utilities.WriteError(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Errorw("create booking failed", "user_id", userID, "err", err)
			utilities.WriteError(w, http.StatusInternalServerError, "could not create booking")
		}
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := oidc.UserIDFrom(r.Context())
	limit, offset := utilities.Page(r, 20, 100)
	list, err := h.svc.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Errorw("list bookings failed", "user_id", userID, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "could not load bookings")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, list)
}
