package subscriber

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-puja/internal/oidc"
	"github.com/ovaphlow/pitchfork/service-puja/internal/subscriber/entity"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	userID, _ := oidc.UserIDFrom(r.Context())
	view, err := h.svc.Today(r.Context(), userID)
	if err != nil {
		h.logger.Errorw("reminder today failed", "user_id", userID, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "could not load reminders")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	userID, _ := oidc.UserIDFrom(r.Context())
	view, err := h.svc.AcknowledgeToday(r.Context(), userID)
	if err != nil {
		h.logger.Errorw("mark reminder seen failed", "user_id", userID, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "could not update reminder")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, view)
}

type subscriptionRequest struct {
	Enabled *bool  `json:"enabled"`
	Channel string `json:"channel"`
}

// UpdateSubscription turns reminders on or off.
func (h *Handler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	userID, _ := oidc.UserIDFrom(r.Context())
	var req subscriptionRequest
	if err := utilities.DecodeJSON(r, &req); err != nil || req.Enabled == nil {
		utilities.WriteError(w, http.StatusBadRequest, "enabled is required")
		return
	}
	var sub *entity.Subscriber
	var err error
	if *req.Enabled {
		sub, err = h.svc.Subscribe(r.Context(), userID, req.Channel)
	} else {
		sub, err = h.svc.Unsubscribe(r.Context(), userID)
	}
	if err != nil {
		if errors.Is(err, ErrInvalidChannel) {
			utilities.WriteError(w, http.StatusBadRequest, "channel must be push, sms or whatsapp")
			return
		}
		h.logger.Errorw("update subscription failed", "user_id", userID, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "could not update subscription")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, sub)
}
