package referral

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

// Verify checks a code typed on the signup form.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Verify(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.Errorw("verify referral code failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "could not verify code")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, res)
}

type applyRequest struct {
	Code string `json:"code"`
}

// Apply redeems a code for the signed-in user after signup.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	userID, _ := oidc.UserIDFrom(r.Context())
	var req applyRequest
	if err := utilities.DecodeJSON(r, &req); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	ref, err := h.svc.Apply(r.Context(), userID, req.Code)
	switch {
	case err == nil:
		utilities.WriteJSON(w, http.StatusCreated, ref)
	case errors.Is(err, ErrInvalidCode):
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSelfReferral):
		utilities.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrAlreadyReferred):
		utilities.WriteError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Errorw("apply referral failed", "user_id", userID, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "could not apply referral")
	}
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, _ := oidc.UserIDFrom(r.Context())
	st, err := h.svc.Stats(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			utilities.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Errorw("referral stats failed", "user_id", userID, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "could not load referrals")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, st)
}
