package otp

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"

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

type sendRequest struct {
	Phone   string `json:"phone"`
	Purpose string `json:"purpose"`
}

type verifyRequest struct {
	Phone    string `json:"phone"`
	Code     string `json:"code"`
	ClientID string `json:"client_id"`
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := utilities.DecodeJSON(r, &req); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	res, err := h.svc.Send(r.Context(), req.Phone, req.Purpose)
	if err != nil {
		h.writeError(w, "could not send code", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := utilities.DecodeJSON(r, &req); err != nil || req.Code == "" {
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	res, err := h.svc.Verify(r.Context(), req.Phone, req.Code, req.ClientID)
	if err != nil {
		h.writeError(w, "could not verify code", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) writeError(w http.ResponseWriter, msg string, err error) {
	var retry *RetryError
	var invalid *InvalidCodeError
	switch {
	case errors.As(err, &retry):
		secs := int64(math.Ceil(retry.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
		utilities.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":               retry.Err.Error(),
			"retry_after_seconds": secs,
		})
	case errors.As(err, &invalid):
		utilities.WriteJSON(w, http.StatusUnauthorized, map[string]any{
			"error":              "invalid code",
			"attempts_remaining": invalid.Remaining,
		})
	case errors.Is(err, ErrInvalidPhone):
		utilities.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid input",
			"fields": map[string]string{"phone": "must be a 10 digit mobile number"},
		})
	case errors.Is(err, ErrInvalidPurpose):
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotRegistered):
		utilities.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyRegistered):
		utilities.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrNoActiveCode), errors.Is(err, ErrCodeExpired):
		utilities.WriteError(w, http.StatusGone, err.Error())
	case errors.Is(err, user.ErrDisabled):
		utilities.WriteError(w, http.StatusForbidden, "account disabled")
	default:
		h.logger.Errorw(msg, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, msg)
	}
}
