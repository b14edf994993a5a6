package mudra

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-puja/internal/oidc"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

// Handler exposes the rewards endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Activities lists the payout table.
func (h *Handler) Activities(w http.ResponseWriter, r *http.Request) {
	utilities.WriteJSON(w, http.StatusOK, Rules())
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, _ := oidc.UserIDFrom(r.Context())
	sum, err := h.svc.Summary(r.Context(), userID)
	if err != nil {
		h.logger.Errorw("mudra summary failed", "user_id", userID, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "could not load mudras")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, sum)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, _ := oidc.UserIDFrom(r.Context())
	limit, offset := utilities.Page(r, 20, 100)
	entries, err := h.svc.History(r.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Errorw("mudra history failed", "user_id", userID, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "could not load mudra history")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries, "limit": limit, "offset": offset})
}

type claimRequest struct {
	Activity string `json:"activity"`
	Note     string `json:"note"`
}

// Claim lets the app award client-side activities (daily login, darshan view).
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	userID, _ := oidc.UserIDFrom(r.Context())
	var req claimRequest
	if err := utilities.DecodeJSON(r, &req); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	rule, ok := RuleFor(Activity(req.Activity))
	if !ok || !rule.ClientAwardable {
		utilities.WriteError(w, http.StatusBadRequest, "activity cannot be claimed")
		return
	}
	entry, err := h.svc.Award(r.Context(), userID, rule.Activity, req.Note)
	if err != nil {
		if errors.Is(err, ErrAlreadyAwarded) {
			utilities.WriteError(w, http.StatusConflict, "already claimed today")
			return
		}
		h.logger.Errorw("mudra claim failed", "user_id", userID, "activity", req.Activity, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "could not award mudras")
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, entry)
}
