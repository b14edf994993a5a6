package user

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-puja/internal/oidc"
	"github.com/ovaphlow/pitchfork/service-puja/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

// Sessions verifies signup tickets, issues and revokes tokens; satisfied by *oidc.OIDCService.
type Sessions interface {
	VerifySignupTicket(ticket string) (string, error)
	IssueTokens(ctx context.Context, userID int64, clientID string) (*oidc.TokenPair, error)
	RevokeAll(ctx context.Context, userID int64) error
}

// Referrals applies a referral code entered on the signup form.
type Referrals interface {
	Process(ctx context.Context, refereeID int64, code string) error
}

// Handler exposes HTTP endpoints for signup and profile.
type Handler struct {
	svc       *UserService
	sessions  Sessions
	referrals Referrals
	logger    *zap.SugaredLogger
}

func NewHandler(svc *UserService, sessions Sessions, referrals Referrals, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, sessions: sessions, referrals: referrals, logger: logger}
}

// SignupRequest request body for signup endpoint.
type SignupRequest struct {
	SignupInput
	Ticket       string `json:"signup_ticket"`
	ReferralCode string `json:"referral_code"`
	ClientID     string `json:"client_id"`
}

// SignupResponse carries the new profile and session tokens.
type SignupResponse struct {
	Profile any             `json:"profile"`
	Tokens  *oidc.TokenPair `json:"tokens"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := utilities.DecodeJSON(r, &req); err != nil {
		h.logger.Debugw("invalid signup payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	phone, err := h.sessions.VerifySignupTicket(req.Ticket)
	if err != nil {
		utilities.WriteError(w, http.StatusUnauthorized, "phone not verified")
		return
	}
	// the verified phone always wins over the form field
	req.Phone = phone

	u, err := h.svc.Signup(r.Context(), req.SignupInput)
	if err != nil {
		h.writeServiceError(w, "signup failed", err)
		return
	}

	if req.ReferralCode != "" && h.referrals != nil {
		// an invalid code does not undo the signup
		if err := h.referrals.Process(r.Context(), u.ID, req.ReferralCode); err != nil {
			h.logger.Infow("referral not applied", "user_id", u.ID, "err", err)
		}
	}

	tokens, err := h.sessions.IssueTokens(r.Context(), u.ID, req.ClientID)
	if err != nil {
		h.logger.Errorw("issue tokens after signup failed", "user_id", u.ID, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "signup failed")
		return
	}
	profile, err := h.svc.GetProfile(r.Context(), u.ID)
	if err != nil {
		h.logger.Warnw("load profile after signup failed", "user_id", u.ID, "err", err)
	}
	utilities.WriteJSON(w, http.StatusCreated, SignupResponse{Profile: profile, Tokens: tokens})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := oidc.UserIDFrom(r.Context())
	p, err := h.svc.GetProfile(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, "could not load profile", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := oidc.UserIDFrom(r.Context())
	var req ProfileUpdate
	if err := utilities.DecodeJSON(r, &req); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	p, err := h.svc.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		h.writeServiceError(w, "could not update profile", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, p)
}

// Deactivate disables the user named by {id} and revokes their refresh sessions.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		utilities.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.svc.Deactivate(r.Context(), id); err != nil {
		h.writeServiceError(w, "could not deactivate user", err)
		return
	}
	if err := h.sessions.RevokeAll(r.Context(), id); err != nil {
		h.logger.Warnw("revoke sessions after deactivation failed", "user_id", id, "err", err)
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "status": entity.StatusDisabled})
}

// Rashis lists the accepted rashi values for the profile picker.
func (h *Handler) Rashis(w http.ResponseWriter, r *http.Request) {
	utilities.WriteJSON(w, http.StatusOK, Rashis)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, msg string, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		utilities.WriteJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid input", "fields": verr.Fields})
	case errors.Is(err, ErrAlreadyExists):
		utilities.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrUserNotFound):
		utilities.WriteError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, ErrDisabled):
		utilities.WriteError(w, http.StatusForbidden, "account disabled")
	default:
		h.logger.Errorw(msg, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, msg)
	}
}
