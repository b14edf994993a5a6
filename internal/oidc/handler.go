package oidc

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

type Handler struct {
	svc    *OIDCService
	logger *zap.SugaredLogger
}

func NewHandler(svc *OIDCService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Discovery(w http.ResponseWriter, r *http.Request) {
	issuer := h.svc.Issuer()
	utilities.WriteJSON(w, http.StatusOK, map[string]any{
		"issuer":                                issuer,
		"jwks_uri":                              issuer + "/.well-known/jwks.json",
		"token_endpoint":                        issuer + "/auth/token/refresh",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (h *Handler) JWKS(w http.ResponseWriter, r *http.Request) {
	utilities.WriteJSON(w, http.StatusOK, h.svc.JWKS())
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a refresh token and returns a new pair.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := utilities.DecodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		utilities.WriteError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	pair, err := h.svc.Rotate(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefresh) {
			utilities.WriteError(w, http.StatusUnauthorized, "invalid_grant")
			return
		}
		h.logger.Errorw("refresh rotation failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "server_error")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, pair)
}

// Logout revokes the given refresh token. Like RFC 7009 it answers 200
// even when the token is unknown. With "all": true every session of the
// authenticated caller is revoked.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
		All          bool   `json:"all"`
	}
	if err := utilities.DecodeJSON(r, &req); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.All {
		userID, ok := UserIDFrom(r.Context())
		if !ok {
			utilities.WriteError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		if err := h.svc.RevokeAll(r.Context(), userID); err != nil {
			h.logger.Warnw("revoke all sessions failed", "user_id", userID, "err", err)
		}
	} else if req.RefreshToken != "" {
		if err := h.svc.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
			h.logger.Warnw("revoke refresh token failed", "err", err)
		}
	}
	w.WriteHeader(http.StatusOK)
}
