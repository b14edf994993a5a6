package search

import (
	"net/http"

	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

type Handler struct {
	items []Suggestion
}

// NewHandler serves suggestions from items, or the built-in catalogue when nil.
func NewHandler(items []Suggestion) *Handler {
	if items == nil {
		items = Catalogue()
	}
	return &Handler{items: items}
}

// Suggestions serves ?q=&limit= (limit capped at 50).
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	limit := utilities.QueryInt(r, "limit", DefaultLimit)
	if limit > 50 {
		limit = 50
	}
	q := r.URL.Query().Get("q")
	utilities.WriteJSON(w, http.StatusOK, map[string]any{
		"query":       q,
		"suggestions": Suggestions(h.items, q, limit),
	})
}
