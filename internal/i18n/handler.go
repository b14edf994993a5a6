package i18n

import (
	"net/http"

	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

// Languages lists the available dictionaries.
func (h *Handler) Languages(w http.ResponseWriter, r *http.Request) {
	utilities.WriteJSON(w, http.StatusOK, map[string]any{"default": DefaultLang, "languages": Languages()})
}

// Dictionary serves the full dictionary for {lang}.
func (h *Handler) Dictionary(w http.ResponseWriter, r *http.Request) {
	lang := r.PathValue("lang")
	if !Supported(lang) {
		utilities.WriteError(w, http.StatusNotFound, "unsupported language")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{"lang": normalize(lang), "messages": Dictionary(lang)})
}
