package api

import (
	"net/http"

	"github.com/ayusman/signspeak/internal/gesture"
)

type lexiconResponse struct {
	Order []gesture.Label          `json:"order"`
	Words map[gesture.Label]string `json:"words"`
}

// LexiconHandler serves GET /api/lexicon: the words and the rule order.
type LexiconHandler struct {
	translator *gesture.Translator
}

// NewLexiconHandler creates a LexiconHandler.
func NewLexiconHandler(t *gesture.Translator) *LexiconHandler {
	return &LexiconHandler{translator: t}
}

// ServeHTTP implements the http.Handler interface.
func (h *LexiconHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, lexiconResponse{
		Order: h.translator.Classifier().Order(),
		Words: h.translator.Lexicon().Words(),
	})
}
