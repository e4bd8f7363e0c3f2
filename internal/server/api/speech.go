package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/signspeak/internal/speech"
)

// SpeechHandler serves the announcer state and the repeat action.
type SpeechHandler struct {
	announcer *speech.Announcer
}

// NewSpeechHandler creates a SpeechHandler.
func NewSpeechHandler(a *speech.Announcer) *SpeechHandler {
	return &SpeechHandler{announcer: a}
}

// ServeHTTP routes /api/speech and /api/speech/repeat.
func (h *SpeechHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/speech")
	path = strings.Trim(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.announcer.State())
	case "repeat":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.repeat(w)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *SpeechHandler) repeat(w http.ResponseWriter) {
	err := h.announcer.Repeat()
	if errors.Is(err, speech.ErrNothingToSay) {
		writeError(w, http.StatusConflict, "Nothing to say")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to speak")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
