package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/ayusman/signspeak/internal/speech"
)

// MaxAudioBytes caps a /api/transcribe upload.
const MaxAudioBytes = 10 << 20

type transcribeResponse struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// TranscribeHandler serves POST /api/transcribe. The body is the recorded
// audio as sent by the browser; ?lang= overrides the default language.
type TranscribeHandler struct {
	transcriber speech.Transcriber
	lang        string
}

// NewTranscribeHandler creates a TranscribeHandler. An empty lang means ar-SA.
func NewTranscribeHandler(t speech.Transcriber, lang string) *TranscribeHandler {
	if lang == "" {
		lang = speech.DefaultLang
	}
	return &TranscribeHandler{transcriber: t, lang: lang}
}

// ServeHTTP implements the http.Handler interface.
func (h *TranscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxAudioBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "Audio too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to read audio")
		return
	}
	if len(audio) == 0 {
		writeError(w, http.StatusBadRequest, "No audio")
		return
	}

	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = h.lang
	}

	text, err := h.transcriber.Transcribe(r.Context(), audio, lang)
	if err != nil {
		log.Error("transcribing audio", "bytes", len(audio), "lang", lang, "err", err)
		writeError(w, http.StatusBadGateway, "Transcription failed")
		return
	}
	writeJSON(w, http.StatusOK, transcribeResponse{Text: text, Lang: lang})
}
