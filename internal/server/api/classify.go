package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/signspeak/internal/detector"
	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/speech"
)

// maxBodyBytes bounds landmark request bodies.
const maxBodyBytes = 64 << 10

// ClassifyRequest carries one frame of landmarks from a client.
type ClassifyRequest struct {
	Landmarks json.RawMessage `json:"landmarks"`
	// Announce passes the label to the announcer, showing and speaking it.
	Announce bool `json:"announce"`
}

// Classify translates the request's landmarks. Landmarks that do not decode
// produce a result with Detected false rather than an error.
func Classify(t *gesture.Translator, a *speech.Announcer, req ClassifyRequest) gesture.Result {
	hand, err := detector.DecodeHand(req.Landmarks)
	if err != nil {
		hand = detector.Hand{}
	}

	res := t.Translate(hand)
	if req.Announce && a != nil {
		a.Update(res.Label)
	}
	return res
}

// ClassifyHandler serves POST /api/classify.
type ClassifyHandler struct {
	translator *gesture.Translator
	announcer  *speech.Announcer
}

// NewClassifyHandler creates a ClassifyHandler. The announcer may be nil.
func NewClassifyHandler(t *gesture.Translator, a *speech.Announcer) *ClassifyHandler {
	return &ClassifyHandler{translator: t, announcer: a}
}

// ServeHTTP implements the http.Handler interface.
func (h *ClassifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ClassifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, Classify(h.translator, h.announcer, req))
}
