package server

import (
	"fmt"
	"net/http"
	"time"
)

// FrameSource provides the latest camera frame as JPEG with a sequence
// number that changes on every new frame.
type FrameSource interface {
	LatestJPEG() (data []byte, seq uint64, ok bool)
}

// StreamHandler serves MJPEG frames from the camera pipeline.
type StreamHandler struct {
	source   FrameSource
	interval time.Duration
}

// NewStreamHandler creates a StreamHandler that polls source fps times a second.
func NewStreamHandler(source FrameSource, fps int) *StreamHandler {
	if fps <= 0 {
		fps = 15
	}
	return &StreamHandler{source: source, interval: time.Second / time.Duration(fps)}
}

// ServeHTTP streams MJPEG frames until the client goes away. A frame is
// written only when it is newer than the last one sent.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var sent uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		buf, seq, ok := h.source.LatestJPEG()
		if !ok || seq == sent {
			continue
		}
		sent = seq

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
		if _, err := w.Write(buf); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
