package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeFrames struct {
	mu   sync.Mutex
	data []byte
	seq  uint64
}

func (f *fakeFrames) LatestJPEG() ([]byte, uint64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data == nil {
		return nil, f.seq, false
	}
	return f.data, f.seq, true
}

func TestStreamHandler(t *testing.T) {
	src := &fakeFrames{data: []byte("JPEGDATA"), seq: 1}
	handler := NewStreamHandler(src, 100)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
		t.Errorf("Content-Type = %q", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "Content-Type: image/jpeg") || !strings.Contains(body, "JPEGDATA") {
		t.Errorf("frame missing from body %q", body)
	}
	// The same sequence number is never sent twice.
	if n := strings.Count(body, "--frame"); n != 1 {
		t.Errorf("sent %d frames, want 1", n)
	}
}

func TestStreamHandler_NoFrames(t *testing.T) {
	handler := NewStreamHandler(&fakeFrames{}, 100)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
}

func TestStreamHandler_MethodNotAllowed(t *testing.T) {
	handler := NewStreamHandler(&fakeFrames{}, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/stream", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
