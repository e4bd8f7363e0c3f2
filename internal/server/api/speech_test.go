package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/speech"
)

func TestLexiconHandler(t *testing.T) {
	handler := NewLexiconHandler(newTestTranslator(t))

	req := httptest.NewRequest(http.MethodGet, "/api/lexicon", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var resp lexiconResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	want := []gesture.Label{gesture.Hello, gesture.Thanks, gesture.Yes, gesture.No, gesture.Help}
	if len(resp.Order) != len(want) {
		t.Fatalf("order = %v, want %v", resp.Order, want)
	}
	for i := range want {
		if resp.Order[i] != want[i] {
			t.Errorf("order[%d] = %v, want %v", i, resp.Order[i], want[i])
		}
	}
	if resp.Words[gesture.No] != "لا" {
		t.Errorf("words[no] = %q", resp.Words[gesture.No])
	}
}

func TestSpeechHandler(t *testing.T) {
	ann := newTestAnnouncer(t)
	handler := NewSpeechHandler(ann)

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("repeat with nothing to say", func(t *testing.T) {
		if rec := do(http.MethodPost, "/api/speech/repeat"); rec.Code != http.StatusConflict {
			t.Errorf("expected status %d, got %d", http.StatusConflict, rec.Code)
		}
	})

	ann.Update(gesture.Thanks)

	t.Run("state", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/speech")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		var s speech.State
		if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if s.Word != "شكراً" || !s.Visible || s.Label != gesture.Thanks {
			t.Errorf("unexpected state %+v", s)
		}
	})

	t.Run("repeat", func(t *testing.T) {
		if rec := do(http.MethodPost, "/api/speech/repeat"); rec.Code != http.StatusNoContent {
			t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
		}
	})

	t.Run("hidden state", func(t *testing.T) {
		ann.Update(gesture.None)
		rec := do(http.MethodGet, "/api/speech")
		var s speech.State
		if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if s.Visible || s.Label != gesture.None {
			t.Errorf("unexpected hidden state %+v", s)
		}
		if rec := do(http.MethodPost, "/api/speech/repeat"); rec.Code != http.StatusNoContent {
			t.Errorf("repeat while hidden: got %d", rec.Code)
		}
	})

	t.Run("wrong methods and paths", func(t *testing.T) {
		if rec := do(http.MethodPost, "/api/speech"); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST state: got %d", rec.Code)
		}
		if rec := do(http.MethodGet, "/api/speech/repeat"); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("GET repeat: got %d", rec.Code)
		}
		if rec := do(http.MethodGet, "/api/speech/voices"); rec.Code != http.StatusNotFound {
			t.Errorf("unknown path: got %d", rec.Code)
		}
	})
}

type fakeCamera struct {
	active bool
	err    error
}

func (c *fakeCamera) Running() bool { return c.active }

func (c *fakeCamera) ToggleCamera() (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	c.active = !c.active
	return c.active, nil
}

func TestCameraHandler(t *testing.T) {
	cam := &fakeCamera{}
	handler := NewCameraHandler(cam)

	do := func(h http.Handler, method string) (*httptest.ResponseRecorder, cameraResponse) {
		req := httptest.NewRequest(method, "/api/camera", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		var resp cameraResponse
		if rec.Code == http.StatusOK {
			json.NewDecoder(rec.Body).Decode(&resp)
		}
		return rec, resp
	}

	if _, resp := do(handler, http.MethodGet); resp.Active {
		t.Error("expected camera inactive")
	}
	if rec, resp := do(handler, http.MethodPost); rec.Code != http.StatusOK || !resp.Active {
		t.Errorf("toggle on: status %d, active %v", rec.Code, resp.Active)
	}
	if _, resp := do(handler, http.MethodGet); !resp.Active {
		t.Error("expected camera active")
	}
	if _, resp := do(handler, http.MethodPost); resp.Active {
		t.Error("expected camera toggled off")
	}

	cam.err = errors.New("no device")
	if rec, _ := do(handler, http.MethodPost); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if rec, _ := do(handler, http.MethodDelete); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}

	if rec, _ := do(NewCameraHandler(nil), http.MethodGet); rec.Code != http.StatusNotFound {
		t.Errorf("nil controller: expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}
