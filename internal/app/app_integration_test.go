package app

import (
	"testing"
	"time"

	"github.com/ayusman/signspeak/internal/capture"
	"github.com/ayusman/signspeak/internal/detector"
	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/speech"
)

func TestApp_Pipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	frames := capture.BlankFrames(3)
	defer func() {
		for _, f := range frames {
			f.Close()
		}
	}()
	cam := capture.NewMockCamera(frames, true)

	mock := detector.NewMockDetector()
	mock.SetHands([]detector.Hand{detector.YesHand()})

	ann := speech.NewAnnouncer(gesture.DefaultLexicon(), nopSpeaker{}, speech.Options{})
	defer ann.Close()

	a := newTestApp(t, Config{
		Camera:    cam,
		Detector:  mock,
		Announcer: ann,
		FPS:       30,
	})

	results := make(chan gesture.Result, 64)
	a.OnResult(func(r gesture.Result) {
		select {
		case results <- r:
		default:
		}
	})

	active, err := a.ToggleCamera()
	if err != nil {
		t.Fatalf("ToggleCamera() error = %v", err)
	}
	if !active || !a.Running() || !cam.IsOpen() {
		t.Fatal("expected pipeline running with camera open")
	}

	select {
	case r := <-results:
		if r.Label != gesture.Yes || r.Word != "نعم" {
			t.Errorf("unexpected result %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no result from pipeline")
	}

	if s := ann.State(); s.LastSpoken != "نعم" {
		t.Errorf("announcer LastSpoken = %q", s.LastSpoken)
	}
	if _, seq, ok := a.LatestJPEG(); !ok || seq == 0 {
		t.Error("expected a streamed frame")
	}

	active, err = a.ToggleCamera()
	if err != nil {
		t.Fatalf("ToggleCamera() error = %v", err)
	}
	if active || a.Running() || cam.IsOpen() {
		t.Fatal("expected pipeline stopped with camera closed")
	}

	reads := cam.Reads()
	time.Sleep(100 * time.Millisecond)
	if cam.Reads() != reads {
		t.Error("camera read after Stop")
	}

	// Start is idempotent.
	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	a.Stop()
	a.Stop()
}
