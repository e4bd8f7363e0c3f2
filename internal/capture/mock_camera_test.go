package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func closeAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}

func TestMockCamera_Playback(t *testing.T) {
	frames := BlankFrames(2)
	defer closeAll(frames)

	cam := NewMockCamera(frames, false)

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Fatalf("ReadFrame() before Open = %v, want ErrCameraNotOpen", err)
	}

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		if f.Cols() != DefaultWidth || f.Rows() != DefaultHeight {
			t.Errorf("frame size = %dx%d", f.Cols(), f.Rows())
		}
		f.Close()
	}

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrNoMoreFrames) {
		t.Errorf("expected ErrNoMoreFrames after all frames consumed, got %v", err)
	}
	if cam.Reads() != 2 {
		t.Errorf("Reads() = %d, want 2", cam.Reads())
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frames := BlankFrames(1)
	defer closeAll(frames)

	cam := NewMockCamera(frames, true)
	cam.Open()
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_NoFrames(t *testing.T) {
	cam := NewMockCamera(nil, true)
	cam.Open()

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("ReadFrame() = %v, want ErrNoFrame", err)
	}
}

func TestMockCamera_ResetAndFPS(t *testing.T) {
	frames := BlankFrames(1)
	defer closeAll(frames)

	cam := NewMockCamera(frames, false)
	cam.Open()

	f, _ := cam.ReadFrame()
	f.Close()
	cam.Reset()
	f, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() after Reset error = %v", err)
	}
	f.Close()

	if cam.FPS() != DefaultFPS {
		t.Errorf("FPS() = %d, want %d", cam.FPS(), DefaultFPS)
	}
	cam.SetFPS(30)
	cam.SetFPS(0)
	if cam.FPS() != 30 {
		t.Errorf("FPS() = %d, want 30", cam.FPS())
	}
}
