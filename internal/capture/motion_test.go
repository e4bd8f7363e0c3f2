package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestNewMotionDetector(t *testing.T) {
	md := NewMotionDetector(1.5)
	defer md.Close()

	if md.Threshold() != 1.5 {
		t.Errorf("Threshold() = %f, want 1.5", md.Threshold())
	}
	if md.primed {
		t.Error("motion detector should not be primed initially")
	}
}

func TestMotionDetector_StillScene(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	frames := BlankFrames(2)
	defer closeAll(frames)

	moved, changed := md.Detect(frames[0])
	if moved || changed != 0 {
		t.Errorf("first frame = (%v, %f), want (false, 0)", moved, changed)
	}

	if moved, changed := md.Detect(frames[1]); moved {
		t.Errorf("identical frames reported motion, changed = %f", changed)
	}
}

func TestMotionDetector_Motion(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	black := gocv.NewMatWithSize(DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	md.Detect(&black)
	moved, changed := md.Detect(&white)
	if !moved {
		t.Errorf("black to white should report motion, changed = %f", changed)
	}
	if changed < 50 {
		t.Errorf("changed = %f, want > 50", changed)
	}
}

func TestMotionDetector_Reset(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	black := gocv.NewMatWithSize(DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	md.Detect(&black)
	md.Reset()

	if moved, _ := md.Detect(&white); moved {
		t.Error("frame after Reset should only set the baseline")
	}
}

func TestMotionDetector_EmptyFrame(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	empty := gocv.NewMat()
	defer empty.Close()

	if moved, changed := md.Detect(&empty); moved || changed != 0 {
		t.Errorf("empty frame = (%v, %f)", moved, changed)
	}
	if moved, _ := md.Detect(nil); moved {
		t.Error("nil frame reported motion")
	}
}
