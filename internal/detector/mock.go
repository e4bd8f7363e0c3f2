package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []Hand
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// The presets below are right hands in a 640x480 frame with the wrist at
// (300, 400). Palm joints are shared; only the digits differ per pose.

func presetHand(thumb, index, middle, ring, pinky [4]Point) Hand {
	points := make([]Point, 0, NumLandmarks)
	points = append(points, Point{X: 300, Y: 400})
	for _, finger := range [][4]Point{thumb, index, middle, ring, pinky} {
		points = append(points, finger[:]...)
	}
	return Hand{Points: points, Handedness: "Right", Score: 0.95}
}

var (
	thumbTucked = [4]Point{{260, 370}, {250, 355}, {265, 345}, {280, 360}}
	indexCurled = [4]Point{{270, 300}, {265, 270}, {275, 295}, {280, 310}}
	indexUp     = [4]Point{{270, 300}, {268, 250}, {266, 215}, {265, 185}}
	middleCurl  = [4]Point{{300, 295}, {300, 265}, {298, 290}, {300, 305}}
	ringCurled  = [4]Point{{330, 300}, {335, 270}, {332, 292}, {328, 310}}
	pinkyCurled = [4]Point{{355, 315}, {360, 290}, {356, 305}, {350, 320}}
)

// HelloHand returns an open palm: every fingertip above its middle joint.
func HelloHand() Hand {
	return presetHand(
		[4]Point{{260, 370}, {230, 340}, {210, 310}, {195, 285}},
		[4]Point{{270, 300}, {265, 250}, {262, 215}, {260, 185}},
		[4]Point{{300, 295}, {300, 240}, {300, 200}, {300, 170}},
		[4]Point{{330, 300}, {335, 250}, {338, 215}, {340, 190}},
		[4]Point{{355, 315}, {365, 275}, {370, 250}, {375, 230}},
	)
}

// ThanksHand returns a curled hand with the thumb tip resting on the middle fingertip.
func ThanksHand() Hand {
	return presetHand(
		[4]Point{{260, 370}, {240, 350}, {250, 335}, {270, 320}},
		indexCurled,
		[4]Point{{300, 295}, {300, 265}, {290, 290}, {270, 320}},
		[4]Point{{330, 300}, {335, 270}, {330, 295}, {325, 310}},
		pinkyCurled,
	)
}

// YesHand returns an OK sign: thumb and index tips touching, other fingers curled.
func YesHand() Hand {
	return presetHand(
		[4]Point{{260, 370}, {240, 350}, {240, 330}, {250, 315}},
		[4]Point{{270, 300}, {250, 280}, {245, 300}, {250, 315}},
		[4]Point{{300, 295}, {300, 265}, {300, 290}, {305, 310}},
		ringCurled,
		pinkyCurled,
	)
}

// NoHand returns a pointing hand: index extended, everything else closed.
func NoHand() Hand {
	return presetHand(thumbTucked, indexUp, middleCurl, ringCurled, pinkyCurled)
}

// HelpHand returns thumb and pinky spread out with the other fingers closed.
func HelpHand() Hand {
	return presetHand(
		[4]Point{{260, 370}, {240, 355}, {220, 342}, {200, 330}},
		indexCurled,
		middleCurl,
		ringCurled,
		[4]Point{{355, 315}, {375, 290}, {400, 262}, {420, 240}},
	)
}

// FistHand returns a closed fist that matches no gesture.
func FistHand() Hand {
	return presetHand(thumbTucked, indexCurled, middleCurl, ringCurled, pinkyCurled)
}
