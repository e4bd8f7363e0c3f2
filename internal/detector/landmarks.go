// Package detector provides hand detection interfaces and landmark types for gesture recognition.
package detector

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Finger identifies one of the five digits of a hand.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

var fingerNames = [...]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < Thumb || f > Pinky {
		return fmt.Sprintf("finger(%d)", int(f))
	}
	return fingerNames[f]
}

// Base returns the index of the first joint after the wrist for the finger.
func (f Finger) Base() int { return 1 + int(f)*4 }

// Joint returns the index of the second joint (PIP, or MCP for the thumb).
func (f Finger) Joint() int { return f.Base() + 1 }

// Tip returns the index of the fingertip.
func (f Finger) Tip() int { return f.Base() + 3 }

// Point is a 2D landmark in image-pixel coordinates. Y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UnmarshalJSON accepts either {"x":..,"y":..} or a handpose-style
// [x, y] / [x, y, z] array. A trailing z is ignored.
func (p *Point) UnmarshalJSON(data []byte) error {
	// Pointers, because a null element would otherwise decode as 0.
	var arr []*float64
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) < 2 {
			return fmt.Errorf("point needs at least 2 coordinates, got %d", len(arr))
		}
		if arr[0] == nil || arr[1] == nil {
			return errors.New("point coordinates must not be null")
		}
		p.X, p.Y = *arr[0], *arr[1]
		return nil
	}

	var obj struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode point: %w", err)
	}
	if obj.X == nil || obj.Y == nil {
		return errors.New("point requires x and y")
	}
	p.X, p.Y = *obj.X, *obj.Y
	return nil
}

// Finite reports whether both coordinates are real numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Distance calculates the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Hand is one detected hand: landmarks ordered by anatomical index.
type Hand struct {
	Points     []Point `json:"points"`
	Handedness string  `json:"handedness,omitempty"` // "Left" or "Right"
	Score      float64 `json:"score,omitempty"`
}

// Valid reports whether the hand has exactly NumLandmarks finite points.
func (h Hand) Valid() bool {
	if len(h.Points) != NumLandmarks {
		return false
	}
	for _, p := range h.Points {
		if !p.Finite() {
			return false
		}
	}
	return true
}

// Tip returns the fingertip landmark. The hand must be valid.
func (h Hand) Tip(f Finger) Point { return h.Points[f.Tip()] }

// Base returns the base landmark of the finger. The hand must be valid.
func (h Hand) Base(f Finger) Point { return h.Points[f.Base()] }

// Joint returns the second landmark of the finger. The hand must be valid.
func (h Hand) Joint(f Finger) Point { return h.Points[f.Joint()] }

// Wrist returns the wrist landmark. The hand must be valid.
func (h Hand) Wrist() Point { return h.Points[Wrist] }

// DecodeHand parses a landmark list from JSON. Both point encodings accepted
// by Point are allowed. The result is not validated.
func DecodeHand(data []byte) (Hand, error) {
	var points []Point
	if err := json.Unmarshal(data, &points); err != nil {
		return Hand{}, fmt.Errorf("decode landmarks: %w", err)
	}
	return Hand{Points: points}, nil
}
