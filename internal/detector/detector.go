package detector

import "gocv.io/x/gocv"

// Detector finds hands in camera frames.
type Detector interface {
	// Detect returns the hands in frame with landmarks in the frame's pixel
	// coordinates, or an empty slice when there are none.
	Detect(frame *gocv.Mat) ([]Hand, error)

	Close() error
}

// Config tunes hand detection.
type Config struct {
	// MaxHands caps how many hands are returned. Only the first is
	// classified, so the default is 1.
	MaxHands int
	// MinConfidence drops hands scored below it (0.0-1.0).
	MinConfidence float64
	// MinTrackingConfidence is passed to the landmark tracker (0.0-1.0).
	MinTrackingConfidence float64

	// Script is the landmark service script. Empty searches the usual places.
	Script string
	// Python is the interpreter for Script. Empty prefers a venv, then python3.
	Python string
}

func DefaultConfig() Config {
	return Config{
		MaxHands:              1,
		MinConfidence:         0.5,
		MinTrackingConfidence: 0.5,
	}
}
