package gesture

import (
	"errors"
	"fmt"

	"github.com/ayusman/signspeak/internal/detector"
)

// Thresholds holds the empirical ratios used by the gesture rules.
type Thresholds struct {
	// TouchRatio: two tips touch when their distance is below this fraction
	// of the thumb tip's distance to the target finger's base.
	TouchRatio float64
	// CurledRatio: in the Yes rule a finger counts as extended when its tip is
	// farther from the wrist than this multiple of its base's distance.
	CurledRatio float64
	// ExtendedRatio is the reach multiple for an extended finger in No and Help.
	ExtendedRatio float64
	// ClosedRatio is the reach multiple below which a finger is closed.
	ClosedRatio float64
	// OpenFingers is how many of the four non-thumb fingers must point up for Hello.
	OpenFingers int
}

// DefaultThresholds returns the tuned ratios.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TouchRatio:    0.3,
		CurledRatio:   1.2,
		ExtendedRatio: 1.3,
		ClosedRatio:   1.1,
		OpenFingers:   4,
	}
}

// Validate checks that every ratio is positive and OpenFingers is in 1..4.
func (t Thresholds) Validate() error {
	var errs []error
	ratios := []struct {
		name  string
		value float64
	}{
		{"touch ratio", t.TouchRatio},
		{"curled ratio", t.CurledRatio},
		{"extended ratio", t.ExtendedRatio},
		{"closed ratio", t.ClosedRatio},
	}
	for _, r := range ratios {
		if !(r.value > 0) {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", r.name, r.value))
		}
	}
	if t.OpenFingers < 1 || t.OpenFingers > 4 {
		errs = append(errs, fmt.Errorf("open fingers must be between 1 and 4, got %d", t.OpenFingers))
	}
	return errors.Join(errs...)
}

// rule pairs a label with the predicate that selects it.
type rule struct {
	label Label
	match func(h detector.Hand, t Thresholds) bool
}

// rules are evaluated in order and the first match wins. The checks overlap,
// so reordering changes results.
var rules = []rule{
	{Hello, isOpenHand},
	{Thanks, isThumbOnMiddle},
	{Yes, isOKSign},
	{No, isIndexAlone},
	{Help, isThumbAndPinky},
}

// Classifier maps a hand to a gesture label. It holds no per-call state and
// is safe for concurrent use.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier creates a Classifier with the given thresholds.
func NewClassifier(t Thresholds) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	return &Classifier{thresholds: t}, nil
}

// Thresholds returns the ratios the classifier was built with.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Order returns the labels in the order the rules are tried.
func (c *Classifier) Order() []Label {
	order := make([]Label, len(rules))
	for i, r := range rules {
		order[i] = r.label
	}
	return order
}

// Classify returns the first matching gesture for the hand. Hands without
// exactly 21 finite landmarks never match.
func (c *Classifier) Classify(hand detector.Hand) (Label, bool) {
	if !hand.Valid() {
		return None, false
	}
	for _, r := range rules {
		if r.match(hand, c.thresholds) {
			return r.label, true
		}
	}
	return None, false
}

// isOpenHand counts non-thumb fingers whose tip sits above the middle joint.
// Image y grows downward.
func isOpenHand(h detector.Hand, t Thresholds) bool {
	extended := 0
	for _, f := range []detector.Finger{detector.Index, detector.Middle, detector.Ring, detector.Pinky} {
		if h.Tip(f).Y < h.Joint(f).Y {
			extended++
		}
	}
	return extended >= t.OpenFingers
}

func isThumbOnMiddle(h detector.Hand, t Thresholds) bool {
	return touches(h, detector.Middle, t)
}

func isOKSign(h detector.Hand, t Thresholds) bool {
	if !touches(h, detector.Index, t) {
		return false
	}
	for _, f := range []detector.Finger{detector.Middle, detector.Ring, detector.Pinky} {
		if reaches(h, f, t.CurledRatio) {
			return false
		}
	}
	return true
}

func isIndexAlone(h detector.Hand, t Thresholds) bool {
	return reaches(h, detector.Index, t.ExtendedRatio) &&
		closed(h, t, detector.Thumb, detector.Middle, detector.Ring, detector.Pinky)
}

func isThumbAndPinky(h detector.Hand, t Thresholds) bool {
	return reaches(h, detector.Thumb, t.ExtendedRatio) &&
		reaches(h, detector.Pinky, t.ExtendedRatio) &&
		closed(h, t, detector.Index, detector.Middle, detector.Ring)
}

// touches reports whether the thumb tip is on the fingertip of f, relative to
// the thumb tip's distance from the base of f.
func touches(h detector.Hand, f detector.Finger, t Thresholds) bool {
	thumb := h.Tip(detector.Thumb)
	return detector.Distance(thumb, h.Tip(f)) < t.TouchRatio*detector.Distance(thumb, h.Base(f))
}

// reaches reports whether the tip of f is farther from the wrist than ratio
// times the base of f.
func reaches(h detector.Hand, f detector.Finger, ratio float64) bool {
	w := h.Wrist()
	return detector.Distance(h.Tip(f), w) > ratio*detector.Distance(h.Base(f), w)
}

func closed(h detector.Hand, t Thresholds, fingers ...detector.Finger) bool {
	w := h.Wrist()
	for _, f := range fingers {
		if !(detector.Distance(h.Tip(f), w) < t.ClosedRatio*detector.Distance(h.Base(f), w)) {
			return false
		}
	}
	return true
}
