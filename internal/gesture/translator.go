package gesture

import (
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/signspeak/internal/detector"
)

// Result is one classified frame.
type Result struct {
	ID        string `json:"id"`
	Label     Label  `json:"label"`
	Word      string `json:"word"`
	Detected  bool   `json:"detected"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// Translator turns hands into display words.
type Translator struct {
	classifier *Classifier
	lexicon    *Lexicon
}

// NewTranslator creates a Translator from a classifier and lexicon.
func NewTranslator(c *Classifier, x *Lexicon) *Translator {
	return &Translator{classifier: c, lexicon: x}
}

// DefaultTranslator uses the default thresholds and the Arabic lexicon.
func DefaultTranslator() *Translator {
	return NewTranslator(&Classifier{thresholds: DefaultThresholds()}, DefaultLexicon())
}

// Classifier returns the underlying classifier.
func (t *Translator) Classifier() *Classifier { return t.classifier }

// Lexicon returns the underlying lexicon.
func (t *Translator) Lexicon() *Lexicon { return t.lexicon }

// Translate classifies the hand and looks up its word.
func (t *Translator) Translate(hand detector.Hand) Result {
	res := Result{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UnixMilli(),
	}
	label, ok := t.classifier.Classify(hand)
	if !ok {
		return res
	}
	res.Label = label
	res.Word, res.Detected = t.lexicon.Lookup(label)
	return res
}
