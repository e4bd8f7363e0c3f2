package gesture

import (
	"errors"
	"fmt"
)

// NoWord is returned by Lookup when there is nothing to display.
const NoWord = ""

// ErrIncompleteLexicon is returned when a lexicon does not cover every label.
var ErrIncompleteLexicon = errors.New("lexicon must define a word for every gesture")

// Lexicon maps gesture labels to display words. It is immutable once built.
type Lexicon struct {
	words map[Label]string
}

// DefaultLexicon returns the Arabic word set.
func DefaultLexicon() *Lexicon {
	return &Lexicon{words: map[Label]string{
		Hello:  "مرحباً",
		Thanks: "شكراً",
		Yes:    "نعم",
		No:     "لا",
		Help:   "مساعدة",
	}}
}

// NewLexicon builds a Lexicon from words, which must contain a non-empty
// entry for each label and nothing else. The map is copied.
func NewLexicon(words map[Label]string) (*Lexicon, error) {
	if len(words) != len(Labels) {
		return nil, fmt.Errorf("%w: got %d entries, want %d", ErrIncompleteLexicon, len(words), len(Labels))
	}
	copied := make(map[Label]string, len(words))
	for _, l := range Labels {
		w, ok := words[l]
		if !ok || w == "" {
			return nil, fmt.Errorf("%w: missing %q", ErrIncompleteLexicon, l)
		}
		copied[l] = w
	}
	return &Lexicon{words: copied}, nil
}

// Lookup returns the display word for a label. None and unknown labels
// yield NoWord and false.
func (x *Lexicon) Lookup(l Label) (string, bool) {
	w, ok := x.words[l]
	if !ok {
		return NoWord, false
	}
	return w, true
}

// Labels returns the labels the lexicon covers, in rule order.
func (x *Lexicon) Labels() []Label {
	out := make([]Label, 0, len(Labels))
	for _, l := range Labels {
		if _, ok := x.words[l]; ok {
			out = append(out, l)
		}
	}
	return out
}

// Words returns a copy of the mapping.
func (x *Lexicon) Words() map[Label]string {
	out := make(map[Label]string, len(x.words))
	for l, w := range x.words {
		out[l] = w
	}
	return out
}
