// Package speech shows translated words and speaks them aloud.
package speech

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ayusman/signspeak/internal/gesture"
)

// ErrNothingToSay is returned by Repeat when no word has been shown yet.
var ErrNothingToSay = errors.New("no word to speak")

var logger = log.WithPrefix("speech")

// Defaults for utterances.
const (
	DefaultLang = "ar-SA"
	DefaultRate = 0.9
)

// Utterance is one piece of text to speak.
type Utterance struct {
	Text string
	Lang string
	Rate float64
}

// Speaker speaks an utterance, returning when it finishes or ctx is cancelled.
type Speaker interface {
	Speak(ctx context.Context, u Utterance) error
}

// State is a snapshot of what the announcer shows and says. Label is None
// while the word is hidden; Word keeps the last shown word so Repeat can
// still say it.
type State struct {
	Label      gesture.Label `json:"label"`
	Word       string        `json:"word"`
	Visible    bool          `json:"visible"`
	LastSpoken string        `json:"lastSpoken"`
	Speaking   bool          `json:"speaking"`
}

// Options configures an Announcer.
type Options struct {
	Lang string
	Rate float64
}

// Announcer keeps the displayed word and drives the speaker. A word is
// spoken once when it first appears; showing it again stays silent until a
// different word has been spoken.
type Announcer struct {
	lexicon *gesture.Lexicon
	speaker Speaker
	opts    Options

	emitMu sync.Mutex // orders observer calls

	mu        sync.Mutex
	state     State
	cancel    context.CancelFunc
	seq       uint64
	observers []func(State)
	closed    bool
	wg        sync.WaitGroup
}

// NewAnnouncer creates an Announcer. Zero option fields take the defaults.
func NewAnnouncer(lexicon *gesture.Lexicon, speaker Speaker, opts Options) *Announcer {
	if opts.Lang == "" {
		opts.Lang = DefaultLang
	}
	if opts.Rate <= 0 {
		opts.Rate = DefaultRate
	}
	return &Announcer{
		lexicon: lexicon,
		speaker: speaker,
		opts:    opts,
	}
}

// Options returns the utterance settings.
func (a *Announcer) Options() Options {
	return a.opts
}

// State returns the current state.
func (a *Announcer) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// OnChange registers fn to be called with the new state after each change.
// Observers run synchronously and must not call back into the Announcer.
func (a *Announcer) OnChange(fn func(State)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, fn)
}

// Update shows the word for label. A new word cancels any utterance in
// progress and is spoken in the background. None hides the word and clears
// Label but keeps LastSpoken, so the same gesture shown again is not repeated.
func (a *Announcer) Update(label gesture.Label) State {
	a.mu.Lock()
	prev := a.state

	word, ok := a.lexicon.Lookup(label)
	if !ok {
		a.state.Label = gesture.None
		a.state.Visible = false
	} else {
		a.state.Label = label
		a.state.Word = word
		a.state.Visible = true
		if word != a.state.LastSpoken {
			a.speakLocked(word)
		}
	}

	s := a.state
	a.mu.Unlock()

	if s != prev {
		a.emit()
	}
	return s
}

// Repeat speaks the current word again, ignoring the dedupe rule.
func (a *Announcer) Repeat() error {
	a.mu.Lock()
	if a.state.Word == "" {
		a.mu.Unlock()
		return ErrNothingToSay
	}
	a.speakLocked(a.state.Word)
	a.mu.Unlock()

	a.emit()
	return nil
}

// Close cancels any utterance and waits for the speaker to return.
func (a *Announcer) Close() {
	a.mu.Lock()
	a.closed = true
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.mu.Unlock()

	a.wg.Wait()
}

// speakLocked cancels the previous utterance and starts a new one.
// a.mu must be held.
func (a *Announcer) speakLocked(word string) {
	if a.closed {
		return
	}
	if a.cancel != nil {
		a.cancel()
	}

	a.seq++
	id := a.seq
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.state.LastSpoken = word
	a.state.Speaking = true

	u := Utterance{Text: word, Lang: a.opts.Lang, Rate: a.opts.Rate}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer cancel()

		if err := a.speaker.Speak(ctx, u); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("speech failed", "word", u.Text, "err", err)
		}

		a.mu.Lock()
		if a.seq != id {
			// A newer utterance owns the speaking flag.
			a.mu.Unlock()
			return
		}
		a.state.Speaking = false
		a.cancel = nil
		a.mu.Unlock()

		a.emit()
	}()
}

// emit passes the latest state to every observer.
func (a *Announcer) emit() {
	a.emitMu.Lock()
	defer a.emitMu.Unlock()

	a.mu.Lock()
	s := a.state
	observers := a.observers
	a.mu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
}
