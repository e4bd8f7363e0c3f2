package gesture

import (
	"errors"
	"testing"

	"github.com/ayusman/signspeak/internal/detector"
)

func TestDefaultLexicon_Lookup(t *testing.T) {
	lex := DefaultLexicon()

	want := map[Label]string{
		Hello:  "مرحباً",
		Thanks: "شكراً",
		Yes:    "نعم",
		No:     "لا",
		Help:   "مساعدة",
	}
	for label, word := range want {
		got, ok := lex.Lookup(label)
		if !ok || got != word {
			t.Errorf("Lookup(%v) = (%q, %v), want (%q, true)", label, got, ok, word)
		}
	}

	t.Run("None yields no word", func(t *testing.T) {
		got, ok := lex.Lookup(None)
		if ok || got != NoWord {
			t.Errorf("Lookup(None) = (%q, %v), want (%q, false)", got, ok, NoWord)
		}
	})

	t.Run("unknown label yields no word", func(t *testing.T) {
		if _, ok := lex.Lookup(Label("wave")); ok {
			t.Error("expected unknown label to miss")
		}
	})

	t.Run("labels in rule order", func(t *testing.T) {
		got := lex.Labels()
		if len(got) != len(Labels) {
			t.Fatalf("Labels() = %v", got)
		}
		for i := range got {
			if got[i] != Labels[i] {
				t.Errorf("Labels()[%d] = %v, want %v", i, got[i], Labels[i])
			}
		}
	})
}

func TestNewLexicon(t *testing.T) {
	words := map[Label]string{
		Hello:  "hello",
		Thanks: "thank you",
		Yes:    "yes",
		No:     "no",
		Help:   "help",
	}

	t.Run("copies input", func(t *testing.T) {
		lex, err := NewLexicon(words)
		if err != nil {
			t.Fatalf("NewLexicon() error = %v", err)
		}
		words[Hello] = "changed"
		defer func() { words[Hello] = "hello" }()

		if got, _ := lex.Lookup(Hello); got != "hello" {
			t.Errorf("lexicon changed with its input: %q", got)
		}
	})

	t.Run("Words returns a copy", func(t *testing.T) {
		lex, _ := NewLexicon(words)
		out := lex.Words()
		out[Yes] = "nope"
		if got, _ := lex.Lookup(Yes); got != "yes" {
			t.Errorf("lexicon changed through Words(): %q", got)
		}
	})

	t.Run("missing label", func(t *testing.T) {
		partial := map[Label]string{Hello: "hi", Thanks: "ty", Yes: "y", No: "n"}
		if _, err := NewLexicon(partial); !errors.Is(err, ErrIncompleteLexicon) {
			t.Errorf("expected ErrIncompleteLexicon, got %v", err)
		}
	})

	t.Run("empty word", func(t *testing.T) {
		bad := map[Label]string{Hello: "hi", Thanks: "ty", Yes: "y", No: "n", Help: ""}
		if _, err := NewLexicon(bad); !errors.Is(err, ErrIncompleteLexicon) {
			t.Errorf("expected ErrIncompleteLexicon, got %v", err)
		}
	})

	t.Run("extra label", func(t *testing.T) {
		extra := map[Label]string{Hello: "hi", Thanks: "ty", Yes: "y", No: "n", Help: "h", "wave": "w"}
		if _, err := NewLexicon(extra); !errors.Is(err, ErrIncompleteLexicon) {
			t.Errorf("expected ErrIncompleteLexicon, got %v", err)
		}
	})
}

func TestParseLabel(t *testing.T) {
	for _, l := range Labels {
		got, err := ParseLabel(string(l))
		if err != nil || got != l {
			t.Errorf("ParseLabel(%q) = (%v, %v)", l, got, err)
		}
	}
	if _, err := ParseLabel("wave"); err == nil {
		t.Error("expected error for unknown label")
	}
	if None.String() != "none" {
		t.Errorf("None.String() = %q", None.String())
	}
}

func TestTranslator_Translate(t *testing.T) {
	tr := NewTranslator(newTestClassifier(t), DefaultLexicon())

	t.Run("detected gesture", func(t *testing.T) {
		res := tr.Translate(detector.HelpHand())

		if !res.Detected || res.Label != Help || res.Word != "مساعدة" {
			t.Errorf("unexpected result %+v", res)
		}
		if res.ID == "" {
			t.Error("expected result ID")
		}
		if res.Timestamp == 0 {
			t.Error("expected timestamp")
		}
	})

	t.Run("no gesture", func(t *testing.T) {
		res := tr.Translate(detector.FistHand())

		if res.Detected || res.Label != None || res.Word != NoWord {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("results get distinct IDs", func(t *testing.T) {
		a := tr.Translate(detector.HelloHand())
		b := tr.Translate(detector.HelloHand())
		if a.ID == b.ID {
			t.Error("expected unique IDs per result")
		}
	})
}

func TestDefaultTranslator(t *testing.T) {
	tr := DefaultTranslator()
	if tr.Classifier().Thresholds() != DefaultThresholds() {
		t.Errorf("thresholds = %+v", tr.Classifier().Thresholds())
	}
	if res := tr.Translate(detector.YesHand()); res.Word != "نعم" {
		t.Errorf("unexpected result %+v", res)
	}
}
