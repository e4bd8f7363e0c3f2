package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ayusman/signspeak/internal/plugin"
)

// installPlugin writes a shell-script plugin with a manifest into dir.
func installPlugin(t *testing.T, dir, name, actions, script string) {
	t.Helper()

	pluginDir := filepath.Join(dir, name)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	manifest := `{"name":"` + name + `","version":"1.0.0","executable":"run.sh","actions":` + actions + `}`
	if err := os.WriteFile(filepath.Join(pluginDir, plugin.ManifestFile), []byte(manifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "run.sh"), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
}

func TestPluginSpeaker(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	installPlugin(t, dir, "speech", `["speak","voices"]`, `#!/bin/sh
INPUT=$(cat)
case "$INPUT" in
  *'"action":"speak"'*'"lang":"ar-SA"'*) echo '{"success":true}' ;;
  *) echo '{"success":false,"error":"unexpected request"}' ;;
esac
`)
	installPlugin(t, dir, "mute", `["speak"]`, `#!/bin/sh
echo '{"success":false,"error":"no audio device"}'
`)
	installPlugin(t, dir, "volume", `["volume-up"]`, `#!/bin/sh
echo '{"success":true}'
`)

	mgr := plugin.NewManager(dir)
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	exec := plugin.NewExecutor(5000)

	t.Run("speaks", func(t *testing.T) {
		spk, err := NewPluginSpeaker(mgr, exec, PluginName)
		if err != nil {
			t.Fatalf("NewPluginSpeaker() error = %v", err)
		}
		err = spk.Speak(context.Background(), Utterance{Text: "نعم", Lang: DefaultLang, Rate: DefaultRate})
		if err != nil {
			t.Errorf("Speak() error = %v", err)
		}
	})

	t.Run("plugin failure", func(t *testing.T) {
		spk, err := NewPluginSpeaker(mgr, exec, "mute")
		if err != nil {
			t.Fatalf("NewPluginSpeaker() error = %v", err)
		}
		if err := spk.Speak(context.Background(), Utterance{Text: "لا"}); err == nil {
			t.Error("expected error from failing plugin")
		}
	})

	t.Run("missing plugin", func(t *testing.T) {
		if _, err := NewPluginSpeaker(mgr, exec, "tts"); !errors.Is(err, plugin.ErrPluginNotFound) {
			t.Errorf("expected ErrPluginNotFound, got %v", err)
		}
	})

	t.Run("plugin cannot speak", func(t *testing.T) {
		if _, err := NewPluginSpeaker(mgr, exec, "volume"); err == nil {
			t.Error("expected error for plugin without speak action")
		}
	})
}
