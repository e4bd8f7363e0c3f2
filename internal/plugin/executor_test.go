package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// writeScriptPlugin writes an executable shell script into a temp dir and
// returns it as a Plugin.
func writeScriptPlugin(t *testing.T, name, script string) *Plugin {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, name+".sh")
	if err := os.WriteFile(scriptPath, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Actions:    []string{"speak"},
		},
		Path:       tmpDir,
		Executable: scriptPath,
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := writeScriptPlugin(t, "ok-plugin", `#!/bin/sh
echo '{"success":true,"data":{"engine":"espeak-ng"}}'
`)

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, &Request{
		Action: "speak",
		Text:   "نعم",
		Lang:   "ar-SA",
		Rate:   0.9,
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !response.Success {
		t.Errorf("expected success=true, got false")
	}
	if response.Error != "" {
		t.Errorf("expected empty error, got %q", response.Error)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["engine"] != "espeak-ng" {
		t.Errorf("expected engine 'espeak-ng', got %v", data["engine"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := writeScriptPlugin(t, "echo-plugin", `#!/bin/sh
INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`)

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, &Request{
		Action:  "speak",
		Gesture: "thanks",
		Text:    "شكراً",
		Lang:    "ar-SA",
		Rate:    0.9,
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received Request `json:"received"`
	}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}

	got := data.Received
	if got.Action != "speak" || got.Gesture != "thanks" {
		t.Errorf("unexpected action/gesture: %+v", got)
	}
	if got.Text != "شكراً" || got.Lang != "ar-SA" || got.Rate != 0.9 {
		t.Errorf("speech fields not forwarded: %+v", got)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := writeScriptPlugin(t, "slow-plugin", `#!/bin/sh
sleep 10
echo '{"success":true}'
`)

	start := time.Now()
	_, err := NewExecutor(100).Execute(context.Background(), plugin, &Request{Action: "speak"})

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took too long: %v", elapsed)
	}
}

func TestExecutor_Cancel(t *testing.T) {
	plugin := writeScriptPlugin(t, "cancel-plugin", `#!/bin/sh
sleep 10
`)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := NewExecutor(5000).Execute(ctx, plugin, &Request{Action: "speak"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	plugin := writeScriptPlugin(t, "error-plugin", `#!/bin/sh
echo '{"success":false,"error":"no voice for ar-SA"}'
`)

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, &Request{Action: "speak"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if response.Success {
		t.Errorf("expected success=false, got true")
	}
	if response.Error != "no voice for ar-SA" {
		t.Errorf("expected error 'no voice for ar-SA', got %q", response.Error)
	}
}

func TestExecutor_Execute_InvalidJSON(t *testing.T) {
	plugin := writeScriptPlugin(t, "bad-plugin", `#!/bin/sh
echo 'not valid json'
`)

	if _, err := NewExecutor(5000).Execute(context.Background(), plugin, &Request{Action: "speak"}); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	plugin := writeScriptPlugin(t, "exit-plugin", `#!/bin/sh
echo "Error: something failed" >&2
exit 1
`)

	if _, err := NewExecutor(5000).Execute(context.Background(), plugin, &Request{Action: "speak"}); err == nil {
		t.Fatal("expected error for non-zero exit, got nil")
	}
}

func TestNewExecutor(t *testing.T) {
	executor := NewExecutor(3000)
	if executor == nil {
		t.Fatal("NewExecutor() returned nil")
	}
	if executor.Timeout() != 3*time.Second {
		t.Errorf("expected 3s timeout, got %s", executor.Timeout())
	}
}

func TestManifest_Supports(t *testing.T) {
	m := Manifest{Actions: []string{"speak", "voices"}}
	if !m.Supports("speak") {
		t.Error("expected speak to be supported")
	}
	if m.Supports("volume-up") {
		t.Error("did not expect volume-up to be supported")
	}
}
