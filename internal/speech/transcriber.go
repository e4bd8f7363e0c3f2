package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ayusman/signspeak/internal/plugin"
)

const transcribeAction = "transcribe"

// ErrNoAudio is returned by Transcribe when there is nothing to listen to.
var ErrNoAudio = errors.New("no audio")

// Transcriber turns recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, lang string) (string, error)
}

// PluginTranscriber transcribes through a plugin's transcribe action.
type PluginTranscriber struct {
	plugin   *plugin.Plugin
	executor *plugin.Executor
}

// NewPluginTranscriber looks up the named plugin. It returns
// plugin.ErrPluginNotFound when the plugin is missing.
func NewPluginTranscriber(manager *plugin.Manager, executor *plugin.Executor, name string) (*PluginTranscriber, error) {
	p, err := manager.Get(name)
	if err != nil {
		return nil, fmt.Errorf("transcription plugin %q: %w", name, err)
	}
	if !p.Manifest.Supports(transcribeAction) {
		return nil, fmt.Errorf("plugin %q does not support %q", name, transcribeAction)
	}
	return &PluginTranscriber{plugin: p, executor: executor}, nil
}

// Transcribe implements Transcriber.
func (t *PluginTranscriber) Transcribe(ctx context.Context, audio []byte, lang string) (string, error) {
	if len(audio) == 0 {
		return "", ErrNoAudio
	}
	if lang == "" {
		lang = DefaultLang
	}

	resp, err := t.executor.Execute(ctx, t.plugin, &plugin.Request{
		Action: transcribeAction,
		Audio:  audio,
		Lang:   lang,
	})
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("transcription plugin: %s", resp.Error)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return "", fmt.Errorf("transcription plugin returned %q: %w", resp.Data, err)
	}
	return strings.TrimSpace(out.Text), nil
}
