package speech

import (
	"context"
	"fmt"

	"github.com/ayusman/signspeak/internal/plugin"
)

// PluginName is the plugin used for speech unless configured otherwise.
const PluginName = "speech"

const speakAction = "speak"

// PluginSpeaker speaks through a plugin's speak action.
type PluginSpeaker struct {
	plugin   *plugin.Plugin
	executor *plugin.Executor
}

// NewPluginSpeaker looks up the named plugin. It returns
// plugin.ErrPluginNotFound when the plugin is missing and an error when it
// cannot speak.
func NewPluginSpeaker(manager *plugin.Manager, executor *plugin.Executor, name string) (*PluginSpeaker, error) {
	p, err := manager.Get(name)
	if err != nil {
		return nil, fmt.Errorf("speech plugin %q: %w", name, err)
	}
	if !p.Manifest.Supports(speakAction) {
		return nil, fmt.Errorf("plugin %q does not support %q", name, speakAction)
	}
	return &PluginSpeaker{plugin: p, executor: executor}, nil
}

// Speak implements Speaker.
func (s *PluginSpeaker) Speak(ctx context.Context, u Utterance) error {
	resp, err := s.executor.Execute(ctx, s.plugin, &plugin.Request{
		Action: speakAction,
		Text:   u.Text,
		Lang:   u.Lang,
		Rate:   u.Rate,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("speech plugin: %s", resp.Error)
	}
	return nil
}

// LogSpeaker only logs utterances. It stands in when no speech plugin is installed.
type LogSpeaker struct{}

// Speak implements Speaker.
func (LogSpeaker) Speak(ctx context.Context, u Utterance) error {
	logger.Info("speak", "text", u.Text, "lang", u.Lang, "rate", u.Rate)
	return ctx.Err()
}
