package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ayusman/signspeak/internal/config"
	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/server/api"
	"github.com/ayusman/signspeak/internal/speech"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [file]",
	Short: "Classify one frame of landmarks",
	Long: `Classify reads 21 hand landmarks as JSON from a file, or stdin when no file
is given, and prints the gesture and word. The input is either an array of
{"x","y","z"} points or an object with a "landmarks" field.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		speak, _ := cmd.Flags().GetBool("speak")
		if err := runClassify(cfg, args, speak, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			log.Fatal("Classify failed", "error", err)
		}
	},
}

func init() {
	classifyCmd.Flags().Bool("speak", false, "Speak the word through the speech plugin")
}

func runClassify(cfg *config.Config, args []string, speak bool, stdin io.Reader, out io.Writer) error {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return fmt.Errorf("read landmarks: %w", err)
	}

	translator, err := buildTranslator(cfg)
	if err != nil {
		return err
	}

	req, err := parseClassifyInput(data)
	if err != nil {
		return err
	}
	res := api.Classify(translator, nil, req)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}

	if speak && res.Label != gesture.None {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Plugins.TimeoutMs)*time.Millisecond)
		defer cancel()
		manager, executor := discoverPlugins(cfg)
		return buildSpeaker(cfg, manager, executor).Speak(ctx, speech.Utterance{
			Text: res.Word,
			Lang: cfg.Speech.Lang,
			Rate: cfg.Speech.Rate,
		})
	}
	return nil
}

// parseClassifyInput accepts a bare landmark array or a classify request
// object.
func parseClassifyInput(data []byte) (api.ClassifyRequest, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return api.ClassifyRequest{}, fmt.Errorf("no landmarks given")
	}
	if trimmed[0] == '[' {
		return api.ClassifyRequest{Landmarks: json.RawMessage(trimmed)}, nil
	}

	var req api.ClassifyRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return api.ClassifyRequest{}, fmt.Errorf("decode input: %w", err)
	}
	return req, nil
}
