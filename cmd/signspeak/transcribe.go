package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ayusman/signspeak/internal/config"
)

var errNoTranscriber = errors.New("no transcription plugin installed")

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [file]",
	Short: "Transcribe recorded speech to text",
	Long: `Transcribe sends an audio recording, read from a file or stdin, to the
transcription plugin and prints the text.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runTranscribe(loadConfig(), args, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			log.Fatal("Transcribe failed", "error", err)
		}
	},
}

func runTranscribe(cfg *config.Config, args []string, stdin io.Reader, out io.Writer) error {
	var (
		audio []byte
		err   error
	)
	if len(args) == 1 && args[0] != "-" {
		audio, err = os.ReadFile(args[0])
	} else {
		audio, err = io.ReadAll(stdin)
	}
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}

	manager, executor := discoverPlugins(cfg)
	tr := buildTranscriber(cfg, manager, executor)
	if tr == nil {
		return errNoTranscriber
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Plugins.TimeoutMs)*time.Millisecond)
	defer cancel()
	text, err := tr.Transcribe(ctx, audio, cfg.Speech.Lang)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, text)
	return err
}
