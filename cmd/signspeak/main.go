package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ayusman/signspeak/internal/config"
)

var v = config.New()

var rootCmd = &cobra.Command{
	Use:   "signspeak",
	Short: "SignSpeak turns hand gestures into spoken words",
	Long: `SignSpeak reads hand landmarks from a camera or from clients, classifies
them into a small gesture vocabulary and speaks the matching word.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("plugin-dir", "", "Directory containing plugins")
	rootCmd.PersistentFlags().String("lang", "", "Speech language tag")

	bindFlag(rootCmd, "log_level", "log-level")
	bindFlag(rootCmd, "plugins.dir", "plugin-dir")
	bindFlag(rootCmd, "speech.lang", "lang")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(transcribeCmd)
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	f := cmd.PersistentFlags().Lookup(flag)
	if f == nil {
		f = cmd.Flags().Lookup(flag)
	}
	if err := v.BindPFlag(key, f); err != nil {
		log.Fatal("bind flag", "flag", flag, "error", err)
	}
}

func initConfig() {
	_ = godotenv.Load()
}

// loadConfig reads the config and applies its log level.
func loadConfig() *config.Config {
	cfg, err := config.Load(v)
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}
	log.SetLevel(cfg.Level())
	return cfg
}

func main() {
	log.SetReportTimestamp(true)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
