package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ayusman/signspeak/internal/app"
	"github.com/ayusman/signspeak/internal/capture"
	"github.com/ayusman/signspeak/internal/config"
	"github.com/ayusman/signspeak/internal/detector"
	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/plugin"
	"github.com/ayusman/signspeak/internal/server"
	"github.com/ayusman/signspeak/internal/speech"
	"github.com/ayusman/signspeak/internal/tray"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server and camera pipeline",
	Run: func(cmd *cobra.Command, args []string) {
		if err := serve(loadConfig()); err != nil {
			log.Fatal("Server failed", "error", err)
		}
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().Int("camera", 0, "Camera device ID")
	serveCmd.Flags().Bool("autostart", false, "Start the camera on launch")
	serveCmd.Flags().Bool("tray", false, "Show the system tray menu")
	serveCmd.Flags().String("web-dir", "", "Directory with static web files")

	bindFlag(serveCmd, "addr", "addr")
	bindFlag(serveCmd, "camera.id", "camera")
	bindFlag(serveCmd, "camera.autostart", "autostart")
	bindFlag(serveCmd, "tray", "tray")
	bindFlag(serveCmd, "web_dir", "web-dir")
}

// buildTranslator builds the classifier and lexicon from cfg.
func buildTranslator(cfg *config.Config) (*gesture.Translator, error) {
	classifier, err := gesture.NewClassifier(cfg.Thresholds())
	if err != nil {
		return nil, err
	}
	lexicon, err := cfg.BuildLexicon()
	if err != nil {
		return nil, err
	}
	return gesture.NewTranslator(classifier, lexicon), nil
}

// discoverPlugins scans the plugin directory once for every plugin user.
func discoverPlugins(cfg *config.Config) (*plugin.Manager, *plugin.Executor) {
	manager := plugin.NewManager(cfg.Plugins.Dir)
	if err := manager.Discover(); err != nil {
		log.Warn("plugin discovery failed", "dir", cfg.Plugins.Dir, "error", err)
	}
	return manager, plugin.NewExecutor(cfg.Plugins.TimeoutMs)
}

// pluginFor returns name when it is installed and supports action, otherwise
// the first plugin that does, otherwise name unchanged.
func pluginFor(manager *plugin.Manager, name, action string) string {
	if p, err := manager.Get(name); err == nil && p.Manifest.Supports(action) {
		return name
	}
	if others := manager.WithAction(action); len(others) > 0 {
		log.Info("configured plugin cannot do this, using another", "plugin", name, "action", action, "using", others[0].Manifest.Name)
		return others[0].Manifest.Name
	}
	return name
}

// buildSpeaker returns the configured speech plugin, or a LogSpeaker when it
// is not installed.
func buildSpeaker(cfg *config.Config, manager *plugin.Manager, executor *plugin.Executor) speech.Speaker {
	name := pluginFor(manager, cfg.Speech.Plugin, "speak")
	sp, err := speech.NewPluginSpeaker(manager, executor, name)
	if err != nil {
		if errors.Is(err, plugin.ErrPluginNotFound) {
			log.Warn("speech plugin not installed, logging words instead", "plugin", cfg.Speech.Plugin, "dir", cfg.Plugins.Dir)
		} else {
			log.Warn("speech plugin unusable, logging words instead", "error", err)
		}
		return speech.LogSpeaker{}
	}
	log.Info("speaking through plugin", "plugin", name)
	return sp
}

// buildTranscriber returns the speech-to-text plugin, or nil when
// transcription is disabled or no plugin can do it.
func buildTranscriber(cfg *config.Config, manager *plugin.Manager, executor *plugin.Executor) speech.Transcriber {
	if cfg.Speech.Transcribe == "" {
		return nil
	}
	name := pluginFor(manager, cfg.Speech.Transcribe, "transcribe")
	tr, err := speech.NewPluginTranscriber(manager, executor, name)
	if err != nil {
		log.Warn("transcription disabled", "error", err)
		return nil
	}
	log.Info("transcribing through plugin", "plugin", name)
	return tr
}

func buildDetector(cfg *config.Config) detector.Detector {
	mp, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:              cfg.Detector.MaxHands,
		MinConfidence:         cfg.Detector.MinConfidence,
		MinTrackingConfidence: cfg.Detector.MinTrackingConfidence,
		Script:                cfg.Detector.Script,
		Python:                cfg.Detector.Python,
	})
	if err != nil {
		log.Warn("MediaPipe not available, camera frames will show no hands", "error", err)
		return detector.NewMockDetector()
	}
	return mp
}

func serve(cfg *config.Config) error {
	translator, err := buildTranslator(cfg)
	if err != nil {
		return err
	}

	manager, executor := discoverPlugins(cfg)
	announcer := speech.NewAnnouncer(translator.Lexicon(), buildSpeaker(cfg, manager, executor), speech.Options{
		Lang: cfg.Speech.Lang,
		Rate: cfg.Speech.Rate,
	})
	defer announcer.Close()

	pipeline, err := app.New(app.Config{
		Camera: capture.NewCamera(capture.Config{
			DeviceID: cfg.Camera.ID,
			FPS:      cfg.Camera.FPS,
		}),
		Detector:        buildDetector(cfg),
		Translator:      translator,
		Announcer:       announcer,
		FPS:             cfg.Camera.FPS,
		MotionThreshold: cfg.Camera.MotionThreshold,
	})
	if err != nil {
		return err
	}
	defer pipeline.Close()

	if cfg.Camera.Autostart {
		if err := pipeline.Start(); err != nil {
			log.Warn("camera did not start", "error", err)
		}
	}

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		log.Info("serving static files", "dir", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:      webDir,
		Translator:     translator,
		Announcer:      announcer,
		App:            pipeline,
		Transcriber:    buildTranscriber(cfg, manager, executor),
		Lang:           cfg.Speech.Lang,
		RateLimit:      cfg.HTTP.RateLimit,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.Tray {
		return srv.Run(ctx, cfg.Addr)
	}

	// The tray owns the main goroutine until it quits.
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx, cfg.Addr) }()

	t := tray.New(pipeline.Running())
	t.OnToggle(pipeline.ToggleCamera)
	t.OnOpen(func() {
		if err := openBrowser(localURL(cfg.Addr)); err != nil {
			log.Warn("could not open browser", "error", err)
		}
	})
	t.OnQuit(stop)
	announcer.OnChange(func(s speech.State) {
		if s.LastSpoken != "" {
			t.SetLastWord(s.LastSpoken)
		}
	})
	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()

	stop()
	select {
	case err := <-errCh:
		return err
	case <-time.After(10 * time.Second):
		return errors.New("server did not shut down")
	}
}
