// Package app runs the camera to speech pipeline for signspeak.
package app

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ayusman/signspeak/internal/capture"
	"github.com/ayusman/signspeak/internal/detector"
	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/speech"
)

// DefaultFPS is the pipeline frame rate when none is configured.
const DefaultFPS = 15

// ErrNoCamera is returned by Start when the app has no camera.
var ErrNoCamera = errors.New("no camera configured")

var logger = log.WithPrefix("app")

// Config holds the pipeline's collaborators.
type Config struct {
	Camera     capture.Camera
	Detector   detector.Detector
	Translator *gesture.Translator
	// Announcer receives every frame's label. Optional.
	Announcer *speech.Announcer
	FPS       int
	// MotionThreshold is the percent of changed pixels below which a frame
	// counts as still and the previous hands are reused. Zero disables it.
	MotionThreshold float64
}

// App owns the camera pipeline: frames are read, hands detected, and the
// first hand translated and announced.
type App struct {
	config     Config
	camera     capture.Camera
	detector   detector.Detector
	translator *gesture.Translator
	announcer  *speech.Announcer
	motion     *capture.MotionDetector

	mu        sync.RWMutex
	enabled   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	callbacks []func(gesture.Result)
	last      gesture.Result

	frameMu   sync.Mutex // serializes frame work
	cached    []detector.Hand
	hasCached bool
	reused    int
	jpeg      []byte
	jpegSeq   uint64
}

// New creates an App. A nil Detector falls back to MediaPipe when it is
// installed and the mock detector otherwise.
func New(config Config) (*App, error) {
	if config.Translator == nil {
		return nil, errors.New("app: translator is required")
	}
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}

	a := &App{
		config:     config,
		camera:     config.Camera,
		detector:   config.Detector,
		translator: config.Translator,
		announcer:  config.Announcer,
		enabled:    true,
	}

	if config.MotionThreshold > 0 {
		a.motion = capture.NewMotionDetector(config.MotionThreshold)
	}

	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			a.detector = mp
			logger.Info("using MediaPipe hand detection")
		} else {
			logger.Warn("MediaPipe not available, using mock detector", "err", err)
			a.detector = detector.NewMockDetector()
		}
	}

	return a, nil
}

// SetEnabled pauses or resumes classification without closing the camera.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether classification is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Camera returns the camera, which may be nil.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Translator returns the translator.
func (a *App) Translator() *gesture.Translator {
	return a.translator
}

// Announcer returns the announcer, which may be nil.
func (a *App) Announcer() *speech.Announcer {
	return a.announcer
}

// FPS returns the pipeline frame rate.
func (a *App) FPS() int {
	return a.config.FPS
}

// OnResult registers fn to receive every translated frame.
func (a *App) OnResult(fn func(gesture.Result)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callbacks = append(a.callbacks, fn)
}

// LastResult returns the most recent result.
func (a *App) LastResult() gesture.Result {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Start opens the camera and launches the pipeline. Starting a running
// pipeline is a no-op.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}
	if a.camera == nil {
		return ErrNoCamera
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	a.camera.SetFPS(a.config.FPS)

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	logger.Info("pipeline started", "fps", a.config.FPS)
	return nil
}

// Stop halts the pipeline, waits for the current frame to finish and
// closes the camera.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopCh == nil {
		a.mu.Unlock()
		return
	}
	close(a.stopCh)
	done := a.doneCh
	a.stopCh = nil
	a.doneCh = nil
	a.mu.Unlock()

	<-done

	if err := a.camera.Close(); err != nil {
		logger.Error("closing camera", "err", err)
	}

	a.frameMu.Lock()
	a.hasCached = false
	a.cached = nil
	a.jpeg = nil
	if a.motion != nil {
		a.motion.Reset()
	}
	a.frameMu.Unlock()

	logger.Info("pipeline stopped")
}

// Running reports whether the pipeline is running.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// ToggleCamera starts a stopped pipeline or stops a running one and
// returns the new state.
func (a *App) ToggleCamera() (bool, error) {
	if a.Running() {
		a.Stop()
		return false, nil
	}
	if err := a.Start(); err != nil {
		return false, err
	}
	return true, nil
}

// Close stops the pipeline and releases the detector.
func (a *App) Close() {
	a.Stop()

	if a.motion != nil {
		a.motion.Close()
	}
	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			logger.Error("closing detector", "err", err)
		}
	}
}
