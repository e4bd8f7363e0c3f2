package detector

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"gocv.io/x/gocv"
)

// ErrServiceNotFound is returned when the landmark service script cannot be located.
var ErrServiceNotFound = errors.New(ServiceScript + " not found")

var logger = log.WithPrefix("detector")

// idleShutdown is how long the service may sit unused before it is stopped.
const idleShutdown = 30 * time.Second

// MediaPipeDetector runs MediaPipe Hands in a Python subprocess. The process
// starts on the first frame and stops after idleShutdown without frames.
type MediaPipeDetector struct {
	config Config
	script string
	python string

	mu   sync.Mutex
	svc  *handService
	idle *time.Timer
}

// NewMediaPipeDetector returns ErrServiceNotFound when there is no service
// script. Nothing is started until Detect.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	script := config.Script
	if script == "" {
		script = findServiceScript()
	} else {
		script = firstExisting(script)
	}
	if script == "" {
		return nil, ErrServiceNotFound
	}

	python := config.Python
	if python == "" {
		python = findVenvPython()
	}
	if python == "" {
		python = "python3"
	}

	return &MediaPipeDetector{config: config, script: script, python: python}, nil
}

// Detect implements Detector. A service that fails mid-frame is stopped and
// restarted on the next call.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]Hand, error) {
	if frame == nil || frame.Empty() {
		return nil, errors.New("empty frame")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.svc == nil {
		svc, err := startService(d.python, d.script, d.config)
		if err != nil {
			return nil, err
		}
		d.svc = svc
		logger.Info("landmark service started", "script", d.script, "python", d.python)
	}

	hands, err := d.svc.exchange(buf.GetBytes(), float64(frame.Cols()), float64(frame.Rows()), d.config)
	if err != nil {
		d.stopLocked()
		return nil, err
	}

	d.armIdleTimer()
	return hands, nil
}

// Close stops the service if it is running.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

func (d *MediaPipeDetector) stopLocked() error {
	if d.idle != nil {
		d.idle.Stop()
		d.idle = nil
	}
	if d.svc == nil {
		return nil
	}
	err := d.svc.stop()
	d.svc = nil
	logger.Debug("landmark service stopped", "err", err)
	return err
}

func (d *MediaPipeDetector) armIdleTimer() {
	if d.idle != nil {
		d.idle.Reset(idleShutdown)
		return
	}
	d.idle = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.stopLocked(); err != nil {
			logger.Warn("idle shutdown", "err", err)
		}
	})
}
