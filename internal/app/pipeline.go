package app

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/signspeak/internal/detector"
	"github.com/ayusman/signspeak/internal/gesture"
)

// runPipeline reads one frame per tick until stop is closed. Each frame is
// fully processed before the next is read.
func (a *App) runPipeline(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	var lastErr error
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			// Log each distinct failure once rather than every tick.
			if lastErr == nil || lastErr.Error() != err.Error() {
				logger.Warn("reading frame", "err", err)
			}
			lastErr = err
			continue
		}
		lastErr = nil

		if _, err := a.ProcessFrame(frame); err != nil {
			logger.Warn("processing frame", "err", err)
		}
		frame.Close()
	}
}

// ProcessFrame detects hands in frame and passes them to ProcessHands.
// When classification is disabled the frame is only kept for streaming.
func (a *App) ProcessFrame(frame *gocv.Mat) (gesture.Result, error) {
	a.frameMu.Lock()
	a.storeJPEG(frame)
	if !a.IsEnabled() {
		a.frameMu.Unlock()
		return gesture.Result{}, nil
	}
	hands, err := a.detect(frame)
	a.frameMu.Unlock()

	if err != nil {
		return gesture.Result{}, err
	}
	return a.ProcessHands(hands), nil
}

// ProcessHands translates the first hand, announces its label and notifies
// result callbacks. No hands yields a result with Detected false.
func (a *App) ProcessHands(hands []detector.Hand) gesture.Result {
	var hand detector.Hand
	if len(hands) > 0 {
		hand = hands[0]
	}

	res := a.translator.Translate(hand)
	if a.announcer != nil {
		a.announcer.Update(res.Label)
	}

	a.mu.Lock()
	a.last = res
	callbacks := a.callbacks
	a.mu.Unlock()

	for _, fn := range callbacks {
		fn(res)
	}
	return res
}

// detect runs the detector, reusing the previous hands while the scene is
// still. Reuse is capped at one second of frames. a.frameMu must be held.
func (a *App) detect(frame *gocv.Mat) ([]detector.Hand, error) {
	if a.motion != nil {
		moved, _ := a.motion.Detect(frame)
		if !moved && a.hasCached && a.reused < a.config.FPS {
			a.reused++
			return a.cached, nil
		}
	}

	d := a.Detector()
	if d == nil {
		return nil, nil
	}
	hands, err := d.Detect(frame)
	if err != nil {
		a.hasCached = false
		return nil, err
	}

	a.cached = hands
	a.hasCached = true
	a.reused = 0
	return hands, nil
}

// storeJPEG keeps the frame encoded for the MJPEG stream. a.frameMu must be held.
func (a *App) storeJPEG(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return
	}
	a.jpeg = append(a.jpeg[:0], buf.GetBytes()...)
	a.jpegSeq++
	buf.Close()
}

// LatestJPEG returns a copy of the last camera frame as JPEG and its
// sequence number. ok is false before the first frame.
func (a *App) LatestJPEG() (data []byte, seq uint64, ok bool) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()

	if len(a.jpeg) == 0 {
		return nil, a.jpegSeq, false
	}
	return append([]byte(nil), a.jpeg...), a.jpegSeq, true
}
