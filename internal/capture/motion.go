package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frame differencing parameters.
const (
	// BlurKernel is the Gaussian blur kernel size applied before differencing.
	BlurKernel = 21
	// PixelDelta is the grey-level change that counts a pixel as changed.
	PixelDelta = 25
)

// MotionDetector reports whether consecutive frames differ, so callers can
// skip expensive work on a still scene.
type MotionDetector struct {
	threshold float64 // percent of pixels
	prev      gocv.Mat
	primed    bool
	mu        sync.Mutex
}

// NewMotionDetector creates a MotionDetector that reports motion when more
// than threshold percent of pixels change between frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prev:      gocv.NewMat(),
	}
}

// Detect compares frame with the previous one and returns whether it moved
// along with the changed-pixel percentage. The first frame only sets the
// baseline and reports no motion.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: BlurKernel, Y: BlurKernel}, 0, 0, gocv.BorderDefault)

	defer blurred.CopyTo(&m.prev)
	if !m.primed || m.prev.Rows() != blurred.Rows() || m.prev.Cols() != blurred.Cols() {
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, PixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(mask)) / float64(mask.Rows()*mask.Cols()) * 100
	return changed > m.threshold, changed
}

// Reset drops the baseline so the next frame starts fresh.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.primed = false
}

// Close releases the baseline frame.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prev.Close()
	m.prev = gocv.NewMat()
	m.primed = false
}

// Threshold returns the motion threshold in percent.
func (m *MotionDetector) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold
}
