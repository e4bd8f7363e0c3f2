package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// ServiceScript is the file name of the landmark service.
const ServiceScript = "mediapipe_service.py"

// handService is a running landmark service process. Each request is a
// 4-byte big-endian length followed by JPEG bytes on stdin; each reply is one
// JSON line on stdout with coordinates normalized to [0,1].
type handService struct {
	cmd *exec.Cmd
	in  io.WriteCloser
	out *bufio.Reader
}

func startService(python, script string, cfg Config) (*handService, error) {
	cmd := exec.Command(python, script,
		"--max-hands", strconv.Itoa(cfg.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(cfg.MinConfidence, 'f', 2, 64),
		"--min-tracking-confidence", strconv.FormatFloat(cfg.MinTrackingConfidence, 'f', 2, 64),
	)
	cmd.Stderr = os.Stderr

	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("landmark service stdin: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("landmark service stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start landmark service: %w", err)
	}

	return &handService{cmd: cmd, in: in, out: bufio.NewReader(out)}, nil
}

// exchange sends one JPEG and decodes the reply.
func (s *handService) exchange(jpeg []byte, width, height float64, cfg Config) ([]Hand, error) {
	if err := writeFrame(s.in, jpeg); err != nil {
		return nil, err
	}
	return readHands(s.out, width, height, cfg)
}

// stop closes stdin, which ends the service loop, and waits for the exit.
func (s *handService) stop() error {
	s.in.Close()
	return s.cmd.Wait()
}

func writeFrame(w io.Writer, jpeg []byte) error {
	msg := make([]byte, 4+len(jpeg))
	binary.BigEndian.PutUint32(msg, uint32(len(jpeg)))
	copy(msg[4:], jpeg)
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	return nil
}

// readHands decodes one reply line, scaling points to width x height and
// applying the MaxHands and MinConfidence limits.
func readHands(r *bufio.Reader, width, height float64, cfg Config) ([]Hand, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read landmarks: %w", err)
	}

	var reply struct {
		Hands []jsonHand `json:"hands"`
		Error string     `json:"error"`
	}
	if err := json.Unmarshal(line, &reply); err != nil {
		return nil, fmt.Errorf("parse landmarks: %w", err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("landmark service: %s", reply.Error)
	}

	hands := make([]Hand, 0, len(reply.Hands))
	for _, h := range reply.Hands {
		if cfg.MaxHands > 0 && len(hands) >= cfg.MaxHands {
			break
		}
		if h.Score < cfg.MinConfidence {
			continue
		}
		hands = append(hands, h.toHand(width, height))
	}
	return hands, nil
}

// jsonHand is one hand as the service reports it.
type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// toHand scales normalized output to pixels. Depth is dropped.
func (h jsonHand) toHand(width, height float64) Hand {
	hand := Hand{
		Points:     make([]Point, 0, len(h.Points)),
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	for _, p := range h.Points {
		hand.Points = append(hand.Points, Point{X: p.X * width, Y: p.Y * height})
	}
	return hand
}

// firstExisting returns the absolute path of the first candidate that exists.
func firstExisting(candidates ...string) string {
	for _, path := range candidates {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}

// searchDirs lists the working directory, its parents, the executable's
// directory and ~/.signspeak.
func searchDirs() []string {
	dirs := []string{".", "..", "../.."}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".signspeak"))
	}
	return dirs
}

func findServiceScript() string {
	var candidates []string
	for _, dir := range searchDirs() {
		candidates = append(candidates, filepath.Join(dir, "scripts", ServiceScript))
	}
	return firstExisting(candidates...)
}

func findVenvPython() string {
	var candidates []string
	for _, dir := range searchDirs() {
		candidates = append(candidates, filepath.Join(dir, "venv", "bin", "python"))
	}
	return firstExisting(candidates...)
}
