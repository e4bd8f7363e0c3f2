package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Execute waits on a killed plugin's pipes.
const waitDelay = 500 * time.Millisecond

// ErrTimeout is returned when a plugin does not finish within the executor's timeout.
var ErrTimeout = errors.New("plugin execution timeout")

// Executor runs plugins: one process per request, the request as JSON on
// stdin and a Response as JSON on stdout.
type Executor struct {
	timeout time.Duration
}

func NewExecutor(timeoutMs int) *Executor {
	return &Executor{timeout: time.Duration(timeoutMs) * time.Millisecond}
}

// Timeout is the longest a single Execute may run.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Execute runs plugin with req. The process is killed when ctx is done or
// the timeout elapses.
func (e *Executor) Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, plugin.Executable)
	cmd.Dir = plugin.Path
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	runErr := cmd.Run()
	logger.Debug("plugin ran", "name", plugin.Manifest.Name, "action", req.Action, "took", time.Since(start))

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%s: %w after %s", plugin.Manifest.Name, ErrTimeout, e.timeout)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, ctx.Err()
	}
	if runErr != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s failed: %w: %s", plugin.Manifest.Name, runErr, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", plugin.Manifest.Name, runErr)
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("%s returned invalid response %q: %w", plugin.Manifest.Name, stdout.String(), err)
	}
	return &resp, nil
}
