package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrProbeTimeout reports a probe that exceeded its configured deadline
// and was killed.
var ErrProbeTimeout = errors.New("ffmpeg probe timed out")

// Result captures one ffmpeg invocation. ffmpeg emits filter analysis
// on stderr, so Stderr carries the text the extractors parse.
type Result struct {
	ExitCode int
	Stderr   string
}

// Prober defines the behaviour required by the analyzer.
type Prober interface {
	Loudness(ctx context.Context, path string) (string, error)
	AudioStats(ctx context.Context, path string) (string, error)
	HighpassStats(ctx context.Context, path string, frequency int) (string, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (Result, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary     string
	logLevel   string
	hideBanner bool
	timeout    time.Duration
	exec       Executor
}

// New constructs an ffmpeg client.
func New(binary, logLevel string, hideBanner bool, timeout time.Duration, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	logLevel = strings.TrimSpace(logLevel)
	if logLevel == "" {
		logLevel = "info"
	}
	client := &Client{
		binary:     binary,
		logLevel:   logLevel,
		hideBanner: hideBanner,
		timeout:    timeout,
		exec:       commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Loudness runs the ebur128 filter over the file and returns the
// captured stderr text.
func (c *Client) Loudness(ctx context.Context, path string) (string, error) {
	return c.run(ctx, c.buildArgs(path, "-filter_complex", "ebur128"))
}

// AudioStats runs the astats filter over the file's audio stream and
// returns the captured stderr text.
func (c *Client) AudioStats(ctx context.Context, path string) (string, error) {
	return c.run(ctx, c.buildArgs(path, "-filter:a", "astats=metadata=1", "-map", "0:a"))
}

// HighpassStats runs astats behind a high-pass filter at the given
// cutoff frequency in Hz and returns the captured stderr text.
func (c *Client) HighpassStats(ctx context.Context, path string, frequency int) (string, error) {
	filter := fmt.Sprintf("highpass=f=%d,astats=metadata=1", frequency)
	return c.run(ctx, c.buildArgs(path, "-filter:a", filter, "-map", "0:a"))
}

// buildArgs assembles the shared invocation shape. The banner and log
// level flags trail the null output to match the wrapped tool's
// documented command lines.
func (c *Client) buildArgs(path string, filterArgs ...string) []string {
	args := append([]string{"-i", path}, filterArgs...)
	args = append(args, "-f", "null", "-")
	if c.hideBanner {
		args = append(args, "-hide_banner")
	}
	args = append(args, "-loglevel", c.logLevel)
	return args
}

func (c *Client) run(ctx context.Context, args []string) (string, error) {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := c.exec.Run(runCtx, c.binary, args)
	if err != nil {
		if ctx.Err() != nil {
			return result.Stderr, ctx.Err()
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			return result.Stderr, fmt.Errorf("%w after %s", ErrProbeTimeout, c.timeout)
		}
		return result.Stderr, fmt.Errorf("run %s: %w", c.binary, err)
	}
	return result.Stderr, nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (Result, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Stderr: stderr.String()}
	if err != nil {
		// ffmpeg exits non-zero for unreadable inputs while still
		// writing its findings to stderr.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}
	return result, nil
}
