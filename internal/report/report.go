package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (int, error)
}

// Option configures the generator.
type Option func(*Generator)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(g *Generator) {
		if exec != nil {
			g.exec = exec
		}
	}
}

// Generator invokes the downstream report tool over a finished
// dataset. The tool owns all quality classification and CSV layout;
// this side only hands it paths and checks its exit status.
type Generator struct {
	binary string
	exec   Executor
}

// New constructs a report generator.
func New(binary string, opts ...Option) (*Generator, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("report generator binary required")
	}
	gen := &Generator{
		binary: binary,
		exec:   commandExecutor{},
	}
	for _, opt := range opts {
		opt(gen)
	}
	return gen, nil
}

// Generate runs the report tool against datasetPath, writing the
// report to reportPath. A non-zero exit is a pipeline failure.
func (g *Generator) Generate(ctx context.Context, datasetPath, reportPath string) error {
	args := []string{datasetPath, "-o", reportPath}
	code, err := g.exec.Run(ctx, g.binary, args)
	if err != nil {
		return fmt.Errorf("run report generator: %w", err)
	}
	if code != 0 {
		return fmt.Errorf("report generator exited with code %d", code)
	}
	return nil
}

type commandExecutor struct{}

// Run executes the tool with stdout and stderr passed through, so its
// own progress output reaches the console.
func (commandExecutor) Run(ctx context.Context, binary string, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return exitErr.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}
