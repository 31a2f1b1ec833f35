package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"audio-analyzer/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp paths per test. It
// defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Analyzer.Workers = 2
	cfgVal.Analyzer.ShowProgress = false
	cfgVal.Output.Directory = filepath.Join(base, "output")
	cfgVal.History.Enabled = false
	cfgVal.History.Path = filepath.Join(base, "history.db")
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithHistory enables the run-history database on the test config.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = true
	}
}

// WithOutputBesideRoot clears the output directory so run artifacts land
// inside the analyzed directory.
func WithOutputBesideRoot() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.Directory = ""
	}
}

// WithExtensions replaces the audio extension allow-list.
func WithExtensions(exts ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analyzer.Extensions = exts
	}
}

// WithWorkers overrides batch parallelism on the test config.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analyzer.Workers = n
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			StubBinary(b.t, binDir, name, "exit 0\n")
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Output.Directory)
}
