package analyzer

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// NewProgressBar returns a ProgressFunc that renders an interactive
// bar on w, or nil when w is not a terminal.
func NewProgressBar(w io.Writer, total int) ProgressFunc {
	if !isTerminal(w) {
		return nil
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("analyzing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowIts(),
	)
	return func(done, total int) {
		_ = bar.Set(done)
		if done >= total {
			_ = bar.Finish()
		}
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
