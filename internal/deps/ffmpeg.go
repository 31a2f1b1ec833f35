package deps

import (
	"context"
	"os/exec"
	"strings"

	"audio-analyzer/internal/config"
)

// Check inspects every dependency for the loaded configuration. When the
// ffmpeg binary resolves, its version banner is recorded as the status
// detail.
func Check(ctx context.Context, cfg *config.Config) []Status {
	statuses := CheckBinaries(ForConfig(cfg))
	for i := range statuses {
		if statuses[i].Name != "ffmpeg" || !statuses[i].Available {
			continue
		}
		if version := FFmpegVersion(ctx, statuses[i].Path); version != "" {
			statuses[i].Detail = version
		}
	}
	return statuses
}

// FFmpegVersion reports the first line of `ffmpeg -version` output, or an
// empty string when the binary cannot be run.
func FFmpegVersion(ctx context.Context, binary string) string {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return ""
	}
	cmd := exec.CommandContext(ctx, binary, "-version")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(line)
}
