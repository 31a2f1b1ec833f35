package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"audio-analyzer/internal/config"
)

// Requirement defines an external binary the analyzer relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// ForConfig assembles the requirement set for a loaded configuration.
func ForConfig(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "ffmpeg",
			Command:     cfg.FFmpeg.Binary,
			Description: "runs the loudness and spectral probes",
		},
		{
			Name:        "report generator",
			Command:     cfg.Report.Command,
			Description: "turns the JSON dataset into the final report",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = resolved
		results = append(results, status)
	}
	return results
}
