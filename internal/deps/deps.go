package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"subforge/internal/config"
)

// Requirement defines an external dependency subforge relies on.
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
	Detail      string
}

// Requirements returns the external binaries the pipeline shells out to.
func Requirements(cfg *config.Config) []Requirement {
	ffmpeg, ffprobe, ffsubsync := "ffmpeg", "ffprobe", "ffsubsync"
	if cfg != nil {
		ffmpeg = cfg.FFmpegBinary()
		ffprobe = cfg.FFprobeBinary()
		ffsubsync = cfg.FFsubsyncBinary()
	}
	return []Requirement{
		{Name: "ffmpeg", Command: ffmpeg, Description: "stream-copy remuxing of subtitle tracks"},
		{Name: "ffprobe", Command: ffprobe, Description: "container and stream inspection"},
		{Name: "ffsubsync", Command: ffsubsync, Description: "subtitle timing alignment", Optional: true},
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
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
