package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"batchscribe/internal/config"
)

// Requirement defines an external binary batchscribe relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency. Path is the resolved
// executable when Available.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
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
		resolved, err := exec.LookPath(cmd)
		if err != nil {
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

// Requirements lists the binaries a run with cfg needs. whisper-cli is only
// required for the whispercpp engine; nvidia-smi is always optional.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required to decode recordings to 16 kHz mono PCM",
		},
	}
	if cfg.Transcription.Engine == config.EngineWhisperCPP {
		reqs = append(reqs, Requirement{
			Name:        "whisper.cpp",
			Command:     cfg.WhisperCPP.Binary,
			Description: "Required for local transcription",
		})
	}
	if cfg.Transcription.Device != config.DeviceCPU {
		reqs = append(reqs, Requirement{
			Name:        "nvidia-smi",
			Command:     "nvidia-smi",
			Description: "Reports GPU model and memory",
			Optional:    true,
		})
	}
	return reqs
}

// MissingRequired returns the required statuses that are unavailable.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
