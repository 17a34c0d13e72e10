// Package deps reports whether the external binaries podpipe shells out to
// are installed.
package deps

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"podpipe/internal/config"
)

// Requirement defines an external dependency podpipe relies on.
type Requirement struct {
	Name        string
	Command     string
	VersionFlag string
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
	Version     string
	Detail      string
}

// AudioRequirements lists the binaries the converter and batch jobs run.
func AudioRequirements(cfg config.Audio) []Requirement {
	return []Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.YTDLPBinary,
			VersionFlag: "--version",
			Description: "Required to fetch titles and download audio",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary,
			VersionFlag: "-version",
			Description: "Required for transcoding, cutting and loudness normalization",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
// When a requirement names a VersionFlag the first line of that output is
// recorded as the version.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
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
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		if req.VersionFlag != "" {
			status.Version = probeVersion(ctx, path, req.VersionFlag)
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}

func probeVersion(ctx context.Context, path, flag string) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, flag).Output() //nolint:gosec
	if err != nil {
		return ""
	}
	line, _, _ := bytes.Cut(bytes.TrimSpace(out), []byte("\n"))
	return strings.TrimSpace(string(line))
}
