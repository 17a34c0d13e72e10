package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Executor runs an external binary and returns its stdout.
type Executor interface {
	Run(ctx context.Context, binary string, args ...string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if tail := stderrTail(stderr.String()); tail != "" {
			return stdout.Bytes(), fmt.Errorf("%s: %w: %s", binary, err, tail)
		}
		return stdout.Bytes(), fmt.Errorf("%s: %w", binary, err)
	}
	return stdout.Bytes(), nil
}

// stderrTail keeps the last few non-empty lines, which is where both yt-dlp
// and ffmpeg print the actual failure.
func stderrTail(stderr string) string {
	const keep = 3
	var lines []string
	for line := range strings.SplitSeq(stderr, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	return strings.Join(lines, " | ")
}
