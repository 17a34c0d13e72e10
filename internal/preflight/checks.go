package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"podpipe/internal/config"
	"podpipe/internal/deps"
	"podpipe/internal/services/llm"
)

// llmProbeTimeout bounds the single unretried health request.
const llmProbeTimeout = 30 * time.Second

// CheckLLM sends one chat request to the configured endpoint.
func CheckLLM(ctx context.Context, name string, cfg config.LLM) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	probeCtx, cancel := context.WithTimeout(ctx, llmProbeTimeout)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		Referer:        cfg.Referer,
		Title:          cfg.Title,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(probeCtx); err != nil {
		return Result{Name: name, Detail: describeLLMFailure(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess passes when path is a directory the process can list
// and write into.
func CheckDirectoryAccess(name, path string) Result {
	fail := func(problem string) Result {
		return Result{Name: name, Detail: path + " (error: " + problem + ")"}
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fail("does not exist")
	case err != nil:
		return fail("stat: " + err.Error())
	case !info.IsDir():
		return fail("is not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fail("insufficient permissions: " + err.Error())
	}
	return Result{Name: name, Passed: true, Detail: path + " (read/write ok)"}
}

// CheckCredential passes when value is set. The value itself is never echoed.
func CheckCredential(name, value string) Result {
	if value == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckAudioBinaries reports yt-dlp and ffmpeg availability as results.
func CheckAudioBinaries(ctx context.Context, cfg config.Audio) []Result {
	statuses := deps.CheckBinaries(ctx, deps.AudioRequirements(cfg))
	results := make([]Result, 0, len(statuses))
	for _, s := range statuses {
		r := Result{Name: s.Name, Passed: s.Available || s.Optional, Detail: s.Detail}
		if s.Available {
			r.Detail = s.Command
			if s.Version != "" {
				r.Detail = fmt.Sprintf("%s (%s)", s.Command, s.Version)
			}
		}
		results = append(results, r)
	}
	return results
}

func describeLLMFailure(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "health check timed out (LLM API unresponsive)"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "health check timed out (LLM API unreachable)"
	default:
		return err.Error()
	}
}
