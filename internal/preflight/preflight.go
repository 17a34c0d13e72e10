package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"podpipe/internal/config"
	"podpipe/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Scope selects the checks a command needs.
type Scope struct {
	Catalog bool
	Convert bool
	LLM     bool
	Publish bool
}

// Everything enables every check; used by the status command.
var Everything = Scope{Catalog: true, Convert: true, LLM: true, Publish: true}

// RunAll executes the checks scope asks for. Directory checks always run.
func RunAll(ctx context.Context, cfg *config.Config, scope Scope) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Input directory", cfg.Paths.InputDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Podcasts directory", cfg.Paths.PodcastsDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	if scope.Catalog {
		results = append(results, CheckCredential("YouTube API key", cfg.YouTube.APIKey))
	}
	if scope.Convert {
		results = append(results, CheckAudioBinaries(ctx, cfg.Audio)...)
	}
	if scope.LLM && cfg.LLM.APIKey != "" {
		results = append(results, CheckLLM(ctx, "Schedule LLM", cfg.LLM))
	}
	if scope.Publish {
		results = append(results,
			CheckCredential("Podbean client id", cfg.Podbean.ClientID),
			CheckCredential("Podbean client secret", cfg.Podbean.ClientSecret),
		)
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Err folds failed results into a single configuration error, or nil.
func Err(results []Result) error {
	failed := Failed(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "", strings.Join(parts, "; "), errors.New("preflight failed"))
}
