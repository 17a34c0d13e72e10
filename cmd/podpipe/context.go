package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"podpipe/internal/config"
	"podpipe/internal/logging"
	"podpipe/internal/runlock"
	"podpipe/internal/services"
	"podpipe/internal/store"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg, cmd.ErrOrStderr())
}

// session is one recorded command invocation.
type session struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	lock   *runlock.Lock
	runID  string
}

// begin loads config, opens the store and records a run. With exclusive set
// the run lock is taken first and a concurrent run fails fast.
func (c *commandContext) begin(cmd *cobra.Command, command string, exclusive bool) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger(cmd)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, runID: services.NewRunID()}
	if exclusive {
		lock, err := runlock.Acquire(cfg.LockPath())
		if err != nil {
			return nil, err
		}
		s.lock = lock
	}

	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	st, err := store.Open(base, cfg.StorePath())
	if err != nil {
		_ = s.lock.Release()
		return nil, fmt.Errorf("open state store: %w", err)
	}
	s.store = st
	if err := st.StartRun(base, s.runID, command); err != nil {
		_ = st.Close()
		_ = s.lock.Release()
		return nil, err
	}

	s.ctx = services.WithRunID(base, s.runID)
	s.logger = logger.With(logging.String(logging.FieldRunID, s.runID))
	s.logger.Debug("run started", logging.String(logging.FieldEventType, "run_started"), logging.String("command", command))
	return s, nil
}

// finish records the outcome and releases resources. It returns cause so
// callers can end with "return s.finish(err, summary)".
func (s *session) finish(cause error, summary string) error {
	status := store.StatusCompleted
	if cause != nil {
		status = services.FailureStatus(cause)
		if errors.Is(cause, context.Canceled) {
			status = store.StatusFailed
			summary = "interrupted"
		} else if summary == "" {
			summary = cause.Error()
		}
	}
	// The command context may already be cancelled.
	if err := s.store.FinishRun(context.WithoutCancel(s.ctx), s.runID, status, summary); err != nil {
		logging.WarnWithContext(s.logger, "failed to record run outcome", "store_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history shows the run as running"),
		)
	}
	_ = s.store.Close()
	if err := s.lock.Release(); err != nil && cause == nil {
		cause = err
	}
	return cause
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
