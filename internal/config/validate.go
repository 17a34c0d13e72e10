package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Validate ensures the configuration is usable. Service credentials are not
// checked here; see RequireYouTube, RequireLLM and RequirePodbean.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validatePodbean(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.PodcastsDir == "" {
		return errors.New("paths.podcasts_dir must be set")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateYouTube() error {
	if c.YouTube.Channel == "" {
		return errors.New("youtube.channel must be set")
	}
	if !strings.HasPrefix(c.YouTube.BaseURL, "http://") && !strings.HasPrefix(c.YouTube.BaseURL, "https://") {
		return fmt.Errorf("youtube.base_url must be an http(s) URL, got %q", c.YouTube.BaseURL)
	}
	return nil
}

func (c *Config) validateMatching() error {
	thresholds := []struct {
		key   string
		value float64
	}{
		{"matching.threshold", c.Matching.Threshold},
		{"matching.part_threshold", c.Matching.PartThreshold},
		{"matching.file_threshold", c.Matching.FileThreshold},
	}
	for _, th := range thresholds {
		if th.value < 0 || th.value > 100 {
			return fmt.Errorf("%s must be between 0 and 100", th.key)
		}
	}
	m := c.Matching
	if m.WeightPartial < 0 || m.WeightTokenSet < 0 || m.WeightTokenSort < 0 {
		return errors.New("matching weights must not be negative")
	}
	if m.WeightPartial+m.WeightTokenSet+m.WeightTokenSort <= 0 {
		return errors.New("matching weights must sum to a positive value")
	}
	return nil
}

func (c *Config) validatePodbean() error {
	if _, err := time.LoadLocation(c.Podbean.Timezone); err != nil {
		return fmt.Errorf("podbean.timezone %q is not a known zone: %w", c.Podbean.Timezone, err)
	}
	if _, _, err := c.PublishClock(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.SampleRate <= 0 || c.Audio.TranscodeSampleRate <= 0 {
		return errors.New("audio sample rates must be positive")
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > 2 {
		return errors.New("audio.channels must be 1 or 2")
	}
	if c.Audio.MaxRetries < 1 {
		return errors.New("audio.max_retries must be at least 1")
	}
	if c.Audio.RetryDelaySeconds < 0 {
		return errors.New("audio.retry_delay_seconds must not be negative")
	}
	if c.Audio.CutSeconds < 0 {
		return errors.New("audio.cut_seconds must not be negative")
	}
	if c.Audio.MinOutputBytes < 0 {
		return errors.New("audio.min_output_bytes must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains([]string{"console", "json"}, c.Logging.Format) {
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// RequireYouTube reports a missing YouTube Data API key.
func (c *Config) RequireYouTube() error {
	if c.YouTube.APIKey == "" {
		return missingCredential("youtube.api_key", "YOUTUBE_API_KEY")
	}
	return nil
}

// RequireLLM reports a missing LLM API key.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return missingCredential("llm.api_key", "GROQ_API_KEY")
	}
	return nil
}

// RequirePodbean reports missing Podbean client credentials.
func (c *Config) RequirePodbean() error {
	if c.Podbean.ClientID == "" {
		return missingCredential("podbean.client_id", "PODBEAN_CLIENT_ID")
	}
	if c.Podbean.ClientSecret == "" {
		return missingCredential("podbean.client_secret", "PODBEAN_CLIENT_SECRET")
	}
	return nil
}

func missingCredential(key, env string) error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/podpipe/config.toml"
	}
	return fmt.Errorf("%s is required. Set %s or edit %s (create with 'podpipe config init')", key, env, defaultPath)
}
