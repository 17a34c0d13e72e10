package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeYouTube()
	c.normalizeMatching()
	c.normalizeLLM()
	c.normalizePodbean()
	c.normalizeAudio()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key   string
		value *string
	}{
		{"paths.input_dir", &c.Paths.InputDir},
		{"paths.output_dir", &c.Paths.OutputDir},
		{"paths.podcasts_dir", &c.Paths.PodcastsDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"paths.state_dir", &c.Paths.StateDir},
	}
	for _, field := range fields {
		expanded, err := expandPath(*field.value)
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeYouTube() {
	c.YouTube.APIKey = firstNonEmpty(c.YouTube.APIKey, os.Getenv("YOUTUBE_API_KEY"))
	c.YouTube.BaseURL = strings.TrimRight(strings.TrimSpace(c.YouTube.BaseURL), "/")
	if c.YouTube.BaseURL == "" {
		c.YouTube.BaseURL = defaultYouTubeBaseURL
	}
	c.YouTube.Channel = strings.TrimSpace(c.YouTube.Channel)
	if c.YouTube.MaxResults <= 0 {
		c.YouTube.MaxResults = defaultYouTubeMaxResults
	}
	if c.YouTube.RequestsPerSecond <= 0 {
		c.YouTube.RequestsPerSecond = defaultYouTubeRequestsPerSecond
	}
}

func (c *Config) normalizeMatching() {
	if c.Matching.Workers <= 0 {
		c.Matching.Workers = defaultMatchWorkers
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = firstNonEmpty(c.LLM.APIKey, os.Getenv("GROQ_API_KEY"), os.Getenv("LLM_API_KEY"))
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizePodbean() {
	c.Podbean.ClientID = firstNonEmpty(c.Podbean.ClientID, os.Getenv("PODBEAN_CLIENT_ID"))
	c.Podbean.ClientSecret = firstNonEmpty(c.Podbean.ClientSecret, os.Getenv("PODBEAN_CLIENT_SECRET"))
	c.Podbean.BaseURL = strings.TrimRight(strings.TrimSpace(c.Podbean.BaseURL), "/")
	if c.Podbean.BaseURL == "" {
		c.Podbean.BaseURL = defaultPodbeanBaseURL
	}
	if strings.TrimSpace(c.Podbean.Timezone) == "" {
		c.Podbean.Timezone = defaultPodbeanTimezone
	}
	if strings.TrimSpace(c.Podbean.PublishTime) == "" {
		c.Podbean.PublishTime = defaultPodbeanPublishTime
	}
	if strings.TrimSpace(c.Podbean.UserAgent) == "" {
		c.Podbean.UserAgent = defaultPodbeanUserAgent
	}
}

func (c *Config) normalizeAudio() {
	c.Audio.YTDLPBinary = firstNonEmpty(c.Audio.YTDLPBinary, defaultYTDLPBinary)
	c.Audio.FFmpegBinary = firstNonEmpty(c.Audio.FFmpegBinary, defaultFFmpegBinary)
	c.Audio.Bitrate = firstNonEmpty(c.Audio.Bitrate, defaultBitrate)
	c.Audio.CutBitrate = firstNonEmpty(c.Audio.CutBitrate, defaultCutBitrate)
	c.Audio.TranscodeBitrate = firstNonEmpty(c.Audio.TranscodeBitrate, defaultTranscodeBitrate)
	if c.Audio.Workers <= 0 {
		c.Audio.Workers = max(1, runtime.NumCPU()-1)
	}
	if c.Audio.CommandTimeout <= 0 {
		c.Audio.CommandTimeout = defaultAudioCommandTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
