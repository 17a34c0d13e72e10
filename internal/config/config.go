package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths groups every directory podpipe reads from or writes to.
type Paths struct {
	InputDir    string `toml:"input_dir"`
	OutputDir   string `toml:"output_dir"`
	PodcastsDir string `toml:"podcasts_dir"`
	LogDir      string `toml:"log_dir"`
	StateDir    string `toml:"state_dir"`
}

// YouTube configures the channel catalog fetch.
type YouTube struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	Channel           string  `toml:"channel"`
	MaxResults        int     `toml:"max_results"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Matching holds the fuzzy matching thresholds and metric weights.
type Matching struct {
	Threshold       float64 `toml:"threshold"`
	PartThreshold   float64 `toml:"part_threshold"`
	FileThreshold   float64 `toml:"file_threshold"`
	WeightPartial   float64 `toml:"weight_partial"`
	WeightTokenSet  float64 `toml:"weight_token_set"`
	WeightTokenSort float64 `toml:"weight_token_sort"`
	Workers         int     `toml:"workers"`
}

// LLM configures the OpenAI-compatible endpoint used to parse schedule
// messages.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Podbean configures episode hosting.
type Podbean struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	BaseURL      string `toml:"base_url"`
	Timezone     string `toml:"timezone"`
	PublishTime  string `toml:"publish_time"`
	UserAgent    string `toml:"user_agent"`
}

// Audio configures downloads and ffmpeg encodes.
type Audio struct {
	YTDLPBinary         string  `toml:"ytdlp_binary"`
	FFmpegBinary        string  `toml:"ffmpeg_binary"`
	SampleRate          int     `toml:"sample_rate"`
	Bitrate             string  `toml:"bitrate"`
	Channels            int     `toml:"channels"`
	LoudnessTarget      float64 `toml:"loudness_target"`
	MaxRetries          int     `toml:"max_retries"`
	RetryDelaySeconds   int     `toml:"retry_delay_seconds"`
	MinOutputBytes      int64   `toml:"min_output_bytes"`
	CutSeconds          int     `toml:"cut_seconds"`
	CutBitrate          string  `toml:"cut_bitrate"`
	TranscodeSampleRate int     `toml:"transcode_sample_rate"`
	TranscodeBitrate    string  `toml:"transcode_bitrate"`
	Workers             int     `toml:"workers"`
	CommandTimeout      int     `toml:"command_timeout"`
}

// Logging configures the slog handlers.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for podpipe.
type Config struct {
	Paths    Paths    `toml:"paths"`
	YouTube  YouTube  `toml:"youtube"`
	Matching Matching `toml:"matching"`
	LLM      LLM      `toml:"llm"`
	Podbean  Podbean  `toml:"podbean"`
	Audio    Audio    `toml:"audio"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the expanded default config location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/podpipe/config.toml")
}

// Load reads configuration from disk, applies defaults, expands paths, and
// validates the result. It returns the config, the resolved path, and whether
// the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("podpipe.toml")
	if err != nil {
		return "", false, err
	}

	for _, candidate := range []string{defaultPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the working directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.InputDir, c.Paths.OutputDir, c.Paths.PodcastsDir, c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SubscriptionsPath is the CSV of subscription titles to match.
func (c *Config) SubscriptionsPath() string {
	return filepath.Join(c.Paths.InputDir, "spotifylist.csv")
}

// CatalogPath is the cached channel catalog.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.OutputDir, "video_metadata.csv")
}

// MatchesPath is the CSV export of subscription to video matches.
func (c *Config) MatchesPath() string {
	return filepath.Join(c.Paths.OutputDir, "matched_urls.csv")
}

// StorePath is the SQLite database tracking episodes and schedules.
func (c *Config) StorePath() string {
	return filepath.Join(c.Paths.StateDir, "podpipe.db")
}

// LockPath is the flock file guarding pipeline and scheduler runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "podpipe.lock")
}

// RetryDelay returns the audio retry delay as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Audio.RetryDelaySeconds) * time.Second
}

// CommandTimeout bounds a single yt-dlp or ffmpeg invocation.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.Audio.CommandTimeout) * time.Second
}

// Location returns the timezone episodes are scheduled in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Podbean.Timezone)
	if err != nil {
		return nil, fmt.Errorf("podbean.timezone: %w", err)
	}
	return loc, nil
}

// PublishClock parses podbean.publish_time into hour and minute.
func (c *Config) PublishClock() (int, int, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(c.Podbean.PublishTime))
	if err != nil {
		return 0, 0, fmt.Errorf("podbean.publish_time must be HH:MM: %w", err)
	}
	return parsed.Hour(), parsed.Minute(), nil
}

func expandPath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Redacted returns a copy of c with credentials masked.
func (c *Config) Redacted() Config {
	out := *c
	for _, secret := range []*string{
		&out.YouTube.APIKey,
		&out.LLM.APIKey,
		&out.Podbean.ClientID,
		&out.Podbean.ClientSecret,
	} {
		if *secret != "" {
			*secret = redactedValue
		}
	}
	return out
}

const redactedValue = "********"

// Dump renders c, with credentials masked, in the config file format.
func (c *Config) Dump() ([]byte, error) {
	redacted := c.Redacted()
	data, err := toml.Marshal(&redacted)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
