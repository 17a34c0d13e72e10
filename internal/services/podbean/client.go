package podbean

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"podpipe/internal/logging"
	"podpipe/internal/services"
)

const (
	defaultBaseURL   = "https://api.podbean.com/v1"
	defaultUserAgent = "podpipe/1.0"
	defaultTimeout   = 2 * time.Minute
	stageName        = "publish"
	tokenSkew        = 30 * time.Second
)

// Config carries Podbean API credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	UserAgent    string
}

// Episode is the subset of the episode resource returned after scheduling.
type Episode struct {
	ID           string `json:"id"`
	PermalinkURL string `json:"permalink_url"`
	Status       string `json:"status"`
	PublishTime  int64  `json:"publish_time"`
}

// Client talks to the Podbean API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a client from cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "podbean")
	return c
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns the cached token, fetching a new one when missing or
// about to expire.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && (c.tokenExpiry.IsZero() || c.now().Before(c.tokenExpiry)) {
		return c.token, nil
	}
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return "", services.Wrap(services.ErrConfiguration, stageName, "oauth token", "podbean credentials not configured", nil)
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("podbean token: new request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tok tokenResponse
	if err := c.do(req, "oauth token", &tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", services.Wrap(services.ErrExternalTool, stageName, "oauth token", "empty access token", nil)
	}
	c.token = tok.AccessToken
	c.tokenExpiry = time.Time{}
	if tok.ExpiresIn > 0 {
		c.tokenExpiry = c.now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenSkew)
	}
	c.logger.Debug("podbean token acquired", logging.String("token_type", tok.TokenType))
	return c.token, nil
}

type uploadAuthorization struct {
	PresignedURL string `json:"presigned_url"`
	FileKey      string `json:"file_key"`
	ExpireAt     int64  `json:"expire_at"`
}

// UploadAudio uploads the file at path and returns the media key to
// reference when creating the episode.
func (c *Client) UploadAudio(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, stageName, "upload", "stat audio file", err)
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("access_token", token)
	params.Set("filename", filepath.Base(path))
	params.Set("filesize", strconv.FormatInt(info.Size(), 10))
	params.Set("content_type", "audio/mpeg")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/files/uploadAuthorize?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("podbean upload authorize: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var auth uploadAuthorization
	if err := c.do(req, "upload authorize", &auth); err != nil {
		return "", err
	}
	if auth.PresignedURL == "" || auth.FileKey == "" {
		return "", services.Wrap(services.ErrExternalTool, stageName, "upload authorize", "missing presigned url or file key", nil)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("podbean upload: open: %w", err)
	}
	defer file.Close()
	put, err := http.NewRequestWithContext(ctx, http.MethodPut, auth.PresignedURL, file)
	if err != nil {
		return "", fmt.Errorf("podbean upload: new request: %w", err)
	}
	put.ContentLength = info.Size()
	put.Header.Set("Content-Type", "audio/mpeg")
	if err := c.do(put, "upload", nil); err != nil {
		return "", err
	}

	c.logger.Info("audio uploaded",
		logging.String(logging.FieldEventType, "audio_uploaded"),
		logging.String("file", filepath.Base(path)),
		logging.Int64("bytes", info.Size()),
	)
	return auth.FileKey, nil
}

// ScheduleEpisode creates a public episode that goes live at publishAt.
func (c *Client) ScheduleEpisode(ctx context.Context, title, description, mediaKey string, publishAt time.Time) (Episode, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return Episode{}, err
	}
	form := url.Values{}
	form.Set("access_token", token)
	form.Set("title", title)
	form.Set("content", description)
	form.Set("status", "future")
	form.Set("type", "public")
	form.Set("media_key", mediaKey)
	form.Set("publish_timestamp", strconv.FormatInt(publishAt.Unix(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/episodes", strings.NewReader(form.Encode()))
	if err != nil {
		return Episode{}, fmt.Errorf("podbean schedule: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp struct {
		Episode Episode `json:"episode"`
	}
	if err := c.do(req, "schedule episode", &resp); err != nil {
		return Episode{}, err
	}
	if resp.Episode.ID == "" {
		return Episode{}, services.Wrap(services.ErrExternalTool, stageName, "schedule episode", "response missing episode id", nil)
	}
	return resp.Episode, nil
}

func (c *Client) do(req *http.Request, op string, out any) error {
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, stageName, op, "request failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.Wrap(services.ErrTransient, stageName, op, "read body", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		marker := services.ErrExternalTool
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			marker = services.ErrTransient
		}
		msg := strings.Join(strings.Fields(string(body)), " ")
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return services.Wrap(marker, stageName, op, fmt.Sprintf("status %d: %s", resp.StatusCode, msg), nil)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("podbean %s: decode response: %w", op, err)
	}
	return nil
}
