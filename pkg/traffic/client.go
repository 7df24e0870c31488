package traffic

import (
	"camera-ingest/entities"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

var (
	ErrUnavailable  = errors.New("camera directory unavailable")
	ErrUnauthorized = errors.New("camera directory rejected api key")
	ErrMissingKey   = errors.New("camera directory api key is required")
)

const (
	camerasEndpoint = "getcameras"
	signsEndpoint   = "getmessagesigns"

	DefaultBaseURL  = "https://511ny.org/api"
	DefaultTimeout  = 15 * time.Second
	DefaultCacheTTL = 5 * time.Minute
)

type Config struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client talks to the traffic camera directory API. Directory listings are
// cached for CacheTTL.
type Client struct {
	cfg        Config
	httpClient *http.Client
	cache      *cache.Cache
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
	}, nil
}

func (c *Client) GetCameras(ctx context.Context) ([]entities.Camera, error) {
	if cached, found := c.cache.Get(camerasEndpoint); found {
		if cameras, ok := cached.([]entities.Camera); ok {
			return slices.Clone(cameras), nil
		}
	}

	var payload []cameraResponse
	if err := c.fetch(ctx, camerasEndpoint, &payload); err != nil {
		return nil, err
	}

	cameras := make([]entities.Camera, 0, len(payload))
	for _, p := range payload {
		cameras = append(cameras, p.toEntity())
	}
	c.cache.SetDefault(camerasEndpoint, cameras)

	zerolog.Ctx(ctx).Debug().Int("count", len(cameras)).Msg("fetched camera directory")
	return slices.Clone(cameras), nil
}

func (c *Client) GetSigns(ctx context.Context) ([]entities.Sign, error) {
	if cached, found := c.cache.Get(signsEndpoint); found {
		if signs, ok := cached.([]entities.Sign); ok {
			return cloneSigns(signs), nil
		}
	}

	var payload []signResponse
	if err := c.fetch(ctx, signsEndpoint, &payload); err != nil {
		return nil, err
	}

	signs := make([]entities.Sign, 0, len(payload))
	for _, p := range payload {
		signs = append(signs, p.toEntity())
	}
	c.cache.SetDefault(signsEndpoint, signs)

	zerolog.Ctx(ctx).Debug().Int("count", len(signs)).Msg("fetched sign directory")
	return cloneSigns(signs), nil
}

// cloneSigns copies the cached listing so callers cannot edit the cache.
func cloneSigns(signs []entities.Sign) []entities.Sign {
	out := slices.Clone(signs)
	for i := range out {
		out[i].Messages = slices.Clone(out[i].Messages)
	}
	return out
}

// Flush drops cached directory listings.
func (c *Client) Flush() {
	c.cache.Flush()
}

func (c *Client) fetch(ctx context.Context, endpoint string, out any) error {
	reqURL := fmt.Sprintf("%s/%s?%s", strings.TrimSuffix(c.cfg.BaseURL, "/"), endpoint, url.Values{
		"key":    {c.cfg.APIKey},
		"format": {"json"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("endpoint", endpoint).Msg("camera directory request failed")
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, endpoint, stripKey(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned %d", ErrUnauthorized, endpoint, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", ErrUnavailable, endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrUnavailable, endpoint, err)
	}
	return nil
}

// stripKey removes the request URL, which carries the api key, from transport errors.
func stripKey(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
