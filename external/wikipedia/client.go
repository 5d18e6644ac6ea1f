package wikipedia

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/player-scout/internal/domain/profile"
	"github.com/riskibarqy/player-scout/internal/platform/logging"
	"github.com/riskibarqy/player-scout/internal/usecase"
)

const (
	defaultBaseURL = "https://en.wikipedia.org"
	summaryPath    = "/api/rest_v1/page/summary/"
)

var accentReplacer = strings.NewReplacer("é", "e", "è", "e", "ê", "e")

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	Logger     *logging.Logger
}

// Client looks up a portrait through the page summary endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 5 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		logger:     logger.Named("wikipedia"),
	}
}

func (c *Client) Source() profile.Source {
	return profile.SourceImage
}

// Extract tries the name variants in order and returns the first summary
// that carries a thumbnail.
func (c *Client) Extract(ctx context.Context, query profile.Query) (profile.AttributeSet, error) {
	name := strings.TrimSpace(query.Name)
	if name == "" {
		return profile.AttributeSet{}, fmt.Errorf("%w: player name is required", usecase.ErrInvalidInput)
	}

	for _, variant := range nameVariants(name) {
		if err := ctx.Err(); err != nil {
			return profile.AttributeSet{}, err
		}

		summary, err := c.summary(ctx, variant)
		if err != nil {
			c.logger.DebugContext(ctx, "summary lookup skipped", "variant", variant, "error", err)
			continue
		}
		source := strings.TrimSpace(summary.Thumbnail.Source)
		if source == "" {
			continue
		}

		set := profile.Empty(profile.SourceImage)
		set.ImageURL = profile.Text(strings.Replace(source, "200px", "400px", 1))
		set.Locator = firstNonEmpty(summary.ContentURLs.Desktop.Page, c.baseURL+"/wiki/"+url.PathEscape(variant))
		return set, nil
	}

	return profile.AttributeSet{}, fmt.Errorf("%w: no wikipedia image for %q", usecase.ErrNoSourceData, name)
}

type summaryResponse struct {
	Title     string `json:"title"`
	Thumbnail struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

func (c *Client) summary(ctx context.Context, title string) (summaryResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+summaryPath+url.PathEscape(title), nil)
	if err != nil {
		return summaryResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("user-agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return summaryResponse{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return summaryResponse{}, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return summaryResponse{}, fmt.Errorf("wikipedia status=%d", resp.StatusCode)
	}

	var out summaryResponse
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return summaryResponse{}, fmt.Errorf("decode summary: %w", err)
	}
	return out, nil
}

// nameVariants lists page titles to try: the name, its underscored form,
// an unaccented form and the first name alone.
func nameVariants(name string) []string {
	candidates := []string{
		name,
		strings.ReplaceAll(name, " ", "_"),
		accentReplacer.Replace(name),
	}
	if first, _, ok := strings.Cut(name, " "); ok {
		candidates = append(candidates, first)
	}

	out := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, item := range candidates {
		title := strings.ReplaceAll(strings.TrimSpace(item), " ", "_")
		if title == "" {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, title)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, item := range values {
		if strings.TrimSpace(item) != "" {
			return strings.TrimSpace(item)
		}
	}
	return ""
}
