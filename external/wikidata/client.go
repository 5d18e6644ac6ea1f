package wikidata

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/player-scout/internal/domain/profile"
	"github.com/riskibarqy/player-scout/internal/platform/cache"
	"github.com/riskibarqy/player-scout/internal/platform/logging"
	"github.com/riskibarqy/player-scout/internal/platform/resilience"
	"github.com/riskibarqy/player-scout/internal/usecase"
)

const (
	defaultBaseURL     = "https://www.wikidata.org"
	defaultLanguage    = "en"
	defaultFallback    = "fr"
	commonsFilePathURL = "https://commons.wikimedia.org/wiki/Special:FilePath/"
	labelCacheTTL      = 6 * time.Hour
)

var errWikidataTransient = crerr.New("wikidata transient failure")

type ClientConfig struct {
	HTTPClient       *http.Client
	BaseURL          string
	UserAgent        string
	Language         string
	FallbackLanguage string
	Timeout          time.Duration
	MaxRetries       int
	Logger           *logging.Logger
	CircuitBreaker   resilience.CircuitBreakerConfig
}

// Client is the structured source: entity search plus typed claims.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	userAgent      string
	languages      []string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	labels         *cache.Store
	now            func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("wikidata")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	primary := firstNonEmpty(cfg.Language, defaultLanguage)
	fallback := firstNonEmpty(cfg.FallbackLanguage, defaultFallback)

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	breaker := resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq)
	breaker.OnStateChange(func(from, to resilience.CircuitState) {
		logger.Warn("circuit breaker state changed", "from", string(from), "to", string(to))
	})

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		userAgent:      strings.TrimSpace(cfg.UserAgent),
		languages:      []string{primary, fallback},
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        breaker,
		circuitEnabled: breakerCfg.Enabled,
		labels:         cache.NewStore(labelCacheTTL),
		now:            time.Now,
	}
}

func (c *Client) Source() profile.Source {
	return profile.SourceStructured
}

// Extract takes the top search hit and maps its claims. Claims the entity
// does not carry are left unset.
func (c *Client) Extract(ctx context.Context, query profile.Query) (profile.AttributeSet, error) {
	name := strings.TrimSpace(query.Name)
	if name == "" {
		return profile.AttributeSet{}, fmt.Errorf("%w: player name is required", usecase.ErrInvalidInput)
	}

	entityID, err := c.search(ctx, name)
	if err != nil {
		return profile.AttributeSet{}, err
	}

	entity, err := c.entity(ctx, entityID)
	if err != nil {
		return profile.AttributeSet{}, fmt.Errorf("fetch entity id=%s: %w", entityID, err)
	}

	set := profile.Empty(profile.SourceStructured)
	set.Locator = c.baseURL + "/wiki/" + entityID
	set.Name = profile.Text(pickLabel(entity.Labels, c.languages))

	if birth, ok := entity.firstTime(propBirthDate); ok {
		set.Age = profile.Int(ageOn(birth, c.now()))
	}
	if height, ok := entity.firstQuantity(propHeight); ok {
		set.Height = profile.Text(formatHeight(height))
	}
	if image, ok := entity.firstString(propImage); ok {
		set.ImageURL = profile.Text(commonsFilePathURL + url.PathEscape(strings.ReplaceAll(image, " ", "_")))
	}

	if ref, ok := entity.firstReference(propCitizenship); ok {
		set.Nationality = profile.Text(c.label(ctx, ref))
	}
	if ref, ok := entity.firstReference(propPosition); ok {
		if label := c.label(ctx, ref); label != "" {
			set.Position = profile.StructuredPosition(label)
		}
	}
	if ref, ok := entity.currentReference(propTeam); ok {
		set.CurrentClub = profile.Text(c.label(ctx, ref))
	}

	return set, nil
}

func (c *Client) search(ctx context.Context, name string) (string, error) {
	query := map[string]string{
		"action":   "wbsearchentities",
		"search":   name,
		"language": c.languages[0],
		"type":     "item",
		"limit":    "1",
		"format":   "json",
	}

	var payload searchResponse
	if err := c.doJSON(ctx, "/w/api.php", query, &payload); err != nil {
		return "", fmt.Errorf("search entity name=%s: %w", name, err)
	}
	if len(payload.Search) == 0 || strings.TrimSpace(payload.Search[0].ID) == "" {
		return "", fmt.Errorf("%w: no wikidata entity for %q", usecase.ErrNoSourceData, name)
	}
	return payload.Search[0].ID, nil
}

func (c *Client) entity(ctx context.Context, entityID string) (entity, error) {
	var payload entityResponse
	if err := c.doJSON(ctx, "/wiki/Special:EntityData/"+url.PathEscape(entityID)+".json", nil, &payload); err != nil {
		return entity{}, err
	}
	item, ok := payload.Entities[entityID]
	if !ok {
		for _, candidate := range payload.Entities {
			item = candidate
			ok = true
			break
		}
	}
	if !ok {
		return entity{}, fmt.Errorf("%w: entity %s missing from payload", usecase.ErrNoSourceData, entityID)
	}
	return item, nil
}

// label resolves a referenced entity to its display label. Lookup failures
// leave the field unset.
func (c *Client) label(ctx context.Context, entityID string) string {
	out, err := c.labels.GetOrLoad(ctx, "label:"+entityID, func(ctx context.Context) (any, error) {
		query := map[string]string{
			"action":    "wbgetentities",
			"ids":       entityID,
			"props":     "labels",
			"languages": strings.Join(c.languages, "|"),
			"format":    "json",
		}
		var payload entityResponse
		if err := c.doJSON(ctx, "/w/api.php", query, &payload); err != nil {
			return nil, err
		}
		return pickLabel(payload.Entities[entityID].Labels, c.languages), nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "resolve entity label failed", "entity_id", entityID, "error", err)
		return ""
	}
	label, _ := out.(string)
	return label
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: wikidata is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && stderrors.Is(reqErr, errWikidataTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode wikidata payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		if c.userAgent != "" {
			req.Header.Set("user-agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errWikidataTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errWikidataTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: wikidata status=%d body=%s", errWikidataTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("wikidata status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("wikidata request failed")
	}
	c.logger.WarnContext(ctx, "wikidata request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func firstNonEmpty(values ...string) string {
	for _, item := range values {
		if strings.TrimSpace(item) != "" {
			return strings.TrimSpace(item)
		}
	}
	return ""
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
