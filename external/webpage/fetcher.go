package webpage

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/player-scout/internal/platform/logging"
	"github.com/riskibarqy/player-scout/internal/platform/resilience"
	"github.com/riskibarqy/player-scout/internal/usecase"
	"github.com/valyala/fasthttp"
)

const (
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	defaultTimeout     = 12 * time.Second
	defaultMaxBodySize = 8 << 20
	maxRedirects       = 5
)

var errPageTransient = crerr.New("webpage transient failure")

// StatusError is returned for a completed request with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("page status=%d url=%s", e.StatusCode, e.URL)
}

type Config struct {
	Name           string
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	MaxBodySize    int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Page is a fetched HTML document.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Fetcher downloads HTML pages with a browser identity. One Fetcher guards
// one site with its own circuit breaker.
type Fetcher struct {
	client         *fasthttp.Client
	name           string
	userAgent      string
	timeout        time.Duration
	maxRetries     int
	backoff        time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewFetcher(cfg Config) *Fetcher {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "webpage"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named(name)

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBody := cfg.MaxBodySize
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	breaker := resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq)
	breaker.OnStateChange(func(from, to resilience.CircuitState) {
		logger.Warn("circuit breaker state changed", "from", string(from), "to", string(to))
	})

	return &Fetcher{
		client: &fasthttp.Client{
			Name:                     userAgent,
			NoDefaultUserAgentHeader: true,
			ReadTimeout:              timeout,
			WriteTimeout:             timeout,
			MaxResponseBodySize:      maxBody,
			MaxIdleConnDuration:      30 * time.Second,
		},
		name:           name,
		userAgent:      userAgent,
		timeout:        timeout,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		backoff:        time.Second,
		logger:         logger,
		breaker:        breaker,
		circuitEnabled: breakerCfg.Enabled,
	}
}

// Get fetches rawURL, following redirects. Non-2xx responses come back as
// *StatusError.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (Page, error) {
	if f.circuitEnabled {
		if err := f.breaker.Allow(); err != nil {
			f.logger.WarnContext(ctx, "circuit breaker rejected request", "state", f.breaker.State())
			return Page{}, fmt.Errorf("%w: %s is temporarily unavailable", usecase.ErrDependencyUnavailable, f.name)
		}
	}

	out, err, _ := f.flight.Do(rawURL, func() (any, error) {
		page, reqErr := f.executeRequest(ctx, rawURL)
		if f.circuitEnabled {
			if reqErr != nil && stderrors.Is(reqErr, errPageTransient) {
				f.breaker.RecordFailure()
			} else {
				f.breaker.RecordSuccess()
			}
		}
		return page, reqErr
	})
	if err != nil {
		return Page{}, err
	}

	page, ok := out.(Page)
	if !ok {
		return Page{}, fmt.Errorf("unexpected page payload type %T", out)
	}
	return page, nil
}

func (f *Fetcher) executeRequest(ctx context.Context, rawURL string) (Page, error) {
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Page{}, err
		}

		page, err := f.do(ctx, rawURL)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !stderrors.Is(err, errPageTransient) {
			return Page{}, err
		}

		if attempt == f.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * f.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Page{}, ctx.Err()
		case <-timer.C:
		}
	}

	f.logger.WarnContext(ctx, "page request failed", "url", rawURL, "error", lastErr)
	return Page{}, lastErr
}

func (f *Fetcher) do(ctx context.Context, rawURL string) (Page, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	current := rawURL
	for hop := 0; ; hop++ {
		req.Reset()
		resp.Reset()
		req.SetRequestURI(current)
		req.Header.SetMethod(fasthttp.MethodGet)
		req.Header.Set("User-Agent", f.userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept-Encoding", "gzip, deflate, br")

		if err := f.client.DoDeadline(req, resp, f.deadline(ctx)); err != nil {
			if stderrors.Is(err, fasthttp.ErrBodyTooLarge) {
				return Page{}, fmt.Errorf("read %s: %w", current, err)
			}
			return Page{}, fmt.Errorf("%w: send request: %v", errPageTransient, err)
		}

		status := resp.StatusCode()
		if fasthttp.StatusCodeIsRedirect(status) {
			if hop >= maxRedirects {
				return Page{}, fmt.Errorf("too many redirects from %s", rawURL)
			}
			next, err := resolveLocation(current, string(resp.Header.Peek(fasthttp.HeaderLocation)))
			if err != nil {
				return Page{}, err
			}
			current = next
			continue
		}

		if status < 200 || status >= 300 {
			statusErr := &StatusError{URL: current, StatusCode: status}
			if isRetryableStatus(status) {
				return Page{}, fmt.Errorf("%w: %w", errPageTransient, statusErr)
			}
			return Page{}, statusErr
		}

		body, err := resp.BodyUncompressed()
		if err != nil {
			return Page{}, fmt.Errorf("decode body of %s: %w", current, err)
		}
		return Page{
			URL:        current,
			StatusCode: status,
			Body:       append([]byte(nil), body...),
		}, nil
	}
}

func (f *Fetcher) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(f.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}

func resolveLocation(base, location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", fmt.Errorf("redirect from %s without location", base)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse url %s: %w", base, err)
	}
	next, err := baseURL.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parse redirect location %s: %w", location, err)
	}
	return next.String(), nil
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return stderrors.As(err, &statusErr) && statusErr.StatusCode == code
}

func isRetryableStatus(code int) bool {
	return code == fasthttp.StatusTooManyRequests || code >= fasthttp.StatusInternalServerError
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
