package openai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/riskibarqy/player-scout/internal/platform/logging"
	"github.com/riskibarqy/player-scout/internal/platform/resilience"
	"github.com/riskibarqy/player-scout/internal/usecase"
)

const defaultModel = "gpt-4o-mini"

var errOpenAITransient = crerr.New("openai transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	APIKey         string
	BaseURL        string
	Model          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client implements usecase.TextGenerator on the chat completions API.
type Client struct {
	api            oai.Client
	model          string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("openai")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithMaxRetries(maxInt(cfg.MaxRetries, 0)),
		option.WithRequestTimeout(timeout),
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	breaker := resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq)
	breaker.OnStateChange(func(from, to resilience.CircuitState) {
		logger.Warn("openai circuit breaker state changed", "from", string(from), "to", string(to))
	})

	return &Client{
		api:            oai.NewClient(opts...),
		model:          model,
		logger:         logger,
		breaker:        breaker,
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) Generate(ctx context.Context, req usecase.TextRequest) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt is required", usecase.ErrInvalidInput)
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			return "", fmt.Errorf("%w: text generation is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	messages := make([]oai.ChatCompletionMessageParamUnion, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, oai.SystemMessage(system))
	}
	messages = append(messages, oai.UserMessage(prompt))

	params := oai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: oai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = oai.Int(int64(req.MaxTokens))
	}

	started := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		err = classifyError(err)
		c.record(err)
		c.logger.WarnContext(ctx, "chat completion failed",
			"model", c.model,
			"duration_ms", time.Since(started).Milliseconds(),
			"error", err,
		)
		return "", err
	}
	c.record(nil)

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("chat completion returned empty content")
	}

	c.logger.DebugContext(ctx, "chat completion finished",
		"model", c.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return text, nil
}

func (c *Client) record(err error) {
	if !c.circuitEnabled {
		return
	}
	if err != nil && stderrors.Is(err, errOpenAITransient) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func classifyError(err error) error {
	var apiErr *oai.Error
	if stderrors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: status=%d", errOpenAITransient, apiErr.StatusCode)
		}
		return fmt.Errorf("chat completion status=%d: %s", apiErr.StatusCode, abbreviate(apiErr.Message))
	}
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	return crerr.Wrapf(errOpenAITransient, "send request: %v", err)
}

func abbreviate(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
