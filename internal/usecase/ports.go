package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/player-scout/internal/domain/profile"
)

// AttributeSource is one external extractor. Extract returns an error for
// any failure; the resolve pipeline turns that into an empty attribute set.
type AttributeSource interface {
	Source() profile.Source
	Extract(ctx context.Context, query profile.Query) (profile.AttributeSet, error)
}

// TextRequest is a single prompt for the text-generation service.
type TextRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// TextGenerator is the text-generation service. Every caller has a
// fallback for when it fails.
type TextGenerator interface {
	Generate(ctx context.Context, req TextRequest) (string, error)
}

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

// ResolveMetrics receives pipeline measurements.
type ResolveMetrics interface {
	ObserveSource(source profile.Source, outcome string, elapsed time.Duration)
	ObserveResolve(outcome string, elapsed time.Duration)
}

type noopResolveMetrics struct{}

func (noopResolveMetrics) ObserveSource(profile.Source, string, time.Duration) {}
func (noopResolveMetrics) ObserveResolve(string, time.Duration)                {}

const (
	OutcomeOK     = "ok"
	OutcomeEmpty  = "empty"
	OutcomeFailed = "failed"
)
