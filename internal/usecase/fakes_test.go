package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/player-scout/internal/domain/profile"
)

type fakeGenerator struct {
	mu       sync.Mutex
	reply    func(req TextRequest) (string, error)
	requests []TextRequest
}

func replyWith(text string, err error) *fakeGenerator {
	return &fakeGenerator{reply: func(TextRequest) (string, error) { return text, err }}
}

func (g *fakeGenerator) Generate(ctx context.Context, req TextRequest) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return g.reply(req)
}

func (g *fakeGenerator) calls() []TextRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]TextRequest(nil), g.requests...)
}

type fakeSource struct {
	source  profile.Source
	mu      sync.Mutex
	queries []profile.Query
	extract func(ctx context.Context, q profile.Query) (profile.AttributeSet, error)
}

func (s *fakeSource) Source() profile.Source { return s.source }

func (s *fakeSource) Extract(ctx context.Context, q profile.Query) (profile.AttributeSet, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	return s.extract(ctx, q)
}

func (s *fakeSource) seen() []profile.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]profile.Query(nil), s.queries...)
}

func staticSource(source profile.Source, set profile.AttributeSet, err error) *fakeSource {
	return &fakeSource{
		source: source,
		extract: func(context.Context, profile.Query) (profile.AttributeSet, error) {
			return set, err
		},
	}
}

type fakeMetrics struct {
	mu       sync.Mutex
	sources  map[profile.Source]string
	resolves []string
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{sources: make(map[profile.Source]string)}
}

func (m *fakeMetrics) ObserveSource(source profile.Source, outcome string, _ time.Duration) {
	m.mu.Lock()
	m.sources[source] = outcome
	m.mu.Unlock()
}

func (m *fakeMetrics) ObserveResolve(outcome string, _ time.Duration) {
	m.mu.Lock()
	m.resolves = append(m.resolves, outcome)
	m.mu.Unlock()
}

type fixedID string

func (f fixedID) NewID() (string, error) { return string(f), nil }

type fakeQueue struct {
	mu    sync.Mutex
	jobs  []string
	dedup []string
	err   error
}

func (q *fakeQueue) Enqueue(_ context.Context, path string, payload any, _ time.Duration, deduplicationID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	job, _ := payload.(ResolveJobPayload)
	q.jobs = append(q.jobs, path+"|"+job.Name+"|"+job.Season)
	q.dedup = append(q.dedup, deduplicationID)
	return nil
}
