package usecase

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/player-scout/internal/domain/profile"
	"github.com/riskibarqy/player-scout/internal/platform/logging"
)

const (
	MaxBatchNames      = 50
	ResolveJobPath     = "/v1/internal/jobs/resolve"
	defaultBatchWorker = 4
)

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

type BatchResolveConfig struct {
	Workers int
	Async   bool
}

type BatchResolveInput struct {
	Names  []string
	Season string
}

// ResolveJobPayload is the body of an asynchronous resolve job.
type ResolveJobPayload struct {
	Name   string `json:"name"`
	Season string `json:"season"`
}

type BatchResolveItem struct {
	Query     string
	Status    string
	Message   string
	Profile   *profile.Profile
	Persisted bool
}

type BatchResolveResult struct {
	Mode        string
	Season      string
	WorkerCount int
	FoundCount  int
	EmptyCount  int
	QueuedCount int
	FailedCount int
	Items       []BatchResolveItem
}

const (
	BatchStatusFound  = "found"
	BatchStatusEmpty  = "empty"
	BatchStatusQueued = "queued"
	BatchStatusFailed = "failed"
)

type resolver interface {
	Resolve(ctx context.Context, name, season string) (ResolveResult, error)
}

// BatchResolveService resolves many names with a bounded worker pool or
// hands them to the job queue.
type BatchResolveService struct {
	resolver resolver
	queue    JobQueue
	cfg      BatchResolveConfig
	logger   *logging.Logger
}

func NewBatchResolveService(resolver *ResolveService, queue JobQueue, cfg BatchResolveConfig, logger *logging.Logger) *BatchResolveService {
	return newBatchResolveService(resolver, queue, cfg, logger)
}

func newBatchResolveService(r resolver, queue JobQueue, cfg BatchResolveConfig, logger *logging.Logger) *BatchResolveService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultBatchWorker
	}
	return &BatchResolveService{resolver: r, queue: queue, cfg: cfg, logger: logger}
}

func (s *BatchResolveService) ResolveBatch(ctx context.Context, input BatchResolveInput) (BatchResolveResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BatchResolveService.ResolveBatch")
	defer span.End()

	names, err := normalizeBatchNames(input.Names)
	if err != nil {
		return BatchResolveResult{}, err
	}
	season := strings.TrimSpace(input.Season)
	if season == "" {
		season = DefaultSeason
	}

	if s.cfg.Async {
		return s.enqueue(ctx, names, season)
	}
	return s.resolveNow(ctx, names, season)
}

func (s *BatchResolveService) enqueue(ctx context.Context, names []string, season string) (BatchResolveResult, error) {
	result := BatchResolveResult{
		Mode:   "queued",
		Season: season,
		Items:  make([]BatchResolveItem, 0, len(names)),
	}

	for _, name := range names {
		item := BatchResolveItem{Query: name, Status: BatchStatusQueued}
		payload := ResolveJobPayload{Name: name, Season: season}
		if err := s.queue.Enqueue(ctx, ResolveJobPath, payload, 0, resolveDeduplicationID(name, season)); err != nil {
			s.logger.WarnContext(ctx, "enqueue resolve job failed", "name", name, "error", err)
			item.Status = BatchStatusFailed
			item.Message = err.Error()
			result.FailedCount++
		} else {
			result.QueuedCount++
		}
		result.Items = append(result.Items, item)
	}

	if result.QueuedCount == 0 && result.FailedCount > 0 {
		return result, fmt.Errorf("%w: no resolve job could be queued", ErrDependencyUnavailable)
	}
	return result, nil
}

func (s *BatchResolveService) resolveNow(ctx context.Context, names []string, season string) (BatchResolveResult, error) {
	workerCount := s.cfg.Workers
	if workerCount > len(names) {
		workerCount = len(names)
	}

	result := BatchResolveResult{
		Mode:        "direct",
		Season:      season,
		WorkerCount: workerCount,
	}

	type indexedItem struct {
		index int
		item  BatchResolveItem
	}
	results := make(chan indexedItem, len(names))

	var found, empty, failed atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return BatchResolveResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for idx, name := range names {
		idx, name := idx, name
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			item := BatchResolveItem{Query: name}
			resolved, err := s.resolver.Resolve(ctx, name, season)
			switch {
			case err != nil:
				item.Status = BatchStatusFailed
				item.Message = err.Error()
				failed.Add(1)
			case !resolved.Found():
				item.Status = BatchStatusEmpty
				empty.Add(1)
			default:
				stored := resolved.Profile
				item.Status = BatchStatusFound
				item.Profile = &stored
				item.Persisted = resolved.Persisted
				found.Add(1)
			}
			results <- indexedItem{index: idx, item: item}
		}); err != nil {
			workers.Done()
			return BatchResolveResult{}, fmt.Errorf("submit resolve to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	ordered := make([]indexedItem, 0, len(names))
	for row := range results {
		ordered = append(ordered, row)
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].index < ordered[j].index })

	result.Items = make([]BatchResolveItem, 0, len(ordered))
	for _, row := range ordered {
		result.Items = append(result.Items, row.item)
	}
	result.FoundCount = int(found.Load())
	result.EmptyCount = int(empty.Load())
	result.FailedCount = int(failed.Load())
	return result, nil
}

// HandleResolveJob runs one queued resolve.
func (s *BatchResolveService) HandleResolveJob(ctx context.Context, payload ResolveJobPayload) (ResolveResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BatchResolveService.HandleResolveJob")
	defer span.End()

	started := time.Now()
	result, err := s.resolver.Resolve(ctx, payload.Name, payload.Season)
	if err != nil {
		return ResolveResult{}, err
	}
	s.logger.InfoContext(ctx, "resolve job finished",
		"name", payload.Name,
		"season", payload.Season,
		"found", result.Found(),
		"persisted", result.Persisted,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return result, nil
}

func normalizeBatchNames(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := profile.NameKey(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: at least one player name is required", ErrInvalidInput)
	}
	if len(out) > MaxBatchNames {
		return nil, fmt.Errorf("%w: at most %d player names per batch", ErrInvalidInput, MaxBatchNames)
	}
	return out, nil
}

func resolveDeduplicationID(name, season string) string {
	key := strings.ReplaceAll(profile.NameKey(name), " ", "-")
	return dedupUnsafeCharRegex.ReplaceAllString("resolve-"+key+"-"+season, "-")
}
