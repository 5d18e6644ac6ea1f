package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/riskibarqy/player-scout/internal/domain/profile"
	"github.com/riskibarqy/player-scout/internal/platform/id"
	"github.com/riskibarqy/player-scout/internal/platform/logging"
	"github.com/sourcegraph/conc"
)

const (
	DefaultSeason      = "2024-2025"
	maxQueryNameLength = 120
)

type ResolveConfig struct {
	DefaultSeason string
	SourceTimeout time.Duration
}

// ResolveSources wires the extractors. Any of them may be nil.
type ResolveSources struct {
	Structured AttributeSource
	Page       AttributeSource
	Stats      AttributeSource
	Image      AttributeSource
}

// ResolveResult is the merged profile plus per-source outcomes.
type ResolveResult struct {
	Profile   profile.Profile
	Persisted bool
	Outcomes  map[profile.Source]string
}

// Found is false when no source contributed anything.
func (r ResolveResult) Found() bool {
	return !r.Profile.Empty()
}

type ResolveService struct {
	names     *NameNormalizer
	countries *CountryNormalizer
	sources   ResolveSources
	repo      profile.Repository
	idGen     id.Generator
	metrics   ResolveMetrics
	cfg       ResolveConfig
	logger    *logging.Logger
	now       func() time.Time
}

func NewResolveService(
	names *NameNormalizer,
	countries *CountryNormalizer,
	sources ResolveSources,
	repo profile.Repository,
	idGen id.Generator,
	metrics ResolveMetrics,
	cfg ResolveConfig,
	logger *logging.Logger,
) *ResolveService {
	if logger == nil {
		logger = logging.Default()
	}
	if metrics == nil {
		metrics = noopResolveMetrics{}
	}
	if idGen == nil {
		idGen = id.NewRandomGenerator("plr")
	}
	if strings.TrimSpace(cfg.DefaultSeason) == "" {
		cfg.DefaultSeason = DefaultSeason
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = 20 * time.Second
	}

	return &ResolveService{
		names:     names,
		countries: countries,
		sources:   sources,
		repo:      repo,
		idGen:     idGen,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Resolve turns a free-text name into a canonical profile. Source failures
// only ever show up as missing fields; the error return is reserved for
// invalid input.
func (s *ResolveService) Resolve(ctx context.Context, name, season string) (ResolveResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResolveService.Resolve")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return ResolveResult{}, fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > maxQueryNameLength {
		return ResolveResult{}, fmt.Errorf("%w: player name must be at most %d characters", ErrInvalidInput, maxQueryNameLength)
	}
	season = strings.TrimSpace(season)
	if season == "" {
		season = s.cfg.DefaultSeason
	}

	started := s.now()
	normalized := name
	if s.names != nil {
		normalized = strings.TrimSpace(s.names.Normalize(ctx, name))
		if normalized == "" {
			normalized = name
		}
	}

	query := profile.Query{Name: normalized, Season: season}

	var (
		structured, page               profile.AttributeSet
		structuredOutcome, pageOutcome string
		stats, image                   profile.AttributeSet
		statsOutcome, imageOutcome     string
	)

	var first conc.WaitGroup
	first.Go(func() { structured, structuredOutcome = s.extract(ctx, s.sources.Structured, query) })
	first.Go(func() { page, pageOutcome = s.extract(ctx, s.sources.Page, query) })
	s.wait(ctx, &first)

	statsQuery := query
	statsQuery.Affiliation = firstText(page.CurrentClub, structured.CurrentClub)
	if display := firstText(page.Name); display != "" {
		statsQuery.Name = display
	}
	s.logger.DebugContext(ctx, "stats query prepared",
		"query", name,
		"stats_query_name", statsQuery.Name,
		"affiliation", statsQuery.Affiliation,
	)

	var second conc.WaitGroup
	second.Go(func() { stats, statsOutcome = s.extract(ctx, s.sources.Stats, statsQuery) })
	if structured.ImageURL == nil {
		second.Go(func() { image, imageOutcome = s.extract(ctx, s.sources.Image, query) })
	}
	s.wait(ctx, &second)

	inputs := profile.Inputs{
		Structured: structured,
		Page:       page,
		Stats:      stats,
		Season:     season,
	}
	if image.ImageURL != nil {
		inputs.Supplements = append(inputs.Supplements, image)
	}

	merged := profile.Reconcile(normalized, inputs)
	if merged.Nationality != nil && s.countries != nil {
		country := s.countries.Normalize(ctx, *merged.Nationality)
		merged.Nationality = profile.Text(country)
	}

	result := ResolveResult{
		Profile:  merged,
		Outcomes: make(map[profile.Source]string, 4),
	}
	for source, outcome := range map[profile.Source]string{
		profile.SourceStructured: structuredOutcome,
		profile.SourcePage:       pageOutcome,
		profile.SourceStats:      statsOutcome,
		profile.SourceImage:      imageOutcome,
	} {
		if outcome != "" {
			result.Outcomes[source] = outcome
		}
	}

	if merged.Empty() {
		s.metrics.ObserveResolve(OutcomeEmpty, s.now().Sub(started))
		s.logger.InfoContext(ctx, "resolve found no data", "query", name, "normalized", normalized)
		return result, nil
	}

	stored, err := s.persist(ctx, merged)
	if err != nil {
		s.metrics.ObserveResolve(OutcomeFailed, s.now().Sub(started))
		s.logger.ErrorContext(ctx, "persist resolved profile failed, returning unsaved profile", "name", merged.Name, "error", err)
		return result, nil
	}

	result.Profile = stored
	result.Persisted = true
	s.metrics.ObserveResolve(OutcomeOK, s.now().Sub(started))
	return result, nil
}

func (s *ResolveService) persist(ctx context.Context, item profile.Profile) (profile.Profile, error) {
	if s.repo == nil {
		return profile.Profile{}, fmt.Errorf("profile repository is not configured")
	}

	publicID, err := s.idGen.NewID()
	if err != nil {
		return profile.Profile{}, fmt.Errorf("generate profile id: %w", err)
	}
	item.ID = publicID
	if err := item.Validate(); err != nil {
		return profile.Profile{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	stored, err := s.repo.Upsert(ctx, item)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("upsert profile: %w", err)
	}
	return stored, nil
}

func (s *ResolveService) extract(ctx context.Context, src AttributeSource, query profile.Query) (profile.AttributeSet, string) {
	if src == nil {
		return profile.AttributeSet{}, ""
	}

	source := src.Source()
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.SourceTimeout)
	defer cancel()

	started := s.now()
	set, err := src.Extract(callCtx, query)
	elapsed := s.now().Sub(started)
	if errors.Is(err, ErrNoSourceData) {
		s.metrics.ObserveSource(source, OutcomeEmpty, elapsed)
		s.logger.InfoContext(ctx, "source has no match", "source", string(source), "name", query.Name)
		return profile.Empty(source), OutcomeEmpty
	}
	if err != nil {
		s.metrics.ObserveSource(source, OutcomeFailed, elapsed)
		s.logger.WarnContext(ctx, "source extraction failed", "source", string(source), "name", query.Name, "error", err)
		return profile.Empty(source), OutcomeFailed
	}

	set.Source = source
	outcome := OutcomeOK
	if set.IsEmpty() {
		outcome = OutcomeEmpty
	}
	s.metrics.ObserveSource(source, outcome, elapsed)
	return set, outcome
}

func (s *ResolveService) wait(ctx context.Context, wg *conc.WaitGroup) {
	if recovered := wg.WaitAndRecover(); recovered != nil {
		s.logger.ErrorContext(ctx, "source extractor panicked", "error", recovered.AsError())
	}
}

func firstText(values ...*string) string {
	for _, item := range values {
		if item != nil && strings.TrimSpace(*item) != "" {
			return strings.TrimSpace(*item)
		}
	}
	return ""
}
