package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/player-scout/internal/domain/profile"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ProfileService serves stored profiles.
type ProfileService struct {
	repo profile.Repository
}

func NewProfileService(repo profile.Repository) *ProfileService {
	return &ProfileService{repo: repo}
}

// GetByName looks a profile up by its folded name, then by substring.
func (s *ProfileService) GetByName(ctx context.Context, name string) (profile.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.GetByName")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return profile.Profile{}, fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}

	item, exists, err := s.repo.GetByNameKey(ctx, profile.NameKey(name))
	if err != nil {
		return profile.Profile{}, fmt.Errorf("get profile by name: %w", err)
	}
	if exists {
		return item, nil
	}

	items, err := s.repo.List(ctx, profile.Filter{Name: name, Limit: 1})
	if err != nil {
		return profile.Profile{}, fmt.Errorf("search profile by name: %w", err)
	}
	if len(items) == 0 {
		return profile.Profile{}, fmt.Errorf("%w: player=%s", ErrNotFound, name)
	}
	return items[0], nil
}

func (s *ProfileService) GetByID(ctx context.Context, profileID string) (profile.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.GetByID")
	defer span.End()

	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return profile.Profile{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}

	item, exists, err := s.repo.GetByID(ctx, profileID)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("get profile by id: %w", err)
	}
	if !exists {
		return profile.Profile{}, fmt.Errorf("%w: player id=%s", ErrNotFound, profileID)
	}
	return item, nil
}

func (s *ProfileService) List(ctx context.Context, filter profile.Filter) ([]profile.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.List")
	defer span.End()

	if filter.MaxAge < 0 {
		return nil, fmt.Errorf("%w: max_age must not be negative", ErrInvalidInput)
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultListLimit
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}
	filter.Name = strings.TrimSpace(filter.Name)
	filter.Nationality = strings.TrimSpace(filter.Nationality)
	filter.Position = strings.TrimSpace(filter.Position)

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return items, nil
}

// Countries aggregates stored players per nationality, most players first.
func (s *ProfileService) Countries(ctx context.Context) ([]profile.NationalityCount, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.Countries")
	defer span.End()

	items, err := s.repo.CountByNationality(ctx)
	if err != nil {
		return nil, fmt.Errorf("count profiles by nationality: %w", err)
	}

	merged := make(map[string]int, len(items))
	for _, item := range items {
		key := strings.TrimSpace(item.Nationality)
		if key == "" || strings.EqualFold(key, profile.UnknownNationality) {
			key = profile.UnknownNationality
		}
		merged[key] += item.Players
	}

	out := make([]profile.NationalityCount, 0, len(merged))
	for nationality, players := range merged {
		out = append(out, profile.NationalityCount{Nationality: nationality, Players: players})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Players != out[j].Players {
			return out[i].Players > out[j].Players
		}
		return out[i].Nationality < out[j].Nationality
	})
	return out, nil
}

// Ping reports whether the profile store is reachable.
func (s *ProfileService) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("%w: profile store: %v", ErrDependencyUnavailable, err)
	}
	return nil
}
