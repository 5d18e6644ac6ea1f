package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/player-scout/internal/domain/profile"
)

// ProfileRepository keeps profiles in process, keyed by name key.
type ProfileRepository struct {
	mu        sync.RWMutex
	byNameKey map[string]profile.Profile
	keyByID   map[string]string
	now       func() time.Time
}

func NewProfileRepository(seed ...profile.Profile) *ProfileRepository {
	r := &ProfileRepository{
		byNameKey: make(map[string]profile.Profile),
		keyByID:   make(map[string]string),
		now:       time.Now,
	}
	for _, item := range seed {
		if item.NameKey == "" {
			item.NameKey = profile.NameKey(item.Name)
		}
		r.byNameKey[item.NameKey] = cloneProfile(item)
		r.keyByID[item.ID] = item.NameKey
	}
	return r
}

func (r *ProfileRepository) Upsert(_ context.Context, item profile.Profile) (profile.Profile, error) {
	if err := item.Validate(); err != nil {
		return profile.Profile{}, fmt.Errorf("upsert profile: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	stored := cloneProfile(item)
	stored.UpdatedAt = now
	if existing, ok := r.byNameKey[item.NameKey]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
		if strings.TrimSpace(stored.ScoutingReport) == "" {
			stored.ScoutingReport = existing.ScoutingReport
		}
	} else {
		if stored.ID == "" {
			return profile.Profile{}, fmt.Errorf("upsert profile name_key=%s: id is required", item.NameKey)
		}
		stored.CreatedAt = now
	}

	r.byNameKey[stored.NameKey] = stored
	r.keyByID[stored.ID] = stored.NameKey
	return cloneProfile(stored), nil
}

func (r *ProfileRepository) GetByNameKey(_ context.Context, nameKey string) (profile.Profile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byNameKey[nameKey]
	if !ok {
		return profile.Profile{}, false, nil
	}
	return cloneProfile(item), true, nil
}

func (r *ProfileRepository) GetByID(_ context.Context, id string) (profile.Profile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.keyByID[id]
	if !ok {
		return profile.Profile{}, false, nil
	}
	item, ok := r.byNameKey[key]
	if !ok {
		return profile.Profile{}, false, nil
	}
	return cloneProfile(item), true, nil
}

func (r *ProfileRepository) List(_ context.Context, filter profile.Filter) ([]profile.Profile, error) {
	nameKey := profile.NameKey(filter.Name)
	nationality := strings.TrimSpace(filter.Nationality)
	position := strings.TrimSpace(filter.Position)

	r.mu.RLock()
	out := make([]profile.Profile, 0, len(r.byNameKey))
	for _, item := range r.byNameKey {
		if nameKey != "" && !strings.Contains(item.NameKey, nameKey) {
			continue
		}
		if !matchesNationality(item.Nationality, nationality) {
			continue
		}
		if position != "" && (item.Position == nil || !strings.EqualFold(*item.Position, position)) {
			continue
		}
		if filter.MaxAge > 0 && (item.Age == nil || *item.Age > filter.MaxAge) {
			continue
		}
		out = append(out, cloneProfile(item))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}

	return out, nil
}

func (r *ProfileRepository) CountByNationality(_ context.Context) ([]profile.NationalityCount, error) {
	r.mu.RLock()
	counts := make(map[string]int)
	for _, item := range r.byNameKey {
		nationality := ""
		if item.Nationality != nil {
			nationality = *item.Nationality
		}
		counts[nationality]++
	}
	r.mu.RUnlock()

	out := make([]profile.NationalityCount, 0, len(counts))
	for nationality, players := range counts {
		out = append(out, profile.NationalityCount{Nationality: nationality, Players: players})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Players == out[j].Players {
			return out[i].Nationality < out[j].Nationality
		}
		return out[i].Players > out[j].Players
	})

	return out, nil
}

func (r *ProfileRepository) SaveScoutingReport(_ context.Context, id, report string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.keyByID[id]
	if !ok {
		return fmt.Errorf("save scouting report profile_id=%s: not found", id)
	}
	item := r.byNameKey[key]
	item.ScoutingReport = report
	item.UpdatedAt = r.now().UTC()
	r.byNameKey[key] = item

	return nil
}

func (r *ProfileRepository) Ping(context.Context) error {
	return nil
}

// matchesNationality treats the Unknown label as a filter for profiles
// without a nationality.
func matchesNationality(value *string, filter string) bool {
	switch {
	case filter == "":
		return true
	case strings.EqualFold(filter, profile.UnknownNationality):
		return value == nil
	default:
		return value != nil && strings.EqualFold(*value, filter)
	}
}

func cloneProfile(item profile.Profile) profile.Profile {
	item.Age = cloneInt(item.Age)
	item.Nationality = cloneString(item.Nationality)
	item.Height = cloneString(item.Height)
	item.CurrentClub = cloneString(item.CurrentClub)
	item.Position = cloneString(item.Position)
	item.MarketValue = cloneString(item.MarketValue)
	item.ImageURL = cloneString(item.ImageURL)
	return item
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}
