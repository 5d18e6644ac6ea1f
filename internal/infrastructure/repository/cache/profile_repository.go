package cache

import (
	"context"
	"strconv"
	"strings"

	"github.com/riskibarqy/player-scout/internal/domain/profile"
	basecache "github.com/riskibarqy/player-scout/internal/platform/cache"
)

const profileKeyPrefix = "profile:"

// ProfileRepository serves profile reads from the in-process store and drops
// every cached profile entry after a write.
type ProfileRepository struct {
	next  profile.Repository
	cache *basecache.Store
}

func NewProfileRepository(next profile.Repository, cache *basecache.Store) *ProfileRepository {
	return &ProfileRepository{next: next, cache: cache}
}

func (r *ProfileRepository) Upsert(ctx context.Context, item profile.Profile) (profile.Profile, error) {
	stored, err := r.next.Upsert(ctx, item)
	if err != nil {
		return profile.Profile{}, err
	}
	r.cache.DeletePrefix(ctx, profileKeyPrefix)
	return stored, nil
}

func (r *ProfileRepository) GetByNameKey(ctx context.Context, nameKey string) (profile.Profile, bool, error) {
	return r.getOne(ctx, profileKeyPrefix+"key:"+nameKey, func(ctx context.Context) (profile.Profile, bool, error) {
		return r.next.GetByNameKey(ctx, nameKey)
	})
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (profile.Profile, bool, error) {
	return r.getOne(ctx, profileKeyPrefix+"id:"+id, func(ctx context.Context) (profile.Profile, bool, error) {
		return r.next.GetByID(ctx, id)
	})
}

func (r *ProfileRepository) getOne(
	ctx context.Context,
	key string,
	load func(context.Context) (profile.Profile, bool, error),
) (profile.Profile, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return cachedProfile{value: item, exists: exists}, nil
	})
	if err != nil {
		return profile.Profile{}, false, err
	}

	cached, _ := v.(cachedProfile)
	return cached.value, cached.exists, nil
}

func (r *ProfileRepository) List(ctx context.Context, filter profile.Filter) ([]profile.Profile, error) {
	v, err := r.cache.GetOrLoad(ctx, profileListKey(filter), func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		return append([]profile.Profile(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]profile.Profile)
	return append([]profile.Profile(nil), items...), nil
}

func (r *ProfileRepository) CountByNationality(ctx context.Context) ([]profile.NationalityCount, error) {
	v, err := r.cache.GetOrLoad(ctx, profileKeyPrefix+"nationalities", func(ctx context.Context) (any, error) {
		items, err := r.next.CountByNationality(ctx)
		if err != nil {
			return nil, err
		}
		return append([]profile.NationalityCount(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]profile.NationalityCount)
	return append([]profile.NationalityCount(nil), items...), nil
}

func (r *ProfileRepository) SaveScoutingReport(ctx context.Context, id, report string) error {
	if err := r.next.SaveScoutingReport(ctx, id, report); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, profileKeyPrefix)
	return nil
}

func (r *ProfileRepository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

type cachedProfile struct {
	value  profile.Profile
	exists bool
}

func profileListKey(filter profile.Filter) string {
	return profileKeyPrefix + "list:" + strings.Join([]string{
		profile.NameKey(filter.Name),
		strings.ToLower(strings.TrimSpace(filter.Nationality)),
		strings.ToLower(strings.TrimSpace(filter.Position)),
		strconv.Itoa(filter.MaxAge),
		strconv.Itoa(filter.Limit),
	}, "|")
}
