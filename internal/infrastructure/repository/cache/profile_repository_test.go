package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/player-scout/internal/domain/profile"
	profilemock "github.com/riskibarqy/player-scout/internal/mocks/domain/profile"
	basecache "github.com/riskibarqy/player-scout/internal/platform/cache"
	"github.com/stretchr/testify/mock"
)

func TestProfileRepository_GetByNameKeyCachesMisses(t *testing.T) {
	t.Parallel()

	next := profilemock.NewRepository(t)
	repo := NewProfileRepository(next, basecache.NewStore(time.Minute))
	ctx := context.Background()

	next.On("GetByNameKey", mock.Anything, "pedri").Return(profile.Profile{}, false, nil).Once()

	for i := 0; i < 3; i++ {
		_, ok, err := repo.GetByNameKey(ctx, "pedri")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Fatalf("expected miss")
		}
	}
}

func TestProfileRepository_WritesInvalidate(t *testing.T) {
	t.Parallel()

	next := profilemock.NewRepository(t)
	repo := NewProfileRepository(next, basecache.NewStore(time.Minute))
	ctx := context.Background()

	stored := profile.Profile{ID: "plr_1", Name: "Pedri", NameKey: "pedri"}
	next.On("GetByID", mock.Anything, "plr_1").Return(stored, true, nil).Twice()
	next.On("SaveScoutingReport", mock.Anything, "plr_1", "Press-resistant.").Return(nil).Once()
	next.On("List", mock.Anything, profile.Filter{Limit: 10}).Return([]profile.Profile{stored}, nil).Twice()
	next.On("Upsert", mock.Anything, stored).Return(stored, nil).Once()

	if _, _, err := repo.GetByID(ctx, "plr_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := repo.GetByID(ctx, "plr_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.SaveScoutingReport(ctx, "plr_1", "Press-resistant."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := repo.GetByID(ctx, "plr_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := repo.List(ctx, profile.Filter{Limit: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.Upsert(ctx, stored); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items, err := repo.List(ctx, profile.Filter{Limit: 10})
	if err != nil || len(items) != 1 {
		t.Fatalf("unexpected list result: %+v err=%v", items, err)
	}
}

func TestProfileRepository_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	next := profilemock.NewRepository(t)
	repo := NewProfileRepository(next, basecache.NewStore(time.Minute))
	ctx := context.Background()

	next.On("CountByNationality", mock.Anything).Return(nil, errors.New("db down")).Once()
	next.On("CountByNationality", mock.Anything).Return([]profile.NationalityCount{{Nationality: "Spain", Players: 2}}, nil).Once()

	if _, err := repo.CountByNationality(ctx); err == nil {
		t.Fatalf("expected error")
	}
	got, err := repo.CountByNationality(ctx)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected reload after error, got %+v err=%v", got, err)
	}
	if _, err := repo.CountByNationality(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProfileListKey(t *testing.T) {
	t.Parallel()

	a := profileListKey(profile.Filter{Name: "Mbappé", Nationality: " France", Limit: 5})
	b := profileListKey(profile.Filter{Name: "mbappe", Nationality: "france", Limit: 5})
	if a != b {
		t.Fatalf("expected equivalent filters to share a key: %q vs %q", a, b)
	}
	if a == profileListKey(profile.Filter{Name: "mbappe", Limit: 6}) {
		t.Fatalf("expected limit to be part of the key")
	}
}
