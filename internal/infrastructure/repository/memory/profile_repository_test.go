package memory

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/player-scout/internal/domain/profile"
)

func newTestProfile(id, name string) profile.Profile {
	return profile.Profile{ID: id, Name: name, NameKey: profile.NameKey(name)}
}

func TestProfileRepository_UpsertKeepsIdentityAndReport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewProfileRepository()
	clock := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	first, err := repo.Upsert(ctx, newTestProfile("plr_1", "Kylian Mbappé"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.SaveScoutingReport(ctx, first.ID, "Explosive forward."); err != nil {
		t.Fatalf("save report: %v", err)
	}

	clock = clock.Add(time.Hour)
	refresh := newTestProfile("plr_other", "Kylian Mbappé")
	refresh.Goals = 31
	second, err := repo.Upsert(ctx, refresh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.ID != "plr_1" {
		t.Fatalf("expected original id to survive, got %s", second.ID)
	}
	if second.ScoutingReport != "Explosive forward." {
		t.Fatalf("expected scouting report to survive, got %q", second.ScoutingReport)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) || !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("unexpected timestamps created=%s updated=%s", second.CreatedAt, second.UpdatedAt)
	}
	if second.Goals != 31 {
		t.Fatalf("expected refreshed goals, got %d", second.Goals)
	}
}

func TestProfileRepository_UpsertRejectsInvalid(t *testing.T) {
	t.Parallel()

	repo := NewProfileRepository()
	if _, err := repo.Upsert(context.Background(), profile.Profile{ID: "plr_1", Name: "Pedri", NameKey: "wrong"}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestProfileRepository_ListFilters(t *testing.T) {
	t.Parallel()

	age := func(v int) *int { return &v }
	mbappe := newTestProfile("plr_1", "Kylian Mbappé")
	mbappe.Nationality = profile.Text("France")
	mbappe.Position = profile.Text("Forward")
	mbappe.Age = age(26)
	pedri := newTestProfile("plr_2", "Pedri")
	pedri.Nationality = profile.Text("Spain")
	pedri.Age = age(22)
	gavi := newTestProfile("plr_3", "Gavi")
	gavi.Nationality = profile.Text("Spain")

	repo := NewProfileRepository(mbappe, pedri, gavi)
	ctx := context.Background()

	got, err := repo.List(ctx, profile.Filter{Name: "mbappe"})
	if err != nil || len(got) != 1 || got[0].ID != "plr_1" {
		t.Fatalf("expected accent-insensitive name match, got %+v err=%v", got, err)
	}

	got, _ = repo.List(ctx, profile.Filter{Nationality: "spain"})
	if len(got) != 2 || got[0].Name != "Gavi" || got[1].Name != "Pedri" {
		t.Fatalf("expected spanish players ordered by name, got %+v", got)
	}

	got, _ = repo.List(ctx, profile.Filter{MaxAge: 24})
	if len(got) != 1 || got[0].Name != "Pedri" {
		t.Fatalf("expected players without age to be excluded, got %+v", got)
	}

	got, _ = repo.List(ctx, profile.Filter{Limit: 1})
	if len(got) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(got))
	}
}

func TestProfileRepository_CountByNationality(t *testing.T) {
	t.Parallel()

	a := newTestProfile("plr_1", "Pedri")
	a.Nationality = profile.Text("Spain")
	b := newTestProfile("plr_2", "Gavi")
	b.Nationality = profile.Text("Spain")
	c := newTestProfile("plr_3", "Nobody Known")

	repo := NewProfileRepository(a, b, c)
	got, err := repo.CountByNationality(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Nationality != "Spain" || got[0].Players != 2 || got[1].Nationality != "" {
		t.Fatalf("unexpected counts: %+v", got)
	}
}

func TestProfileRepository_ReturnsCopies(t *testing.T) {
	t.Parallel()

	item := newTestProfile("plr_1", "Pedri")
	item.CurrentClub = profile.Text("FC Barcelona")
	repo := NewProfileRepository(item)

	got, _, _ := repo.GetByID(context.Background(), "plr_1")
	*got.CurrentClub = "mutated"

	again, ok, _ := repo.GetByNameKey(context.Background(), "pedri")
	if !ok || *again.CurrentClub != "FC Barcelona" {
		t.Fatalf("expected stored profile to be isolated from callers, got %+v", again)
	}
}

func TestProfileRepository_SaveScoutingReportUnknownID(t *testing.T) {
	t.Parallel()

	if err := NewProfileRepository().SaveScoutingReport(context.Background(), "missing", "x"); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestProfileRepository_ListUnknownNationality(t *testing.T) {
	t.Parallel()

	known := newTestProfile("plr_1", "Pedri")
	known.Nationality = profile.Text("Spain")
	repo := NewProfileRepository(known, newTestProfile("plr_2", "Unknown Winger"))

	items, err := repo.List(context.Background(), profile.Filter{Nationality: "unknown"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].ID != "plr_2" {
		t.Fatalf("expected only the profile without nationality, got %+v", items)
	}
}
