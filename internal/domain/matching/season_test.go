package matching

import "testing"

func TestSelectSeason(t *testing.T) {
	t.Parallel()

	rows := []SeasonRow{
		{Season: "2023-2024", Minutes: 900, Goals: 4},
		{Season: "2024-2025", Minutes: 1500, Goals: 11},
	}

	t.Run("exact season wins", func(t *testing.T) {
		got, ok := SelectSeason(rows, "2024-2025", 0)
		if !ok || got.Season != "2024-2025" {
			t.Fatalf("expected 2024-2025 row, got %+v ok=%v", got, ok)
		}
	})

	t.Run("exact season beats more minutes", func(t *testing.T) {
		got, ok := SelectSeason(rows, "2023-2024", 0)
		if !ok || got.Minutes != 900 {
			t.Fatalf("expected 2023-2024 row, got %+v", got)
		}
	})

	t.Run("missing season falls back to highest key", func(t *testing.T) {
		got, ok := SelectSeason(rows, "2025-2026", 0)
		if !ok || got.Minutes != 1500 {
			t.Fatalf("expected 1500-minute row, got %+v ok=%v", got, ok)
		}
	})

	t.Run("duplicate exact rows pick most minutes", func(t *testing.T) {
		dup := []SeasonRow{
			{Season: "2024-2025", Minutes: 300},
			{Season: "2024-2025", Minutes: 1200},
			{Season: "2022-2023", Minutes: 3000},
		}
		got, _ := SelectSeason(dup, "2024-2025", ClubBonus)
		if got.Minutes != 1200 {
			t.Fatalf("expected 1200-minute row, got %+v", got)
		}
	})

	t.Run("ties resolve to first row", func(t *testing.T) {
		tied := []SeasonRow{
			{Season: "2021-2022", Minutes: 500, Goals: 1},
			{Season: "2022-2023", Minutes: 500, Goals: 2},
		}
		got, _ := SelectSeason(tied, "", 0)
		if got.Goals != 1 {
			t.Fatalf("expected first tied row, got %+v", got)
		}
	})

	t.Run("no rows", func(t *testing.T) {
		if _, ok := SelectSeason(nil, "2024-2025", 0); ok {
			t.Fatalf("expected no selection for empty input")
		}
	})
}

func TestSelectionKey(t *testing.T) {
	t.Parallel()

	if got := SelectionKey(SeasonRow{Minutes: 100}, ClubBonus); got != 250 {
		t.Fatalf("expected 250, got %d", got)
	}
}
