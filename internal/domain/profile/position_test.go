package profile

import "testing"

func TestResolvePosition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		candidates []SourcePosition
		want       string
		origin     Source
	}{
		{
			name:       "structured beats later sources regardless of order",
			candidates: []SourcePosition{StatsPosition("FW"), ProfilePosition("Winger"), StructuredPosition("forward")},
			want:       "forward",
			origin:     SourceStructured,
		},
		{
			name:       "profile beats stats",
			candidates: []SourcePosition{StatsPosition("MF"), ProfilePosition("Central Midfield")},
			want:       "Central Midfield",
			origin:     SourcePage,
		},
		{
			name:       "blank labels are skipped",
			candidates: []SourcePosition{StructuredPosition(" "), nil, StatsPosition("DF")},
			want:       "DF",
			origin:     SourceStats,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ResolvePosition(tc.candidates...)
			if got == nil {
				t.Fatalf("expected a position")
			}
			if got.Label() != tc.want || got.Origin() != tc.origin {
				t.Fatalf("got %q from %s, want %q from %s", got.Label(), got.Origin(), tc.want, tc.origin)
			}
		})
	}

	if got := ResolvePosition(); got != nil {
		t.Fatalf("expected nil for no candidates, got %v", got)
	}
}
