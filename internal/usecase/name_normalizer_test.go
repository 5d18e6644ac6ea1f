package usecase

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNameNormalizer_Normalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		gen   *fakeGenerator
		want  string
		calls int
	}{
		{name: "uses corrected name", input: "Kylian Mbappe", gen: replyWith(" \"Kylian Mbappé.\" ", nil), want: "Kylian Mbappé", calls: 1},
		{name: "keeps same name from service", input: "Pedri", gen: replyWith("Pedri", nil), want: "Pedri", calls: 1},
		{name: "service error keeps original", input: "Jude Bellingam", gen: replyWith("", errors.New("status 500")), want: "Jude Bellingam", calls: 1},
		{name: "single character reply keeps original", input: "Gavi", gen: replyWith("'G'", nil), want: "Gavi", calls: 1},
		{name: "empty reply keeps original", input: "Gavi", gen: replyWith("  ", nil), want: "Gavi", calls: 1},
		{name: "short input skips service", input: "X", gen: replyWith("Xavi", nil), want: "X", calls: 0},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			n := NewNameNormalizer(tc.gen, time.Second, nil)
			if got := n.Normalize(context.Background(), tc.input); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
			calls := tc.gen.calls()
			if len(calls) != tc.calls {
				t.Fatalf("expected %d generator calls, got %d", tc.calls, len(calls))
			}
			if tc.calls > 0 && (calls[0].MaxTokens != 50 || calls[0].Temperature != 0.2) {
				t.Fatalf("unexpected request parameters: %+v", calls[0])
			}
		})
	}
}

func TestNameNormalizer_TimeoutKeepsOriginal(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: func(TextRequest) (string, error) { return "late", nil }}
	slow := &slowGenerator{next: gen, delay: 200 * time.Millisecond}

	n := NewNameNormalizer(slow, 20*time.Millisecond, nil)
	if got := n.Normalize(context.Background(), "Lamine Yamal"); got != "Lamine Yamal" {
		t.Fatalf("expected original on timeout, got %q", got)
	}
}

func TestNameNormalizer_NilGenerator(t *testing.T) {
	t.Parallel()

	n := NewNameNormalizer(nil, 0, nil)
	if got := n.Normalize(context.Background(), "Vinicius Junior"); got != "Vinicius Junior" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

type slowGenerator struct {
	next  TextGenerator
	delay time.Duration
}

func (g *slowGenerator) Generate(ctx context.Context, req TextRequest) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(g.delay):
	}
	return g.next.Generate(ctx, req)
}
