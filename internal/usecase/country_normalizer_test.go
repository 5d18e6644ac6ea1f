package usecase

import (
	"context"
	"errors"
	"testing"
)

func TestCountryNormalizer_Normalize(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("french map", func(t *testing.T) {
		gen := replyWith("unused", nil)
		c := NewCountryNormalizer(gen, nil)
		if got := c.Normalize(ctx, "Côte d'Ivoire"); got != "Ivory Coast" {
			t.Fatalf("unexpected country %q", got)
		}
		if got := c.Normalize(ctx, "USA"); got != "United States" {
			t.Fatalf("unexpected country %q", got)
		}
		if len(gen.calls()) != 0 {
			t.Fatalf("mapped names must not call the generator")
		}
	})

	t.Run("english passthrough", func(t *testing.T) {
		gen := replyWith("unused", nil)
		c := NewCountryNormalizer(gen, nil)
		if got := c.Normalize(ctx, " Ghana "); got != "Ghana" {
			t.Fatalf("unexpected country %q", got)
		}
		if len(gen.calls()) != 0 {
			t.Fatalf("known names must not call the generator")
		}
	})

	t.Run("generator fallback", func(t *testing.T) {
		gen := replyWith(" \"Uruguay\". ", nil)
		c := NewCountryNormalizer(gen, nil)
		if got := c.Normalize(ctx, "Uruguai"); got != "Uruguay" {
			t.Fatalf("unexpected country %q", got)
		}
		calls := gen.calls()
		if len(calls) != 1 || calls[0].MaxTokens != 20 || calls[0].Temperature != 0.3 {
			t.Fatalf("unexpected generator calls: %+v", calls)
		}
	})

	t.Run("generator failure keeps input", func(t *testing.T) {
		c := NewCountryNormalizer(replyWith("", errors.New("boom")), nil)
		if got := c.Normalize(ctx, "Kosovo"); got != "Kosovo" {
			t.Fatalf("unexpected country %q", got)
		}
	})

	t.Run("blank reply keeps input", func(t *testing.T) {
		c := NewCountryNormalizer(replyWith("...", nil), nil)
		if got := c.Normalize(ctx, "Kosovo"); got != "Kosovo" {
			t.Fatalf("unexpected country %q", got)
		}
	})
}
