package id

import (
	"strings"
	"testing"
)

func TestRandomGenerator_NewID(t *testing.T) {
	t.Parallel()

	gen := NewRandomGenerator(" plr_ ")
	first, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	second, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}

	if !strings.HasPrefix(first, "plr_") || len(first) != len("plr_")+32 {
		t.Fatalf("unexpected id format: %q", first)
	}
	if first == second {
		t.Fatalf("expected distinct ids, got %q twice", first)
	}

	bare, err := NewRandomGenerator("").NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(bare) != 32 {
		t.Fatalf("expected bare hex id, got %q", bare)
	}
}
