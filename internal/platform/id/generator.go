package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

// RandomGenerator emits prefix + "_" + 16 random bytes in hex.
type RandomGenerator struct {
	prefix string
}

func NewRandomGenerator(prefix string) *RandomGenerator {
	return &RandomGenerator{prefix: strings.Trim(strings.TrimSpace(prefix), "_")}
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	value := hex.EncodeToString(buf)
	if g == nil || g.prefix == "" {
		return value, nil
	}
	return g.prefix + "_" + value, nil
}
