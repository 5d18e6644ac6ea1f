package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/riskibarqy/player-scout/internal/platform/logging"
)

const (
	nameNormalizerSystem = "You are a football expert with deep knowledge of current and historical player names."
	nameNormalizerCutset = "\"'.,;!?()[]{}"
)

// NameNormalizer corrects spelling and diacritics of a free-text player name.
// It never fails: any problem returns the input unchanged.
type NameNormalizer struct {
	generator TextGenerator
	timeout   time.Duration
	logger    *logging.Logger
}

func NewNameNormalizer(generator TextGenerator, timeout time.Duration, logger *logging.Logger) *NameNormalizer {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &NameNormalizer{generator: generator, timeout: timeout, logger: logger}
}

func (n *NameNormalizer) Normalize(ctx context.Context, name string) string {
	ctx, span := startUsecaseSpan(ctx, "usecase.NameNormalizer.Normalize")
	defer span.End()

	trimmed := strings.TrimSpace(name)
	if utf8.RuneCountInString(trimmed) < 2 || n == nil || n.generator == nil {
		return name
	}

	callCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	out, err := n.generator.Generate(callCtx, TextRequest{
		System:      nameNormalizerSystem,
		Prompt:      nameNormalizerPrompt(trimmed),
		MaxTokens:   50,
		Temperature: 0.2,
	})
	if err != nil {
		n.logger.WarnContext(ctx, "name normalization failed, keeping original", "name", trimmed, "error", err)
		return name
	}

	cleaned := cleanGeneratedName(out)
	if utf8.RuneCountInString(cleaned) <= 1 {
		return name
	}
	if !strings.EqualFold(cleaned, trimmed) {
		n.logger.InfoContext(ctx, "name normalized", "from", trimmed, "to", cleaned)
	}
	return cleaned
}

func cleanGeneratedName(value string) string {
	value = strings.TrimSpace(value)
	value = strings.Trim(value, nameNormalizerCutset)
	return strings.TrimSpace(value)
}

func nameNormalizerPrompt(name string) string {
	return fmt.Sprintf(`Correct and normalize this football player name. It may be misspelled or have missing or wrong accents.

Given name: "%s"

Rules:
- If it is a well-known nickname or short name (like "Pedri", "Neymar", "Cristiano"), keep it as is.
- If it is a misspelled full name, fix the spelling and accents.
- Use the exact official spelling as shown on Transfermarkt.
- If the name is ambiguous, return the most likely current, well-known player.
- Reply ONLY with the name, no explanation, no quotes, no extra punctuation.

Examples:
- "Kylian Mbappe" -> "Kylian Mbappé"
- "Lamine Yamal" -> "Lamine Yamal"
- "Pedri" -> "Pedri"
- "Jude Bellingam" -> "Jude Bellingham"
- "Vinicius Junior" -> "Vinícius Júnior"

Normalized name:`, name)
}
