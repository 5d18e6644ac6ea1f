package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/player-scout/internal/platform/logging"
)

var frenchCountryNames = map[string]string{
	"Espagne":             "Spain",
	"Angleterre":          "England",
	"Allemagne":           "Germany",
	"Italie":              "Italy",
	"Brésil":              "Brazil",
	"Argentine":           "Argentina",
	"Belgique":            "Belgium",
	"Pays-Bas":            "Netherlands",
	"Croatie":             "Croatia",
	"Maroc":               "Morocco",
	"Sénégal":             "Senegal",
	"Côte d'Ivoire":       "Ivory Coast",
	"Cameroun":            "Cameroon",
	"Égypte":              "Egypt",
	"Algérie":             "Algeria",
	"Tunisie":             "Tunisia",
	"Japon":               "Japan",
	"Corée du Sud":        "South Korea",
	"Chine":               "China",
	"États-Unis":          "United States",
	"USA":                 "United States",
	"Mexique":             "Mexico",
	"Colombie":            "Colombia",
	"Chili":               "Chile",
	"Pérou":               "Peru",
	"Équateur":            "Ecuador",
	"Russie":              "Russia",
	"Pologne":             "Poland",
	"Suède":               "Sweden",
	"Norvège":             "Norway",
	"Danemark":            "Denmark",
	"Suisse":              "Switzerland",
	"Autriche":            "Austria",
	"République tchèque":  "Czech Republic",
	"Grèce":               "Greece",
	"Turquie":             "Turkey",
	"Israël":              "Israel",
	"Arabie saoudite":     "Saudi Arabia",
	"Émirats arabes unis": "United Arab Emirates",
	"Australie":           "Australia",
	"Nouvelle-Zélande":    "New Zealand",
	"Afrique du Sud":      "South Africa",
}

var englishCountryNames = map[string]struct{}{
	"Spain": {}, "England": {}, "Germany": {}, "Italy": {}, "Brazil": {}, "Argentina": {}, "France": {},
	"Belgium": {}, "Netherlands": {}, "Croatia": {}, "Morocco": {}, "Senegal": {}, "Japan": {},
	"United States": {}, "Mexico": {}, "Colombia": {}, "Chile": {}, "Peru": {}, "Ecuador": {},
	"Russia": {}, "Poland": {}, "Sweden": {}, "Norway": {}, "Denmark": {}, "Switzerland": {},
	"Austria": {}, "Czech Republic": {}, "Greece": {}, "Turkey": {}, "Israel": {}, "Saudi Arabia": {},
	"United Arab Emirates": {}, "Australia": {}, "New Zealand": {}, "South Africa": {},
	"Cameroon": {}, "Egypt": {}, "Algeria": {}, "Tunisia": {}, "South Korea": {}, "China": {},
	"Ivory Coast": {}, "Nigeria": {}, "Ghana": {}, "Portugal": {}, "Uruguay": {}, "Scotland": {},
	"Wales": {}, "Ireland": {}, "Serbia": {}, "Ukraine": {},
}

// CountryNormalizer maps nationality labels to English country names.
type CountryNormalizer struct {
	generator TextGenerator
	logger    *logging.Logger
}

func NewCountryNormalizer(generator TextGenerator, logger *logging.Logger) *CountryNormalizer {
	if logger == nil {
		logger = logging.Default()
	}
	return &CountryNormalizer{generator: generator, logger: logger}
}

func (c *CountryNormalizer) Normalize(ctx context.Context, country string) string {
	country = strings.TrimSpace(country)
	if country == "" {
		return country
	}
	if mapped, ok := frenchCountryNames[country]; ok {
		return mapped
	}
	if _, ok := englishCountryNames[country]; ok {
		return country
	}
	if c == nil || c.generator == nil {
		return country
	}

	ctx, span := startUsecaseSpan(ctx, "usecase.CountryNormalizer.Normalize")
	defer span.End()

	out, err := c.generator.Generate(ctx, TextRequest{
		Prompt: fmt.Sprintf(`Normalize this country name to its standard English form: "%s"
Reply ONLY with the English country name, no explanation, no quotes, no punctuation.
Examples: "Espagne" -> "Spain", "Angleterre" -> "England", "États-Unis" -> "United States"
Normalized name:`, country),
		MaxTokens:   20,
		Temperature: 0.3,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "country normalization failed, keeping original", "country", country, "error", err)
		return country
	}

	normalized := strings.TrimSpace(strings.Trim(strings.TrimSpace(out), "\"'.,;!?"))
	if normalized == "" {
		return country
	}
	return normalized
}
