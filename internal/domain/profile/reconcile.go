package profile

import (
	"math"
	"strings"
)

// Inputs are the attribute sets for one resolution in arrival order.
// Supplements are merged after the three primary sources.
type Inputs struct {
	Structured  AttributeSet
	Page        AttributeSet
	Stats       AttributeSet
	Supplements []AttributeSet
	Season      string
}

// Reconcile merges the attribute sets into one profile for name.
//
// Every field is filled from the first set that asserts it, in the order
// structured, page, stats, supplements. Two fields deviate: market value is
// taken from the page whenever the page has one, and position goes through
// ResolvePosition. Performance counters asserted by the page are ignored.
// The result depends only on its arguments.
func Reconcile(name string, in Inputs) Profile {
	name = strings.TrimSpace(name)
	out := Profile{
		Name:    name,
		NameKey: NameKey(name),
	}

	sets := make([]AttributeSet, 0, 3+len(in.Supplements))
	sets = append(sets, in.Structured, in.Page, in.Stats)
	sets = append(sets, in.Supplements...)

	var (
		goals, assists, appearances, minutes *int
		season                               *string
		positions                            = make([]SourcePosition, 0, len(sets))
	)
	for _, set := range sets {
		out.Sources.set(set.Source, set.Locator)

		fillInt(&out.Age, set.Age)
		fillText(&out.Nationality, set.Nationality)
		fillText(&out.Height, set.Height)
		fillText(&out.CurrentClub, set.CurrentClub)
		fillText(&out.MarketValue, set.MarketValue)
		fillText(&out.ImageURL, set.ImageURL)
		fillText(&season, set.Season)

		if set.Position != nil {
			positions = append(positions, set.Position)
		}
		if set.Source == SourcePage {
			continue
		}
		fillInt(&goals, set.Goals)
		fillInt(&assists, set.Assists)
		fillInt(&appearances, set.Appearances)
		fillInt(&minutes, set.MinutesPlayed)
	}

	if value := in.Page.MarketValue; value != nil && strings.TrimSpace(*value) != "" {
		out.MarketValue = copyText(value)
	}

	if resolved := ResolvePosition(positions...); resolved != nil {
		label := resolved.Label()
		out.Position = &label
		out.PositionSource = resolved.Origin()
	}

	out.Goals = valueOrZero(goals)
	out.Assists = valueOrZero(assists)
	out.Appearances = valueOrZero(appearances)
	out.MinutesPlayed = valueOrZero(minutes)
	out.GoalsPerMatch = PerMatch(out.Goals, out.Appearances)
	out.AssistsPerMatch = PerMatch(out.Assists, out.Appearances)

	out.Season = strings.TrimSpace(in.Season)
	if season != nil {
		out.Season = *season
	}

	return out
}

// PerMatch divides total by appearances rounded to two decimals, or 0 when
// there were no appearances.
func PerMatch(total, appearances int) float64 {
	if appearances <= 0 {
		return 0
	}
	return math.Round(float64(total)/float64(appearances)*100) / 100
}

func fillText(dst **string, value *string) {
	if *dst != nil || value == nil || strings.TrimSpace(*value) == "" {
		return
	}
	*dst = copyText(value)
}

func fillInt(dst **int, value *int) {
	if *dst != nil || value == nil {
		return
	}
	v := *value
	*dst = &v
}

func copyText(value *string) *string {
	v := strings.TrimSpace(*value)
	return &v
}

func valueOrZero(value *int) int {
	if value == nil || *value < 0 {
		return 0
	}
	return *value
}
