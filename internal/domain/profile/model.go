package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/player-scout/internal/domain/matching"
)

// Source identifies the origin of a set of attributes.
type Source string

const (
	SourceStructured Source = "wikidata"
	SourcePage       Source = "transfermarkt"
	SourceStats      Source = "fbref"
	SourceImage      Source = "wikipedia"
)

// Provenance keeps the locator each source resolved to.
type Provenance struct {
	Wikidata      string
	Transfermarkt string
	FBref         string
	Wikipedia     string
}

func (p *Provenance) set(source Source, locator string) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return
	}
	switch source {
	case SourceStructured:
		if p.Wikidata == "" {
			p.Wikidata = locator
		}
	case SourcePage:
		if p.Transfermarkt == "" {
			p.Transfermarkt = locator
		}
	case SourceStats:
		if p.FBref == "" {
			p.FBref = locator
		}
	case SourceImage:
		if p.Wikipedia == "" {
			p.Wikipedia = locator
		}
	}
}

func (p Provenance) Empty() bool {
	return p.Wikidata == "" && p.Transfermarkt == "" && p.FBref == "" && p.Wikipedia == ""
}

// Profile is the canonical record for one athlete. Optional attributes are
// nil when no source supplied them; performance counters are never absent.
type Profile struct {
	ID              string
	NameKey         string
	Name            string
	Age             *int
	Nationality     *string
	Height          *string
	CurrentClub     *string
	Position        *string
	PositionSource  Source
	MarketValue     *string
	Goals           int
	Assists         int
	Appearances     int
	MinutesPlayed   int
	GoalsPerMatch   float64
	AssistsPerMatch float64
	ImageURL        *string
	Sources         Provenance
	ScoutingReport  string
	Season          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile name is required")
	}
	if p.NameKey == "" {
		return fmt.Errorf("profile name key is required")
	}
	if p.NameKey != NameKey(p.Name) {
		return fmt.Errorf("profile name key %q does not match name %q", p.NameKey, p.Name)
	}
	if p.Goals < 0 || p.Assists < 0 || p.Appearances < 0 || p.MinutesPlayed < 0 {
		return fmt.Errorf("profile performance counters must not be negative")
	}

	return nil
}

// Empty reports whether no source contributed anything beyond the name.
func (p Profile) Empty() bool {
	return p.Age == nil &&
		p.Nationality == nil &&
		p.Height == nil &&
		p.CurrentClub == nil &&
		p.Position == nil &&
		p.MarketValue == nil &&
		p.ImageURL == nil &&
		p.Goals == 0 &&
		p.Assists == 0 &&
		p.Appearances == 0 &&
		p.MinutesPlayed == 0 &&
		p.Sources.Empty()
}

// NameKey is the unique lookup key for a profile name.
func NameKey(name string) string {
	return matching.Fold(name)
}

// Query is what an extractor receives for one resolution.
type Query struct {
	Name        string
	Affiliation string
	Season      string
}

// Filter narrows profile listings. Zero values do not filter.
type Filter struct {
	Name        string
	Nationality string
	Position    string
	MaxAge      int
	Limit       int
}

// NationalityCount is one row of the nationality aggregate.
type NationalityCount struct {
	Nationality string
	Players     int
}

const UnknownNationality = "Unknown"
