package profile

import (
	"sort"
	"strings"
)

// AttributeSet is the sparse output of one extractor. A nil field means the
// source said nothing about it; extractors never store blank strings.
type AttributeSet struct {
	Source        Source
	Locator       string
	Name          *string
	Age           *int
	Nationality   *string
	Height        *string
	CurrentClub   *string
	Position      SourcePosition
	MarketValue   *string
	Goals         *int
	Assists       *int
	Appearances   *int
	MinutesPlayed *int
	Season        *string
	ImageURL      *string
}

// Empty builds an attribute set that asserts nothing.
func Empty(source Source) AttributeSet {
	return AttributeSet{Source: source}
}

// Text returns a pointer to the trimmed value, or nil when it is blank.
func Text(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func Int(value int) *int {
	return &value
}

// Fields lists the attribute keys the set asserts, sorted.
func (s AttributeSet) Fields() []string {
	present := map[string]bool{
		"name":           s.Name != nil,
		"age":            s.Age != nil,
		"nationality":    s.Nationality != nil,
		"height":         s.Height != nil,
		"current_club":   s.CurrentClub != nil,
		"position":       s.Position != nil,
		"market_value":   s.MarketValue != nil,
		"goals":          s.Goals != nil,
		"assists":        s.Assists != nil,
		"appearances":    s.Appearances != nil,
		"minutes_played": s.MinutesPlayed != nil,
		"season":         s.Season != nil,
		"image_url":      s.ImageURL != nil,
	}

	out := make([]string, 0, len(present))
	for key, ok := range present {
		if ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func (s AttributeSet) Has(field string) bool {
	for _, item := range s.Fields() {
		if item == field {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the set asserts no field at all.
func (s AttributeSet) IsEmpty() bool {
	return len(s.Fields()) == 0
}
