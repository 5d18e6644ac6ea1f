package wikidata

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	propBirthDate   = "P569"
	propHeight      = "P2048"
	propCitizenship = "P27"
	propPosition    = "P413"
	propTeam        = "P54"
	propEndTime     = "P582"
	propImage       = "P18"

	unitCentimetre = "Q174728"
)

type searchResponse struct {
	Search []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	} `json:"search"`
}

type entityResponse struct {
	Entities map[string]entity `json:"entities"`
}

type entity struct {
	ID     string                `json:"id"`
	Labels map[string]labelValue `json:"labels"`
	Claims map[string][]claim    `json:"claims"`
}

type labelValue struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

type claim struct {
	Rank       string            `json:"rank"`
	Mainsnak   snak              `json:"mainsnak"`
	Qualifiers map[string][]snak `json:"qualifiers"`
}

type snak struct {
	SnakType  string `json:"snaktype"`
	DataValue struct {
		Type  string `json:"type"`
		Value any    `json:"value"`
	} `json:"datavalue"`
}

type quantity struct {
	Amount float64
	Unit   string
}

func (e entity) statements(property string) []claim {
	out := make([]claim, 0, len(e.Claims[property]))
	for _, item := range e.Claims[property] {
		if item.Rank == "deprecated" || item.Mainsnak.SnakType != "value" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (e entity) firstString(property string) (string, bool) {
	for _, item := range e.statements(property) {
		if value, ok := item.Mainsnak.DataValue.Value.(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

func (e entity) firstTime(property string) (time.Time, bool) {
	for _, item := range e.statements(property) {
		raw := objectField(item.Mainsnak.DataValue.Value, "time")
		if parsed, ok := parseWikidataTime(raw); ok {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func (e entity) firstQuantity(property string) (quantity, bool) {
	for _, item := range e.statements(property) {
		amount, err := strconv.ParseFloat(strings.TrimPrefix(objectField(item.Mainsnak.DataValue.Value, "amount"), "+"), 64)
		if err != nil || amount <= 0 {
			continue
		}
		unit := objectField(item.Mainsnak.DataValue.Value, "unit")
		if idx := strings.LastIndex(unit, "/"); idx >= 0 {
			unit = unit[idx+1:]
		}
		return quantity{Amount: amount, Unit: unit}, true
	}
	return quantity{}, false
}

func (e entity) firstReference(property string) (string, bool) {
	for _, item := range e.statements(property) {
		if ref := objectField(item.Mainsnak.DataValue.Value, "id"); ref != "" {
			return ref, true
		}
	}
	return "", false
}

// currentReference prefers a statement without an end time. Without one the
// first statement wins.
func (e entity) currentReference(property string) (string, bool) {
	first := ""
	for _, item := range e.statements(property) {
		ref := objectField(item.Mainsnak.DataValue.Value, "id")
		if ref == "" {
			continue
		}
		if first == "" {
			first = ref
		}
		if len(item.Qualifiers[propEndTime]) == 0 {
			return ref, true
		}
	}
	return first, first != ""
}

func objectField(value any, key string) string {
	object, ok := value.(map[string]any)
	if !ok {
		return ""
	}
	switch typed := object[key].(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return ""
	}
}

// parseWikidataTime reads "+1998-12-20T00:00:00Z". Month or day may be 00
// for low precision dates.
func parseWikidataTime(raw string) (time.Time, bool) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "+")
	if len(raw) < 10 || strings.HasPrefix(raw, "-") {
		return time.Time{}, false
	}
	year, errYear := strconv.Atoi(raw[0:4])
	month, errMonth := strconv.Atoi(raw[5:7])
	day, errDay := strconv.Atoi(raw[8:10])
	if errYear != nil || errMonth != nil || errDay != nil || year <= 0 {
		return time.Time{}, false
	}
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// ageOn counts completed years between birth and now.
func ageOn(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

func formatHeight(q quantity) string {
	amount := q.Amount
	if q.Unit == unitCentimetre {
		amount = amount / 100
	}
	return strconv.FormatFloat(math.Round(amount*100)/100, 'f', 2, 64) + " m"
}

func pickLabel(labels map[string]labelValue, languages []string) string {
	for _, language := range languages {
		if label, ok := labels[language]; ok && strings.TrimSpace(label.Value) != "" {
			return strings.TrimSpace(label.Value)
		}
	}
	return ""
}
