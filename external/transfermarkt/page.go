package transfermarkt

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/player-scout/internal/domain/profile"
)

var (
	marketValueRegex  = regexp.MustCompile(`(?i)[€$£]?\s?[\d.,]+\s?(?:bn|m|k)?`)
	parenAgeRegex     = regexp.MustCompile(`\((\d{1,2})\)`)
	bareNumberRegex   = regexp.MustCompile(`\b(\d{1,2})\b`)
	ageWordRegex      = regexp.MustCompile(`\b(?:age|alter)\b`)
	shirtNumberRegex  = regexp.MustCompile(`^#\s*\d+\s*`)
	flagEmojiRegex    = regexp.MustCompile(`[\x{1F1E6}-\x{1F1FF}\x{1F300}-\x{1FAFF}\x{2600}-\x{27BF}\x{E0020}-\x{E007F}\x{FE0F}\x{200D}]`)
	countryTitleRegex = regexp.MustCompile(`[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*`)
	whitespaceRegex   = regexp.MustCompile(`\s+`)
)

var (
	ageLabels         = []string{"date of birth", "age", "geburtsdatum", "alter", "date de naissance"}
	nationalityLabels = []string{"nationality", "citizenship", "nationalität", "nationalité", "staatsangehörigkeit"}
	positionLabels    = []string{"position", "poste"}
	heightLabels      = []string{"height", "größe", "taille"}
)

var birthDateLayouts = []string{"2006-01-02", "Jan 2, 2006", "January 2, 2006", "02/01/2006", "02.01.2006", "2 Jan 2006"}

// pageStrategy reads what it can from a profile page into set. Strategies
// run in order and only fill fields that are still unset.
type pageStrategy interface {
	apply(doc *goquery.Document, set *profile.AttributeSet)
}

// ParseProfile runs every page strategy in precedence order. Performance
// counters are never read from this page.
func ParseProfile(doc *goquery.Document, now time.Time) profile.AttributeSet {
	set := profile.Empty(profile.SourcePage)
	for _, strategy := range pageStrategies(now) {
		strategy.apply(doc, &set)
	}
	return set
}

func pageStrategies(now time.Time) []pageStrategy {
	return []pageStrategy{
		linkedDataStrategy{now: now},
		headerStrategy{},
		infoTableStrategy{},
		headerItemsStrategy{},
		flagTitleStrategy{},
	}
}

// linkedDataStrategy reads the embedded schema.org Person block. It only
// supplies name, age and height.
type linkedDataStrategy struct {
	now time.Time
}

func (s linkedDataStrategy) apply(doc *goquery.Document, set *profile.AttributeSet) {
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		var payload any
		if err := sonic.UnmarshalString(script.Text(), &payload); err != nil {
			return true
		}
		person, ok := findPerson(payload)
		if !ok {
			return true
		}

		if name, ok := person["name"].(string); ok {
			setText(&set.Name, collapseSpaces(name))
		}
		if raw, ok := person["birthDate"].(string); ok {
			if birth, ok := parseBirthDate(raw); ok && set.Age == nil {
				set.Age = profile.Int(ageOn(birth, s.now))
			}
		}
		switch height := person["height"].(type) {
		case string:
			setText(&set.Height, normalizeHeight(height))
		case float64:
			setText(&set.Height, strconv.FormatFloat(height, 'f', 2, 64)+" m")
		}
		return false
	})
}

type headerStrategy struct{}

func (headerStrategy) apply(doc *goquery.Document, set *profile.AttributeSet) {
	headline := doc.Find("h1.data-header__headline-wrapper, h1.data-header__headline").First()
	if headline.Length() > 0 {
		headline = headline.Clone()
		headline.Find(".data-header__shirt-number").Remove()
		name := collapseSpaces(headline.Text())
		name = shirtNumberRegex.ReplaceAllString(name, "")
		if idx := strings.Index(name, "#"); idx > 0 {
			name = name[:idx]
		}
		setText(&set.Name, strings.TrimSpace(name))
	}

	if raw := collapseSpaces(doc.Find(".data-header__market-value-wrapper").First().Text()); raw != "" {
		if value := strings.ReplaceAll(marketValueRegex.FindString(raw), " ", ""); strings.ContainsAny(value, "0123456789") {
			setText(&set.MarketValue, value)
		}
	}

	doc.Find(".data-header__club a, .data-header__club-info a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		club := firstNonEmpty(collapseSpaces(link.Text()), link.AttrOr("title", ""))
		if club == "" {
			return true
		}
		setText(&set.CurrentClub, club)
		return false
	})
}

// infoTableStrategy reads the labelled info block, both the row layout and
// the alternating label/value span layout.
type infoTableStrategy struct{}

func (infoTableStrategy) apply(doc *goquery.Document, set *profile.AttributeSet) {
	doc.Find(".info-table__row").Each(func(_ int, row *goquery.Selection) {
		label := row.Find(".info-table__label").First()
		value := row.Find(".info-table__content").First()
		if label.Length() == 0 || value.Length() == 0 {
			return
		}
		applyLabelled(set, label.Text(), value)
	})

	doc.Find(".info-table .info-table__content--regular").Each(func(_ int, label *goquery.Selection) {
		value := label.NextFiltered(".info-table__content--bold")
		if value.Length() == 0 {
			return
		}
		applyLabelled(set, label.Text(), value)
	})
}

func applyLabelled(set *profile.AttributeSet, rawLabel string, value *goquery.Selection) {
	label := strings.ToLower(collapseSpaces(rawLabel))
	text := collapseSpaces(value.Text())
	if label == "" || text == "" {
		return
	}

	if containsAny(label, ageLabels) && set.Age == nil {
		if m := parenAgeRegex.FindStringSubmatch(text); len(m) == 2 {
			if age, err := strconv.Atoi(m[1]); err == nil {
				set.Age = profile.Int(age)
			}
		}
	}
	if containsAny(label, nationalityLabels) && set.Nationality == nil {
		country := collapseSpaces(value.Find("img.flaggenrahmen").First().AttrOr("title", ""))
		if country == "" {
			country = cleanNationality(value.Text())
		}
		setText(&set.Nationality, country)
	}
	if containsAny(label, positionLabels) && set.Position == nil {
		set.Position = profile.ProfilePosition(text)
	}
	if containsAny(label, heightLabels) {
		setText(&set.Height, normalizeHeight(text))
	}
}

// headerItemsStrategy mines the "Label: value" list under the header when
// the info block did not provide age, position or height. Keywords are only
// matched against the label.
type headerItemsStrategy struct{}

func (headerItemsStrategy) apply(doc *goquery.Document, set *profile.AttributeSet) {
	if set.Age != nil && set.Position != nil && set.Height != nil {
		return
	}

	doc.Find(".data-header__items li").Each(func(_ int, item *goquery.Selection) {
		label, value, hasValue := strings.Cut(collapseSpaces(item.Text()), ":")
		label = strings.ToLower(label)
		value = strings.TrimSpace(value)
		if !hasValue || value == "" {
			return
		}

		if ageWordRegex.MatchString(label) && set.Age == nil {
			match := parenAgeRegex.FindStringSubmatch(value)
			if len(match) != 2 {
				match = bareNumberRegex.FindStringSubmatch(value)
			}
			if len(match) == 2 {
				if age, err := strconv.Atoi(match[1]); err == nil {
					set.Age = profile.Int(age)
				}
			}
		}
		if strings.Contains(label, "position") && set.Position == nil {
			set.Position = profile.ProfilePosition(value)
		}
		if strings.Contains(label, "height") {
			setText(&set.Height, normalizeHeight(value))
		}
	})
}

// flagTitleStrategy takes the nationality from a flag image title.
type flagTitleStrategy struct{}

func (flagTitleStrategy) apply(doc *goquery.Document, set *profile.AttributeSet) {
	if set.Nationality != nil {
		return
	}

	doc.Find(`span[title*="ationalit"], img.flaggenrahmen`).EachWithBreak(func(_ int, node *goquery.Selection) bool {
		title := collapseSpaces(node.AttrOr("title", ""))
		if title == "" {
			return true
		}
		if node.Is("img") {
			setText(&set.Nationality, title)
			return false
		}
		if country := countryTitleRegex.FindString(strings.NewReplacer("Nationality", "", "Nationalität", "").Replace(title)); country != "" {
			setText(&set.Nationality, country)
			return false
		}
		return true
	})
}

func findPerson(node any) (map[string]any, bool) {
	switch typed := node.(type) {
	case map[string]any:
		if isPersonType(typed["@type"]) {
			return typed, true
		}
		if graph, ok := typed["@graph"]; ok {
			return findPerson(graph)
		}
	case []any:
		for _, item := range typed {
			if person, ok := findPerson(item); ok {
				return person, true
			}
		}
	}
	return nil, false
}

func isPersonType(value any) bool {
	switch typed := value.(type) {
	case string:
		return strings.EqualFold(typed, "Person")
	case []any:
		for _, item := range typed {
			if isPersonType(item) {
				return true
			}
		}
	}
	return false
}

func parseBirthDate(raw string) (time.Time, bool) {
	raw = collapseSpaces(raw)
	if idx := strings.Index(raw, "("); idx > 0 {
		raw = strings.TrimSpace(raw[:idx])
	}
	for _, layout := range birthDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func ageOn(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

func cleanNationality(raw string) string {
	value := flagEmojiRegex.ReplaceAllString(raw, "")
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == '\n' || r == ',' || r == '|'
	})
	for _, part := range parts {
		if part = strings.Trim(collapseSpaces(part), ".,;:!?()[]{}"); part != "" {
			return part
		}
	}
	return ""
}

func normalizeHeight(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(collapseSpaces(raw), ",", "."))
}

func setText(dst **string, value string) {
	if *dst != nil {
		return
	}
	*dst = profile.Text(value)
}

func containsAny(value string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(value, keyword) {
			return true
		}
	}
	return false
}

func collapseSpaces(value string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(value, " "))
}

func firstNonEmpty(values ...string) string {
	for _, item := range values {
		if strings.TrimSpace(item) != "" {
			return strings.TrimSpace(item)
		}
	}
	return ""
}
