package matching

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// ClubBonus is added when the known club shows up in a fetched candidate page.
	ClubBonus = 0.15
	// DefaultTopK bounds how many ranked candidates get a full page fetch.
	DefaultTopK = 5
)

// Candidate is one search hit from a single source.
type Candidate struct {
	Name    string
	Locator string
}

// Scored is a candidate with its similarity to the requested name.
type Scored struct {
	Candidate
	Score float64
}

// Fold reduces a name to its comparison form: accents stripped, punctuation
// turned into spaces, whitespace collapsed and lowercased.
func Fold(value string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), value)
	if err != nil {
		stripped = value
	}

	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return unicode.ToLower(r)
		}
		return ' '
	}, stripped)

	return strings.Join(strings.Fields(mapped), " ")
}

// Similarity scores two names in [0,1]; folded equality is always 1.
func Similarity(target, candidate string) float64 {
	left := Fold(target)
	right := Fold(candidate)
	if left == right {
		return 1
	}
	if left == "" || right == "" {
		return 0
	}

	matcher := difflib.NewMatcher(splitRunes(left), splitRunes(right))
	return matcher.Ratio()
}

// Rank orders candidates by descending similarity. Equal scores keep their
// search order.
func Rank(target string, candidates []Candidate) []Scored {
	out := make([]Scored, 0, len(candidates))
	for _, item := range candidates {
		out = append(out, Scored{Candidate: item, Score: Similarity(target, item.Name)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// TopK returns at most k leading entries of an already ranked list.
func TopK(ranked []Scored, k int) []Scored {
	if k <= 0 {
		k = DefaultTopK
	}
	if len(ranked) <= k {
		return ranked
	}
	return ranked[:k]
}

// Leaders counts the entries at the head of ranked that share the top score.
func Leaders(ranked []Scored) int {
	if len(ranked) == 0 {
		return 0
	}
	count := 1
	for count < len(ranked) && ranked[0].Score-ranked[count].Score < 1e-9 {
		count++
	}
	return count
}

// Rerank adds bonuses[i] to ranked[i] and sorts again by the new score.
// Equal totals keep their ranked order. Missing bonuses count as zero.
func Rerank(ranked []Scored, bonuses []float64) []Scored {
	out := make([]Scored, len(ranked))
	copy(out, ranked)
	for i := range out {
		if i < len(bonuses) {
			out[i].Score += bonuses[i]
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// ContextBonus returns ClubBonus when affiliation occurs in pageText,
// compared case-insensitively.
func ContextBonus(pageText, affiliation string) float64 {
	affiliation = strings.ToLower(strings.TrimSpace(affiliation))
	if affiliation == "" || pageText == "" {
		return 0
	}
	if strings.Contains(strings.ToLower(pageText), affiliation) {
		return ClubBonus
	}
	return 0
}

func splitRunes(value string) []string {
	out := make([]string, 0, len(value))
	for _, r := range value {
		out = append(out, string(r))
	}
	return out
}
