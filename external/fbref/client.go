package fbref

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/riskibarqy/player-scout/external/webpage"
	"github.com/riskibarqy/player-scout/internal/domain/matching"
	"github.com/riskibarqy/player-scout/internal/domain/profile"
	"github.com/riskibarqy/player-scout/internal/platform/logging"
	"github.com/riskibarqy/player-scout/internal/usecase"
)

const (
	defaultBaseURL = "https://fbref.com"
	searchPath     = "/en/search/search.fcgi"
	playerPath     = "/en/players/"
	searchLimit    = 8
)

// FBref ships some tables inside HTML comments.
var commentMarkerRegex = regexp.MustCompile(`<!--|-->`)

// PageFetcher downloads one HTML page.
type PageFetcher interface {
	Get(ctx context.Context, rawURL string) (webpage.Page, error)
}

type ClientConfig struct {
	BaseURL string
	Fetcher PageFetcher
	TopK    int
	Logger  *logging.Logger
}

// Client is the statistics table source.
type Client struct {
	baseURL string
	fetcher PageFetcher
	topK    int
	logger  *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = webpage.NewFetcher(webpage.Config{Name: "fbref", Logger: logger})
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = matching.DefaultTopK
	}

	return &Client{
		baseURL: baseURL,
		fetcher: fetcher,
		topK:    topK,
		logger:  logger.Named("fbref"),
	}
}

func (c *Client) Source() profile.Source {
	return profile.SourceStats
}

// Extract ranks search candidates by name, lets the known club break ties
// between equally named leaders and stops at the first page with a usable
// season row.
func (c *Client) Extract(ctx context.Context, query profile.Query) (profile.AttributeSet, error) {
	name := strings.TrimSpace(query.Name)
	if name == "" {
		return profile.AttributeSet{}, fmt.Errorf("%w: player name is required", usecase.ErrInvalidInput)
	}

	candidates, err := c.Search(ctx, name)
	if err != nil {
		return profile.AttributeSet{}, err
	}
	if len(candidates) == 0 {
		return profile.AttributeSet{}, fmt.Errorf("%w: no fbref player for %q", usecase.ErrNoSourceData, name)
	}

	ranked := matching.TopK(matching.Rank(name, candidates), c.topK)
	ranked, pages := c.rerankLeaders(ctx, ranked, query.Affiliation)

	for _, candidate := range ranked {
		if err := ctx.Err(); err != nil {
			return profile.AttributeSet{}, err
		}

		page, fetched := pages[candidate.Locator]
		if !fetched {
			page = c.fetchCandidate(ctx, candidate.Locator, query.Affiliation)
		}
		if page.doc == nil {
			continue
		}

		row, ok := matching.SelectSeason(SeasonRows(page.doc), query.Season, page.bonus)
		if !ok {
			continue
		}

		set := profile.Empty(profile.SourceStats)
		set.Locator = firstNonEmpty(page.url, candidate.Locator)
		set.Name = profile.Text(candidate.Name)
		set.Goals = profile.Int(row.Goals)
		set.Assists = profile.Int(row.Assists)
		set.Appearances = profile.Int(row.Appearances)
		set.MinutesPlayed = profile.Int(row.Minutes)
		set.Season = profile.Text(row.Season)
		if row.Position != "" {
			set.Position = profile.StatsPosition(row.Position)
		}

		c.logger.DebugContext(ctx, "season row selected",
			"candidate", candidate.Name,
			"url", set.Locator,
			"score", candidate.Score,
			"season", row.Season,
			"club_bonus", page.bonus,
		)
		return set, nil
	}

	return profile.AttributeSet{}, fmt.Errorf("%w: no fbref season table for %q", usecase.ErrNoSourceData, name)
}

type candidatePage struct {
	doc   *goquery.Document
	url   string
	bonus float64
}

// rerankLeaders fetches every candidate tied with the top name score and
// orders them again with the club bonus added. Candidates below the leaders
// keep their place and are fetched lazily.
func (c *Client) rerankLeaders(ctx context.Context, ranked []matching.Scored, affiliation string) ([]matching.Scored, map[string]candidatePage) {
	pages := make(map[string]candidatePage)
	leaders := matching.Leaders(ranked)
	if leaders < 2 || strings.TrimSpace(affiliation) == "" {
		return ranked, pages
	}

	bonuses := make([]float64, leaders)
	for i, candidate := range ranked[:leaders] {
		page := c.fetchCandidate(ctx, candidate.Locator, affiliation)
		pages[candidate.Locator] = page
		bonuses[i] = page.bonus
	}

	out := append(matching.Rerank(ranked[:leaders], bonuses), ranked[leaders:]...)
	c.logger.DebugContext(ctx, "tied candidates reranked by club",
		"affiliation", affiliation,
		"leaders", leaders,
		"first", out[0].Locator,
	)
	return out, pages
}

// fetchCandidate loads one candidate page. A failed fetch yields a page
// without a document.
func (c *Client) fetchCandidate(ctx context.Context, locator, affiliation string) candidatePage {
	page, err := c.fetcher.Get(ctx, locator)
	if err != nil {
		c.logger.DebugContext(ctx, "candidate page skipped", "url", locator, "error", err)
		return candidatePage{url: locator}
	}
	doc, err := parseDocument(page.Body)
	if err != nil {
		return candidatePage{url: locator}
	}
	return candidatePage{
		doc:   doc,
		url:   firstNonEmpty(page.URL, locator),
		bonus: matching.ContextBonus(doc.Text(), affiliation),
	}
}

// Search returns player candidates from the site search. A search that
// redirects straight to a player page yields that page only.
func (c *Client) Search(ctx context.Context, name string) ([]matching.Candidate, error) {
	values := url.Values{}
	values.Set("search", name)

	page, err := c.fetcher.Get(ctx, c.baseURL+searchPath+"?"+values.Encode())
	if err != nil {
		return nil, fmt.Errorf("search fbref name=%s: %w", name, err)
	}
	doc, err := parseDocument(page.Body)
	if err != nil {
		return nil, fmt.Errorf("parse fbref search page: %w", err)
	}

	if strings.Contains(page.URL, playerPath) {
		display := firstNonEmpty(doc.Find("h1").First().Text(), name)
		return []matching.Candidate{{Name: collapseSpaces(display), Locator: page.URL}}, nil
	}

	out := c.collectCandidates(doc.Find(`div.search-item-name a[href^="/en/players/"]`))
	if len(out) == 0 {
		out = c.collectCandidates(doc.Find(`a[href^="/en/players/"]`))
	}
	return out, nil
}

func (c *Client) collectCandidates(links *goquery.Selection) []matching.Candidate {
	out := make([]matching.Candidate, 0, searchLimit)
	links.EachWithBreak(func(_ int, link *goquery.Selection) bool {
		name := collapseSpaces(link.Text())
		href := strings.TrimSpace(link.AttrOr("href", ""))
		if name == "" || href == "" {
			return true
		}
		out = append(out, matching.Candidate{Name: name, Locator: c.baseURL + href})
		return len(out) < searchLimit
	})
	return out
}

// SeasonRows reads the standard stats table. Separator rows and rows
// without a season label are skipped.
func SeasonRows(doc *goquery.Document) []matching.SeasonRow {
	table := doc.Find("table#stats_standard_dom_lg").First()
	if table.Length() == 0 {
		table = doc.Find("table#stats_standard").First()
	}
	if table.Length() == 0 {
		return nil
	}

	rows := make([]matching.SeasonRow, 0, 16)
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.HasClass("thead") || tr.HasClass("spacer") {
			return
		}
		season := collapseSpaces(tr.Find(`[data-stat="season"], [data-stat="year_id"]`).First().Text())
		if season == "" {
			return
		}

		row := matching.SeasonRow{
			Season:      season,
			Minutes:     cellInt(tr, "minutes"),
			Goals:       cellInt(tr, "goals"),
			Assists:     cellInt(tr, "assists"),
			Appearances: cellInt(tr, "games"),
		}
		position := collapseSpaces(tr.Find(`td[data-stat="position"], td[data-stat="pos"]`).First().Text())
		if position != "" && !strings.EqualFold(position, "nan") {
			row.Position = position
		}
		rows = append(rows, row)
	})
	return rows
}

func cellInt(tr *goquery.Selection, stat string) int {
	text := strings.ReplaceAll(strings.TrimSpace(tr.Find(`td[data-stat="`+stat+`"]`).First().Text()), ",", "")
	value, err := strconv.Atoi(text)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func parseDocument(body []byte) (*goquery.Document, error) {
	html := commentMarkerRegex.ReplaceAllString(string(body), "")
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func collapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func firstNonEmpty(values ...string) string {
	for _, item := range values {
		if strings.TrimSpace(item) != "" {
			return strings.TrimSpace(item)
		}
	}
	return ""
}
