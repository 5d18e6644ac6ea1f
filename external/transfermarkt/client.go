package transfermarkt

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/riskibarqy/player-scout/external/webpage"
	"github.com/riskibarqy/player-scout/internal/domain/matching"
	"github.com/riskibarqy/player-scout/internal/domain/profile"
	"github.com/riskibarqy/player-scout/internal/platform/logging"
	"github.com/riskibarqy/player-scout/internal/usecase"
)

const (
	defaultBaseURL    = "https://www.transfermarkt.com"
	searchPath        = "/schnellsuche/ergebnis/schnellsuche"
	searchLimit       = 8
	maxPageCandidates = 3
)

var playerSectionRegex = regexp.MustCompile(`(?i)\b(players|spieler|joueurs)\b`)

// PageFetcher downloads one HTML page.
type PageFetcher interface {
	Get(ctx context.Context, rawURL string) (webpage.Page, error)
}

type ClientConfig struct {
	BaseURL string
	Fetcher PageFetcher
	Logger  *logging.Logger
}

// Client is the profile page source. It never reports performance numbers.
type Client struct {
	baseURL string
	fetcher PageFetcher
	logger  *logging.Logger
	now     func() time.Time
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
		fetcher = webpage.NewFetcher(webpage.Config{Name: "transfermarkt", Logger: logger})
	}

	return &Client{
		baseURL: baseURL,
		fetcher: fetcher,
		logger:  logger.Named("transfermarkt"),
		now:     time.Now,
	}
}

func (c *Client) Source() profile.Source {
	return profile.SourcePage
}

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
		return profile.AttributeSet{}, fmt.Errorf("%w: no transfermarkt profile for %q", usecase.ErrNoSourceData, name)
	}

	var lastErr error
	for _, candidate := range matching.TopK(matching.Rank(name, candidates), maxPageCandidates) {
		set, err := c.ExtractPage(ctx, candidate.Locator)
		if err != nil {
			lastErr = err
			c.logger.WarnContext(ctx, "profile page skipped", "url", candidate.Locator, "error", err)
			continue
		}
		if set.IsEmpty() {
			continue
		}
		return set, nil
	}
	if lastErr != nil {
		return profile.AttributeSet{}, lastErr
	}
	return profile.AttributeSet{}, fmt.Errorf("%w: transfermarkt pages for %q carried no profile", usecase.ErrNoSourceData, name)
}

// Search returns profile page candidates in result order.
func (c *Client) Search(ctx context.Context, name string) ([]matching.Candidate, error) {
	values := url.Values{}
	values.Set("query", name)

	page, err := c.fetcher.Get(ctx, c.baseURL+searchPath+"?"+values.Encode())
	if err != nil {
		return nil, fmt.Errorf("search transfermarkt name=%s: %w", name, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse transfermarkt search page: %w", err)
	}
	return c.searchCandidates(doc), nil
}

// ExtractPage parses one profile page.
func (c *Client) ExtractPage(ctx context.Context, pageURL string) (profile.AttributeSet, error) {
	page, err := c.fetcher.Get(ctx, pageURL)
	if err != nil {
		return profile.AttributeSet{}, fmt.Errorf("fetch profile page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return profile.AttributeSet{}, fmt.Errorf("parse profile page: %w", err)
	}

	set := ParseProfile(doc, c.now())
	set.Locator = firstNonEmpty(page.URL, pageURL)
	return set, nil
}

func (c *Client) searchCandidates(doc *goquery.Document) []matching.Candidate {
	strategies := []func(*goquery.Document) *goquery.Selection{
		func(doc *goquery.Document) *goquery.Selection {
			return doc.Find("div.box").FilterFunction(func(_ int, box *goquery.Selection) bool {
				return playerSectionRegex.MatchString(box.Find(".table-header, .content-box-headline").First().Text())
			}).Find(`td.hauptlink a[href*="/spieler/"]`)
		},
		func(doc *goquery.Document) *goquery.Selection {
			return doc.Find("a.spielprofil_tooltip").FilterFunction(func(_ int, link *goquery.Selection) bool {
				href := strings.ToLower(link.AttrOr("href", ""))
				return strings.Contains(href, "spieler") || strings.Contains(href, "player")
			})
		},
		func(doc *goquery.Document) *goquery.Selection {
			return doc.Find(`a[href*="/profil/spieler/"]`)
		},
	}

	for _, strategy := range strategies {
		if out := c.collectCandidates(strategy(doc)); len(out) > 0 {
			return out
		}
	}
	return nil
}

func (c *Client) collectCandidates(links *goquery.Selection) []matching.Candidate {
	out := make([]matching.Candidate, 0, searchLimit)
	seen := make(map[string]struct{}, searchLimit)
	links.EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href := strings.TrimSpace(link.AttrOr("href", ""))
		name := firstNonEmpty(link.AttrOr("title", ""), collapseSpaces(link.Text()))
		if href == "" || name == "" {
			return true
		}
		locator := c.absoluteURL(href)
		if _, ok := seen[locator]; ok {
			return true
		}
		seen[locator] = struct{}{}
		out = append(out, matching.Candidate{Name: name, Locator: locator})
		return len(out) < searchLimit
	})
	return out
}

func (c *Client) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return c.baseURL + href
}
