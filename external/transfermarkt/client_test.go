package transfermarkt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/riskibarqy/player-scout/external/webpage"
	"github.com/riskibarqy/player-scout/internal/domain/profile"
	"github.com/riskibarqy/player-scout/internal/usecase"
)

const searchFixture = `<html><body>
<div class="box">
  <h2 class="content-box-headline">Search results: Clubs</h2>
  <table class="items"><tr><td class="hauptlink"><a href="/paris-saint-germain/startseite/verein/583">Paris Saint-Germain</a></td></tr></table>
</div>
<div class="box">
  <h2 class="content-box-headline">Search results for players</h2>
  <table class="items">
    <tr><td class="hauptlink"><a title="Ethan Mbappé" href="/ethan-mbappe/profil/spieler/803005">Ethan Mbappé</a></td></tr>
    <tr><td class="hauptlink"><a title="Kylian Mbappé" href="/kylian-mbappe/profil/spieler/342229">Kylian Mbappé</a></td></tr>
  </table>
</div>
</body></html>`

const profileFixture = `<html><head>
<script type="application/ld+json">{"@context":"https://schema.org/","@type":"Person","name":"Kylian Mbappé","birthDate":"1998-12-20","height":"1,78 m"}</script>
</head><body>
<header class="data-header">
  <h1 class="data-header__headline-wrapper"><span class="data-header__shirt-number">#9</span> Kylian <strong>Mbappé</strong></h1>
  <div class="data-header__club-info"><span class="data-header__club"><a title="Real Madrid" href="/real-madrid/startseite/verein/418">Real Madrid</a></span></div>
  <a class="data-header__market-value-wrapper" href="#">€180.00m <p class="data-header__last-update">Last update: Dec 17, 2024</p></a>
  <ul class="data-header__items">
    <li class="data-header__label">Date of birth/Age: <span>Dec 20, 1998 (25)</span></li>
    <li class="data-header__label">Goals: <span>400</span></li>
  </ul>
</header>
<div class="info-table">
  <span class="info-table__content info-table__content--regular">Date of birth/Age:</span>
  <span class="info-table__content info-table__content--bold">Dec 20, 1998 (25)</span>
  <span class="info-table__content info-table__content--regular">Citizenship:</span>
  <span class="info-table__content info-table__content--bold"><img class="flaggenrahmen" title="France" alt="France"> France<br><img class="flaggenrahmen" title="Cameroon" alt="Cameroon"> Cameroon</span>
  <span class="info-table__content info-table__content--regular">Position:</span>
  <span class="info-table__content info-table__content--bold">Attack -   Centre-Forward</span>
  <span class="info-table__content info-table__content--regular">Height:</span>
  <span class="info-table__content info-table__content--bold">1,80 m</span>
</div>
</body></html>`

func newTransfermarktServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(searchPath, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "Nobody Known" {
			_, _ = io.WriteString(w, "<html><body><p>No results</p></body></html>")
			return
		}
		_, _ = io.WriteString(w, searchFixture)
	})
	mux.HandleFunc("/kylian-mbappe/profil/spieler/342229", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, profileFixture)
	})
	return httptest.NewServer(mux)
}

func newTestClient(baseURL string) *Client {
	client := NewClient(ClientConfig{
		BaseURL: baseURL,
		Fetcher: webpage.NewFetcher(webpage.Config{Name: "transfermarkt-test", Timeout: 5 * time.Second}),
	})
	client.now = func() time.Time { return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC) }
	return client
}

func TestClientExtract(t *testing.T) {
	t.Parallel()

	server := newTransfermarktServer(t)
	defer server.Close()

	got, err := newTestClient(server.URL).Extract(context.Background(), profile.Query{Name: "Kylian Mbappe"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if got.Locator != server.URL+"/kylian-mbappe/profil/spieler/342229" {
		t.Fatalf("expected best ranked candidate page, got %s", got.Locator)
	}
	if got.Name == nil || *got.Name != "Kylian Mbappé" {
		t.Fatalf("unexpected name %v", got.Name)
	}
	if got.Age == nil || *got.Age != 26 {
		t.Fatalf("expected linked-data age to win, got %v", got.Age)
	}
	if got.Height == nil || *got.Height != "1.78 m" {
		t.Fatalf("expected linked-data height to win, got %v", got.Height)
	}
	if got.MarketValue == nil || *got.MarketValue != "€180.00m" {
		t.Fatalf("unexpected market value %v", got.MarketValue)
	}
	if got.CurrentClub == nil || *got.CurrentClub != "Real Madrid" {
		t.Fatalf("unexpected club %v", got.CurrentClub)
	}
	if got.Nationality == nil || *got.Nationality != "France" {
		t.Fatalf("unexpected nationality %v", got.Nationality)
	}
	if got.Position == nil || got.Position.Label() != "Attack - Centre-Forward" || got.Position.Origin() != profile.SourcePage {
		t.Fatalf("unexpected position %v", got.Position)
	}
	if got.Goals != nil || got.Assists != nil || got.Appearances != nil || got.MinutesPlayed != nil {
		t.Fatalf("profile page must not report performance numbers: %+v", got)
	}
}

func TestClientExtract_NoCandidates(t *testing.T) {
	t.Parallel()

	server := newTransfermarktServer(t)
	defer server.Close()

	_, err := newTestClient(server.URL).Extract(context.Background(), profile.Query{Name: "Nobody Known"})
	if !errors.Is(err, usecase.ErrNoSourceData) {
		t.Fatalf("expected ErrNoSourceData, got %v", err)
	}
}

func TestParseProfile_RowLayoutFallbacks(t *testing.T) {
	t.Parallel()

	const page = `<html><body>
<h1 class="data-header__headline">Pedri #8</h1>
<div class="data-header__market-value-wrapper">€ 100.00m</div>
<table>
  <tr class="info-table__row"><th class="info-table__label">Geburtsdatum / Alter</th><td class="info-table__content">25.11.2002 (22)</td></tr>
  <tr class="info-table__row"><th class="info-table__label">Nationalité</th><td class="info-table__content">🇪🇸 Espagne, Canaries</td></tr>
  <tr class="info-table__row"><th class="info-table__label">Taille</th><td class="info-table__content">1,74 m</td></tr>
</table>
<ul class="data-header__items"><li>Position: Central Midfield</li></ul>
</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	got := ParseProfile(doc, time.Now())

	if got.Name == nil || *got.Name != "Pedri" {
		t.Fatalf("unexpected name %v", got.Name)
	}
	if got.MarketValue == nil || *got.MarketValue != "€100.00m" {
		t.Fatalf("unexpected market value %v", got.MarketValue)
	}
	if got.Age == nil || *got.Age != 22 {
		t.Fatalf("unexpected age %v", got.Age)
	}
	if got.Nationality == nil || *got.Nationality != "Espagne" {
		t.Fatalf("unexpected nationality %v", got.Nationality)
	}
	if got.Height == nil || *got.Height != "1.74 m" {
		t.Fatalf("unexpected height %v", got.Height)
	}
	if got.Position == nil || got.Position.Label() != "Central Midfield" {
		t.Fatalf("expected header item position, got %v", got.Position)
	}
	if got.CurrentClub != nil || got.ImageURL != nil {
		t.Fatalf("fields without a source must stay unset: %+v", got)
	}
}

func TestParseProfile_FlagTitleFallback(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><body><span title="Nationality: Brazil">x</span></body></html>`,
	))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	got := ParseProfile(doc, time.Now())
	if got.Nationality == nil || *got.Nationality != "Brazil" {
		t.Fatalf("unexpected nationality %v", got.Nationality)
	}
	if got.Name != nil {
		t.Fatalf("unexpected name %v", got.Name)
	}
}

func TestCleanNationality(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "regional indicator flag", input: "\U0001F1EA\U0001F1F8 Spain", want: "Spain"},
		{name: "subdivision flag", input: "\U0001F3F4\U000E0067\U000E0062\U000E0065\U000E006E\U000E0067\U000E007F England", want: "England"},
		{name: "variation selector and joiner", input: "⚽️‍ Scotland, Wales", want: "Scotland"},
		{name: "plain", input: "  Norway ", want: "Norway"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := cleanNationality(tc.input); got != tc.want {
				t.Fatalf("cleanNationality(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseProfile_SubdivisionFlagNationality(t *testing.T) {
	t.Parallel()

	page := `<html><body><table>
<tr class="info-table__row"><th class="info-table__label">Citizenship:</th><td class="info-table__content">` +
		"\U0001F3F4\U000E0067\U000E0062\U000E0065\U000E006E\U000E0067\U000E007F England" +
		`</td></tr>
</table></body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	got := ParseProfile(doc, time.Now())
	if got.Nationality == nil || *got.Nationality != "England" {
		t.Fatalf("expected clean England nationality, got %q", derefText(got.Nationality))
	}
}

func TestParseProfile_HeaderItemsMatchLabelOnly(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body>
<ul class="data-header__items">
  <li>Place of birth: Cartagena, Region 7</li>
  <li>Player agent: Stage 11 Sports</li>
  <li>Foot: Height unknown</li>
  <li>Age: 24</li>
</ul>
</body></html>`))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	got := ParseProfile(doc, time.Now())
	if got.Age == nil || *got.Age != 24 {
		t.Fatalf("expected age from the age label, got %v", got.Age)
	}
	if got.Height != nil {
		t.Fatalf("value text must not match the height label, got %q", *got.Height)
	}
}

func derefText(value *string) string {
	if value == nil {
		return "<nil>"
	}
	return *value
}
