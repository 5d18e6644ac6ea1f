package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/player-scout/internal/domain/profile"
	"github.com/riskibarqy/player-scout/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/player-scout/internal/platform/logging"
	"github.com/riskibarqy/player-scout/internal/usecase"
)

const testJobToken = "job-token"

type stubSource struct {
	source profile.Source
	set    profile.AttributeSet
	err    error
}

func (s stubSource) Source() profile.Source { return s.source }

func (s stubSource) Extract(context.Context, profile.Query) (profile.AttributeSet, error) {
	return s.set, s.err
}

type stubGenerator struct {
	text string
	err  error
}

func (g stubGenerator) Generate(context.Context, usecase.TextRequest) (string, error) {
	return g.text, g.err
}

type recordedRoute struct {
	route  string
	method string
	status int
}

type stubHTTPMetrics struct {
	mu     sync.Mutex
	routes []recordedRoute
}

func (m *stubHTTPMetrics) ObserveHTTP(route, method string, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, recordedRoute{route: route, method: method, status: status})
}

type testServer struct {
	router  http.Handler
	repo    *memory.ProfileRepository
	metrics *stubHTTPMetrics
}

func newTestServer(t *testing.T, sources usecase.ResolveSources, generator usecase.TextGenerator, seed ...profile.Profile) testServer {
	t.Helper()

	logger := logging.NewNop()
	repo := memory.NewProfileRepository(seed...)
	resolveService := usecase.NewResolveService(nil, nil, sources, repo, nil, nil, usecase.ResolveConfig{SourceTimeout: time.Second}, logger)
	batchService := usecase.NewBatchResolveService(resolveService, nil, usecase.BatchResolveConfig{Workers: 2}, logger)
	var scouting *usecase.ScoutingService
	if generator != nil {
		scouting = usecase.NewScoutingService(repo, generator, logger)
	}

	metrics := &stubHTTPMetrics{}
	handler := NewHandler(resolveService, batchService, usecase.NewProfileService(repo), scouting, logger)
	router := NewRouter(handler, logger, RouterConfig{
		InternalJobToken: testJobToken,
		HTTPMetrics:      metrics,
	})
	return testServer{router: router, repo: repo, metrics: metrics}
}

func (s testServer) do(t *testing.T, method, target, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var envelope map[string]any
	if rec.Body.Len() > 0 {
		if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("unmarshal response body %q: %v", rec.Body.String(), err)
		}
	}
	return rec, envelope
}

func haalandSources() usecase.ResolveSources {
	return usecase.ResolveSources{
		Structured: stubSource{
			source: profile.SourceStructured,
			set: profile.AttributeSet{
				Locator:     "https://www.wikidata.org/wiki/Q28858596",
				Age:         profile.Int(24),
				Nationality: profile.Text("Norway"),
				Position:    profile.StructuredPosition("Centre-Forward"),
			},
		},
		Page: stubSource{
			source: profile.SourcePage,
			set: profile.AttributeSet{
				Locator:     "https://www.transfermarkt.com/erling-haaland/profil/spieler/418560",
				CurrentClub: profile.Text("Manchester City"),
				MarketValue: profile.Text("€180.00m"),
			},
		},
		Stats: stubSource{
			source: profile.SourceStats,
			set: profile.AttributeSet{
				Locator:       "https://fbref.com/en/players/1f44ac21/Erling-Haaland",
				Goals:         profile.Int(27),
				Assists:       profile.Int(5),
				Appearances:   profile.Int(31),
				MinutesPlayed: profile.Int(2561),
			},
		},
	}
}

func storedProfile(id, name, nationality string, age int) profile.Profile {
	return profile.Profile{
		ID:          id,
		Name:        name,
		NameKey:     profile.NameKey(name),
		Age:         profile.Int(age),
		Nationality: profile.Text(nationality),
		Season:      usecase.DefaultSeason,
	}
}

func dataObject(t *testing.T, envelope map[string]any) map[string]any {
	t.Helper()
	data, ok := envelope["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %#v", envelope)
	}
	return data
}

func errorStatus(envelope map[string]any) string {
	errorObj, _ := envelope["error"].(map[string]any)
	status, _ := errorObj["status"].(string)
	return status
}

func TestResolvePlayer_PersistsAndReadsBack(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, haalandSources(), nil)

	rec, envelope := srv.do(t, http.MethodPost, "/v1/players/resolve", `{"name":"Erling Haaland"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	data := dataObject(t, envelope)
	if persisted, _ := data["persisted"].(bool); !persisted {
		t.Fatalf("expected persisted=true, got %v", data["persisted"])
	}
	resolved, _ := data["profile"].(map[string]any)
	if resolved["name"] != "Erling Haaland" {
		t.Fatalf("unexpected name %v", resolved["name"])
	}
	if resolved["position"] != "Centre-Forward" || resolved["position_source"] != "wikidata" {
		t.Fatalf("unexpected position %v from %v", resolved["position"], resolved["position_source"])
	}
	if goals, _ := resolved["goals"].(float64); goals != 27 {
		t.Fatalf("expected goals=27, got %v", resolved["goals"])
	}
	for _, key := range []string{"image_url", "height", "scouting_report"} {
		if value, ok := resolved[key]; ok {
			t.Fatalf("expected %s to be absent, got %v", key, value)
		}
	}
	sources, _ := resolved["sources"].(map[string]any)
	if _, ok := sources["wikipedia"]; ok || sources["fbref"] == nil {
		t.Fatalf("expected only contributing sources, got %v", sources)
	}
	outcomes, _ := data["source_outcomes"].(map[string]any)
	if outcomes["fbref"] != usecase.OutcomeOK {
		t.Fatalf("unexpected source outcomes %v", outcomes)
	}

	rec, envelope = srv.do(t, http.MethodGet, "/v1/players/by-name/erling%20haaland", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected read-back status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	readBack := dataObject(t, envelope)
	if readBack["id"] != resolved["id"] {
		t.Fatalf("expected read-back id %v, got %v", resolved["id"], readBack["id"])
	}
	if readBack["market_value"] != "€180.00m" {
		t.Fatalf("unexpected market value %v", readBack["market_value"])
	}
}

func TestResolvePlayer_NoSourceDataIsNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, usecase.ResolveSources{
		Structured: stubSource{source: profile.SourceStructured, err: usecase.ErrNoSourceData},
		Page:       stubSource{source: profile.SourcePage, err: context.DeadlineExceeded},
	}, nil)

	rec, envelope := srv.do(t, http.MethodPost, "/v1/players/resolve", `{"name":"Nobody Known"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d body=%s", rec.Code, rec.Body.String())
	}
	if got := errorStatus(envelope); got != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %q", got)
	}

	items, err := srv.repo.List(context.Background(), profile.Filter{})
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected nothing persisted, got %d profiles", len(items))
	}
}

func TestResolvePlayer_RejectsInvalidPayload(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, haalandSources(), nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "unknown field", body: `{"name":"Erling Haaland","club":"City"}`},
		{name: "missing name", body: `{"season":"2024-2025"}`},
		{name: "short name", body: `{"name":"E"}`},
		{name: "malformed json", body: `{"name":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, envelope := srv.do(t, http.MethodPost, "/v1/players/resolve", tt.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d body=%s", rec.Code, rec.Body.String())
			}
			if got := errorStatus(envelope); got != "INVALID_ARGUMENT" {
				t.Fatalf("expected INVALID_ARGUMENT, got %q", got)
			}
		})
	}
}

func TestResolvePlayersBatch_Direct(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, haalandSources(), nil)

	rec, envelope := srv.do(t, http.MethodPost, "/v1/players/resolve/batch", `{"names":["Erling Haaland","erling haaland"]}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	data := dataObject(t, envelope)
	if data["mode"] != "direct" {
		t.Fatalf("expected direct mode, got %v", data["mode"])
	}
	items, _ := data["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected duplicate names to collapse into one item, got %v", data["items"])
	}
	first, _ := items[0].(map[string]any)
	if first["status"] != usecase.BatchStatusFound {
		t.Fatalf("expected first item found, got %v", first["status"])
	}
}

func TestListPlayers_Filters(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, usecase.ResolveSources{}, nil,
		storedProfile("plr_1", "Lamine Yamal", "Spain", 17),
		storedProfile("plr_2", "Pedri", "Spain", 22),
		storedProfile("plr_3", "Jude Bellingham", "England", 21),
	)

	rec, envelope := srv.do(t, http.MethodGet, "/v1/players?country=spain&max_age=20", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	items, _ := envelope["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one player, got %v", envelope["data"])
	}
	item, _ := items[0].(map[string]any)
	if item["name"] != "Lamine Yamal" {
		t.Fatalf("unexpected player %v", item["name"])
	}

	rec, _ = srv.do(t, http.MethodGet, "/v1/players?max_age=old", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for bad max_age, got %d", rec.Code)
	}
}

func TestGetPlayer_NotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, usecase.ResolveSources{}, nil)

	rec, envelope := srv.do(t, http.MethodGet, "/v1/players/plr_missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if got := errorStatus(envelope); got != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %q", got)
	}
}

func TestListCountries(t *testing.T) {
	t.Parallel()

	unknown := storedProfile("plr_4", "Unknown Winger", "", 25)
	unknown.Nationality = nil
	srv := newTestServer(t, usecase.ResolveSources{}, nil,
		storedProfile("plr_1", "Lamine Yamal", "Spain", 17),
		storedProfile("plr_2", "Pedri", "Spain", 22),
		storedProfile("plr_3", "Jude Bellingham", "England", 21),
		unknown,
	)

	rec, envelope := srv.do(t, http.MethodGet, "/v1/countries", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	items, _ := envelope["data"].([]any)
	if len(items) != 3 {
		t.Fatalf("expected three nationalities, got %v", envelope["data"])
	}
	first, _ := items[0].(map[string]any)
	if first["nationality"] != "Spain" || first["players"] != float64(2) {
		t.Fatalf("unexpected first row %v", first)
	}
}

func TestGenerateScoutingReport(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, usecase.ResolveSources{}, stubGenerator{text: "Press-resistant midfielder."},
		storedProfile("plr_2", "Pedri", "Spain", 22),
	)

	rec, envelope := srv.do(t, http.MethodPost, "/v1/players/plr_2/report", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if got := dataObject(t, envelope)["scouting_report"]; got != "Press-resistant midfielder." {
		t.Fatalf("unexpected report %v", got)
	}

	stored, exists, err := srv.repo.GetByID(context.Background(), "plr_2")
	if err != nil || !exists {
		t.Fatalf("get stored profile: exists=%v err=%v", exists, err)
	}
	if stored.ScoutingReport != "Press-resistant midfielder." {
		t.Fatalf("expected report to be saved, got %q", stored.ScoutingReport)
	}
}

func TestGenerateScoutingReport_NotConfigured(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, usecase.ResolveSources{}, nil, storedProfile("plr_2", "Pedri", "Spain", 22))

	rec, envelope := srv.do(t, http.MethodPost, "/v1/players/plr_2/report", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
	if got := errorStatus(envelope); got != "UNAVAILABLE" {
		t.Fatalf("expected UNAVAILABLE, got %q", got)
	}
}

func TestGetPlayerByName_ReportFailureStillReturnsProfile(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, usecase.ResolveSources{}, stubGenerator{err: context.DeadlineExceeded},
		storedProfile("plr_2", "Pedri", "Spain", 22),
	)

	rec, envelope := srv.do(t, http.MethodGet, "/v1/players/by-name/Pedri?report=true", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	data := dataObject(t, envelope)
	if data["scouting_report"] != nil {
		t.Fatalf("expected no report, got %v", data["scouting_report"])
	}
}

func TestRunResolveJob_RequiresToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, haalandSources(), nil)

	rec, envelope := srv.do(t, http.MethodPost, usecase.ResolveJobPath, `{"name":"Erling Haaland"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if got := errorStatus(envelope); got != "UNAUTHENTICATED" {
		t.Fatalf("expected UNAUTHENTICATED, got %q", got)
	}

	rec, envelope = srv.do(t, http.MethodPost, usecase.ResolveJobPath, `{"name":"Erling Haaland","season":"2023-2024"}`,
		map[string]string{"X-Internal-Job-Token": testJobToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	resolved, _ := dataObject(t, envelope)["profile"].(map[string]any)
	if resolved["season"] != "2023-2024" {
		t.Fatalf("expected season from job payload, got %v", resolved["season"])
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, usecase.ResolveSources{}, nil)

	rec, _ := srv.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRouteMetrics_UsesRoutePattern(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, usecase.ResolveSources{}, nil)

	srv.do(t, http.MethodGet, "/v1/players/plr_missing", "", nil)
	srv.do(t, http.MethodGet, "/nope", "", nil)

	srv.metrics.mu.Lock()
	defer srv.metrics.mu.Unlock()
	if len(srv.metrics.routes) != 2 {
		t.Fatalf("expected two observations, got %v", srv.metrics.routes)
	}
	if got := srv.metrics.routes[0]; got.route != "/v1/players/{playerID}" || got.status != http.StatusNotFound {
		t.Fatalf("unexpected observation %+v", got)
	}
	if got := srv.metrics.routes[1]; got.route != "unmatched" {
		t.Fatalf("expected unmatched route label, got %+v", got)
	}
}
