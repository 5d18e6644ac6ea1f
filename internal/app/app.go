package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/riskibarqy/player-scout/external/fbref"
	"github.com/riskibarqy/player-scout/external/openai"
	"github.com/riskibarqy/player-scout/external/transfermarkt"
	"github.com/riskibarqy/player-scout/external/webpage"
	"github.com/riskibarqy/player-scout/external/wikidata"
	"github.com/riskibarqy/player-scout/external/wikipedia"
	"github.com/riskibarqy/player-scout/internal/config"
	"github.com/riskibarqy/player-scout/internal/domain/profile"
	"github.com/riskibarqy/player-scout/internal/infrastructure/jobqueue"
	cacherepo "github.com/riskibarqy/player-scout/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/player-scout/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/player-scout/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/player-scout/internal/interfaces/httpapi"
	"github.com/riskibarqy/player-scout/internal/observability"
	basecache "github.com/riskibarqy/player-scout/internal/platform/cache"
	idgen "github.com/riskibarqy/player-scout/internal/platform/id"
	"github.com/riskibarqy/player-scout/internal/platform/logging"
	"github.com/riskibarqy/player-scout/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Cleanup releases what NewHTTPServer opened.
type Cleanup func() error

func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, Cleanup, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	repo, cleanup, err := newProfileRepository(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		repo = cacherepo.NewProfileRepository(repo, store)
		if metrics != nil {
			metrics.RegisterCacheStats("profile", store)
		}
	}

	var generator usecase.TextGenerator
	if cfg.OpenAIEnabled() {
		generator = openai.NewClient(openai.ClientConfig{
			HTTPClient:     tracedHTTPClient(cfg.OpenAITimeout),
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			Model:          cfg.OpenAIModel,
			Timeout:        cfg.OpenAITimeout,
			MaxRetries:     cfg.SourceMaxRetries,
			Logger:         logger,
			CircuitBreaker: cfg.OpenAICircuit,
		})
	} else {
		logger.Warn("openai is not configured, name normalization and scouting reports are disabled")
	}

	var resolveMetrics usecase.ResolveMetrics
	if metrics != nil {
		resolveMetrics = metrics
	}

	resolveSvc := usecase.NewResolveService(
		usecase.NewNameNormalizer(generator, cfg.NameNormalizerTimeout, logger),
		usecase.NewCountryNormalizer(generator, logger),
		newResolveSources(cfg, logger),
		repo,
		idgen.NewRandomGenerator("plr"),
		resolveMetrics,
		usecase.ResolveConfig{
			DefaultSeason: cfg.DefaultSeason,
			SourceTimeout: cfg.SourceTimeout,
		},
		logger,
	)

	queue := usecase.NewNoopJobQueue()
	if cfg.QStashEnabled {
		queue = jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			HTTPClient:       tracedHTTPClient(10 * time.Second),
			CircuitBreaker:   cfg.QStashCircuit,
		}, logger)
	}
	batchSvc := usecase.NewBatchResolveService(resolveSvc, queue, usecase.BatchResolveConfig{
		Workers: cfg.ResolveWorkers,
		Async:   cfg.QStashEnabled,
	}, logger)

	var scoutingSvc *usecase.ScoutingService
	if generator != nil {
		scoutingSvc = usecase.NewScoutingService(repo, generator, logger)
	}

	handler := httpapi.NewHandler(resolveSvc, batchSvc, usecase.NewProfileService(repo), scoutingSvc, logger)
	routerCfg := httpapi.RouterConfig{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	}
	if metrics != nil {
		routerCfg.MetricsHandler = metrics.Handler()
		routerCfg.HTTPMetrics = metrics
	}
	if cfg.UptraceEnabled && cfg.UptraceCaptureRequestBody {
		routerCfg.TraceRequestBodyMaxBytes = cfg.UptraceRequestBodyMaxBytes
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(handler, logger, routerCfg),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, cleanup, nil
}

func newProfileRepository(ctx context.Context, cfg config.Config, logger *logging.Logger) (profile.Repository, Cleanup, error) {
	if cfg.StoreBackend != config.StorePostgres {
		logger.Info("using in-memory profile store")
		return memory.NewProfileRepository(), func() error { return nil }, nil
	}

	dsn := normalizeDBURL(cfg.DBURL, cfg.ServiceName)
	dbName := dbNameFromURL(dsn)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBName(dbName),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	otelsql.ReportDBStatsMetrics(db.DB, otelsql.WithDBName(dbName))
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("using postgres profile store", "db_name", dbName)
	return postgres.NewProfileRepository(db), db.Close, nil
}

func newResolveSources(cfg config.Config, logger *logging.Logger) usecase.ResolveSources {
	pageFetcher := func(name string) *webpage.Fetcher {
		return webpage.NewFetcher(webpage.Config{
			Name:           name,
			UserAgent:      cfg.SourceUserAgent,
			Timeout:        cfg.SourceTimeout,
			MaxRetries:     cfg.SourceMaxRetries,
			Logger:         logger,
			CircuitBreaker: cfg.SourceCircuit,
		})
	}

	return usecase.ResolveSources{
		Structured: wikidata.NewClient(wikidata.ClientConfig{
			HTTPClient:     tracedHTTPClient(cfg.SourceTimeout),
			BaseURL:        cfg.WikidataBaseURL,
			UserAgent:      cfg.SourceUserAgent,
			Timeout:        cfg.SourceTimeout,
			MaxRetries:     cfg.SourceMaxRetries,
			Logger:         logger,
			CircuitBreaker: cfg.SourceCircuit,
		}),
		Page: transfermarkt.NewClient(transfermarkt.ClientConfig{
			BaseURL: cfg.TransfermarktBaseURL,
			Fetcher: pageFetcher("transfermarkt"),
			Logger:  logger,
		}),
		Stats: fbref.NewClient(fbref.ClientConfig{
			BaseURL: cfg.FBrefBaseURL,
			Fetcher: pageFetcher("fbref"),
			Logger:  logger,
		}),
		Image: wikipedia.NewClient(wikipedia.ClientConfig{
			HTTPClient: tracedHTTPClient(cfg.SourceTimeout),
			BaseURL:    cfg.WikipediaBaseURL,
			UserAgent:  cfg.SourceUserAgent,
			Timeout:    cfg.SourceTimeout,
			Logger:     logger,
		}),
	}
}

func tracedHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
