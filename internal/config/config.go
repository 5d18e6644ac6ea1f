package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/player-scout/internal/platform/logging"
	"github.com/riskibarqy/player-scout/internal/platform/resilience"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	HTTPAddr                   string
	ReadTimeout                time.Duration
	WriteTimeout               time.Duration
	LogLevel                   logging.Level
	StoreBackend               string
	DBURL                      string
	CacheEnabled               bool
	CacheTTL                   time.Duration
	CORSAllowedOrigins         []string
	SwaggerEnabled             bool
	MetricsEnabled             bool
	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceLogsEnabled         bool
	UptraceCaptureRequestBody  bool
	UptraceRequestBodyMaxBytes int
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	OpenAIAPIKey               string
	OpenAIBaseURL              string
	OpenAIModel                string
	OpenAITimeout              time.Duration
	OpenAICircuit              resilience.CircuitBreakerConfig
	NameNormalizerTimeout      time.Duration
	SourceTimeout              time.Duration
	SourceMaxRetries           int
	SourceUserAgent            string
	SourceCircuit              resilience.CircuitBreakerConfig
	WikidataBaseURL            string
	WikipediaBaseURL           string
	TransfermarktBaseURL       string
	FBrefBaseURL               string
	DefaultSeason              string
	ResolveWorkers             int
	InternalJobToken           string
	QStashEnabled              bool
	QStashBaseURL              string
	QStashToken                string
	QStashTargetBaseURL        string
	QStashRetries              int
	QStashCircuit              resilience.CircuitBreakerConfig
}

// OpenAIEnabled reports whether a text-generation key is configured.
func (c Config) OpenAIEnabled() bool {
	return strings.TrimSpace(c.OpenAIAPIKey) != ""
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}
	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}
	metricsEnabled, err := strconv.ParseBool(getEnv("METRICS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse METRICS_ENABLED: %w", err)
	}

	storeBackend, err := parseStoreBackend(getEnv("STORE_BACKEND", StoreMemory))
	if err != nil {
		return Config{}, err
	}
	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if storeBackend == StorePostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when STORE_BACKEND=%s", StorePostgres)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}
	uptraceCaptureRequestBody, err := strconv.ParseBool(getEnv("UPTRACE_CAPTURE_REQUEST_BODY", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_CAPTURE_REQUEST_BODY: %w", err)
	}
	uptraceRequestBodyMaxBytes, err := getEnvAsInt("UPTRACE_REQUEST_BODY_MAX_BYTES", 8192)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_REQUEST_BODY_MAX_BYTES: %w", err)
	}
	if uptraceRequestBodyMaxBytes <= 0 {
		return Config{}, fmt.Errorf("UPTRACE_REQUEST_BODY_MAX_BYTES must be > 0")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	if err != nil {
		return Config{}, err
	}

	openAITimeout, err := getEnvAsDuration("OPENAI_TIMEOUT", "30s")
	if err != nil {
		return Config{}, err
	}
	openAICircuit, err := loadCircuitBreaker("OPENAI")
	if err != nil {
		return Config{}, err
	}
	nameNormalizerTimeout, err := getEnvAsDuration("NAME_NORMALIZER_TIMEOUT", "8s")
	if err != nil {
		return Config{}, err
	}

	sourceTimeout, err := getEnvAsDuration("SOURCE_TIMEOUT", "12s")
	if err != nil {
		return Config{}, err
	}
	sourceMaxRetries, err := getEnvAsInt("SOURCE_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse SOURCE_MAX_RETRIES: %w", err)
	}
	if sourceMaxRetries < 0 {
		return Config{}, fmt.Errorf("SOURCE_MAX_RETRIES must be >= 0")
	}
	sourceCircuit, err := loadCircuitBreaker("SOURCE")
	if err != nil {
		return Config{}, err
	}

	defaultSeason := strings.TrimSpace(getEnv("DEFAULT_SEASON", "2024-2025"))
	if !isSeasonLabel(defaultSeason) {
		return Config{}, fmt.Errorf("invalid DEFAULT_SEASON %q: expected YYYY-YYYY", defaultSeason)
	}
	resolveWorkers, err := getEnvAsInt("RESOLVE_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse RESOLVE_WORKERS: %w", err)
	}
	if resolveWorkers < 1 {
		return Config{}, fmt.Errorf("RESOLVE_WORKERS must be >= 1")
	}

	qstashEnabled, err := strconv.ParseBool(getEnv("QSTASH_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse QSTASH_ENABLED: %w", err)
	}
	qstashRetries, err := getEnvAsInt("QSTASH_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse QSTASH_RETRIES: %w", err)
	}
	if qstashRetries < 0 {
		return Config{}, fmt.Errorf("QSTASH_RETRIES must be >= 0")
	}
	qstashCircuit, err := loadCircuitBreaker("QSTASH")
	if err != nil {
		return Config{}, err
	}
	qstashToken := strings.TrimSpace(getEnv("QSTASH_TOKEN", ""))
	qstashTargetBaseURL := strings.TrimSpace(getEnv("QSTASH_TARGET_BASE_URL", ""))
	internalJobToken := strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", ""))
	if qstashEnabled {
		if qstashToken == "" {
			return Config{}, fmt.Errorf("QSTASH_TOKEN is required when QSTASH_ENABLED=true")
		}
		if qstashTargetBaseURL == "" {
			return Config{}, fmt.Errorf("QSTASH_TARGET_BASE_URL is required when QSTASH_ENABLED=true")
		}
		if internalJobToken == "" {
			return Config{}, fmt.Errorf("INTERNAL_JOB_TOKEN is required when QSTASH_ENABLED=true")
		}
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := getEnvAsDuration("CACHE_TTL", "60s")
	if err != nil {
		return Config{}, err
	}
	readTimeout, err := getEnvAsDuration("APP_READ_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	// Resolves fan out to several slow sites, so the write deadline is generous.
	writeTimeout, err := getEnvAsDuration("APP_WRITE_TIMEOUT", "90s")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "player-scout-api"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:                readTimeout,
		WriteTimeout:               writeTimeout,
		LogLevel:                   parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		StoreBackend:               storeBackend,
		DBURL:                      dbURL,
		CacheEnabled:               cacheEnabled,
		CacheTTL:                   cacheTTL,
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		SwaggerEnabled:             swaggerEnabled,
		MetricsEnabled:             metricsEnabled,
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		UptraceLogsEnabled:         uptraceLogsEnabled,
		UptraceCaptureRequestBody:  uptraceCaptureRequestBody,
		UptraceRequestBodyMaxBytes: uptraceRequestBodyMaxBytes,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		OpenAIAPIKey:               strings.TrimSpace(getEnv("OPENAI_API_KEY", "")),
		OpenAIBaseURL:              strings.TrimSpace(getEnv("OPENAI_BASE_URL", "")),
		OpenAIModel:                strings.TrimSpace(getEnv("OPENAI_MODEL", "gpt-4o-mini")),
		OpenAITimeout:              openAITimeout,
		OpenAICircuit:              openAICircuit,
		NameNormalizerTimeout:      nameNormalizerTimeout,
		SourceTimeout:              sourceTimeout,
		SourceMaxRetries:           sourceMaxRetries,
		SourceUserAgent:            strings.TrimSpace(getEnv("SOURCE_USER_AGENT", "")),
		SourceCircuit:              sourceCircuit,
		WikidataBaseURL:            strings.TrimSpace(getEnv("WIKIDATA_BASE_URL", "https://www.wikidata.org")),
		WikipediaBaseURL:           strings.TrimSpace(getEnv("WIKIPEDIA_BASE_URL", "https://en.wikipedia.org")),
		TransfermarktBaseURL:       strings.TrimSpace(getEnv("TRANSFERMARKT_BASE_URL", "https://www.transfermarkt.com")),
		FBrefBaseURL:               strings.TrimSpace(getEnv("FBREF_BASE_URL", "https://fbref.com")),
		DefaultSeason:              defaultSeason,
		ResolveWorkers:             resolveWorkers,
		InternalJobToken:           internalJobToken,
		QStashEnabled:              qstashEnabled,
		QStashBaseURL:              strings.TrimSpace(getEnv("QSTASH_BASE_URL", "https://qstash.upstash.io")),
		QStashToken:                qstashToken,
		QStashTargetBaseURL:        qstashTargetBaseURL,
		QStashRetries:              qstashRetries,
		QStashCircuit:              qstashCircuit,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

// loadCircuitBreaker reads <PREFIX>_CIRCUIT_{ENABLED,FAILURE_COUNT,OPEN_TIMEOUT,HALF_OPEN_MAX_REQ}.
func loadCircuitBreaker(prefix string) (resilience.CircuitBreakerConfig, error) {
	defaults := resilience.DefaultCircuitBreakerConfig()
	key := func(name string) string { return prefix + "_CIRCUIT_" + name }

	enabled, err := strconv.ParseBool(getEnv(key("ENABLED"), strconv.FormatBool(defaults.Enabled)))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s: %w", key("ENABLED"), err)
	}
	failureCount, err := getEnvAsInt(key("FAILURE_COUNT"), defaults.FailureThreshold)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s: %w", key("FAILURE_COUNT"), err)
	}
	if failureCount < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s must be >= 1", key("FAILURE_COUNT"))
	}
	openTimeout, err := getEnvAsDuration(key("OPEN_TIMEOUT"), defaults.OpenTimeout.String())
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	halfOpenMaxReq, err := getEnvAsInt(key("HALF_OPEN_MAX_REQ"), defaults.HalfOpenMaxReq)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s: %w", key("HALF_OPEN_MAX_REQ"), err)
	}
	if halfOpenMaxReq < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s must be >= 1", key("HALF_OPEN_MAX_REQ"))
	}

	return resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failureCount,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	}, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

// getEnvAsDuration parses a positive duration.
func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func isSeasonLabel(v string) bool {
	start, end, ok := strings.Cut(v, "-")
	if !ok || len(start) != 4 || len(end) != 4 {
		return false
	}
	from, err := strconv.Atoi(start)
	if err != nil {
		return false
	}
	to, err := strconv.Atoi(end)
	if err != nil {
		return false
	}
	return to == from+1
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

func parseStoreBackend(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case StorePostgres, StoreMemory:
		return value, nil
	default:
		return "", fmt.Errorf("invalid STORE_BACKEND %q: valid values are %s, %s", v, StorePostgres, StoreMemory)
	}
}
