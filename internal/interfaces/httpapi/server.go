package httpapi

import (
	"net/http"

	"github.com/riskibarqy/player-scout/internal/platform/logging"
)

// RouterConfig carries the optional surfaces of the router.
type RouterConfig struct {
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
	InternalJobToken   string
	MetricsHandler     http.Handler
	HTTPMetrics        HTTPMetricsRecorder
	// TraceRequestBodyMaxBytes enables request body capture on spans when > 0.
	TraceRequestBodyMaxBytes int
}

func NewRouter(handler *Handler, logger *logging.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("http")

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg.SwaggerEnabled, cfg.MetricsHandler)
	registerPlayerRoutes(mux, handler)
	registerInternalJobRoutes(mux, handler, cfg.InternalJobToken)

	routed := RouteMetrics(mux, cfg.HTTPMetrics)
	logged := RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, routed)))
	return RequestTracing(CaptureRequestBody(cfg.TraceRequestBodyMaxBytes, logged))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
