package httpapi

import (
	"net/http"

	"github.com/riskibarqy/player-scout/internal/usecase"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool, metrics http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPlayerRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/players/resolve", handler.ResolvePlayer)
	mux.HandleFunc("POST /v1/players/resolve/batch", handler.ResolvePlayersBatch)
	mux.HandleFunc("GET /v1/players", handler.ListPlayers)
	mux.HandleFunc("GET /v1/players/by-name/{name}", handler.GetPlayerByName)
	mux.HandleFunc("GET /v1/players/{playerID}", handler.GetPlayer)
	mux.HandleFunc("POST /v1/players/{playerID}/report", handler.GenerateScoutingReport)
	mux.HandleFunc("GET /v1/countries", handler.ListCountries)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST "+usecase.ResolveJobPath, RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunResolveJob)))
}
