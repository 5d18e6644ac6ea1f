package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/player-scout/internal/domain/profile"
	"github.com/riskibarqy/player-scout/internal/usecase"
)

func (h *Handler) ResolvePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolvePlayer")
	defer span.End()

	var req resolveRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.resolveService.Resolve(ctx, req.Name, req.Season)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve player failed", "name", req.Name, "error", err)
		writeError(ctx, w, err)
		return
	}
	if !result.Found() {
		writeError(ctx, w, fmt.Errorf("%w: no source returned data for player=%s", usecase.ErrNotFound, result.Profile.Name))
		return
	}
	if req.Report && h.scoutingService != nil {
		result.Profile = h.scoutingService.EnsureReport(ctx, result.Profile)
	}

	writeSuccess(ctx, w, http.StatusOK, resolveResultToDTO(result))
}

func (h *Handler) ResolvePlayersBatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolvePlayersBatch")
	defer span.End()

	var req batchResolveRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.batchService.ResolveBatch(ctx, usecase.BatchResolveInput{
		Names:  req.Names,
		Season: req.Season,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "batch resolve failed", "names", len(req.Names), "error", err)
		writeError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if result.QueuedCount > 0 {
		status = http.StatusAccepted
	}
	writeSuccess(ctx, w, status, batchResultToDTO(result))
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
	defer span.End()

	query := r.URL.Query()
	filter := profile.Filter{
		Name:        strings.TrimSpace(query.Get("name")),
		Nationality: strings.TrimSpace(query.Get("country")),
		Position:    strings.TrimSpace(query.Get("position")),
	}

	var err error
	if filter.MaxAge, err = parseOptionalInt(query.Get("max_age"), "max_age"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if filter.Limit, err = parseOptionalInt(query.Get("limit"), "limit"); err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.profileService.List(ctx, filter)
	if err != nil {
		h.logger.WarnContext(ctx, "list players failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]profileDTO, 0, len(items))
	for _, item := range items {
		out = append(out, profileToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayer")
	defer span.End()

	playerID := strings.TrimSpace(r.PathValue("playerID"))
	item, err := h.profileService.GetByID(ctx, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "get player failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(item))
}

func (h *Handler) GetPlayerByName(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerByName")
	defer span.End()

	name := strings.TrimSpace(r.PathValue("name"))
	item, err := h.profileService.GetByName(ctx, name)
	if err != nil {
		h.logger.WarnContext(ctx, "get player by name failed", "name", name, "error", err)
		writeError(ctx, w, err)
		return
	}

	withReport, err := parseOptionalBool(r.URL.Query().Get("report"), "report")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if withReport && h.scoutingService != nil {
		item = h.scoutingService.EnsureReport(ctx, item)
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(item))
}

func (h *Handler) GenerateScoutingReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GenerateScoutingReport")
	defer span.End()

	if h.scoutingService == nil {
		writeError(ctx, w, fmt.Errorf("%w: scouting reports are not configured", usecase.ErrDependencyUnavailable))
		return
	}

	playerID := strings.TrimSpace(r.PathValue("playerID"))
	item, err := h.scoutingService.GenerateReport(ctx, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "generate scouting report failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(item))
}

func (h *Handler) ListCountries(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCountries")
	defer span.End()

	items, err := h.profileService.Countries(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list countries failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]nationalityCountDTO, 0, len(items))
	for _, item := range items {
		out = append(out, nationalityCountDTO{Nationality: item.Nationality, Players: item.Players})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func parseOptionalInt(raw, field string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", usecase.ErrInvalidInput, field)
	}
	return value, nil
}

func parseOptionalBool(raw, field string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", usecase.ErrInvalidInput, field)
	}
	return value, nil
}
