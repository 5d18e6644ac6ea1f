package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/player-scout/internal/usecase"
)

// RunResolveJob is the delivery target for queued resolves.
func (h *Handler) RunResolveJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunResolveJob")
	defer span.End()

	if h.batchService == nil {
		writeError(ctx, w, fmt.Errorf("%w: batch resolve is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req resolveJobRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.batchService.HandleResolveJob(ctx, usecase.ResolveJobPayload{
		Name:   req.Name,
		Season: req.Season,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "run resolve job failed", "name", req.Name, "season", req.Season, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resolveResultToDTO(result))
}
