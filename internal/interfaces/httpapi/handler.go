package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/player-scout/internal/platform/logging"
	"github.com/riskibarqy/player-scout/internal/usecase"
)

type Handler struct {
	resolveService  *usecase.ResolveService
	batchService    *usecase.BatchResolveService
	profileService  *usecase.ProfileService
	scoutingService *usecase.ScoutingService
	logger          *logging.Logger
	validator       *validator.Validate
}

func NewHandler(
	resolveService *usecase.ResolveService,
	batchService *usecase.BatchResolveService,
	profileService *usecase.ProfileService,
	scoutingService *usecase.ScoutingService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		resolveService:  resolveService,
		batchService:    batchService,
		profileService:  profileService,
		scoutingService: scoutingService,
		logger:          logger.Named("httpapi"),
		validator:       validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	if h.profileService != nil {
		if err := h.profileService.Ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "error", err)
			writeError(ctx, w, err)
			return
		}
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}
