package httpapi

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/facr-ledger/internal/platform/logging"
	"github.com/riskibarqy/facr-ledger/internal/usecase"
)

type Handler struct {
	standingService  *usecase.StandingService
	topScorerService *usecase.TopScorerService
	ingestionService *usecase.IngestionService
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(
	standingService *usecase.StandingService,
	topScorerService *usecase.TopScorerService,
	ingestionService *usecase.IngestionService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		standingService:  standingService,
		topScorerService: topScorerService,
		ingestionService: ingestionService,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
