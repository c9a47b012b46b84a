package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/recall-api/internal/api/shared"
	"github.com/phrazzld/recall-api/internal/generation"
	"github.com/phrazzld/recall-api/internal/service/cardgen"
	"github.com/phrazzld/recall-api/internal/service/quota"
)

// GenerateHandler serves metered AI card generation and the quota
// status endpoint.
type GenerateHandler struct {
	genService   cardgen.Service
	quotaService quota.Service
	validate     *validator.Validate
	logger       *slog.Logger
}

// NewGenerateHandler creates a new GenerateHandler.
// Panics if genService, quotaService or validate is nil.
func NewGenerateHandler(
	genService cardgen.Service,
	quotaService quota.Service,
	validate *validator.Validate,
	logger *slog.Logger,
) *GenerateHandler {
	if genService == nil {
		panic("genService cannot be nil")
	}
	if quotaService == nil {
		panic("quotaService cannot be nil")
	}
	if validate == nil {
		panic("validate cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateHandler{
		genService:   genService,
		quotaService: quotaService,
		validate:     validate,
		logger:       logger.With(slog.String("component", "generate_handler")),
	}
}

// Generate handles POST /api/generate.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}

	var req GenerateRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	result, err := h.genService.GenerateAndStore(r.Context(), generation.Request{
		UserID:     userID,
		SourceText: req.SourceText,
		Category:   req.Category,
		ListName:   req.ListName,
		Topic:      req.Topic,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate cards")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, GenerateResponse{
		Cards:      toCardResponses(result.Cards),
		UsageCount: result.Reservation.UsageCount,
		Limit:      result.Reservation.Limit,
	})
}

// GetQuota handles GET /api/quota.
func (h *GenerateHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}

	status, err := h.quotaService.Remaining(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fetch quota status")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, QuotaResponse{
		PeriodKey:  status.PeriodKey,
		UsageCount: status.UsageCount,
		Limit:      status.Limit,
		Remaining:  status.Remaining,
	})
}
