package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/phrazzld/recall-api/internal/api/shared"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/service/study"
	"github.com/phrazzld/recall-api/internal/store"
)

// StudyHandler serves the study session, review, history and stats
// endpoints.
type StudyHandler struct {
	studyService study.Service
	validate     *validator.Validate
	logger       *slog.Logger
}

// NewStudyHandler creates a new StudyHandler.
// Panics if studyService or validate is nil.
func NewStudyHandler(studyService study.Service, validate *validator.Validate, logger *slog.Logger) *StudyHandler {
	if studyService == nil {
		panic("studyService cannot be nil")
	}
	if validate == nil {
		panic("validate cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StudyHandler{
		studyService: studyService,
		validate:     validate,
		logger:       logger.With(slog.String("component", "study_handler")),
	}
}

// GetSession handles GET /api/study/session.
// Scope comes from the category, list_name and topic query parameters;
// limit caps the session size.
func (h *StudyHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	scope := store.SessionScope{
		Category: query.Get("category"),
		ListName: query.Get("list_name"),
		Topic:    query.Get("topic"),
	}

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	cards, err := h.studyService.SelectSession(r.Context(), userID, scope, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to assemble study session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SessionResponse{
		Cards: toCardResponses(cards),
		Count: len(cards),
	})
}

// SubmitReview handles POST /api/cards/{id}/review.
func (h *StudyHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}
	cardID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req ReviewRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	sessionID := uuid.Nil
	if req.SessionID != "" {
		// Format already checked by validation.
		sessionID = uuid.MustParse(req.SessionID)
	}

	progress, err := h.studyService.SubmitReview(
		r.Context(), userID, cardID, domain.ReviewOutcome(req.Outcome), sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record review")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toProgressResponse(progress))
}

// MarkImportant handles POST /api/cards/{id}/important.
func (h *StudyHandler) MarkImportant(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}
	cardID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req ImportantRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	if err := h.studyService.MarkImportant(r.Context(), userID, cardID, req.Important); err != nil {
		HandleAPIError(w, r, err, "Failed to update important flag")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetHistory handles GET /api/cards/{id}/history.
func (h *StudyHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}
	cardID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	attempts, err := h.studyService.History(r.Context(), userID, cardID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fetch review history")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toAttemptResponses(attempts))
}

// GetDailyStats handles GET /api/stats/daily.
func (h *StudyHandler) GetDailyStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	windowDays := 30
	if raw := query.Get("window_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid window_days parameter")
			return
		}
		windowDays = parsed
	}

	stats, err := h.studyService.DailyStats(r.Context(), userID, query.Get("category"), windowDays)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fetch daily stats")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toDailyStatsResponses(stats))
}
