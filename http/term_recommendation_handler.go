package http

import (
	"log/slog"
	"net/http"

	"fincentiva-api/domain"
	"fincentiva-api/service"
)

type TermRecommendationHandler struct {
	service *service.TermRecommendationService
	logger  *slog.Logger
}

func NewTermRecommendationHandler(service *service.TermRecommendationService, logger *slog.Logger) *TermRecommendationHandler {
	return &TermRecommendationHandler{service: service, logger: logger}
}

func (h *TermRecommendationHandler) RecommendTerm(w http.ResponseWriter, r *http.Request) {
	var input domain.TermRecommendationInput
	if !decodeJSON(w, r, h.logger, &input) {
		return
	}

	result, err := h.service.RecommendTerm(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, result)
}
