package http

import (
	"log/slog"
	"net/http"

	"fincentiva-api/domain"
	"fincentiva-api/service"
)

type LoanHandler struct {
	service *service.LoanService
	logger  *slog.Logger
}

func NewLoanHandler(service *service.LoanService, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{service: service, logger: logger}
}

func (h *LoanHandler) CalculatePayments(w http.ResponseWriter, r *http.Request) {
	var input domain.PaymentInput
	if !decodeJSON(w, r, h.logger, &input) {
		return
	}

	options, err := h.service.CalculatePayments(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, options)
}

func (h *LoanHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var input domain.SimulationInput
	if !decodeJSON(w, r, h.logger, &input) {
		return
	}

	options, err := h.service.Simulate(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, options)
}
