package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"fincentiva-api/domain"
	"fincentiva-api/service"
)

type ProductHandler struct {
	service *service.ProductService
	timeout time.Duration
	logger  *slog.Logger
}

func NewProductHandler(service *service.ProductService, timeout time.Duration, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{service: service, timeout: timeout, logger: logger}
}

func (h *ProductHandler) ProductInfo(w http.ResponseWriter, r *http.Request) {
	var input domain.ProductInput
	if !decodeJSON(w, r, h.logger, &input) {
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	info, err := h.service.Lookup(ctx, input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, info)
}

func HealthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	}
}
