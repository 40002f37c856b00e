package http

import (
	"log/slog"
	"net/http"
)

type Handlers struct {
	Loan               *LoanHandler
	TermRecommendation *TermRecommendationHandler
	Company            *CompanyHandler
	Product            *ProductHandler
	Metrics            http.Handler
}

// NewRouter registers every endpoint. Calculation and product endpoints are
// rate limited per client.
func NewRouter(
	h Handlers,
	limiter *RateLimiter,
	observer RequestObserver,
	logger *slog.Logger,
) http.Handler {
	limited := func(fn http.HandlerFunc) http.Handler {
		return RateLimitMiddleware(limiter, logger, fn)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /calculate-payments", limited(h.Loan.CalculatePayments))
	mux.Handle("POST /simulate", limited(h.Loan.Simulate))
	mux.Handle("POST /recommend-term", limited(h.TermRecommendation.RecommendTerm))
	mux.Handle("POST /product-info", limited(h.Product.ProductInfo))

	mux.HandleFunc("GET /companies", h.Company.List)
	mux.HandleFunc("POST /companies", h.Company.Create)
	mux.HandleFunc("GET /companies/{id}", h.Company.Get)
	mux.HandleFunc("PUT /companies/{id}", h.Company.Update)
	mux.HandleFunc("DELETE /companies/{id}", h.Company.Delete)

	mux.HandleFunc("GET /healthz", HealthHandler(logger))
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	var handler http.Handler = mux
	if observer != nil {
		handler = MetricsMiddleware(observer)(handler)
	}
	return LoggingMiddleware(logger)(handler)
}
