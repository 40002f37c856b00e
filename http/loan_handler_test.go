package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincentiva-api/domain"
	"fincentiva-api/repository"
	"fincentiva-api/service"
)

type recordedRequest struct {
	method, route string
	status        int
}

type fakeRequestObserver struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (o *fakeRequestObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, recordedRequest{method, route, status})
}

type stubProductProvider struct{}

func (stubProductProvider) Lookup(_ context.Context, _ string) (domain.ProductInfo, error) {
	return domain.ProductInfo{}, repository.ErrUpstream
}

type routerFixture struct {
	handler  http.Handler
	company  domain.Company
	observer *fakeRequestObserver
}

func newRouterFixture(t *testing.T, capacity int) routerFixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	companies := repository.NewCompanyRepositoryMemory()
	company, err := companies.Create(context.Background(), domain.Company{
		Name:             "Cemex",
		EmployeeCode:     "CMX2024",
		InterestRate:     decimal.NewFromInt(60),
		PaymentFrequency: domain.Monthly,
	})
	require.NoError(t, err)

	cache := repository.NewMemoryCache()
	loanService := service.NewLoanService(
		service.NewEngine(service.DefaultOptions()),
		companies,
		repository.NewSimulationRepositoryMemory(),
		cache,
		logger,
	)

	limiter := NewRateLimiter(capacity, time.Minute)
	t.Cleanup(limiter.Stop)

	observer := &fakeRequestObserver{}
	handler := NewRouter(Handlers{
		Loan:               NewLoanHandler(loanService, logger),
		TermRecommendation: NewTermRecommendationHandler(service.NewTermRecommendationService(loanService, logger), logger),
		Company:            NewCompanyHandler(service.NewCompanyService(companies), logger),
		Product:            NewProductHandler(service.NewProductService(stubProductProvider{}, cache, logger), time.Second, logger),
	}, limiter, observer, logger)

	return routerFixture{handler: handler, company: company, observer: observer}
}

func (f routerFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func TestCalculatePaymentsHandler_OK(t *testing.T) {
	f := newRouterFixture(t, 10)

	w := f.do(http.MethodPost, "/calculate-payments", `{"companyId":"`+f.company.ID+`","amount":10000}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	var options []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &options))
	require.Len(t, options, 3)

	first := options[0]
	for _, field := range []string{"periods", "periodLabel", "paymentPerPeriod", "totalPayment", "totalInterest", "totalIVA", "interestRate", "paymentFrequency", "cat"} {
		assert.Contains(t, first, field)
	}
	assert.Equal(t, 12.0, first["periods"])
	assert.Equal(t, 1179.73, first["paymentPerPeriod"])
	assert.Equal(t, 96.71, first["cat"])
}

func TestCalculatePaymentsHandler_Errors(t *testing.T) {
	f := newRouterFixture(t, 100)

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"invalid json", http.MethodPost, `{invalid-json}`, http.StatusBadRequest},
		{"invalid amount", http.MethodPost, `{"companyId":"` + f.company.ID + `","amount":0}`, http.StatusBadRequest},
		{"unknown company", http.MethodPost, `{"companyId":"nope","amount":1000}`, http.StatusNotFound},
		{"method not allowed", http.MethodGet, ``, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(tt.method, "/calculate-payments", tt.body)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCalculatePaymentsHandler_UnsupportedMediaType(t *testing.T) {
	f := newRouterFixture(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/calculate-payments", bytes.NewReader([]byte(`amount=1`)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestSimulateHandler(t *testing.T) {
	f := newRouterFixture(t, 10)

	w := f.do(http.MethodPost, "/simulate", `{"amount":10000,"interestRate":60,"paymentFrequency":"monthly","includeSchedule":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	var options []domain.SimulationOption
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &options))
	require.Len(t, options, 3)
	assert.Len(t, options[0].Schedule, 12)

	w = f.do(http.MethodPost, "/simulate", `{"amount":10000,"interestRate":60,"paymentFrequency":"yearly","strict":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendTermHandler(t *testing.T) {
	f := newRouterFixture(t, 10)

	w := f.do(http.MethodPost, "/recommend-term", `{"companyId":"`+f.company.ID+`","amount":10000,"maxPaymentPerPeriod":1500,"preference":"minimize_payment"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result domain.TermRecommendationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 12, result.RecommendedPeriods)

	w = f.do(http.MethodPost, "/recommend-term", `{"companyId":"`+f.company.ID+`","amount":10000,"maxPaymentPerPeriod":10,"preference":"balanced"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCompanyHandler_CRUD(t *testing.T) {
	f := newRouterFixture(t, 10)

	w := f.do(http.MethodPost, "/companies", `{"name":"Bimbo","employeeCode":"BIM01","interestRate":"45","paymentFrequency":"biweekly"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created domain.Company
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	w = f.do(http.MethodGet, "/companies/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodPut, "/companies/"+created.ID, `{"name":"Bimbo SA","employeeCode":"BIM01","interestRate":"40"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var updated domain.Company
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Bimbo SA", updated.Name)

	w = f.do(http.MethodGet, "/companies", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []domain.Company
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = f.do(http.MethodDelete, "/companies/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(http.MethodGet, "/companies/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodPost, "/companies", `{"name":"","employeeCode":"X"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductInfoHandler(t *testing.T) {
	f := newRouterFixture(t, 10)

	w := f.do(http.MethodPost, "/product-info", `{"url":"https://www.example.com/p/1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/product-info", `{"url":"https://www.amazon.com.mx/dp/1"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	f := newRouterFixture(t, 2)
	body := `{"companyId":"` + f.company.ID + `","amount":10000}`

	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/calculate-payments", body).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/calculate-payments", body).Code)

	w := f.do(http.MethodPost, "/calculate-payments", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Company administration is not limited.
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/companies", "").Code)
}

func TestHealthAndMetricsLabels(t *testing.T) {
	f := newRouterFixture(t, 10)

	w := f.do(http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	f.do(http.MethodGet, "/companies/"+f.company.ID, "")
	f.do(http.MethodGet, "/nowhere", "")

	require.Len(t, f.observer.requests, 3)
	assert.Equal(t, recordedRequest{"GET", "GET /healthz", http.StatusOK}, f.observer.requests[0])
	assert.Equal(t, recordedRequest{"GET", "GET /companies/{id}", http.StatusOK}, f.observer.requests[1])
	assert.Equal(t, recordedRequest{"GET", "unmatched", http.StatusNotFound}, f.observer.requests[2])
}

func TestLoggingMiddleware_KeepsCallerRequestID(t *testing.T) {
	f := newRouterFixture(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
