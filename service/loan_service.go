package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fincentiva-api/domain"
	"fincentiva-api/repository"
)

// CalculationObserver receives the outcome of every calculation. The HTTP
// server wires Prometheus metrics here.
type CalculationObserver interface {
	ObserveCalculation(frequency string, duration time.Duration, err error)
	ObserveIRRNotConverged(frequency string)
}

type noopObserver struct{}

func (noopObserver) ObserveCalculation(string, time.Duration, error) {}
func (noopObserver) ObserveIRRNotConverged(string)                   {}

type LoanService struct {
	engine      *Engine
	companies   repository.CompanyRepository
	simulations repository.SimulationRepository
	cache       repository.CacheRepository
	logger      *slog.Logger
	observer    CalculationObserver
	now         func() time.Time
}

// NewLoanService wires the engine to the company store, the simulation log and the cache.
func NewLoanService(
	engine *Engine,
	companies repository.CompanyRepository,
	simulations repository.SimulationRepository,
	cache repository.CacheRepository,
	logger *slog.Logger,
) *LoanService {
	return &LoanService{
		engine:      engine,
		companies:   companies,
		simulations: simulations,
		cache:       cache,
		logger:      logger,
		observer:    noopObserver{},
		now:         time.Now,
	}
}

// WithObserver sets the calculation observer.
func (s *LoanService) WithObserver(o CalculationObserver) *LoanService {
	if o != nil {
		s.observer = o
	}
	return s
}

func validateAmount(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: monto inválido", ErrInvalidInput)
	}
	if amount > MaxLoanAmount {
		return fmt.Errorf("%w: monto excede el máximo permitido de $%.2f", ErrInvalidInput, MaxLoanAmount)
	}
	return nil
}

func validateRate(rate float64) error {
	if rate < 0 {
		return fmt.Errorf("%w: tasa inválida", ErrInvalidInput)
	}
	if rate > MaxInterestRate {
		return fmt.Errorf("%w: tasa de interés excede el máximo permitido de %.2f%%", ErrInvalidInput, MaxInterestRate)
	}
	return nil
}

// CalculatePayments answers POST /calculate-payments: the three plans an
// employee of the given company can choose from.
func (s *LoanService) CalculatePayments(
	ctx context.Context,
	input domain.PaymentInput,
) ([]domain.PaymentOption, error) {
	start := s.now()
	options, frequency, err := s.calculatePayments(ctx, input)
	s.observer.ObserveCalculation(string(frequency), s.now().Sub(start), err)
	return options, err
}

func (s *LoanService) calculatePayments(
	ctx context.Context,
	input domain.PaymentInput,
) ([]domain.PaymentOption, domain.PaymentFrequency, error) {
	q, err := s.quote(ctx, input)
	if err != nil {
		return nil, q.frequency, err
	}
	s.record(ctx, q.companyID, q.amount, q.frequency, q.options)
	return q.options, q.frequency, nil
}

type paymentQuote struct {
	companyID string
	amount    decimal.Decimal
	frequency domain.PaymentFrequency
	options   []domain.PaymentOption
}

// quote resolves the company's plans through the cache and the engine. It
// neither logs a simulation nor counts a calculation.
func (s *LoanService) quote(ctx context.Context, input domain.PaymentInput) (paymentQuote, error) {
	q := paymentQuote{companyID: input.CompanyID, frequency: input.PaymentFrequency}

	if input.CompanyID == "" {
		return q, fmt.Errorf("%w: empresa requerida", ErrInvalidInput)
	}
	if err := validateAmount(input.Amount); err != nil {
		return q, err
	}

	company, err := s.companies.GetByID(ctx, input.CompanyID)
	if err != nil {
		return q, fmt.Errorf("empresa %s: %w", input.CompanyID, err)
	}

	q.amount = decimal.NewFromFloat(input.Amount).Round(2)
	if q.amount.LessThan(company.MinAmount) {
		return q, fmt.Errorf("%w: el monto mínimo es $%s", ErrInvalidInput, company.MinAmount.StringFixed(2))
	}
	if company.MaxAmount.IsPositive() && q.amount.GreaterThan(company.MaxAmount) {
		return q, fmt.Errorf("%w: el monto máximo es $%s", ErrInvalidInput, company.MaxAmount.StringFixed(2))
	}

	if q.frequency == "" {
		q.frequency = company.PaymentFrequency
	}

	key := fmt.Sprintf("%s:%s:%d:%s:%s", paymentCacheScope, company.ID, company.UpdatedAt.UnixNano(), q.amount.StringFixed(2), q.frequency)
	if cached, ok := s.cachedOptions(ctx, key); ok {
		s.logger.Debug("payment options served from cache", "company_id", company.ID, "amount", q.amount.String())
		q.options = cached
		return q, nil
	}

	opts := s.engine.Options()
	opts.CommissionRate = company.CommissionRate
	results, err := s.engine.WithOptions(opts).CalculatePayments(domain.LoanRequest{
		Principal:                 q.amount,
		AnnualInterestRatePercent: company.InterestRate,
		PaymentFrequency:          q.frequency,
	})
	if err != nil {
		return q, err
	}
	s.checkConvergence(results)

	q.options = make([]domain.PaymentOption, 0, len(results))
	for _, r := range results {
		q.options = append(q.options, toPaymentOption(r, company.InterestRate))
	}

	if payload, err := json.Marshal(q.options); err == nil {
		if err := s.cache.Set(ctx, key, string(payload)); err != nil {
			s.logger.Warn("failed to cache payment options", "key", key, "error", err)
		}
	}
	return q, nil
}

// Simulate runs the engine directly with caller supplied rate and options.
func (s *LoanService) Simulate(
	ctx context.Context,
	input domain.SimulationInput,
) ([]domain.SimulationOption, error) {
	start := s.now()
	options, err := s.simulate(input)
	s.observer.ObserveCalculation(string(input.PaymentFrequency), s.now().Sub(start), err)
	return options, err
}

func (s *LoanService) simulate(input domain.SimulationInput) ([]domain.SimulationOption, error) {
	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := validateRate(input.InterestRate); err != nil {
		return nil, err
	}

	opts := s.engine.Options()
	opts.Strict = opts.Strict || input.Strict
	if input.TaxRate != nil {
		opts.TaxRate = decimal.NewFromFloat(*input.TaxRate)
	}
	opts.ExtraPeriodicFee = decimal.NewFromFloat(input.ExtraPeriodicFee).Round(2)
	opts.CommissionRate = decimal.NewFromFloat(input.CommissionRate)
	engine := s.engine.WithOptions(opts)

	principal := decimal.NewFromFloat(input.Amount).Round(2)
	rate := decimal.NewFromFloat(input.InterestRate)
	results, err := engine.CalculatePayments(domain.LoanRequest{
		Principal:                 principal,
		AnnualInterestRatePercent: rate,
		PaymentFrequency:          input.PaymentFrequency,
	})
	if err != nil {
		return nil, err
	}
	s.checkConvergence(results)

	options := make([]domain.SimulationOption, 0, len(results))
	for _, r := range results {
		option := domain.SimulationOption{
			PaymentOption: toPaymentOption(r, rate),
			TotalFees:     r.TotalFees.InexactFloat64(),
			Commission:    r.Commission.InexactFloat64(),
		}
		if input.IncludeSchedule {
			profile, _ := ResolveFrequency(r.PaymentFrequency)
			base := r.PaymentPerPeriod.Sub(opts.ExtraPeriodicFee)
			option.Schedule = engine.Schedule(principal, PeriodicRate(rate, profile.PeriodsPerYear), r.Periods, base)
		}
		options = append(options, option)
	}
	return options, nil
}

func (s *LoanService) checkConvergence(results []domain.AmortizationResult) {
	for _, r := range results {
		if !r.IRRConverged {
			s.logger.Warn("IRR did not converge, CAT is a best effort estimate",
				"periods", r.Periods, "frequency", r.PaymentFrequency, "iterations", r.IRRIterations)
			s.observer.ObserveIRRNotConverged(string(r.PaymentFrequency))
		}
	}
}

func (s *LoanService) cachedOptions(ctx context.Context, key string) ([]domain.PaymentOption, bool) {
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var options []domain.PaymentOption
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		s.logger.Warn("discarding unreadable cache entry", "key", key, "error", err)
		return nil, false
	}
	return options, true
}

// record guarda la simulación (no crítico si falla).
func (s *LoanService) record(
	ctx context.Context,
	companyID string,
	amount decimal.Decimal,
	frequency domain.PaymentFrequency,
	options []domain.PaymentOption,
) {
	simulation := domain.Simulation{
		ID:               uuid.NewString(),
		CompanyID:        companyID,
		Amount:           amount,
		PaymentFrequency: frequency,
		Options:          options,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.simulations.Save(ctx, simulation); err != nil {
		s.logger.Warn("failed to save simulation", "company_id", companyID, "error", err)
	}
}

func toPaymentOption(r domain.AmortizationResult, annualRate decimal.Decimal) domain.PaymentOption {
	return domain.PaymentOption{
		Periods:          r.Periods,
		PeriodLabel:      PeriodLabel(r.PaymentFrequency),
		PaymentPerPeriod: r.PaymentPerPeriod.InexactFloat64(),
		TotalPayment:     r.TotalPayment.InexactFloat64(),
		TotalInterest:    r.TotalInterest.InexactFloat64(),
		TotalIVA:         r.TotalTax.InexactFloat64(),
		InterestRate:     annualRate.InexactFloat64(),
		PaymentFrequency: r.PaymentFrequency,
		CAT:              r.AnnualizedCostRatePercent.InexactFloat64(),
	}
}
