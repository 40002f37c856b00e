package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fincentiva-api/domain"
)

var (
	cent    = decimal.New(1, -2)
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

// round2 rounds to the currency's minor unit, half away from zero.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Options parameterizes the engine for each call site. The zero value is not
// useful; start from DefaultOptions.
type Options struct {
	// TaxRate is applied to the interest portion of every payment.
	TaxRate decimal.Decimal
	// ExtraPeriodicFee is added on top of every payment (e.g. a GPS fee on auto loans).
	ExtraPeriodicFee decimal.Decimal
	// CommissionRate is an opening commission over the principal, paid upfront.
	CommissionRate decimal.Decimal
	// Strict rejects unknown payment frequencies instead of falling back to monthly.
	Strict bool
}

func DefaultOptions() Options {
	return Options{
		TaxRate:          decimal.RequireFromString(DefaultTaxRate),
		ExtraPeriodicFee: decimal.Zero,
		CommissionRate:   decimal.Zero,
	}
}

// Engine computes payment plans. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Options returns the configuration the engine was built with.
func (e *Engine) Options() Options {
	return e.opts
}

// WithOptions returns a copy of the engine using opts.
func (e *Engine) WithOptions(opts Options) *Engine {
	return &Engine{opts: opts}
}

// PaymentSearch is the outcome of the bisection.
type PaymentSearch struct {
	Payment    decimal.Decimal
	Iterations int
}

// Totals accumulates a replayed amortization.
type Totals struct {
	Interest decimal.Decimal
	Tax      decimal.Decimal
	Payment  decimal.Decimal
	// Balance is what is left after the last period.
	Balance decimal.Decimal
}

type amortizationStep struct {
	interest  decimal.Decimal
	tax       decimal.Decimal
	principal decimal.Decimal
	balance   decimal.Decimal
}

// step advances one period. Every quantity is rounded before it feeds the next one.
func (e *Engine) step(balance, periodicRate, payment decimal.Decimal) amortizationStep {
	interest := round2(balance.Mul(periodicRate))
	tax := round2(interest.Mul(e.opts.TaxRate))
	principal := round2(payment.Sub(interest.Add(tax)))
	return amortizationStep{
		interest:  interest,
		tax:       tax,
		principal: principal,
		balance:   round2(balance.Sub(principal)),
	}
}

func (e *Engine) finalBalance(principal, periodicRate decimal.Decimal, numPeriods int, payment decimal.Decimal) decimal.Decimal {
	balance := principal
	for i := 0; i < numPeriods; i++ {
		balance = e.step(balance, periodicRate, payment).balance
	}
	return balance
}

// FindFixedPayment bisects [0, 2*principal] for the payment that leaves no
// balance after numPeriods payments.
func (e *Engine) FindFixedPayment(principal, periodicRate decimal.Decimal, numPeriods int) (PaymentSearch, error) {
	if numPeriods <= 0 {
		return PaymentSearch{}, fmt.Errorf("%w: plazo inválido %d", ErrInvalidInput, numPeriods)
	}
	if !principal.IsPositive() {
		return PaymentSearch{}, fmt.Errorf("%w: monto inválido", ErrInvalidInput)
	}

	lower := decimal.Zero
	upper := principal.Mul(two)
	iterations := 0

	for upper.Sub(lower).GreaterThan(cent) {
		iterations++
		payment := lower.Add(upper).Div(two)
		balance := e.finalBalance(principal, periodicRate, numPeriods, payment)

		if balance.Abs().LessThan(cent) {
			return PaymentSearch{Payment: round2(payment), Iterations: iterations}, nil
		}
		if balance.IsPositive() {
			lower = payment
		} else {
			upper = payment
		}
	}

	return PaymentSearch{Payment: round2(lower.Add(upper).Div(two)), Iterations: iterations}, nil
}

// ReplayAmortization runs the loan with a known payment and accumulates totals.
func (e *Engine) ReplayAmortization(principal, periodicRate decimal.Decimal, numPeriods int, payment decimal.Decimal) Totals {
	totals := Totals{
		Interest: decimal.Zero,
		Tax:      decimal.Zero,
		Payment:  decimal.Zero,
		Balance:  principal,
	}
	for i := 0; i < numPeriods; i++ {
		s := e.step(totals.Balance, periodicRate, payment)
		totals.Interest = round2(totals.Interest.Add(s.interest))
		totals.Tax = round2(totals.Tax.Add(s.tax))
		totals.Payment = round2(totals.Payment.Add(payment))
		totals.Balance = s.balance
	}
	return totals
}

// Schedule is the amortization table for a known payment.
func (e *Engine) Schedule(principal, periodicRate decimal.Decimal, numPeriods int, payment decimal.Decimal) []domain.ScheduleEntry {
	entries := make([]domain.ScheduleEntry, 0, numPeriods)
	balance := principal
	for period := 1; period <= numPeriods; period++ {
		s := e.step(balance, periodicRate, payment)
		balance = s.balance
		entries = append(entries, domain.ScheduleEntry{
			Period:    period,
			Payment:   payment.Add(e.opts.ExtraPeriodicFee),
			Interest:  s.interest,
			Tax:       s.tax,
			Principal: s.principal,
			Balance:   s.balance,
		})
	}
	return entries
}

// PeriodicRate converts an annual percentage into the rate of one period.
func PeriodicRate(annualRatePercent decimal.Decimal, periodsPerYear int) decimal.Decimal {
	return annualRatePercent.Div(hundred).Div(decimal.NewFromInt(int64(periodsPerYear)))
}

func (e *Engine) validate(req domain.LoanRequest) (FrequencyProfile, error) {
	if !req.Principal.IsPositive() {
		return FrequencyProfile{}, fmt.Errorf("%w: monto inválido", ErrInvalidInput)
	}
	if req.AnnualInterestRatePercent.IsNegative() {
		return FrequencyProfile{}, fmt.Errorf("%w: tasa inválida", ErrInvalidInput)
	}
	if e.opts.TaxRate.IsNegative() || e.opts.ExtraPeriodicFee.IsNegative() {
		return FrequencyProfile{}, fmt.Errorf("%w: opciones inválidas", ErrInvalidInput)
	}
	if e.opts.CommissionRate.IsNegative() || e.opts.CommissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return FrequencyProfile{}, fmt.Errorf("%w: comisión inválida", ErrInvalidInput)
	}
	// The commission is charged in cents, so a rate just below 1 can still
	// swallow the whole principal.
	if round2(req.Principal.Mul(e.opts.CommissionRate)).GreaterThanOrEqual(req.Principal) {
		return FrequencyProfile{}, fmt.Errorf("%w: la comisión cubre todo el monto", ErrInvalidInput)
	}

	profile, known := ResolveFrequency(req.PaymentFrequency)
	if !known && e.opts.Strict {
		return FrequencyProfile{}, fmt.Errorf("%w: frecuencia de pago desconocida %q", ErrInvalidInput, req.PaymentFrequency)
	}
	return profile, nil
}

// CalculatePayments builds one plan per candidate term of the request's
// frequency, longest term first. Any failing term fails the whole call.
func (e *Engine) CalculatePayments(req domain.LoanRequest) ([]domain.AmortizationResult, error) {
	profile, err := e.validate(req)
	if err != nil {
		return nil, err
	}

	periodicRate := PeriodicRate(req.AnnualInterestRatePercent, profile.PeriodsPerYear)
	commission := round2(req.Principal.Mul(e.opts.CommissionRate))
	costFree := periodicRate.IsZero() && commission.IsZero() && e.opts.ExtraPeriodicFee.IsZero()

	results := make([]domain.AmortizationResult, 0, len(profile.CandidateTerms))
	for _, periods := range profile.CandidateTerms {
		result, err := e.calculateTerm(req.Principal, periodicRate, periods, commission, profile, costFree)
		if err != nil {
			return nil, fmt.Errorf("plazo de %d %s: %w", periods, PeriodLabel(profile.Frequency), err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (e *Engine) calculateTerm(
	principal, periodicRate decimal.Decimal,
	periods int,
	commission decimal.Decimal,
	profile FrequencyProfile,
	costFree bool,
) (domain.AmortizationResult, error) {
	var payment decimal.Decimal
	if periodicRate.IsZero() {
		payment = round2(principal.Div(decimal.NewFromInt(int64(periods))))
	} else {
		search, err := e.FindFixedPayment(principal, periodicRate, periods)
		if err != nil {
			return domain.AmortizationResult{}, err
		}
		payment = search.Payment
	}

	totals := e.ReplayAmortization(principal, periodicRate, periods, payment)
	fees := round2(e.opts.ExtraPeriodicFee.Mul(decimal.NewFromInt(int64(periods))))
	paymentPerPeriod := payment.Add(e.opts.ExtraPeriodicFee)

	result := domain.AmortizationResult{
		Periods:                   periods,
		PaymentFrequency:          profile.Frequency,
		PaymentPerPeriod:          paymentPerPeriod,
		TotalPayment:              round2(totals.Payment.Add(fees)),
		TotalInterest:             totals.Interest,
		TotalTax:                  totals.Tax,
		TotalFees:                 fees,
		Commission:                commission,
		AnnualizedCostRatePercent: decimal.Zero,
		IRRConverged:              true,
	}
	if costFree {
		return result, nil
	}

	flows := make([]float64, periods+1)
	flows[0] = -principal.Sub(commission).InexactFloat64()
	perPeriod := paymentPerPeriod.InexactFloat64()
	for t := 1; t <= periods; t++ {
		flows[t] = perPeriod
	}

	irr, err := ComputePeriodicIRR(flows, irrInitialGuess)
	if err != nil {
		return domain.AmortizationResult{}, err
	}
	cat, err := AnnualizeRate(irr.Rate, profile.PeriodsPerYear)
	if err != nil {
		return domain.AmortizationResult{}, err
	}
	result.AnnualizedCostRatePercent = cat
	result.IRRConverged = irr.Converged
	result.IRRIterations = irr.Iterations
	return result, nil
}
