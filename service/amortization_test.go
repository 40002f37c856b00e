package service

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincentiva-api/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newDefaultEngine() *Engine {
	return NewEngine(DefaultOptions())
}

func loanRequest(principal, rate string, f domain.PaymentFrequency) domain.LoanRequest {
	return domain.LoanRequest{
		Principal:                 dec(principal),
		AnnualInterestRatePercent: dec(rate),
		PaymentFrequency:          f,
	}
}

func TestCalculatePayments_MonthlyScenario(t *testing.T) {
	results, err := newDefaultEngine().CalculatePayments(loanRequest("10000", "60", domain.Monthly))
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 12, results[0].Periods)
	assert.Equal(t, 9, results[1].Periods)
	assert.Equal(t, 6, results[2].Periods)

	twelve := results[0]
	assert.True(t, twelve.PaymentPerPeriod.GreaterThanOrEqual(dec("1050")), "payment %s", twelve.PaymentPerPeriod)
	assert.True(t, twelve.PaymentPerPeriod.LessThanOrEqual(dec("1200")), "payment %s", twelve.PaymentPerPeriod)

	// Regression baseline.
	assert.Equal(t, "1179.73", twelve.PaymentPerPeriod.StringFixed(2))
	assert.Equal(t, "3583.37", twelve.TotalInterest.StringFixed(2))
	assert.Equal(t, "573.33", twelve.TotalTax.StringFixed(2))
	assert.Equal(t, "14156.76", twelve.TotalPayment.StringFixed(2))
	assert.Equal(t, "96.71", twelve.AnnualizedCostRatePercent.StringFixed(2))
	assert.True(t, twelve.IRRConverged)

	assert.Equal(t, "1457.46", results[1].PaymentPerPeriod.StringFixed(2))
	assert.Equal(t, "2020.87", results[2].PaymentPerPeriod.StringFixed(2))
}

func TestCalculatePayments_ZeroRate(t *testing.T) {
	frequencies := []domain.PaymentFrequency{domain.Weekly, domain.Biweekly, domain.Fortnightly, domain.Monthly}

	for _, f := range frequencies {
		t.Run(string(f), func(t *testing.T) {
			results, err := newDefaultEngine().CalculatePayments(loanRequest("1000", "0", f))
			require.NoError(t, err)
			require.Len(t, results, 3)

			for _, r := range results {
				want := dec("1000").Div(decimal.NewFromInt(int64(r.Periods))).Round(2)
				assert.True(t, r.PaymentPerPeriod.Equal(want), "periods %d: got %s want %s", r.Periods, r.PaymentPerPeriod, want)
				assert.True(t, r.TotalInterest.IsZero())
				assert.True(t, r.TotalTax.IsZero())
				assert.True(t, r.AnnualizedCostRatePercent.IsZero())
			}
		})
	}
}

func TestCalculatePayments_UnknownFrequencyFallsBackToMonthly(t *testing.T) {
	engine := newDefaultEngine()

	monthly, err := engine.CalculatePayments(loanRequest("5000", "36", domain.Monthly))
	require.NoError(t, err)

	for _, f := range []domain.PaymentFrequency{"biannual", "", "MONTHLY"} {
		got, err := engine.CalculatePayments(loanRequest("5000", "36", f))
		require.NoError(t, err)
		assert.Equal(t, monthly, got, "frequency %q", f)
	}
}

func TestCalculatePayments_StrictRejectsUnknownFrequency(t *testing.T) {
	opts := DefaultOptions()
	opts.Strict = true

	_, err := NewEngine(opts).CalculatePayments(loanRequest("5000", "36", "biannual"))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewEngine(opts).CalculatePayments(loanRequest("5000", "36", domain.Weekly))
	require.NoError(t, err)
}

func TestCalculatePayments_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  domain.LoanRequest
		opts func(*Options)
	}{
		{name: "zero principal", req: loanRequest("0", "60", domain.Monthly)},
		{name: "negative principal", req: loanRequest("-10", "60", domain.Monthly)},
		{name: "negative rate", req: loanRequest("1000", "-1", domain.Monthly)},
		{name: "commission of 100%", req: loanRequest("1000", "60", domain.Monthly), opts: func(o *Options) { o.CommissionRate = dec("1") }},
		{name: "negative fee", req: loanRequest("1000", "60", domain.Monthly), opts: func(o *Options) { o.ExtraPeriodicFee = dec("-5") }},
		{name: "commission rounds to the principal", req: loanRequest("1000", "60", domain.Monthly), opts: func(o *Options) { o.CommissionRate = dec("0.999999") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}
			_, err := NewEngine(opts).CalculatePayments(tt.req)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCalculatePayments_CostOutOfRange(t *testing.T) {
	opts := DefaultOptions()
	opts.ExtraPeriodicFee = dec("100000000")

	var err error
	require.NotPanics(t, func() {
		_, err = NewEngine(opts).CalculatePayments(loanRequest("1", "60", domain.Weekly))
	})
	require.ErrorIs(t, err, ErrArithmeticDegeneracy)
	assert.Contains(t, err.Error(), "plazo de 52 semanas")
}

func TestFindFixedPayment_NonPositivePeriods(t *testing.T) {
	engine := newDefaultEngine()

	_, err := engine.FindFixedPayment(dec("1000"), dec("0.05"), 0)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = engine.FindFixedPayment(dec("1000"), dec("0.05"), -3)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestFindFixedPayment_BisectionBound(t *testing.T) {
	search, err := newDefaultEngine().FindFixedPayment(dec("100000"), dec("0.05"), 12)
	require.NoError(t, err)

	assert.LessOrEqual(t, search.Iterations, 25)
	assert.Equal(t, "11797.26", search.Payment.StringFixed(2))
}

// The bisection stops within a cent of the exact payment, and every period
// rounds its interest and tax to cents. Both errors compound through the
// annuity factor at the tax-loaded rate r' = r·(1+tax).
func balanceTolerance(periodicRate decimal.Decimal, numPeriods int) decimal.Decimal {
	loaded := periodicRate.InexactFloat64() * (1 + DefaultOptions().TaxRate.InexactFloat64())
	annuity := (math.Pow(1+loaded, float64(numPeriods)) - 1) / loaded
	return decimal.NewFromFloat(0.015*annuity + 0.01)
}

func TestFindFixedPayment_ZeroesBalance(t *testing.T) {
	engine := newDefaultEngine()
	principals := []string{"500", "10000", "250000"}
	rates := []string{"0.01", "0.0125", "0.05"}

	for _, p := range principals {
		for _, r := range rates {
			principal, rate := dec(p), dec(r)
			for n := 1; n <= 60; n++ {
				search, err := engine.FindFixedPayment(principal, rate, n)
				require.NoError(t, err)

				totals := engine.ReplayAmortization(principal, rate, n, search.Payment)
				assert.True(t, totals.Balance.Abs().LessThanOrEqual(balanceTolerance(rate, n)),
					"principal %s rate %s periods %d: balance %s", p, r, n, totals.Balance)
			}
		}
	}
}

func TestReplayAmortization_AccountingIdentity(t *testing.T) {
	engine := newDefaultEngine()
	profiles := []domain.PaymentFrequency{domain.Weekly, domain.Biweekly, domain.Fortnightly, domain.Monthly}

	for _, principal := range []string{"1000", "7500", "25000"} {
		for _, annual := range []string{"12", "36", "60", "90"} {
			for _, f := range profiles {
				profile, _ := ResolveFrequency(f)
				rate := PeriodicRate(dec(annual), profile.PeriodsPerYear)
				for _, n := range profile.CandidateTerms {
					search, err := engine.FindFixedPayment(dec(principal), rate, n)
					require.NoError(t, err)
					totals := engine.ReplayAmortization(dec(principal), rate, n, search.Payment)

					// Each payment splits exactly into interest, tax and principal, so
					// whatever principal was not repaid is the leftover balance.
					want := dec(principal).Add(totals.Interest).Add(totals.Tax).Sub(totals.Balance)
					assert.True(t, totals.Payment.Equal(want),
						"%s at %s%% %s/%d: paid %s, want %s", principal, annual, f, n, totals.Payment, want)
				}
			}
		}
	}
}

func TestCalculatePayments_TotalsWithinRoundingDrift(t *testing.T) {
	engine := newDefaultEngine()

	for _, req := range []domain.LoanRequest{
		loanRequest("10000", "60", domain.Monthly),
		loanRequest("5000", "36", domain.Monthly),
	} {
		results, err := engine.CalculatePayments(req)
		require.NoError(t, err)

		for _, r := range results {
			drift := r.TotalPayment.Sub(req.Principal.Add(r.TotalInterest).Add(r.TotalTax)).Abs()
			bound := cent.Mul(decimal.NewFromInt(int64(r.Periods)))
			assert.True(t, drift.LessThanOrEqual(bound), "periods %d: drift %s", r.Periods, drift)
		}
	}
}

func TestTotalInterestNonDecreasingInPeriods(t *testing.T) {
	engine := newDefaultEngine()

	for _, tc := range []struct{ principal, rate string }{
		{"10000", "0.05"},
		{"2500", "0.0125"},
		{"50000", "0.025"},
	} {
		previous := decimal.NewFromInt(-1)
		for n := 1; n <= 60; n++ {
			search, err := engine.FindFixedPayment(dec(tc.principal), dec(tc.rate), n)
			require.NoError(t, err)
			totals := engine.ReplayAmortization(dec(tc.principal), dec(tc.rate), n, search.Payment)

			assert.True(t, totals.Interest.GreaterThanOrEqual(previous),
				"%s at %s: interest fell from %s to %s at %d periods", tc.principal, tc.rate, previous, totals.Interest, n)
			previous = totals.Interest
		}
	}
}

func TestCalculatePayments_Options(t *testing.T) {
	base, err := newDefaultEngine().CalculatePayments(loanRequest("10000", "60", domain.Monthly))
	require.NoError(t, err)

	t.Run("extra periodic fee", func(t *testing.T) {
		opts := DefaultOptions()
		opts.ExtraPeriodicFee = dec("50")
		got, err := NewEngine(opts).CalculatePayments(loanRequest("10000", "60", domain.Monthly))
		require.NoError(t, err)

		assert.Equal(t, "1229.73", got[0].PaymentPerPeriod.StringFixed(2))
		assert.Equal(t, "600.00", got[0].TotalFees.StringFixed(2))
		assert.Equal(t, "14756.76", got[0].TotalPayment.StringFixed(2))
		assert.True(t, got[0].TotalInterest.Equal(base[0].TotalInterest))
		assert.True(t, got[0].AnnualizedCostRatePercent.GreaterThan(base[0].AnnualizedCostRatePercent))
	})

	t.Run("opening commission", func(t *testing.T) {
		opts := DefaultOptions()
		opts.CommissionRate = dec("0.02")
		got, err := NewEngine(opts).CalculatePayments(loanRequest("10000", "60", domain.Monthly))
		require.NoError(t, err)

		assert.Equal(t, "200.00", got[0].Commission.StringFixed(2))
		assert.True(t, got[0].PaymentPerPeriod.Equal(base[0].PaymentPerPeriod))
		assert.True(t, got[0].AnnualizedCostRatePercent.GreaterThan(base[0].AnnualizedCostRatePercent))
	})

	t.Run("no tax", func(t *testing.T) {
		opts := DefaultOptions()
		opts.TaxRate = decimal.Zero
		got, err := NewEngine(opts).CalculatePayments(loanRequest("10000", "60", domain.Monthly))
		require.NoError(t, err)

		assert.True(t, got[0].TotalTax.IsZero())
		assert.True(t, got[0].PaymentPerPeriod.LessThan(base[0].PaymentPerPeriod))
	})

	t.Run("fee on an interest-free loan has a cost", func(t *testing.T) {
		opts := DefaultOptions()
		opts.ExtraPeriodicFee = dec("10")
		got, err := NewEngine(opts).CalculatePayments(loanRequest("1000", "0", domain.Monthly))
		require.NoError(t, err)

		assert.True(t, got[0].AnnualizedCostRatePercent.IsPositive())
	})
}

func TestSchedule_MatchesReplay(t *testing.T) {
	engine := newDefaultEngine()
	principal, rate := dec("10000"), dec("0.05")

	search, err := engine.FindFixedPayment(principal, rate, 12)
	require.NoError(t, err)

	entries := engine.Schedule(principal, rate, 12, search.Payment)
	totals := engine.ReplayAmortization(principal, rate, 12, search.Payment)
	require.Len(t, entries, 12)

	interest, tax, repaid := decimal.Zero, decimal.Zero, decimal.Zero
	for i, e := range entries {
		assert.Equal(t, i+1, e.Period)
		assert.True(t, e.Payment.Equal(search.Payment))
		interest = interest.Add(e.Interest)
		tax = tax.Add(e.Tax)
		repaid = repaid.Add(e.Principal)
	}

	assert.Equal(t, "500.00", entries[0].Interest.StringFixed(2))
	assert.Equal(t, "80.00", entries[0].Tax.StringFixed(2))
	assert.True(t, interest.Equal(totals.Interest))
	assert.True(t, tax.Equal(totals.Tax))
	assert.True(t, entries[11].Balance.Equal(totals.Balance))
	assert.True(t, repaid.Equal(principal.Sub(totals.Balance)))
}

func TestPeriodicRate(t *testing.T) {
	assert.Equal(t, "0.05", PeriodicRate(dec("60"), 12).String())
	assert.Equal(t, "0.015", PeriodicRate(dec("36"), 24).String())
	assert.True(t, PeriodicRate(decimal.Zero, 52).IsZero())
}
