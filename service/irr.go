package service

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// IRRResult is the periodic internal rate of return of a cash-flow vector.
type IRRResult struct {
	Rate       float64
	Iterations int
	// Converged is false when the iteration cap was reached; Rate is then the
	// last estimate.
	Converged bool
}

// npv returns f(r) = Σ flows[t]·(1+r)^-t and its derivative.
func npv(flows []float64, rate float64) (value, derivative float64) {
	for t, flow := range flows {
		tf := float64(t)
		value += flow / math.Pow(1+rate, tf)
		derivative += -tf * flow / math.Pow(1+rate, tf+1)
	}
	return value, derivative
}

// ComputePeriodicIRR solves npv(r) = 0 with Newton-Raphson starting at guess.
// It stops when the step is below 1e-7 or after 100 iterations.
func ComputePeriodicIRR(flows []float64, guess float64) (IRRResult, error) {
	return solveIRR(flows, guess, irrMaxIterations)
}

func solveIRR(flows []float64, guess float64, maxIterations int) (IRRResult, error) {
	if len(flows) < 2 {
		return IRRResult{}, fmt.Errorf("%w: se requieren al menos dos flujos", ErrInvalidInput)
	}

	rate := guess
	for i := 1; i <= maxIterations; i++ {
		value, derivative := npv(flows, rate)
		if derivative == 0 {
			return IRRResult{Rate: rate, Iterations: i}, fmt.Errorf("%w: derivada nula en r=%g", ErrArithmeticDegeneracy, rate)
		}

		next := rate - value/derivative
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return IRRResult{Rate: rate, Iterations: i}, fmt.Errorf("%w: r=%g", ErrArithmeticDegeneracy, next)
		}
		if math.Abs(next-rate) < irrTolerance {
			return IRRResult{Rate: next, Iterations: i, Converged: true}, nil
		}
		rate = next
	}
	return IRRResult{Rate: rate, Iterations: maxIterations}, nil
}

// AnnualizeRate compounds a periodic rate into the annual cost of credit, in
// percent with two decimals. A rate whose compounding leaves the float64 range
// is reported as ErrArithmeticDegeneracy.
func AnnualizeRate(periodicRate float64, periodsPerYear int) (decimal.Decimal, error) {
	annual := (math.Pow(1+periodicRate, float64(periodsPerYear)) - 1) * 100
	if math.IsInf(annual, 0) || math.IsNaN(annual) {
		return decimal.Zero, fmt.Errorf("%w: CAT fuera de rango para r=%g", ErrArithmeticDegeneracy, periodicRate)
	}
	return round2(decimal.NewFromFloat(annual)), nil
}
