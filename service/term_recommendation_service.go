package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"fincentiva-api/domain"
)

type TermRecommendationService struct {
	loanService *LoanService
	logger      *slog.Logger
}

func NewTermRecommendationService(loanService *LoanService, logger *slog.Logger) *TermRecommendationService {
	return &TermRecommendationService{
		loanService: loanService,
		logger:      logger,
	}
}

var preferenceWeights = map[string]struct{ interest, payment, term float64 }{
	"minimize_interest": {0.6, 0.2, 0.2},
	"minimize_payment":  {0.2, 0.6, 0.2},
	"balanced":          {0.4, 0.4, 0.2},
}

// RecommendTerm analiza los plazos de la empresa y recomienda el óptimo
func (s *TermRecommendationService) RecommendTerm(
	ctx context.Context,
	input domain.TermRecommendationInput,
) (domain.TermRecommendationResult, error) {
	if input.MaxPaymentPerPeriod <= 0 {
		return domain.TermRecommendationResult{}, fmt.Errorf("%w: pago máximo por periodo inválido", ErrInvalidInput)
	}
	if input.Preference == "" {
		input.Preference = "balanced"
	}
	weights, ok := preferenceWeights[input.Preference]
	if !ok {
		return domain.TermRecommendationResult{}, fmt.Errorf("%w: preferencia inválida", ErrInvalidInput)
	}

	// Una recomendación no es una simulación: no se registra ni se mide
	q, err := s.loanService.quote(ctx, domain.PaymentInput{
		CompanyID:        input.CompanyID,
		Amount:           input.Amount,
		PaymentFrequency: input.PaymentFrequency,
	})
	if err != nil {
		return domain.TermRecommendationResult{}, err
	}
	options := q.options

	// Filtrar por pago máximo
	affordable := make([]domain.PaymentOption, 0, len(options))
	for _, o := range options {
		if o.PaymentPerPeriod <= input.MaxPaymentPerPeriod {
			affordable = append(affordable, o)
		}
	}
	if len(affordable) == 0 {
		s.logger.Info("no plan fits the payment cap",
			"company_id", input.CompanyID, "amount", input.Amount, "max_payment", input.MaxPaymentPerPeriod)
		return domain.TermRecommendationResult{}, ErrNoPlanFits
	}

	bounds := boundsOf(affordable)
	recommendations := make([]domain.TermRecommendation, 0, len(affordable))
	for _, o := range affordable {
		score := weights.interest*normalized(o.TotalInterest, bounds.minInterest, bounds.maxInterest) +
			weights.payment*normalized(o.PaymentPerPeriod, bounds.minPayment, bounds.maxPayment) +
			weights.term*normalized(float64(o.Periods), bounds.minPeriods, bounds.maxPeriods)

		recommendations = append(recommendations, domain.TermRecommendation{
			Option: o,
			Score:  math.Round(score*100) / 100,
			Reason: reasonFor(input.Preference, o),
		})
	}

	// Ordenar por score descendente; empates al plazo más corto
	sort.SliceStable(recommendations, func(i, j int) bool {
		if recommendations[i].Score != recommendations[j].Score {
			return recommendations[i].Score > recommendations[j].Score
		}
		return recommendations[i].Option.Periods < recommendations[j].Option.Periods
	})

	return domain.TermRecommendationResult{
		RecommendedPeriods: recommendations[0].Option.Periods,
		Recommendations:    recommendations,
	}, nil
}

type optionBounds struct {
	minInterest, maxInterest float64
	minPayment, maxPayment   float64
	minPeriods, maxPeriods   float64
}

func boundsOf(options []domain.PaymentOption) optionBounds {
	b := optionBounds{
		minInterest: math.Inf(1), maxInterest: math.Inf(-1),
		minPayment: math.Inf(1), maxPayment: math.Inf(-1),
		minPeriods: math.Inf(1), maxPeriods: math.Inf(-1),
	}
	for _, o := range options {
		b.minInterest = math.Min(b.minInterest, o.TotalInterest)
		b.maxInterest = math.Max(b.maxInterest, o.TotalInterest)
		b.minPayment = math.Min(b.minPayment, o.PaymentPerPeriod)
		b.maxPayment = math.Max(b.maxPayment, o.PaymentPerPeriod)
		b.minPeriods = math.Min(b.minPeriods, float64(o.Periods))
		b.maxPeriods = math.Max(b.maxPeriods, float64(o.Periods))
	}
	return b
}

// normalized maps value into 0-10, where the smallest value scores 10.
func normalized(value, lo, hi float64) float64 {
	if hi <= lo {
		return 10
	}
	return 10 * (hi - value) / (hi - lo)
}

func reasonFor(preference string, o domain.PaymentOption) string {
	switch preference {
	case "minimize_interest":
		return fmt.Sprintf("%d %s: plazo optimizado para minimizar el costo total de intereses", o.Periods, o.PeriodLabel)
	case "minimize_payment":
		return fmt.Sprintf("%d %s: plazo optimizado para minimizar el pago por periodo", o.Periods, o.PeriodLabel)
	default:
		return fmt.Sprintf("%d %s: balance entre pago por periodo y costo total", o.Periods, o.PeriodLabel)
	}
}
