package domain

// TermRecommendationInput asks which of the candidate plans fits a payment cap.
type TermRecommendationInput struct {
	CompanyID           string           `json:"companyId"`
	Amount              float64          `json:"amount"`
	PaymentFrequency    PaymentFrequency `json:"paymentFrequency"`
	MaxPaymentPerPeriod float64          `json:"maxPaymentPerPeriod"`
	Preference          string           `json:"preference"` // "minimize_interest", "minimize_payment", "balanced"
}

type TermRecommendation struct {
	Option PaymentOption `json:"option"`
	Score  float64       `json:"score"`
	Reason string        `json:"reason"`
}

type TermRecommendationResult struct {
	RecommendedPeriods int                  `json:"recommendedPeriods"`
	Recommendations    []TermRecommendation `json:"recommendations"`
}
