package domain

import "github.com/shopspring/decimal"

// PaymentFrequency is how often an employee pays the loan back.
type PaymentFrequency string

const (
	Weekly      PaymentFrequency = "weekly"
	Biweekly    PaymentFrequency = "biweekly"
	Fortnightly PaymentFrequency = "fortnightly"
	Monthly     PaymentFrequency = "monthly"
)

// LoanRequest is the input to the amortization engine.
type LoanRequest struct {
	Principal                 decimal.Decimal
	AnnualInterestRatePercent decimal.Decimal
	PaymentFrequency          PaymentFrequency
}

// AmortizationResult describes one candidate plan.
type AmortizationResult struct {
	Periods                   int
	PaymentFrequency          PaymentFrequency
	PaymentPerPeriod          decimal.Decimal
	TotalPayment              decimal.Decimal
	TotalInterest             decimal.Decimal
	TotalTax                  decimal.Decimal
	TotalFees                 decimal.Decimal
	Commission                decimal.Decimal
	AnnualizedCostRatePercent decimal.Decimal

	// IRRConverged is false when Newton-Raphson hit its iteration cap.
	IRRConverged  bool
	IRRIterations int
}

// ScheduleEntry is one row of an amortization table.
type ScheduleEntry struct {
	Period    int             `json:"period"`
	Payment   decimal.Decimal `json:"payment"`
	Interest  decimal.Decimal `json:"interest"`
	Tax       decimal.Decimal `json:"tax"`
	Principal decimal.Decimal `json:"principal"`
	Balance   decimal.Decimal `json:"balance"`
}

// PaymentOption is the wire shape consumed by the frontend. Field names are stable.
type PaymentOption struct {
	Periods          int              `json:"periods"`
	PeriodLabel      string           `json:"periodLabel"`
	PaymentPerPeriod float64          `json:"paymentPerPeriod"`
	TotalPayment     float64          `json:"totalPayment"`
	TotalInterest    float64          `json:"totalInterest"`
	TotalIVA         float64          `json:"totalIVA"`
	InterestRate     float64          `json:"interestRate"`
	PaymentFrequency PaymentFrequency `json:"paymentFrequency"`
	CAT              float64          `json:"cat"`
}

// PaymentInput is the body of POST /calculate-payments.
type PaymentInput struct {
	CompanyID        string           `json:"companyId"`
	Amount           float64          `json:"amount"`
	PaymentFrequency PaymentFrequency `json:"paymentFrequency"`
}

// SimulationInput is the body of POST /simulate. It drives the engine directly,
// without a company, and lets callers set the engine options.
type SimulationInput struct {
	Amount           float64          `json:"amount"`
	InterestRate     float64          `json:"interestRate"`
	PaymentFrequency PaymentFrequency `json:"paymentFrequency"`
	Strict           bool             `json:"strict"`
	TaxRate          *float64         `json:"taxRate,omitempty"`
	ExtraPeriodicFee float64          `json:"extraPeriodicFee"`
	CommissionRate   float64          `json:"commissionRate"`
	IncludeSchedule  bool             `json:"includeSchedule"`
}

// SimulationOption extends PaymentOption with fee details and, optionally, the
// amortization table.
type SimulationOption struct {
	PaymentOption
	TotalFees  float64         `json:"totalFees"`
	Commission float64         `json:"commission"`
	Schedule   []ScheduleEntry `json:"schedule,omitempty"`
}
