package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company is an employer affiliated with Fincentiva. Its rate and frequency
// drive every simulation made by its employees.
type Company struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	EmployeeCode     string           `json:"employeeCode"`
	InterestRate     decimal.Decimal  `json:"interestRate"`
	PaymentFrequency PaymentFrequency `json:"paymentFrequency"`
	CommissionRate   decimal.Decimal  `json:"commissionRate"`
	MinAmount        decimal.Decimal  `json:"minAmount"`
	MaxAmount        decimal.Decimal  `json:"maxAmount"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Simulation records a calculation served to an employee.
type Simulation struct {
	ID               string
	CompanyID        string
	Amount           decimal.Decimal
	PaymentFrequency PaymentFrequency
	Options          []PaymentOption
	CreatedAt        time.Time
}
