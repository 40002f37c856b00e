package service

const (
	MaxLoanAmount   = 1_000_000_000.0 // 1 billón
	MaxInterestRate = 1000.0          // 1000% anual

	// DefaultTaxRate es el IVA sobre intereses.
	DefaultTaxRate = "0.16"

	irrInitialGuess   = 0.1
	irrTolerance      = 1e-7
	irrMaxIterations  = 100
	paymentCacheScope = "payments"
	productCacheScope = "product"
)
