package service

import "errors"

var (
	// ErrInvalidInput marks numeric or enum input the engine refuses to work with.
	ErrInvalidInput = errors.New("entrada inválida")

	// ErrArithmeticDegeneracy is returned when the IRR derivative evaluates to zero.
	ErrArithmeticDegeneracy = errors.New("degeneración aritmética")

	ErrUnsupportedStore = errors.New("tienda no soportada")
	ErrNoPlanFits       = errors.New("ningún plazo cabe en el pago máximo")
)
