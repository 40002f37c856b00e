package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fincentiva-api/domain"
	"fincentiva-api/repository"
)

type CompanyService struct {
	repo repository.CompanyRepository
}

func NewCompanyService(repo repository.CompanyRepository) *CompanyService {
	return &CompanyService{repo: repo}
}

func (s *CompanyService) List(ctx context.Context) ([]domain.Company, error) {
	return s.repo.List(ctx)
}

func (s *CompanyService) Get(ctx context.Context, id string) (domain.Company, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CompanyService) Create(ctx context.Context, company domain.Company) (domain.Company, error) {
	company.ID = ""
	company, err := normalizeCompany(company)
	if err != nil {
		return domain.Company{}, err
	}
	return s.repo.Create(ctx, company)
}

func (s *CompanyService) Update(ctx context.Context, id string, company domain.Company) (domain.Company, error) {
	company.ID = id
	company, err := normalizeCompany(company)
	if err != nil {
		return domain.Company{}, err
	}
	return s.repo.Update(ctx, company)
}

func (s *CompanyService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// normalizeCompany valida la empresa y completa los valores por defecto.
func normalizeCompany(c domain.Company) (domain.Company, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.EmployeeCode = strings.TrimSpace(c.EmployeeCode)

	if c.Name == "" {
		return c, fmt.Errorf("%w: nombre requerido", ErrInvalidInput)
	}
	if c.EmployeeCode == "" {
		return c, fmt.Errorf("%w: código de empleado requerido", ErrInvalidInput)
	}
	if c.InterestRate.IsNegative() || c.InterestRate.GreaterThan(decimal.NewFromFloat(MaxInterestRate)) {
		return c, fmt.Errorf("%w: tasa inválida", ErrInvalidInput)
	}
	if c.CommissionRate.IsNegative() || c.CommissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return c, fmt.Errorf("%w: comisión inválida", ErrInvalidInput)
	}

	if c.PaymentFrequency == "" {
		c.PaymentFrequency = domain.Monthly
	}
	if _, known := ResolveFrequency(c.PaymentFrequency); !known {
		return c, fmt.Errorf("%w: frecuencia de pago desconocida %q", ErrInvalidInput, c.PaymentFrequency)
	}

	c.MinAmount = round2(c.MinAmount)
	c.MaxAmount = round2(c.MaxAmount)
	if c.MinAmount.IsNegative() || c.MaxAmount.IsNegative() {
		return c, fmt.Errorf("%w: montos inválidos", ErrInvalidInput)
	}
	if c.MaxAmount.IsPositive() && c.MinAmount.GreaterThan(c.MaxAmount) {
		return c, fmt.Errorf("%w: monto mínimo mayor que máximo", ErrInvalidInput)
	}
	return c, nil
}
