package repository

import (
	"context"
	"errors"

	"fincentiva-api/domain"
)

var ErrNotFound = errors.New("registro no encontrado")

// CompanyRepository is the company store. Missing records yield ErrNotFound.
type CompanyRepository interface {
	List(ctx context.Context) ([]domain.Company, error)
	GetByID(ctx context.Context, id string) (domain.Company, error)
	Create(ctx context.Context, company domain.Company) (domain.Company, error)
	Update(ctx context.Context, company domain.Company) (domain.Company, error)
	Delete(ctx context.Context, id string) error
}
