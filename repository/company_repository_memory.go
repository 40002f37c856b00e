package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fincentiva-api/domain"
)

// CompanyRepositoryMemory is an in-memory implementation of CompanyRepository.
type CompanyRepositoryMemory struct {
	mu   sync.RWMutex
	data map[string]domain.Company
	now  func() time.Time
}

// NewCompanyRepositoryMemory creates an empty in-memory company store.
func NewCompanyRepositoryMemory() *CompanyRepositoryMemory {
	return &CompanyRepositoryMemory{
		data: make(map[string]domain.Company),
		now:  time.Now,
	}
}

func (r *CompanyRepositoryMemory) List(_ context.Context) ([]domain.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	companies := make([]domain.Company, 0, len(r.data))
	for _, c := range r.data {
		companies = append(companies, c)
	}
	sort.Slice(companies, func(i, j int) bool {
		return companies[i].Name < companies[j].Name
	})
	return companies, nil
}

func (r *CompanyRepositoryMemory) GetByID(_ context.Context, id string) (domain.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.data[id]
	if !ok {
		return domain.Company{}, ErrNotFound
	}
	return c, nil
}

func (r *CompanyRepositoryMemory) Create(_ context.Context, company domain.Company) (domain.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	now := r.now().UTC()
	company.CreatedAt = now
	company.UpdatedAt = now
	r.data[company.ID] = company
	return company, nil
}

func (r *CompanyRepositoryMemory) Update(_ context.Context, company domain.Company) (domain.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.data[company.ID]
	if !ok {
		return domain.Company{}, ErrNotFound
	}
	company.CreatedAt = existing.CreatedAt
	company.UpdatedAt = r.now().UTC()
	r.data[company.ID] = company
	return company, nil
}

func (r *CompanyRepositoryMemory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}
