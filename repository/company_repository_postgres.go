package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fincentiva-api/domain"
)

const companyColumns = `id, name, employee_code, interest_rate, payment_frequency,
	commission_rate, min_amount, max_amount, created_at, updated_at`

// CompanyRepositoryPostgres stores companies in the Supabase/Postgres
// `companies` table.
type CompanyRepositoryPostgres struct {
	pool *pgxpool.Pool
}

func NewCompanyRepositoryPostgres(pool *pgxpool.Pool) *CompanyRepositoryPostgres {
	return &CompanyRepositoryPostgres{pool: pool}
}

func (r *CompanyRepositoryPostgres) List(ctx context.Context) ([]domain.Company, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var companies []domain.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (r *CompanyRepositoryPostgres) GetByID(ctx context.Context, id string) (domain.Company, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Company{}, ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	return scanCompany(row)
}

func (r *CompanyRepositoryPostgres) Create(ctx context.Context, c domain.Company) (domain.Company, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO companies (
			id, name, employee_code, interest_rate, payment_frequency,
			commission_rate, min_amount, max_amount, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now(), now())
		RETURNING `+companyColumns,
		c.ID, c.Name, c.EmployeeCode, c.InterestRate, string(c.PaymentFrequency),
		c.CommissionRate, c.MinAmount, c.MaxAmount,
	)
	created, err := scanCompany(row)
	if err != nil {
		return domain.Company{}, fmt.Errorf("insert company: %w", err)
	}
	return created, nil
}

func (r *CompanyRepositoryPostgres) Update(ctx context.Context, c domain.Company) (domain.Company, error) {
	if _, err := uuid.Parse(c.ID); err != nil {
		return domain.Company{}, ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE companies SET
			name              = $2,
			employee_code     = $3,
			interest_rate     = $4,
			payment_frequency = $5,
			commission_rate   = $6,
			min_amount        = $7,
			max_amount        = $8,
			updated_at        = now()
		WHERE id = $1
		RETURNING `+companyColumns,
		c.ID, c.Name, c.EmployeeCode, c.InterestRate, string(c.PaymentFrequency),
		c.CommissionRate, c.MinAmount, c.MaxAmount,
	)
	return scanCompany(row)
}

func (r *CompanyRepositoryPostgres) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCompany(row pgx.Row) (domain.Company, error) {
	var (
		c         domain.Company
		frequency string
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.EmployeeCode, &c.InterestRate, &frequency,
		&c.CommissionRate, &c.MinAmount, &c.MaxAmount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Company{}, ErrNotFound
		}
		return domain.Company{}, fmt.Errorf("scan company: %w", err)
	}
	c.PaymentFrequency = domain.PaymentFrequency(frequency)
	return c, nil
}
