package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"fincentiva-api/domain"
)

type SimulationRepositoryPostgres struct {
	pool *pgxpool.Pool
}

func NewSimulationRepositoryPostgres(pool *pgxpool.Pool) *SimulationRepositoryPostgres {
	return &SimulationRepositoryPostgres{pool: pool}
}

func (r *SimulationRepositoryPostgres) Save(ctx context.Context, s domain.Simulation) error {
	options, err := json.Marshal(s.Options)
	if err != nil {
		return fmt.Errorf("encode simulation options: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO simulations (id, company_id, amount, payment_frequency, options, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.CompanyID, s.Amount, string(s.PaymentFrequency), options, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert simulation: %w", err)
	}
	return nil
}
