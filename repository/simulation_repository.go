package repository

import (
	"context"

	"fincentiva-api/domain"
)

type SimulationRepository interface {
	Save(ctx context.Context, simulation domain.Simulation) error
}
