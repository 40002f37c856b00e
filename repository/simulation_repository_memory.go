package repository

import (
	"context"
	"sync"

	"fincentiva-api/domain"
)

// SimulationRepositoryMemory is an in-memory implementation of SimulationRepository.
type SimulationRepositoryMemory struct {
	mu   sync.Mutex
	data []domain.Simulation
}

// NewSimulationRepositoryMemory creates a new in-memory simulation log.
func NewSimulationRepositoryMemory() *SimulationRepositoryMemory {
	return &SimulationRepositoryMemory{
		data: []domain.Simulation{},
	}
}

// Save stores the simulation in memory.
func (r *SimulationRepositoryMemory) Save(_ context.Context, simulation domain.Simulation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append(r.data, simulation)
	return nil
}

// All returns a copy of every stored simulation, oldest first.
func (r *SimulationRepositoryMemory) All() []domain.Simulation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Simulation, len(r.data))
	copy(out, r.data)
	return out
}
