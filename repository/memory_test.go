package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincentiva-api/domain"
)

func TestCompanyRepositoryMemory_CRUD(t *testing.T) {
	repo := NewCompanyRepositoryMemory()
	clock := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }
	ctx := context.Background()

	zeta, err := repo.Create(ctx, domain.Company{Name: "Zeta", InterestRate: decimal.NewFromInt(30)})
	require.NoError(t, err)
	alfa, err := repo.Create(ctx, domain.Company{Name: "Alfa", InterestRate: decimal.NewFromInt(40)})
	require.NoError(t, err)
	assert.NotEmpty(t, zeta.ID)
	assert.NotEqual(t, zeta.ID, alfa.ID)
	assert.Equal(t, clock, zeta.CreatedAt)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alfa", list[0].Name)

	clock = clock.Add(time.Hour)
	alfa.Name = "Alfa Corp"
	updated, err := repo.Update(ctx, alfa)
	require.NoError(t, err)
	assert.Equal(t, alfa.CreatedAt, updated.CreatedAt)
	assert.Equal(t, clock, updated.UpdatedAt)

	_, err = repo.Update(ctx, domain.Company{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Delete(ctx, zeta.ID))
	assert.ErrorIs(t, repo.Delete(ctx, zeta.ID), ErrNotFound)
	_, err = repo.GetByID(ctx, zeta.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSimulationRepositoryMemory_Save(t *testing.T) {
	repo := NewSimulationRepositoryMemory()

	require.NoError(t, repo.Save(context.Background(), domain.Simulation{ID: "a"}))
	require.NoError(t, repo.Save(context.Background(), domain.Simulation{ID: "b"}))

	all := repo.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)

	all[0].ID = "changed"
	assert.Equal(t, "a", repo.All()[0].ID)
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	_, ok := cache.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "k", "v"))
	val, ok := cache.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", val)
}
