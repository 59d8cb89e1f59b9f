package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/km-tracker/internal/domain"
	"github.com/fleetops/km-tracker/internal/repo"
)

func TestDriverRepo_Create(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewDriverRepo(tx)
	ctx := context.Background()

	got, err := r.Create(ctx, domain.Driver{
		Name:          "Asha Patel",
		Phone:         "+91-9800000002",
		Email:         "asha@example.com",
		VehicleNumber: "MH-12-CD-5678",
		VehicleType:   "bike",
		IsActive:      true,
	})

	require.NoError(t, err)
	assert.NotEqual(t, [16]byte{}, got.ID, "ID should be DB-generated UUID")
	assert.Equal(t, "Asha Patel", got.Name)
	assert.Equal(t, "MH-12-CD-5678", got.VehicleNumber)
	assert.True(t, got.IsActive)
	assert.False(t, got.CreatedAt.IsZero(), "CreatedAt should be set by DB")
}

func TestDriverRepo_GetByID(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewDriverRepo(tx)
	ctx := context.Background()

	created := seedDriver(t, tx)

	got, err := r.GetByID(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.VehicleNumber, got.VehicleNumber)
}

func TestDriverRepo_GetByID_NotFound(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewDriverRepo(tx)
	ctx := context.Background()

	_, err := r.GetByID(ctx, uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
