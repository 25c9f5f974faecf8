package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/care-billing-api/internal/models"
	"github.com/noah-isme/care-billing-api/pkg/recordstore"
)

func TestDirectoryRepositoryActiveClients(t *testing.T) {
	ctx := context.Background()
	repo := NewDirectoryRepository(recordstore.NewMemoryStore())

	require.NoError(t, repo.SaveClient(ctx, models.ClientBillingProfile{ID: "c-2", FirstName: "Zoe", Surname: "Park", Active: true}))
	require.NoError(t, repo.SaveClient(ctx, models.ClientBillingProfile{ID: "c-1", FirstName: "Ann", Surname: "Lee", Active: true}))
	require.NoError(t, repo.SaveClient(ctx, models.ClientBillingProfile{ID: "c-3", FirstName: "Old", Surname: "Client", Active: true}))
	// saving again replaces
	require.NoError(t, repo.SaveClient(ctx, models.ClientBillingProfile{ID: "c-3", FirstName: "Old", Surname: "Client", Active: false}))

	clients, err := repo.ActiveClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "c-1", clients[0].ID)
	assert.Equal(t, "c-2", clients[1].ID)

	inactive, err := repo.GetClient(ctx, "c-3")
	require.NoError(t, err)
	assert.False(t, inactive.Active)

	_, err = repo.GetClient(ctx, "missing")
	assert.ErrorIs(t, err, recordstore.ErrNotFound)
}

func TestDirectoryRepositoryStaff(t *testing.T) {
	ctx := context.Background()
	repo := NewDirectoryRepository(recordstore.NewMemoryStore())

	require.NoError(t, repo.SaveStaff(ctx, models.StaffProfile{ID: "s-1", FirstName: "Bea", Surname: "Ng", DayRate: decimal.NewFromInt(120), Active: true}))
	require.NoError(t, repo.SaveStaff(ctx, models.StaffProfile{ID: "s-2", FirstName: "Cal", Surname: "Ode", Active: false}))

	staff, err := repo.ActiveStaff(ctx)
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.True(t, staff[0].DayRate.Equal(decimal.NewFromInt(120)))

	got, err := repo.GetStaff(ctx, "s-2")
	require.NoError(t, err)
	assert.Equal(t, "Cal Ode", got.FullName())
}

func TestDirectoryRepositorySeed(t *testing.T) {
	ctx := context.Background()
	repo := NewDirectoryRepository(recordstore.NewMemoryStore())

	seed, err := repo.Seed(ctx, strings.NewReader(`{
		"clients": [{"id":"c-1","firstName":"Ann","surname":"Lee","address":"1 Main St","email":"ann@example.com","standardRate":"40","active":true}],
		"staff": [{"id":"s-1","firstName":"Bea","surname":"Ray","dayRate":"120.50","active":true}]
	}`))
	require.NoError(t, err)
	assert.Len(t, seed.Clients, 1)

	client, err := repo.GetClient(ctx, "c-1")
	require.NoError(t, err)
	assert.True(t, client.StandardRate.Equal(decimal.NewFromInt(40)))

	staff, err := repo.GetStaff(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "120.5", staff.DayRate.String())
}

func TestDirectoryRepositorySeedRequiresIDs(t *testing.T) {
	repo := NewDirectoryRepository(recordstore.NewMemoryStore())
	_, err := repo.Seed(context.Background(), strings.NewReader(`{"clients":[{"firstName":"Ann","surname":"Lee"}]}`))
	assert.Error(t, err)

	_, err = repo.Seed(context.Background(), strings.NewReader(`not json`))
	assert.Error(t, err)
}
