package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/care-billing-api/internal/models"
	"github.com/noah-isme/care-billing-api/pkg/recordstore"
)

const (
	CollectionClients = "clients"
	CollectionStaff   = "staff"
)

// DirectoryRepository reads the client and staff directories. Both are owned
// by other services; Save exists for seeding.
type DirectoryRepository struct {
	store recordstore.Store
}

// NewDirectoryRepository constructs the repository.
func NewDirectoryRepository(store recordstore.Store) *DirectoryRepository {
	return &DirectoryRepository{store: store}
}

// ActiveClients returns active clients ordered by surname.
func (r *DirectoryRepository) ActiveClients(ctx context.Context) ([]models.ClientBillingProfile, error) {
	q := recordstore.Query{
		Conditions: []recordstore.Condition{recordstore.Where("active", recordstore.OpEq, true)},
		OrderBy:    "surname",
	}
	var clients []models.ClientBillingProfile
	if err := r.store.Query(ctx, CollectionClients, q, &clients); err != nil {
		return nil, fmt.Errorf("list active clients: %w", err)
	}
	return clients, nil
}

// GetClient returns a client profile by id.
func (r *DirectoryRepository) GetClient(ctx context.Context, id string) (*models.ClientBillingProfile, error) {
	var client models.ClientBillingProfile
	if err := r.store.Get(ctx, CollectionClients, id, id, &client); err != nil {
		return nil, fmt.Errorf("get client %s: %w", id, err)
	}
	return &client, nil
}

// ActiveStaff returns active staff ordered by surname.
func (r *DirectoryRepository) ActiveStaff(ctx context.Context) ([]models.StaffProfile, error) {
	q := recordstore.Query{
		Conditions: []recordstore.Condition{recordstore.Where("active", recordstore.OpEq, true)},
		OrderBy:    "surname",
	}
	var staff []models.StaffProfile
	if err := r.store.Query(ctx, CollectionStaff, q, &staff); err != nil {
		return nil, fmt.Errorf("list active staff: %w", err)
	}
	return staff, nil
}

// GetStaff returns a staff profile by id.
func (r *DirectoryRepository) GetStaff(ctx context.Context, id string) (*models.StaffProfile, error) {
	var staff models.StaffProfile
	if err := r.store.Get(ctx, CollectionStaff, id, id, &staff); err != nil {
		return nil, fmt.Errorf("get staff %s: %w", id, err)
	}
	return &staff, nil
}

// SaveClient creates or replaces a client profile.
func (r *DirectoryRepository) SaveClient(ctx context.Context, client models.ClientBillingProfile) error {
	return r.save(ctx, CollectionClients, client.ID, client)
}

// SaveStaff creates or replaces a staff profile.
func (r *DirectoryRepository) SaveStaff(ctx context.Context, staff models.StaffProfile) error {
	return r.save(ctx, CollectionStaff, staff.ID, staff)
}

func (r *DirectoryRepository) save(ctx context.Context, collection, id string, doc interface{}) error {
	err := r.store.Create(ctx, collection, id, id, doc)
	if errors.Is(err, recordstore.ErrConflict) {
		err = r.store.Replace(ctx, collection, id, id, doc)
	}
	if err != nil {
		return fmt.Errorf("save %s %s: %w", collection, id, err)
	}
	return nil
}
