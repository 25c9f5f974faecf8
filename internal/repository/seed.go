package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/noah-isme/care-billing-api/internal/models"
)

// DirectorySeed is the file format accepted by Seed.
type DirectorySeed struct {
	Clients []models.ClientBillingProfile `json:"clients"`
	Staff   []models.StaffProfile         `json:"staff"`
}

// Seed loads client and staff profiles from r into the directory. Existing
// profiles with the same id are replaced.
func (r *DirectoryRepository) Seed(ctx context.Context, src io.Reader) (DirectorySeed, error) {
	var seed DirectorySeed
	if err := json.NewDecoder(src).Decode(&seed); err != nil {
		return DirectorySeed{}, fmt.Errorf("decode directory seed: %w", err)
	}
	for _, client := range seed.Clients {
		if client.ID == "" {
			return DirectorySeed{}, fmt.Errorf("seed client %q has no id", client.FullName())
		}
		if err := r.SaveClient(ctx, client); err != nil {
			return DirectorySeed{}, err
		}
	}
	for _, staff := range seed.Staff {
		if staff.ID == "" {
			return DirectorySeed{}, fmt.Errorf("seed staff %q has no id", staff.FullName())
		}
		if err := r.SaveStaff(ctx, staff); err != nil {
			return DirectorySeed{}, err
		}
	}
	return seed, nil
}
