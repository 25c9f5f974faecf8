package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/care-billing-api/internal/models"
	"github.com/noah-isme/care-billing-api/pkg/recordstore"
)

// CollectionAudit stores the audit trail, partitioned by day.
const CollectionAudit = "audit_log"

// AuditRepository persists audit entries.
type AuditRepository struct {
	store recordstore.Store
	now   func() time.Time
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(store recordstore.Store) *AuditRepository {
	return &AuditRepository{store: store, now: time.Now}
}

// Record stores entry, assigning an id and timestamp when missing. Timestamps
// are kept at second precision so their encoded form sorts chronologically.
func (r *AuditRepository) Record(ctx context.Context, entry models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC().Truncate(time.Second)
	if err := r.store.Create(ctx, CollectionAudit, entry.ID, models.DayKey(entry.CreatedAt), entry); err != nil {
		return fmt.Errorf("create audit entry: %w", err)
	}
	return nil
}

// ListRange returns entries created between from and to, newest first.
func (r *AuditRepository) ListRange(ctx context.Context, from, to time.Time) ([]models.AuditEntry, error) {
	q := recordstore.Query{
		Conditions: []recordstore.Condition{
			recordstore.Where("createdAt", recordstore.OpGte, from.UTC().Truncate(time.Second)),
			recordstore.Where("createdAt", recordstore.OpLte, to.UTC().Truncate(time.Second)),
		},
		OrderBy:    "createdAt",
		Descending: true,
	}
	var entries []models.AuditEntry
	if err := r.store.Query(ctx, CollectionAudit, q, &entries); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
