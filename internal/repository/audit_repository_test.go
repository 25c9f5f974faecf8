package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/care-billing-api/internal/models"
	"github.com/noah-isme/care-billing-api/pkg/recordstore"
)

func TestAuditRepositoryRecordAndList(t *testing.T) {
	ctx := context.Background()
	store := recordstore.NewMemoryStore()
	repo := NewAuditRepository(store)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Record(ctx, models.AuditEntry{Action: models.AuditActionAttendanceUpsert, CreatedAt: base}))
	require.NoError(t, repo.Record(ctx, models.AuditEntry{Action: models.AuditActionInvoicesGenerate, CreatedAt: base.Add(90*time.Minute + 250*time.Millisecond)}))
	require.NoError(t, repo.Record(ctx, models.AuditEntry{Action: models.AuditActionStaffCheckIn, CreatedAt: base.AddDate(0, 0, 2)}))
	assert.Equal(t, 3, store.Count(CollectionAudit))

	entries, err := repo.ListRange(ctx, base.Add(-time.Hour), base.Add(12*time.Hour))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditActionInvoicesGenerate, entries[0].Action)
	assert.Equal(t, models.AuditActionAttendanceUpsert, entries[1].Action)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, base.Add(90*time.Minute), entries[0].CreatedAt)
}
