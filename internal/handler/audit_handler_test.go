package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/care-billing-api/internal/models"
)

type auditReaderStub struct {
	from, to time.Time
	entries  []models.AuditEntry
}

func (s *auditReaderStub) ListRange(ctx context.Context, from, to time.Time) ([]models.AuditEntry, error) {
	s.from, s.to = from, to
	return s.entries, nil
}

func TestAuditHandlerListCoversWholeLastDay(t *testing.T) {
	stub := &auditReaderStub{entries: []models.AuditEntry{{ID: "a-1", Action: models.AuditActionInvoicesGenerate}}}
	handler := NewAuditHandler(stub)

	c, w := newGinContext(http.MethodGet, "/audit?from=2025-03-01&to=2025-03-02", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), stub.from)
	assert.Equal(t, time.Date(2025, 3, 2, 23, 59, 59, 0, time.UTC), stub.to)
}

func TestAuditHandlerRejectsLongRange(t *testing.T) {
	handler := NewAuditHandler(&auditReaderStub{})
	c, w := newGinContext(http.MethodGet, "/audit?from=2025-01-01&to=2025-03-31", nil)
	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
