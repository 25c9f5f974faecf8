package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/care-billing-api/internal/models"
	"github.com/noah-isme/care-billing-api/pkg/recordstore"
)

const (
	// CollectionInvoices holds one invoice per client per period, partitioned by client.
	CollectionInvoices = "invoices"
	// CollectionInvoiceNumbers holds the global invoice number claims.
	CollectionInvoiceNumbers = "invoice_numbers"
)

// InvoiceRepository persists invoices and invoice number claims.
type InvoiceRepository struct {
	store recordstore.Store
}

// NewInvoiceRepository constructs the repository.
func NewInvoiceRepository(store recordstore.Store) *InvoiceRepository {
	return &InvoiceRepository{store: store}
}

// Get returns the invoice of a client for a period.
func (r *InvoiceRepository) Get(ctx context.Context, clientID string, period models.Period) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.store.Get(ctx, CollectionInvoices, period.Key(), clientID, &invoice); err != nil {
		return nil, fmt.Errorf("get invoice %s/%s: %w", clientID, period, err)
	}
	return &invoice, nil
}

// Create stores a new invoice. A second invoice for the same client and
// period fails with recordstore.ErrConflict.
func (r *InvoiceRepository) Create(ctx context.Context, invoice models.Invoice) error {
	if err := r.store.Create(ctx, CollectionInvoices, invoice.Period().Key(), invoice.ClientID, invoice); err != nil {
		return fmt.Errorf("create invoice %s: %w", invoice.InvoiceNumber, err)
	}
	return nil
}

// Replace overwrites a stored invoice.
func (r *InvoiceRepository) Replace(ctx context.Context, invoice models.Invoice) error {
	if err := r.store.Replace(ctx, CollectionInvoices, invoice.Period().Key(), invoice.ClientID, invoice); err != nil {
		return fmt.Errorf("replace invoice %s: %w", invoice.InvoiceNumber, err)
	}
	return nil
}

// Delete removes the invoice of a client for a period.
func (r *InvoiceRepository) Delete(ctx context.Context, clientID string, period models.Period) error {
	if err := r.store.Delete(ctx, CollectionInvoices, period.Key(), clientID); err != nil {
		return fmt.Errorf("delete invoice %s/%s: %w", clientID, period, err)
	}
	return nil
}

// ListByPeriod returns every invoice whose period starts at period.Start().
func (r *InvoiceRepository) ListByPeriod(ctx context.Context, period models.Period) ([]models.Invoice, error) {
	q := recordstore.Query{
		Conditions: []recordstore.Condition{
			recordstore.Where("periodStart", recordstore.OpEq, period.Start()),
		},
		OrderBy: "clientName",
	}
	var invoices []models.Invoice
	if err := r.store.Query(ctx, CollectionInvoices, q, &invoices); err != nil {
		return nil, fmt.Errorf("list invoices %s: %w", period, err)
	}
	return invoices, nil
}

// ClaimNumber reserves an invoice number; recordstore.ErrConflict when it is taken.
func (r *InvoiceRepository) ClaimNumber(ctx context.Context, claim models.InvoiceNumberClaim) error {
	if err := r.store.Create(ctx, CollectionInvoiceNumbers, claim.InvoiceNumber, claim.InvoiceNumber, claim); err != nil {
		return fmt.Errorf("claim invoice number %s: %w", claim.InvoiceNumber, err)
	}
	return nil
}

// ReleaseNumber frees a claimed invoice number.
func (r *InvoiceRepository) ReleaseNumber(ctx context.Context, number string) error {
	if err := r.store.Delete(ctx, CollectionInvoiceNumbers, number, number); err != nil {
		return fmt.Errorf("release invoice number %s: %w", number, err)
	}
	return nil
}
