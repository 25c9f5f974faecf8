package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/care-billing-api/internal/models"
	appErrors "github.com/noah-isme/care-billing-api/pkg/errors"
	"github.com/noah-isme/care-billing-api/pkg/recordstore"
)

const defaultMaxNumberAttempts = 100

type invoiceNumberStore interface {
	ClaimNumber(ctx context.Context, claim models.InvoiceNumberClaim) error
	ReleaseNumber(ctx context.Context, number string) error
}

// InvoiceNumberAllocator hands out globally unique invoice numbers of the form
// YYYYMM-FiSu, YYYYMM-FiSu-1, ...
type InvoiceNumberAllocator struct {
	store       invoiceNumberStore
	maxAttempts int
	observer    billingObserver
	logger      *zap.Logger
	now         func() time.Time
}

// NewInvoiceNumberAllocator constructs an allocator. maxAttempts <= 0 uses 100.
func NewInvoiceNumberAllocator(store invoiceNumberStore, maxAttempts int, observer billingObserver, logger *zap.Logger) *InvoiceNumberAllocator {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxNumberAttempts
	}
	if observer == nil {
		observer = noopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceNumberAllocator{store: store, maxAttempts: maxAttempts, observer: observer, logger: logger, now: time.Now}
}

// InvoiceNumberBase builds the first candidate number for a client and period.
func InvoiceNumberBase(period models.Period, firstName, surname string) (string, error) {
	initials := models.NamePrefix(firstName, 2) + models.NamePrefix(surname, 2)
	if initials == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "client name has no letters or digits to build an invoice number")
	}
	return period.Compact() + "-" + initials, nil
}

// Allocate claims the first free candidate for the client.
func (a *InvoiceNumberAllocator) Allocate(ctx context.Context, period models.Period, firstName, surname, clientID string) (string, error) {
	base, err := InvoiceNumberBase(period, firstName, surname)
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = fmt.Sprintf("%s-%d", base, attempt)
		}
		err := a.store.ClaimNumber(ctx, models.InvoiceNumberClaim{
			InvoiceNumber: candidate,
			ClientID:      clientID,
			PeriodStart:   period.Start(),
			ClaimedAt:     a.now().UTC(),
		})
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, recordstore.ErrConflict) {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to claim invoice number")
		}
		a.observer.RecordNumberCollision()
	}

	a.logger.Warn("invoice number candidates exhausted",
		zap.String("base", base),
		zap.String("client_id", clientID),
		zap.Int("attempts", a.maxAttempts),
	)
	return "", appErrors.Clone(appErrors.ErrNumberAllocationExhausted,
		fmt.Sprintf("no free invoice number for %s after %d attempts", base, a.maxAttempts))
}

// Release frees a number. Releasing an unknown number is not an error.
func (a *InvoiceNumberAllocator) Release(ctx context.Context, number string) error {
	if number == "" {
		return nil
	}
	if err := a.store.ReleaseNumber(ctx, number); err != nil && !errors.Is(err, recordstore.ErrNotFound) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release invoice number")
	}
	return nil
}
