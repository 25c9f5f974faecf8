package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/care-billing-api/internal/dto"
	"github.com/noah-isme/care-billing-api/internal/models"
	appErrors "github.com/noah-isme/care-billing-api/pkg/errors"
	"github.com/noah-isme/care-billing-api/pkg/optional"
	"github.com/noah-isme/care-billing-api/pkg/recordstore"
)

func marchRequest(regenerate bool) dto.GenerateInvoicesRequest {
	return dto.GenerateInvoicesRequest{Year: 2025, Month: 3, Regenerate: regenerate}
}

func TestInvoiceServiceGenerateAnnLee(t *testing.T) {
	f := newBillingFixture(t, fixtureOptions{})
	f.seedAnnLee(t)

	result, err := f.generator.Generate(context.Background(), marchRequest(false), adminClaims)
	require.NoError(t, err)
	require.Len(t, result.Invoices, 1)
	assert.Empty(t, result.Failures)
	assert.Equal(t, 1, result.Created)
	assert.NotEmpty(t, result.RunID)

	invoice := result.Invoices[0]
	assert.Equal(t, "202503-AnLe", invoice.InvoiceNumber)
	assert.Equal(t, "Ann Lee", invoice.ClientName)
	assert.Equal(t, models.InvoiceStatusDraft, invoice.Status)
	require.Len(t, invoice.LineItems, 4)
	assert.True(t, invoice.Total.Equal(decimal.NewFromInt(160)))
	assert.True(t, invoice.Subtotal.Equal(invoice.Total))

	assert.Equal(t, "Attendance – 03 Mar 2025", invoice.LineItems[0].Description)
	assert.Equal(t, models.LineItemLateCancellation, invoice.LineItems[1].Kind)
	assert.Equal(t, "Late cancellation fee – 05 Mar 2025", invoice.LineItems[1].Description)
	for i := 1; i < len(invoice.LineItems); i++ {
		assert.True(t, invoice.LineItems[i-1].Date.Before(invoice.LineItems[i].Date))
	}

	assert.Equal(t, marchDay(1), invoice.PeriodStart)
	assert.Equal(t, marchDay(31), invoice.PeriodEnd)
	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), invoice.InvoiceDate)
	assert.Equal(t, time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC), invoice.DueDate)
	assert.Equal(t, "1 Lee Street", invoice.BillingAddress)
	assert.Equal(t, "client-ann@example.com", invoice.BillingEmail)
	assert.Equal(t, "admin-1", invoice.CreatedBy)

	stored, err := f.invoices.Get(context.Background(), "client-ann", fixtureMarch)
	require.NoError(t, err)
	assert.Equal(t, "202503-AnLe", stored.InvoiceNumber)
}

func TestInvoiceServiceGenerateSharedInitials(t *testing.T) {
	f := newBillingFixture(t, fixtureOptions{})
	f.seedAnnLee(t)
	f.addClient(t, "client-andy", "Andy", "Leeson", true)
	f.record(t, "client-andy", 4, models.AttendanceStatusPresent, 55, models.PaymentTypeInvoice)

	result, err := f.generator.Generate(context.Background(), marchRequest(false), adminClaims)
	require.NoError(t, err)
	require.Len(t, result.Invoices, 2)
	assert.Equal(t, "202503-AnLe", result.Invoices[0].InvoiceNumber)
	assert.Equal(t, "202503-AnLe-1", result.Invoices[1].InvoiceNumber)
	assert.True(t, result.Invoices[1].Total.Equal(decimal.NewFromInt(55)))
}

func TestInvoiceServiceGenerateIsIdempotent(t *testing.T) {
	f := newBillingFixture(t, fixtureOptions{})
	f.seedAnnLee(t)
	ctx := context.Background()

	first, err := f.generator.Generate(ctx, marchRequest(false), adminClaims)
	require.NoError(t, err)

	// a later payment change does not alter an existing invoice
	_, err = f.attendance.Upsert(ctx, "client-ann", marchDay(3), models.AttendancePatch{
		Payment: optional.Set(decimal.NewFromInt(99)),
	}, adminClaims)
	require.NoError(t, err)

	second, err := f.generator.Generate(ctx, marchRequest(false), adminClaims)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Reused)
	require.Len(t, second.Invoices, 1)
	assert.Equal(t, first.Invoices[0].InvoiceNumber, second.Invoices[0].InvoiceNumber)
	assert.True(t, second.Invoices[0].Total.Equal(decimal.NewFromInt(160)))
	assert.Equal(t, 1, f.store.Count("invoices"))
	assert.Equal(t, 1, f.store.Count("invoice_numbers"))
}

func TestInvoiceServiceRegenerateReplacesAnyStatus(t *testing.T) {
	f := newBillingFixture(t, fixtureOptions{})
	f.seedAnnLee(t)
	ctx := context.Background()

	_, err := f.generator.Generate(ctx, marchRequest(false), adminClaims)
	require.NoError(t, err)
	_, err = f.generator.UpdateStatus(ctx, "client-ann", fixtureMarch, dto.UpdateInvoiceStatusRequest{Status: models.InvoiceStatusSent}, adminClaims)
	require.NoError(t, err)
	_, err = f.generator.UpdateStatus(ctx, "client-ann", fixtureMarch, dto.UpdateInvoiceStatusRequest{Status: models.InvoiceStatusPaid}, adminClaims)
	require.NoError(t, err)

	_, err = f.attendance.Upsert(ctx, "client-ann", marchDay(3), models.AttendancePatch{
		Payment: optional.Set(decimal.NewFromInt(60)),
	}, adminClaims)
	require.NoError(t, err)

	result, err := f.generator.Generate(ctx, marchRequest(true), adminClaims)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Created)
	require.Len(t, result.Invoices, 1)
	invoice := result.Invoices[0]
	assert.Equal(t, models.InvoiceStatusDraft, invoice.Status)
	assert.Nil(t, invoice.PaidDate)
	assert.Equal(t, "202503-AnLe", invoice.InvoiceNumber)
	assert.True(t, invoice.Total.Equal(decimal.NewFromInt(180)))
	assert.Equal(t, 1, f.store.Count("invoice_numbers"))
}

func TestInvoiceServiceGenerateSkipsInactiveAndUnbilledClients(t *testing.T) {
	f := newBillingFixture(t, fixtureOptions{})
	f.seedAnnLee(t)
	f.addClient(t, "client-old", "Olga", "Gone", false)
	f.record(t, "client-old", 3, models.AttendanceStatusPresent, 40, models.PaymentTypeInvoice)
	f.addClient(t, "client-cash", "Cara", "Cash", true)
	f.record(t, "client-cash", 3, models.AttendanceStatusPresent, 40, models.PaymentTypeCash)
	f.addClient(t, "client-absent", "Abe", "Sent", true)
	f.record(t, "client-absent", 3, models.AttendanceStatusAbsent, 0, models.PaymentTypeInvoice)

	result, err := f.generator.Generate(context.Background(), marchRequest(false), adminClaims)
	require.NoError(t, err)
	require.Len(t, result.Invoices, 1)
	assert.Equal(t, "client-ann", result.Invoices[0].ClientID)
	assert.Empty(t, result.Failures)
}

func TestInvoiceServiceGenerateIsolatesExhaustion(t *testing.T) {
	f := newBillingFixture(t, fixtureOptions{maxAttempts: 1})
	f.seedAnnLee(t)
	f.addClient(t, "client-andy", "Andy", "Leeson", true)
	f.record(t, "client-andy", 4, models.AttendanceStatusPresent, 55, models.PaymentTypeInvoice)
	f.addClient(t, "client-zoe", "Zoe", "Park", true)
	f.record(t, "client-zoe", 4, models.AttendanceStatusPresent, 30, models.PaymentTypeInvoice)

	result, err := f.generator.Generate(context.Background(), marchRequest(false), adminClaims)
	require.NoError(t, err)
	require.Len(t, result.Invoices, 2)
	assert.Equal(t, "client-ann", result.Invoices[0].ClientID)
	assert.Equal(t, "client-zoe", result.Invoices[1].ClientID)

	require.Len(t, result.Failures, 1)
	failure := result.Failures[0]
	assert.Equal(t, "client-andy", failure.ClientID)
	assert.Equal(t, "Andy Leeson", failure.ClientName)
	assert.Equal(t, appErrors.ErrNumberAllocationExhausted.Code, failure.Code)
}

func TestInvoiceServiceGenerateParallelKeepsClientOrder(t *testing.T) {
	f := newBillingFixture(t, fixtureOptions{concurrency: 4})
	names := [][2]string{{"Ada", "Abbot"}, {"Ben", "Baker"}, {"Cy", "Cole"}, {"Di", "Dunn"}, {"Ed", "Ellis"}, {"Flo", "Fox"}}
	for i, name := range names {
		id := "client-" + name[0]
		f.addClient(t, id, name[0], name[1], true)
		f.record(t, id, i+1, models.AttendanceStatusPresent, 40, models.PaymentTypeInvoice)
	}

	result, err := f.generator.Generate(context.Background(), marchRequest(false), adminClaims)
	require.NoError(t, err)
	require.Len(t, result.Invoices, len(names))
	for i, name := range names {
		assert.Equal(t, "client-"+name[0], result.Invoices[i].ClientID)
	}
}

func TestInvoiceServiceGenerateValidatesPeriod(t *testing.T) {
	f := newBillingFixture(t, fixtureOptions{})
	for _, req := range []dto.GenerateInvoicesRequest{
		{Year: 2025, Month: 13},
		{Year: 1999, Month: 1},
		{Year: 2025},
	} {
		_, err := f.generator.Generate(context.Background(), req, adminClaims)
		assert.ErrorIs(t, err, appErrors.ErrValidation)
	}
}

type racingInvoiceRepo struct {
	invoiceRepository
	winner *models.Invoice
}

func (r *racingInvoiceRepo) Get(ctx context.Context, clientID string, period models.Period) (*models.Invoice, error) {
	if r.winner != nil {
		return r.winner, nil
	}
	return nil, recordstore.ErrNotFound
}

func (r *racingInvoiceRepo) Create(ctx context.Context, invoice models.Invoice) error {
	winner := invoice
	winner.InvoiceNumber = "202503-AnLe-7"
	r.winner = &winner
	return recordstore.ErrConflict
}

type allocatorStub struct {
	mu       sync.Mutex
	number   string
	err      error
	released []string
}

func (a *allocatorStub) Allocate(ctx context.Context, period models.Period, firstName, surname, clientID string) (string, error) {
	return a.number, a.err
}

func (a *allocatorStub) Release(ctx context.Context, number string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.released = append(a.released, number)
	return nil
}

func TestInvoiceServiceGenerateCreateConflictReusesWinner(t *testing.T) {
	f := newBillingFixture(t, fixtureOptions{})
	f.seedAnnLee(t)
	repo := &racingInvoiceRepo{}
	numbers := &allocatorStub{number: "202503-AnLe"}
	svc := NewInvoiceService(repo, f.directory, f.generator.attendance, numbers, nil, nil, InvoiceServiceConfig{}, nil, nil)
	svc.now = func() time.Time { return fixtureNow }

	result, err := svc.Generate(context.Background(), marchRequest(false), adminClaims)
	require.NoError(t, err)
	require.Len(t, result.Invoices, 1)
	assert.Equal(t, "202503-AnLe-7", result.Invoices[0].InvoiceNumber)
	assert.Equal(t, 1, result.Reused)
	assert.Equal(t, []string{"202503-AnLe"}, numbers.released)
}

type failingRangeReader struct{}

func (failingRangeReader) ListRange(ctx context.Context, from, to time.Time, clientID string) ([]models.AttendanceEntry, error) {
	return nil, errors.New("store unavailable")
}

func TestInvoiceServiceGenerateAbortsOnAttendanceError(t *testing.T) {
	f := newBillingFixture(t, fixtureOptions{})
	svc := NewInvoiceService(f.invoices, f.directory, failingRangeReader{}, f.allocator, nil, nil, InvoiceServiceConfig{}, nil, nil)

	_, err := svc.Generate(context.Background(), marchRequest(false), adminClaims)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestInvoiceServiceRegenerateKeepsInvoicesWhenAttendanceLoadFails(t *testing.T) {
	f := newBillingFixture(t, fixtureOptions{})
	f.seedAnnLee(t)
	ctx := context.Background()

	_, err := f.generator.Generate(ctx, marchRequest(false), adminClaims)
	require.NoError(t, err)

	svc := NewInvoiceService(f.invoices, f.directory, failingRangeReader{}, f.allocator, nil, nil, InvoiceServiceConfig{}, nil, nil)
	_, err = svc.Generate(ctx, marchRequest(true), adminClaims)
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	assert.Equal(t, 1, f.store.Count("invoices"))
	assert.Equal(t, 1, f.store.Count("invoice_numbers"))
}

func TestInvoiceServiceUpdateStatus(t *testing.T) {
	f := newBillingFixture(t, fixtureOptions{})
	f.seedAnnLee(t)
	ctx := context.Background()
	_, err := f.generator.Generate(ctx, marchRequest(false), adminClaims)
	require.NoError(t, err)

	_, err = f.generator.UpdateStatus(ctx, "client-ann", fixtureMarch, dto.UpdateInvoiceStatusRequest{Status: models.InvoiceStatusPaid}, adminClaims)
	assert.ErrorIs(t, err, appErrors.ErrInvalidStatusTransition)

	_, err = f.generator.UpdateStatus(ctx, "client-ann", fixtureMarch, dto.UpdateInvoiceStatusRequest{Status: "void"}, adminClaims)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	sent, err := f.generator.UpdateStatus(ctx, "client-ann", fixtureMarch, dto.UpdateInvoiceStatusRequest{Status: models.InvoiceStatusSent}, adminClaims)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusSent, sent.Status)

	paidOn := "2025-04-10"
	paid, err := f.generator.UpdateStatus(ctx, "client-ann", fixtureMarch, dto.UpdateInvoiceStatusRequest{Status: models.InvoiceStatusPaid, PaidDate: &paidOn}, adminClaims)
	require.NoError(t, err)
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, "2025-04-10", models.DayKey(*paid.PaidDate))

	_, err = f.generator.UpdateStatus(ctx, "client-ann", fixtureMarch, dto.UpdateInvoiceStatusRequest{Status: models.InvoiceStatusSent}, adminClaims)
	assert.ErrorIs(t, err, appErrors.ErrInvalidStatusTransition)

	stored, err := f.generator.Get(ctx, "client-ann", fixtureMarch)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, stored.Status)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(160)))

	_, err = f.generator.UpdateStatus(ctx, "client-none", fixtureMarch, dto.UpdateInvoiceStatusRequest{Status: models.InvoiceStatusSent}, adminClaims)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestInvoiceServiceListAndRenderPDF(t *testing.T) {
	f := newBillingFixture(t, fixtureOptions{})
	f.seedAnnLee(t)
	ctx := context.Background()
	_, err := f.generator.Generate(ctx, marchRequest(false), adminClaims)
	require.NoError(t, err)

	invoices, err := f.generator.List(ctx, fixtureMarch)
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	content, filename, err := f.generator.RenderPDF(ctx, "client-ann", fixtureMarch)
	require.NoError(t, err)
	assert.Equal(t, "202503-AnLe.pdf", filename)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))

	_, _, err = f.generator.RenderPDF(ctx, "client-ann", models.Period{Year: 2025, Month: time.April})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
