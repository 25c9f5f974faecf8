package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/care-billing-api/internal/models"
	"github.com/noah-isme/care-billing-api/internal/repository"
	"github.com/noah-isme/care-billing-api/pkg/optional"
	"github.com/noah-isme/care-billing-api/pkg/recordstore"
)

var (
	fixtureNow   = time.Date(2025, time.April, 1, 9, 30, 0, 0, time.UTC)
	fixtureMarch = models.Period{Year: 2025, Month: time.March}
	adminClaims  = &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
)

func marchDay(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

type billingFixture struct {
	store      *recordstore.MemoryStore
	directory  *repository.DirectoryRepository
	invoices   *repository.InvoiceRepository
	attendance *AttendanceService
	allocator  *InvoiceNumberAllocator
	generator  *InvoiceService
}

type fixtureOptions struct {
	maxAttempts int
	concurrency int
}

func newBillingFixture(t *testing.T, opts fixtureOptions) *billingFixture {
	t.Helper()
	store := recordstore.NewMemoryStore()
	directory := repository.NewDirectoryRepository(store)
	invoices := repository.NewInvoiceRepository(store)
	attendanceRepo := repository.NewAttendanceRepository(store)

	attendance := NewAttendanceService(attendanceRepo, directory, nil, nil)
	attendance.now = func() time.Time { return fixtureNow }

	allocator := NewInvoiceNumberAllocator(invoices, opts.maxAttempts, nil, nil)
	allocator.now = func() time.Time { return fixtureNow }

	generator := NewInvoiceService(invoices, directory, attendanceRepo, allocator, nil, nil,
		InvoiceServiceConfig{Concurrency: opts.concurrency}, nil, nil)
	generator.now = func() time.Time { return fixtureNow }

	return &billingFixture{
		store:      store,
		directory:  directory,
		invoices:   invoices,
		attendance: attendance,
		allocator:  allocator,
		generator:  generator,
	}
}

func (f *billingFixture) addClient(t *testing.T, id, first, surname string, active bool) models.ClientBillingProfile {
	t.Helper()
	client := models.ClientBillingProfile{
		ID:           id,
		FirstName:    first,
		Surname:      surname,
		Address:      "1 " + surname + " Street",
		Email:        id + "@example.com",
		StandardRate: decimal.NewFromInt(40),
		Active:       active,
	}
	require.NoError(t, f.directory.SaveClient(context.Background(), client))
	return client
}

func (f *billingFixture) record(t *testing.T, clientID string, day int, status models.AttendanceStatus, payment int64, paymentType models.PaymentType) {
	t.Helper()
	_, err := f.attendance.Upsert(context.Background(), clientID, marchDay(day), models.AttendancePatch{
		Status:      optional.Set(status),
		Payment:     optional.Set(decimal.NewFromInt(payment)),
		PaymentType: optional.Set(paymentType),
	}, adminClaims)
	require.NoError(t, err)
}

// seedAnnLee records four billable invoice sessions for Ann Lee in March 2025
// plus sessions that must not be billed.
func (f *billingFixture) seedAnnLee(t *testing.T) {
	t.Helper()
	f.addClient(t, "client-ann", "Ann", "Lee", true)
	f.record(t, "client-ann", 3, models.AttendanceStatusPresent, 40, models.PaymentTypeInvoice)
	f.record(t, "client-ann", 5, models.AttendanceStatusLateCancellation, 40, models.PaymentTypeInvoice)
	f.record(t, "client-ann", 7, models.AttendanceStatusAbsent, 40, models.PaymentTypeInvoice)
	f.record(t, "client-ann", 10, models.AttendanceStatusPresent, 40, models.PaymentTypeInvoice)
	f.record(t, "client-ann", 12, models.AttendanceStatusPresent, 40, models.PaymentTypeInvoice)
	f.record(t, "client-ann", 14, models.AttendanceStatusPresent, 40, models.PaymentTypeCash)
}
