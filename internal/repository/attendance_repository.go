package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/care-billing-api/internal/models"
	"github.com/noah-isme/care-billing-api/pkg/recordstore"
)

// CollectionAttendance stores one record per client per day, partitioned by day.
const CollectionAttendance = "attendance"

// attendanceRecord is the stored shape. Older rows carry only the attended
// flag and no payment type; both are resolved in toModel.
type attendanceRecord struct {
	ID               string           `json:"id"`
	ClientID         string           `json:"clientId"`
	Date             time.Time        `json:"date"`
	AttendanceStatus *string          `json:"attendanceStatus,omitempty"`
	Attended         *bool            `json:"attended,omitempty"`
	Payment          decimal.Decimal  `json:"payment"`
	PaymentType      *string          `json:"paymentType,omitempty"`
	InvoiceCode      string           `json:"invoiceCode,omitempty"`
	CashOwed         *decimal.Decimal `json:"cashOwed,omitempty"`
	CashOwedPaidDate *time.Time       `json:"cashOwedPaidDate,omitempty"`
	CashOwedPaidBy   *string          `json:"cashOwedPaidBy,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	UpdatedBy        string           `json:"updatedBy,omitempty"`
}

// AttendanceID is the record id of a client's entry on a day.
func AttendanceID(clientID string, date time.Time) string {
	return clientID + "_" + models.DayKey(date)
}

func attendanceFromModel(entry models.AttendanceEntry) attendanceRecord {
	status := string(entry.Status)
	attended := entry.Attended()
	paymentType := string(entry.PaymentType)
	return attendanceRecord{
		ID:               AttendanceID(entry.ClientID, entry.Date),
		ClientID:         entry.ClientID,
		Date:             models.Day(entry.Date),
		AttendanceStatus: &status,
		Attended:         &attended,
		Payment:          entry.Payment,
		PaymentType:      &paymentType,
		InvoiceCode:      entry.InvoiceCode,
		CashOwed:         entry.CashOwed,
		CashOwedPaidDate: entry.CashOwedPaidDate,
		CashOwedPaidBy:   entry.CashOwedPaidBy,
		CreatedAt:        entry.CreatedAt,
		UpdatedAt:        entry.UpdatedAt,
		UpdatedBy:        entry.UpdatedBy,
	}
}

func (r attendanceRecord) toModel() models.AttendanceEntry {
	status := models.AttendanceStatusAbsent
	switch {
	case r.AttendanceStatus != nil && models.AttendanceStatus(*r.AttendanceStatus).Valid():
		status = models.AttendanceStatus(*r.AttendanceStatus)
	case r.Attended != nil && *r.Attended:
		status = models.AttendanceStatusPresent
	}
	paymentType := models.PaymentTypeInvoice
	if r.PaymentType != nil && models.PaymentType(*r.PaymentType).Valid() {
		paymentType = models.PaymentType(*r.PaymentType)
	}
	return models.AttendanceEntry{
		ClientID:         r.ClientID,
		Date:             models.Day(r.Date),
		Status:           status,
		Payment:          r.Payment,
		PaymentType:      paymentType,
		InvoiceCode:      r.InvoiceCode,
		CashOwed:         r.CashOwed,
		CashOwedPaidDate: r.CashOwedPaidDate,
		CashOwedPaidBy:   r.CashOwedPaidBy,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		UpdatedBy:        r.UpdatedBy,
	}
}

// AttendanceRepository persists attendance entries in the record store.
type AttendanceRepository struct {
	store recordstore.Store
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(store recordstore.Store) *AttendanceRepository {
	return &AttendanceRepository{store: store}
}

// Get returns the entry for the client and day or recordstore.ErrNotFound.
func (r *AttendanceRepository) Get(ctx context.Context, clientID string, date time.Time) (*models.AttendanceEntry, error) {
	var rec attendanceRecord
	if err := r.store.Get(ctx, CollectionAttendance, AttendanceID(clientID, date), models.DayKey(date), &rec); err != nil {
		return nil, fmt.Errorf("get attendance %s: %w", AttendanceID(clientID, date), err)
	}
	entry := rec.toModel()
	return &entry, nil
}

// Create inserts a new entry; recordstore.ErrConflict when one already exists.
func (r *AttendanceRepository) Create(ctx context.Context, entry models.AttendanceEntry) error {
	rec := attendanceFromModel(entry)
	if err := r.store.Create(ctx, CollectionAttendance, rec.ID, models.DayKey(entry.Date), rec); err != nil {
		return fmt.Errorf("create attendance %s: %w", rec.ID, err)
	}
	return nil
}

// Replace overwrites an existing entry in full.
func (r *AttendanceRepository) Replace(ctx context.Context, entry models.AttendanceEntry) error {
	rec := attendanceFromModel(entry)
	if err := r.store.Replace(ctx, CollectionAttendance, rec.ID, models.DayKey(entry.Date), rec); err != nil {
		return fmt.Errorf("replace attendance %s: %w", rec.ID, err)
	}
	return nil
}

// ListRange returns entries with from <= date <= to ordered by date. An empty
// clientID matches every client.
func (r *AttendanceRepository) ListRange(ctx context.Context, from, to time.Time, clientID string) ([]models.AttendanceEntry, error) {
	q := recordstore.Query{
		Conditions: []recordstore.Condition{
			recordstore.Where("date", recordstore.OpGte, models.Day(from)),
			recordstore.Where("date", recordstore.OpLte, models.Day(to)),
		},
		OrderBy: "date",
	}
	if clientID != "" {
		q.Conditions = append(q.Conditions, recordstore.Where("clientId", recordstore.OpEq, clientID))
	}
	var records []attendanceRecord
	if err := r.store.Query(ctx, CollectionAttendance, q, &records); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	entries := make([]models.AttendanceEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, rec.toModel())
	}
	return entries, nil
}
