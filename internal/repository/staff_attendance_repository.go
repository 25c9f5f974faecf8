package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/care-billing-api/internal/models"
	"github.com/noah-isme/care-billing-api/pkg/recordstore"
)

// CollectionStaffAttendance stores one check-in per staff member per day.
const CollectionStaffAttendance = "staff_attendance"

// StaffAttendanceRepository persists staff check-ins.
type StaffAttendanceRepository struct {
	store recordstore.Store
}

// NewStaffAttendanceRepository constructs the repository.
func NewStaffAttendanceRepository(store recordstore.Store) *StaffAttendanceRepository {
	return &StaffAttendanceRepository{store: store}
}

// Create records a check-in; recordstore.ErrConflict when the day is taken.
func (r *StaffAttendanceRepository) Create(ctx context.Context, entry models.StaffAttendanceEntry) error {
	id := entry.StaffID + "_" + models.DayKey(entry.Date)
	if err := r.store.Create(ctx, CollectionStaffAttendance, id, models.DayKey(entry.Date), entry); err != nil {
		return fmt.Errorf("create staff attendance %s: %w", id, err)
	}
	return nil
}

// ListRange returns check-ins with from <= date <= to ordered by date.
func (r *StaffAttendanceRepository) ListRange(ctx context.Context, from, to time.Time) ([]models.StaffAttendanceEntry, error) {
	q := recordstore.Query{
		Conditions: []recordstore.Condition{
			recordstore.Where("date", recordstore.OpGte, models.Day(from)),
			recordstore.Where("date", recordstore.OpLte, models.Day(to)),
		},
		OrderBy: "date",
	}
	var entries []models.StaffAttendanceEntry
	if err := r.store.Query(ctx, CollectionStaffAttendance, q, &entries); err != nil {
		return nil, fmt.Errorf("list staff attendance: %w", err)
	}
	return entries, nil
}
