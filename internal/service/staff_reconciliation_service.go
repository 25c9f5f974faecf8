package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/care-billing-api/internal/models"
	appErrors "github.com/noah-isme/care-billing-api/pkg/errors"
	"github.com/noah-isme/care-billing-api/pkg/export"
	"github.com/noah-isme/care-billing-api/pkg/recordstore"
)

type staffDirectory interface {
	ActiveStaff(ctx context.Context) ([]models.StaffProfile, error)
	GetStaff(ctx context.Context, id string) (*models.StaffProfile, error)
}

type staffAttendanceRepository interface {
	Create(ctx context.Context, entry models.StaffAttendanceEntry) error
	ListRange(ctx context.Context, from, to time.Time) ([]models.StaffAttendanceEntry, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type tableRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// Reconciliation export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// StaffReconciliationService totals staff day rates per month.
type StaffReconciliationService struct {
	staff      staffDirectory
	attendance staffAttendanceRepository
	csv        csvRenderer
	pdf        tableRenderer
	logger     *zap.Logger
	now        func() time.Time
}

// NewStaffReconciliationService constructs the service.
func NewStaffReconciliationService(staff staffDirectory, attendance staffAttendanceRepository, csv csvRenderer, pdf tableRenderer, logger *zap.Logger) *StaffReconciliationService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffReconciliationService{staff: staff, attendance: attendance, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Reconcile returns one row per staff member who worked in the month, sorted
// by name. Entries of staff no longer in the directory are still counted.
func (s *StaffReconciliationService) Reconcile(ctx context.Context, year, month int) ([]models.StaffReconciliation, error) {
	period, err := models.NewPeriod(year, month)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	staff, err := s.staff.ActiveStaff(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}
	entries, err := s.attendance.ListRange(ctx, period.Start(), period.End())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff attendance")
	}

	return ReconcileStaff(staff, entries, period), nil
}

// ReconcileStaff is the pure part of Reconcile.
func ReconcileStaff(staff []models.StaffProfile, entries []models.StaffAttendanceEntry, period models.Period) []models.StaffReconciliation {
	rows := make(map[string]*models.StaffReconciliation, len(staff))
	for _, member := range staff {
		rows[member.ID] = &models.StaffReconciliation{
			StaffID:     member.ID,
			StaffName:   member.FullName(),
			Active:      true,
			TotalAmount: decimal.Zero,
			Entries:     []models.StaffAttendanceEntry{},
		}
	}

	for _, entry := range entries {
		if !period.Contains(entry.Date) {
			continue
		}
		row, ok := rows[entry.StaffID]
		if !ok {
			name := entry.StaffName
			if strings.TrimSpace(name) == "" {
				name = entry.StaffID
			}
			row = &models.StaffReconciliation{
				StaffID:     entry.StaffID,
				StaffName:   name,
				TotalAmount: decimal.Zero,
				Entries:     []models.StaffAttendanceEntry{},
			}
			rows[entry.StaffID] = row
		}
		row.DaysWorked++
		row.TotalAmount = row.TotalAmount.Add(entry.DayRate)
		row.Entries = append(row.Entries, entry)
	}

	result := make([]models.StaffReconciliation, 0, len(rows))
	for _, row := range rows {
		if row.DaysWorked == 0 {
			continue
		}
		sort.SliceStable(row.Entries, func(i, j int) bool {
			return row.Entries[i].Date.Before(row.Entries[j].Date)
		})
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := strings.ToLower(result[i].StaffName), strings.ToLower(result[j].StaffName)
		if a != b {
			return a < b
		}
		return result[i].StaffID < result[j].StaffID
	})
	return result
}

// CheckIn records that a staff member worked on date, snapshotting the
// current day rate. A nil date means today.
func (s *StaffReconciliationService) CheckIn(ctx context.Context, staffID string, date *time.Time, claims *models.JWTClaims) (*models.StaffAttendanceEntry, error) {
	member, err := s.staff.GetStaff(ctx, staffID)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff member")
	}
	if !member.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "staff member is not active")
	}

	now := s.now().UTC()
	day := models.Day(now)
	if date != nil {
		day = models.Day(*date)
	}
	entry := models.StaffAttendanceEntry{
		StaffID:     member.ID,
		StaffName:   member.FullName(),
		Date:        day,
		DayRate:     member.DayRate,
		CheckedInAt: now,
		CheckedInBy: claims.Actor(),
	}
	if err := s.attendance.Create(ctx, entry); err != nil {
		if errors.Is(err, recordstore.ErrConflict) {
			return nil, appErrors.ErrAlreadyCheckedIn
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-in")
	}
	s.logger.Info("staff checked in", zap.String("staff_id", member.ID), zap.String("date", models.DayKey(day)))
	return &entry, nil
}

// Export renders the reconciliation of a month as CSV or PDF and returns the
// content with a file name.
func (s *StaffReconciliationService) Export(ctx context.Context, year, month int, format string) ([]byte, string, error) {
	rows, err := s.Reconcile(ctx, year, month)
	if err != nil {
		return nil, "", err
	}
	period := models.Period{Year: year, Month: time.Month(month)}
	dataset := reconciliationDataset(rows)
	filename := fmt.Sprintf("staff-reconciliation-%s.%s", period.Key(), format)

	var content []byte
	switch format {
	case FormatCSV:
		content, err = s.csv.Render(dataset)
	case FormatPDF:
		content, err = s.pdf.Render(dataset, "Staff reconciliation "+period.Start().Format(displayMonthLayout))
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render reconciliation")
	}
	return content, filename, nil
}

func reconciliationDataset(rows []models.StaffReconciliation) export.Dataset {
	headers := []string{"Staff ID", "Staff", "Days worked", "Total"}
	dataset := export.Dataset{Headers: headers, Rows: make([]map[string]string, 0, len(rows))}
	days := 0
	total := decimal.Zero
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Staff ID":    row.StaffID,
			"Staff":       row.StaffName,
			"Days worked": strconv.Itoa(row.DaysWorked),
			"Total":       row.TotalAmount.StringFixed(2),
		})
		days += row.DaysWorked
		total = total.Add(row.TotalAmount)
	}
	dataset.Footer = map[string]string{
		"Staff":       "Total",
		"Days worked": strconv.Itoa(days),
		"Total":       total.StringFixed(2),
	}
	return dataset
}
