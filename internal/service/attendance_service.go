package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/care-billing-api/internal/models"
	appErrors "github.com/noah-isme/care-billing-api/pkg/errors"
	"github.com/noah-isme/care-billing-api/pkg/recordstore"
)

const maxAttendanceRangeDays = 366

type attendanceRepository interface {
	Get(ctx context.Context, clientID string, date time.Time) (*models.AttendanceEntry, error)
	Create(ctx context.Context, entry models.AttendanceEntry) error
	Replace(ctx context.Context, entry models.AttendanceEntry) error
	ListRange(ctx context.Context, from, to time.Time, clientID string) ([]models.AttendanceEntry, error)
}

type clientReader interface {
	GetClient(ctx context.Context, id string) (*models.ClientBillingProfile, error)
}

// AttendanceService is the attendance register: one entry per client per day.
type AttendanceService struct {
	repo      attendanceRepository
	clients   clientReader
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, clients clientReader, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{repo: repo, clients: clients, validator: validate, logger: logger, now: time.Now}
	svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})
	svc.validator.RegisterValidation("payment_type", func(fl validator.FieldLevel) bool {
		return models.PaymentType(fl.Field().String()).Valid()
	})
	return svc
}

// AttendanceRangeRequest filters the register by inclusive date range.
type AttendanceRangeRequest struct {
	From        time.Time `validate:"required"`
	To          time.Time `validate:"required,gtefield=From"`
	ClientID    string
	Status      string `validate:"omitempty,attendance_status"`
	PaymentType string `validate:"omitempty,payment_type"`
}

// Upsert applies patch to the entry of clientID on date, creating it when it
// does not exist yet. Concurrent first writes resolve to a single entry.
func (s *AttendanceService) Upsert(ctx context.Context, clientID string, date time.Time, patch models.AttendancePatch, claims *models.JWTClaims) (*models.AttendanceEntry, error) {
	if clientID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "clientId is required")
	}
	date = models.Day(date)

	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}

	entry, err := s.write(ctx, client, date, patch, claims.Actor())
	if errors.Is(err, recordstore.ErrConflict) {
		// another writer created the entry first; overlay on theirs
		entry, err = s.write(ctx, client, date, patch, claims.Actor())
	}
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}

	s.logger.Debug("attendance saved",
		zap.String("client_id", clientID),
		zap.String("date", models.DayKey(date)),
		zap.String("status", string(entry.Status)),
	)
	return entry, nil
}

func (s *AttendanceService) write(ctx context.Context, client *models.ClientBillingProfile, date time.Time, patch models.AttendancePatch, actor string) (*models.AttendanceEntry, error) {
	existing, err := s.repo.Get(ctx, client.ID, date)
	if err != nil {
		if !errors.Is(err, recordstore.ErrNotFound) {
			return nil, err
		}
		existing = nil
	}

	next, err := models.ApplyAttendancePatch(existing, client.ID, date, patch)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if next.InvoiceCode == "" && patch.InvoiceCode.IsUnset() {
		next.InvoiceCode = models.InvoiceCode(client.FirstName, client.Surname, models.PeriodOf(date))
	}

	now := s.now().UTC()
	next.UpdatedAt = now
	next.UpdatedBy = actor
	if existing == nil {
		next.CreatedAt = now
		if err := s.repo.Create(ctx, next); err != nil {
			return nil, err
		}
		return &next, nil
	}
	if err := s.repo.Replace(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

// Get returns the entry of a client on a day.
func (s *AttendanceService) Get(ctx context.Context, clientID string, date time.Time) (*models.AttendanceEntry, error) {
	entry, err := s.repo.Get(ctx, clientID, models.Day(date))
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return entry, nil
}

// ListRange returns register entries in date order.
func (s *AttendanceService) ListRange(ctx context.Context, req AttendanceRangeRequest) ([]models.AttendanceEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance range")
	}
	if models.Day(req.To).Sub(models.Day(req.From)) > maxAttendanceRangeDays*24*time.Hour {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attendance range must not exceed one year")
	}

	entries, err := s.repo.ListRange(ctx, req.From, req.To, req.ClientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	if req.Status == "" && req.PaymentType == "" {
		return entries, nil
	}
	filtered := entries[:0]
	for _, entry := range entries {
		if req.Status != "" && string(entry.Status) != req.Status {
			continue
		}
		if req.PaymentType != "" && string(entry.PaymentType) != req.PaymentType {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered, nil
}

// SettleCashOwed records that the outstanding cash of a session was paid.
// A nil paidDate means today.
func (s *AttendanceService) SettleCashOwed(ctx context.Context, clientID string, date time.Time, paidDate *time.Time, claims *models.JWTClaims) (*models.AttendanceEntry, error) {
	entry, err := s.Get(ctx, clientID, date)
	if err != nil {
		return nil, err
	}
	if entry.CashOwed == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no cash is owed for this session")
	}

	now := s.now().UTC()
	paid := models.Day(now)
	if paidDate != nil {
		paid = models.Day(*paidDate)
	}
	actor := claims.Actor()
	entry.CashOwedPaidDate = &paid
	entry.CashOwedPaidBy = &actor
	entry.UpdatedAt = now
	entry.UpdatedBy = actor

	if err := s.repo.Replace(ctx, *entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to settle cash owed")
	}
	s.logger.Info("cash owed settled",
		zap.String("client_id", clientID),
		zap.String("date", models.DayKey(entry.Date)),
		zap.String("paid_by", actor),
	)
	return entry, nil
}
