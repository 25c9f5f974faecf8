package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/care-billing-api/internal/dto"
	"github.com/noah-isme/care-billing-api/internal/models"
	appErrors "github.com/noah-isme/care-billing-api/pkg/errors"
	"github.com/noah-isme/care-billing-api/pkg/export"
	"github.com/noah-isme/care-billing-api/pkg/recordstore"
)

const (
	defaultDueDays     = 14
	displayDateLayout  = "02 Jan 2006"
	displayMonthLayout = "January 2006"
)

type invoiceRepository interface {
	Get(ctx context.Context, clientID string, period models.Period) (*models.Invoice, error)
	Create(ctx context.Context, invoice models.Invoice) error
	Replace(ctx context.Context, invoice models.Invoice) error
	Delete(ctx context.Context, clientID string, period models.Period) error
	ListByPeriod(ctx context.Context, period models.Period) ([]models.Invoice, error)
}

type activeClientLister interface {
	ActiveClients(ctx context.Context) ([]models.ClientBillingProfile, error)
}

type attendanceRangeReader interface {
	ListRange(ctx context.Context, from, to time.Time, clientID string) ([]models.AttendanceEntry, error)
}

type numberAllocator interface {
	Allocate(ctx context.Context, period models.Period, firstName, surname, clientID string) (string, error)
	Release(ctx context.Context, number string) error
}

type invoiceRenderer interface {
	RenderInvoice(doc export.InvoiceDocument) ([]byte, error)
}

// InvoiceServiceConfig tunes generation.
type InvoiceServiceConfig struct {
	DueDays     int
	Concurrency int
}

// InvoiceService generates monthly invoices and manages their lifecycle.
type InvoiceService struct {
	invoices    invoiceRepository
	clients     activeClientLister
	attendance  attendanceRangeReader
	numbers     numberAllocator
	renderer    invoiceRenderer
	observer    billingObserver
	dueDays     int
	concurrency int
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewInvoiceService constructs the invoice service.
func NewInvoiceService(
	invoices invoiceRepository,
	clients activeClientLister,
	attendance attendanceRangeReader,
	numbers numberAllocator,
	renderer invoiceRenderer,
	observer billingObserver,
	cfg InvoiceServiceConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *InvoiceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	if renderer == nil {
		renderer = export.NewPDFExporter()
	}
	if cfg.DueDays <= 0 {
		cfg.DueDays = defaultDueDays
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	svc := &InvoiceService{
		invoices:    invoices,
		clients:     clients,
		attendance:  attendance,
		numbers:     numbers,
		renderer:    renderer,
		observer:    observer,
		dueDays:     cfg.DueDays,
		concurrency: cfg.Concurrency,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
	svc.validator.RegisterValidation("invoice_status", func(fl validator.FieldLevel) bool {
		return models.InvoiceStatus(fl.Field().String()).Valid()
	})
	return svc
}

type clientOutcome struct {
	invoice *models.Invoice
	outcome string
	failure *dto.GenerationFailure
}

// Generate produces one invoice per active client with billable attendance in
// the month. Without Regenerate an existing invoice is returned unchanged;
// with Regenerate every invoice of the period is deleted first, whatever its
// status. A failure for one client is reported and does not stop the others.
func (s *InvoiceService) Generate(ctx context.Context, req dto.GenerateInvoicesRequest, claims *models.JWTClaims) (*dto.GenerationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}
	period, err := models.NewPeriod(req.Year, req.Month)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	startedAt := s.now().UTC()
	result := &dto.GenerationResult{
		RunID:     uuid.NewString(),
		Period:    period.Key(),
		Invoices:  []models.Invoice{},
		Failures:  []dto.GenerationFailure{},
		StartedAt: startedAt,
	}
	logger := s.logger.With(zap.String("run_id", result.RunID), zap.String("period", period.Key()))
	defer func() {
		s.observer.ObserveGeneration(s.now().Sub(startedAt), req.Regenerate)
	}()

	clients, err := s.clients.ActiveClients(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load clients")
	}
	entries, err := s.attendance.ListRange(ctx, period.Start(), period.End(), "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	groups := AggregateBillable(entries, period)

	if req.Regenerate {
		deleted, err := s.deletePeriod(ctx, period, logger)
		if err != nil {
			return nil, err
		}
		result.Deleted = deleted
		logger.Warn("regenerating period, existing invoices deleted", zap.Int("count", deleted))
	}

	work := make([]models.ClientBillingProfile, 0, len(clients))
	active := make(map[string]struct{}, len(clients))
	for _, client := range clients {
		active[client.ID] = struct{}{}
		if len(groups.ByClient[client.ID]) > 0 {
			work = append(work, client)
		}
	}
	for _, clientID := range groups.Order {
		if _, ok := active[clientID]; !ok {
			logger.Info("skipping billable attendance of inactive client", zap.String("client_id", clientID))
		}
	}

	today := models.Day(startedAt)
	actor := claims.Actor()
	outcomes := make([]clientOutcome, len(work))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range work {
		i := i
		g.Go(func() error {
			outcomes[i] = s.generateForClient(ctx, work[i], groups.ByClient[work[i].ID], period, today, actor, req.Regenerate, logger)
			return nil
		})
	}
	_ = g.Wait()

	for _, outcome := range outcomes {
		s.observer.RecordInvoiceOutcome(outcome.outcome)
		switch outcome.outcome {
		case outcomeFailed:
			result.Failures = append(result.Failures, *outcome.failure)
		case outcomeCreated:
			result.Created++
			result.Invoices = append(result.Invoices, *outcome.invoice)
		case outcomeReused:
			result.Reused++
			result.Invoices = append(result.Invoices, *outcome.invoice)
		}
	}

	logger.Info("invoice generation finished",
		zap.Int("created", result.Created),
		zap.Int("reused", result.Reused),
		zap.Int("failed", len(result.Failures)),
		zap.Duration("elapsed", s.now().Sub(startedAt)),
	)
	return result, nil
}

func (s *InvoiceService) deletePeriod(ctx context.Context, period models.Period, logger *zap.Logger) (int, error) {
	existing, err := s.invoices.ListByPeriod(ctx, period)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invoices for regeneration")
	}
	deleted := 0
	for _, invoice := range existing {
		if err := s.invoices.Delete(ctx, invoice.ClientID, period); err != nil {
			if errors.Is(err, recordstore.ErrNotFound) {
				continue
			}
			return deleted, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete invoice for regeneration")
		}
		deleted++
		if err := s.numbers.Release(ctx, invoice.InvoiceNumber); err != nil {
			logger.Warn("failed to release invoice number", zap.String("invoice_number", invoice.InvoiceNumber), zap.Error(err))
		}
	}
	return deleted, nil
}

func (s *InvoiceService) generateForClient(
	ctx context.Context,
	client models.ClientBillingProfile,
	entries []models.AttendanceEntry,
	period models.Period,
	today time.Time,
	actor string,
	regenerate bool,
	logger *zap.Logger,
) clientOutcome {
	fail := func(err error) clientOutcome {
		appErr := appErrors.FromError(err)
		logger.Warn("invoice generation failed for client",
			zap.String("client_id", client.ID),
			zap.String("code", appErr.Code),
			zap.Error(err),
		)
		return clientOutcome{
			outcome: outcomeFailed,
			failure: &dto.GenerationFailure{
				ClientID:   client.ID,
				ClientName: client.FullName(),
				Code:       appErr.Code,
				Message:    appErr.Error(),
			},
		}
	}

	if !regenerate {
		existing, err := s.invoices.Get(ctx, client.ID, period)
		if err == nil {
			return clientOutcome{invoice: existing, outcome: outcomeReused}
		}
		if !errors.Is(err, recordstore.ErrNotFound) {
			return fail(appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing invoice"))
		}
	}

	number, err := s.numbers.Allocate(ctx, period, client.FirstName, client.Surname, client.ID)
	if err != nil {
		return fail(err)
	}

	invoice := BuildInvoice(client, number, entries, period, today, s.dueDays, actor)
	invoice.CreatedAt = s.now().UTC()
	invoice.UpdatedAt = invoice.CreatedAt

	if err := s.invoices.Create(ctx, invoice); err != nil {
		if releaseErr := s.numbers.Release(ctx, number); releaseErr != nil {
			logger.Warn("failed to release invoice number", zap.String("invoice_number", number), zap.Error(releaseErr))
		}
		if !errors.Is(err, recordstore.ErrConflict) {
			return fail(appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store invoice"))
		}
		existing, getErr := s.invoices.Get(ctx, client.ID, period)
		if getErr != nil {
			return fail(appErrors.Wrap(getErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load concurrently created invoice"))
		}
		return clientOutcome{invoice: existing, outcome: outcomeReused}
	}

	logger.Debug("invoice created",
		zap.String("client_id", client.ID),
		zap.String("invoice_number", number),
		zap.String("total", invoice.Total.StringFixed(2)),
	)
	return clientOutcome{invoice: &invoice, outcome: outcomeCreated}
}

// BuildInvoice assembles a draft invoice from a client's billable entries.
// Amounts are the stored session payments, not the client's current rate.
func BuildInvoice(client models.ClientBillingProfile, number string, entries []models.AttendanceEntry, period models.Period, today time.Time, dueDays int, actor string) models.Invoice {
	identity := ResolveBillingIdentity(client)
	lines := make([]models.InvoiceLineItem, 0, len(entries))
	total := decimal.Zero
	for _, entry := range entries {
		line := models.InvoiceLineItem{
			Date:   models.Day(entry.Date),
			Amount: entry.Payment,
			Kind:   models.LineItemAttendance,
		}
		if entry.Status == models.AttendanceStatusLateCancellation {
			line.Kind = models.LineItemLateCancellation
			line.Description = "Late cancellation fee – " + entry.Date.Format(displayDateLayout)
		} else {
			line.Description = "Attendance – " + entry.Date.Format(displayDateLayout)
		}
		total = total.Add(entry.Payment)
		lines = append(lines, line)
	}

	today = models.Day(today)
	return models.Invoice{
		InvoiceNumber:  number,
		ClientID:       client.ID,
		ClientName:     client.FullName(),
		PeriodStart:    period.Start(),
		PeriodEnd:      period.End(),
		InvoiceDate:    today,
		DueDate:        today.AddDate(0, 0, dueDays),
		LineItems:      lines,
		Subtotal:       total,
		Total:          total,
		Status:         models.InvoiceStatusDraft,
		BillingAddress: identity.Address,
		BillingEmail:   identity.Email,
		CreatedBy:      actor,
	}
}

// List returns the invoices of a period.
func (s *InvoiceService) List(ctx context.Context, period models.Period) ([]models.Invoice, error) {
	invoices, err := s.invoices.ListByPeriod(ctx, period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invoices")
	}
	return invoices, nil
}

// Get returns the invoice of a client for a period.
func (s *InvoiceService) Get(ctx context.Context, clientID string, period models.Period) (*models.Invoice, error) {
	invoice, err := s.invoices.Get(ctx, clientID, period)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}
	return invoice, nil
}

// UpdateStatus moves an invoice to a new status. Setting the current status
// again is a no-op.
func (s *InvoiceService) UpdateStatus(ctx context.Context, clientID string, period models.Period, req dto.UpdateInvoiceStatusRequest, claims *models.JWTClaims) (*models.Invoice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	invoice, err := s.Get(ctx, clientID, period)
	if err != nil {
		return nil, err
	}
	if invoice.Status == req.Status {
		return invoice, nil
	}
	if !invoice.Status.CanTransitionTo(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatusTransition,
			fmt.Sprintf("cannot move invoice from %s to %s", invoice.Status, req.Status))
	}

	now := s.now().UTC()
	if req.Status == models.InvoiceStatusPaid {
		paid := models.Day(now)
		if req.PaidDate != nil && *req.PaidDate != "" {
			parsed, err := models.ParseDay(*req.PaidDate)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
			}
			paid = parsed
		}
		invoice.PaidDate = &paid
	}
	previous := invoice.Status
	invoice.Status = req.Status
	invoice.UpdatedAt = now

	if err := s.invoices.Replace(ctx, *invoice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update invoice status")
	}
	s.logger.Info("invoice status updated",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("from", string(previous)),
		zap.String("to", string(invoice.Status)),
		zap.String("by", claims.Actor()),
	)
	return invoice, nil
}

// RenderPDF returns the printable invoice and a file name for it.
func (s *InvoiceService) RenderPDF(ctx context.Context, clientID string, period models.Period) ([]byte, string, error) {
	invoice, err := s.Get(ctx, clientID, period)
	if err != nil {
		return nil, "", err
	}
	doc := export.InvoiceDocument{
		Number:         invoice.InvoiceNumber,
		Status:         string(invoice.Status),
		ClientName:     invoice.ClientName,
		BillingAddress: invoice.BillingAddress,
		BillingEmail:   invoice.BillingEmail,
		Period:         invoice.PeriodStart.Format(displayMonthLayout),
		InvoiceDate:    invoice.InvoiceDate.Format(displayDateLayout),
		DueDate:        invoice.DueDate.Format(displayDateLayout),
		Total:          invoice.Total.StringFixed(2),
	}
	for _, line := range invoice.LineItems {
		doc.Lines = append(doc.Lines, export.InvoiceLine{
			Date:        line.Date.Format(displayDateLayout),
			Description: line.Description,
			Amount:      line.Amount.StringFixed(2),
		})
	}
	content, err := s.renderer.RenderInvoice(doc)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render invoice")
	}
	return content, invoice.InvoiceNumber + ".pdf", nil
}
