package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/care-billing-api/internal/dto"
	"github.com/noah-isme/care-billing-api/internal/models"
	appErrors "github.com/noah-isme/care-billing-api/pkg/errors"
	"github.com/noah-isme/care-billing-api/pkg/lock"
	"github.com/noah-isme/care-billing-api/pkg/response"
)

type invoiceService interface {
	Generate(ctx context.Context, req dto.GenerateInvoicesRequest, claims *models.JWTClaims) (*dto.GenerationResult, error)
	List(ctx context.Context, period models.Period) ([]models.Invoice, error)
	Get(ctx context.Context, clientID string, period models.Period) (*models.Invoice, error)
	UpdateStatus(ctx context.Context, clientID string, period models.Period, req dto.UpdateInvoiceStatusRequest, claims *models.JWTClaims) (*models.Invoice, error)
	RenderPDF(ctx context.Context, clientID string, period models.Period) ([]byte, string, error)
}

// InvoiceHandler exposes invoice generation and lifecycle endpoints.
type InvoiceHandler struct {
	service invoiceService
	locker  lock.Locker
	lockTTL time.Duration
	logger  *zap.Logger
}

// NewInvoiceHandler constructs the handler. Generation runs for the same
// period are serialised through locker.
func NewInvoiceHandler(svc invoiceService, locker lock.Locker, lockTTL time.Duration, logger *zap.Logger) *InvoiceHandler {
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceHandler{service: svc, locker: locker, lockTTL: lockTTL, logger: logger}
}

func generationLockKey(year, month int) string {
	return fmt.Sprintf("billing:generate:%04d-%02d", year, month)
}

// Generate godoc
// @Summary Generate monthly invoices
// @Description Creates one invoice per active client with billable attendance in the month
// @Tags Billing
// @Accept json
// @Produce json
// @Param payload body dto.GenerateInvoicesRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /billing/invoices/generate [post]
func (h *InvoiceHandler) Generate(c *gin.Context) {
	var req dto.GenerateInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}

	if _, err := models.NewPeriod(req.Year, req.Month); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	ctx := c.Request.Context()
	key := generationLockKey(req.Year, req.Month)
	release, err := h.locker.Acquire(ctx, key, h.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			response.Error(c, appErrors.ErrGenerationInProgress)
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire generation lock"))
		return
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			h.logger.Warn("failed to release generation lock", zap.String("key", key), zap.Error(err))
		}
	}()

	result, err := h.service.Generate(ctx, req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{
		"created":  result.Created,
		"reused":   result.Reused,
		"failures": len(result.Failures),
	})
}

// List godoc
// @Summary List invoices of a month
// @Tags Billing
// @Produce json
// @Param period query string true "Billing period (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /billing/invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	period, err := parsePeriodParam(c.Query("period"))
	if err != nil {
		response.Error(c, err)
		return
	}
	invoices, err := h.service.List(c.Request.Context(), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoices, map[string]interface{}{"count": len(invoices)})
}

// Get godoc
// @Summary Get a client's invoice for a month
// @Tags Billing
// @Produce json
// @Param clientId path string true "Client ID"
// @Param period path string true "Billing period (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /billing/invoices/{clientId}/{period} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	period, err := parsePeriodParam(c.Param("period"))
	if err != nil {
		response.Error(c, err)
		return
	}
	invoice, err := h.service.Get(c.Request.Context(), c.Param("clientId"), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoice)
}

// UpdateStatus godoc
// @Summary Move an invoice along its lifecycle
// @Tags Billing
// @Accept json
// @Produce json
// @Param clientId path string true "Client ID"
// @Param period path string true "Billing period (YYYY-MM)"
// @Param payload body dto.UpdateInvoiceStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /billing/invoices/{clientId}/{period}/status [patch]
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	period, err := parsePeriodParam(c.Param("period"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	invoice, err := h.service.UpdateStatus(c.Request.Context(), c.Param("clientId"), period, req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoice)
}

// PDF godoc
// @Summary Download an invoice as PDF
// @Tags Billing
// @Produce application/pdf
// @Param clientId path string true "Client ID"
// @Param period path string true "Billing period (YYYY-MM)"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /billing/invoices/{clientId}/{period}/pdf [get]
func (h *InvoiceHandler) PDF(c *gin.Context) {
	period, err := parsePeriodParam(c.Param("period"))
	if err != nil {
		response.Error(c, err)
		return
	}
	content, filename, err := h.service.RenderPDF(c.Request.Context(), c.Param("clientId"), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, "application/pdf", filename, content)
}
