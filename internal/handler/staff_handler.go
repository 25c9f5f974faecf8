package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/care-billing-api/internal/dto"
	"github.com/noah-isme/care-billing-api/internal/models"
	"github.com/noah-isme/care-billing-api/internal/service"
	appErrors "github.com/noah-isme/care-billing-api/pkg/errors"
	"github.com/noah-isme/care-billing-api/pkg/response"
)

type staffService interface {
	Reconcile(ctx context.Context, year, month int) ([]models.StaffReconciliation, error)
	CheckIn(ctx context.Context, staffID string, date *time.Time, claims *models.JWTClaims) (*models.StaffAttendanceEntry, error)
	Export(ctx context.Context, year, month int, format string) ([]byte, string, error)
}

var exportContentTypes = map[string]string{
	service.FormatCSV: "text/csv",
	service.FormatPDF: "application/pdf",
}

// StaffHandler exposes staff check-in and payroll reconciliation.
type StaffHandler struct {
	service staffService
}

// NewStaffHandler constructs the handler.
func NewStaffHandler(svc staffService) *StaffHandler {
	return &StaffHandler{service: svc}
}

// CheckIn godoc
// @Summary Record a worked day for a staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Param staffId path string true "Staff ID"
// @Param payload body dto.StaffCheckInRequest false "Check-in payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /staff/{staffId}/check-in [post]
func (h *StaffHandler) CheckIn(c *gin.Context) {
	var req dto.StaffCheckInRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid check-in payload"))
			return
		}
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	entry, err := h.service.CheckIn(c.Request.Context(), c.Param("staffId"), date, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Reconciliation godoc
// @Summary Staff payroll reconciliation for a month
// @Description Returns JSON by default, or a CSV or PDF download when format is set
// @Tags Staff
// @Produce json
// @Param period query string true "Billing period (YYYY-MM)"
// @Param format query string false "json, csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /staff/reconciliation [get]
func (h *StaffHandler) Reconciliation(c *gin.Context) {
	period, err := parsePeriodParam(c.Query("period"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ctx := c.Request.Context()
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format == "json" {
		rows, err := h.service.Reconcile(ctx, period.Year, int(period.Month))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, rows, map[string]interface{}{"period": period.Key(), "count": len(rows)})
		return
	}

	contentType, ok := exportContentTypes[format]
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be json, csv or pdf"))
		return
	}
	content, filename, err := h.service.Export(ctx, period.Year, int(period.Month), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, contentType, filename, content)
}
