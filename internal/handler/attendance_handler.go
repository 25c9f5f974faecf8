package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/care-billing-api/internal/dto"
	"github.com/noah-isme/care-billing-api/internal/models"
	"github.com/noah-isme/care-billing-api/internal/service"
	appErrors "github.com/noah-isme/care-billing-api/pkg/errors"
	"github.com/noah-isme/care-billing-api/pkg/response"
)

type attendanceService interface {
	Upsert(ctx context.Context, clientID string, date time.Time, patch models.AttendancePatch, claims *models.JWTClaims) (*models.AttendanceEntry, error)
	Get(ctx context.Context, clientID string, date time.Time) (*models.AttendanceEntry, error)
	ListRange(ctx context.Context, req service.AttendanceRangeRequest) ([]models.AttendanceEntry, error)
	SettleCashOwed(ctx context.Context, clientID string, date time.Time, paidDate *time.Time, claims *models.JWTClaims) (*models.AttendanceEntry, error)
}

// AttendanceHandler exposes the attendance register.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Upsert godoc
// @Summary Record attendance for a client on a day
// @Description Fields omitted from the payload keep their stored value; null clears a field
// @Tags Attendance
// @Accept json
// @Produce json
// @Param clientId path string true "Client ID"
// @Param date path string true "Day (YYYY-MM-DD)"
// @Param payload body models.AttendancePatch true "Attendance patch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/{clientId}/{date} [put]
func (h *AttendanceHandler) Upsert(c *gin.Context) {
	date, err := parseDateParam(c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var patch models.AttendancePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	entry, err := h.service.Upsert(c.Request.Context(), c.Param("clientId"), date, patch, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewAttendanceResponse(*entry))
}

// Get godoc
// @Summary Get attendance for a client on a day
// @Tags Attendance
// @Produce json
// @Param clientId path string true "Client ID"
// @Param date path string true "Day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/{clientId}/{date} [get]
func (h *AttendanceHandler) Get(c *gin.Context) {
	date, err := parseDateParam(c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	entry, err := h.service.Get(c.Request.Context(), c.Param("clientId"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewAttendanceResponse(*entry))
}

// List godoc
// @Summary List attendance in a date range
// @Tags Attendance
// @Produce json
// @Param from query string true "First day (YYYY-MM-DD)"
// @Param to query string true "Last day (YYYY-MM-DD)"
// @Param clientId query string false "Client ID"
// @Param status query string false "present, late-cancellation or absent"
// @Param paymentType query string false "cash or invoice"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	from, err := parseDateParam(c.Query("from"))
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := parseDateParam(c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.service.ListRange(c.Request.Context(), service.AttendanceRangeRequest{
		From:        from,
		To:          to,
		ClientID:    c.Query("clientId"),
		Status:      c.Query("status"),
		PaymentType: c.Query("paymentType"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	items := make([]dto.AttendanceResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewAttendanceResponse(entry))
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}

// SettleCash godoc
// @Summary Mark outstanding cash for a session as paid
// @Tags Attendance
// @Accept json
// @Produce json
// @Param clientId path string true "Client ID"
// @Param date path string true "Day (YYYY-MM-DD)"
// @Param payload body dto.SettleCashRequest false "Settlement payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/{clientId}/{date}/settle-cash [post]
func (h *AttendanceHandler) SettleCash(c *gin.Context) {
	date, err := parseDateParam(c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SettleCashRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settlement payload"))
			return
		}
	}
	paidDate, err := parseOptionalDate(req.PaidDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	entry, err := h.service.SettleCashOwed(c.Request.Context(), c.Param("clientId"), date, paidDate, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewAttendanceResponse(*entry))
}
