package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/care-billing-api/internal/models"
	appErrors "github.com/noah-isme/care-billing-api/pkg/errors"
	"github.com/noah-isme/care-billing-api/pkg/response"
)

const maxAuditRangeDays = 31

type auditReader interface {
	ListRange(ctx context.Context, from, to time.Time) ([]models.AuditEntry, error)
}

// AuditHandler exposes the billing audit trail.
type AuditHandler struct {
	audit auditReader
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(audit auditReader) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List godoc
// @Summary List audit entries
// @Tags Audit
// @Produce json
// @Param from query string true "First day (YYYY-MM-DD)"
// @Param to query string true "Last day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
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
	if to.Before(from) || to.Sub(from) > maxAuditRangeDays*24*time.Hour {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "audit range must be ordered and at most 31 days"))
		return
	}
	entries, err := h.audit.ListRange(c.Request.Context(), from, to.Add(24*time.Hour-time.Second))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit entries"))
		return
	}
	response.JSON(c, http.StatusOK, entries, map[string]interface{}{"count": len(entries)})
}
