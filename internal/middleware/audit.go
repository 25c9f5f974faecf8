package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/care-billing-api/internal/models"
	"github.com/noah-isme/care-billing-api/pkg/middleware/requestid"
)

// AuditRecorder stores audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditEntry) error
}

// Audit creates a middleware that records audit entries after successful
// requests. The resource id is built from the named path parameters.
func Audit(recorder AuditRecorder, logger *zap.Logger, action, resource string, idParams ...string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		entry := models.AuditEntry{
			Action:    action,
			Resource:  resource,
			Method:    c.Request.Method,
			Path:      c.FullPath(),
			Status:    c.Writer.Status(),
			LatencyMs: time.Since(start).Milliseconds(),
			RequestID: requestid.Value(c),
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
			CreatedAt: start,
		}
		if value, ok := c.Get(ContextUserKey); ok {
			if claims, ok := value.(*models.JWTClaims); ok {
				entry.ActorID = claims.Actor()
				entry.Role = claims.Role
			}
		}
		if len(idParams) > 0 {
			parts := make([]string, 0, len(idParams))
			for _, name := range idParams {
				parts = append(parts, c.Param(name))
			}
			entry.ResourceID = strings.Join(parts, "/")
		}

		// The response is already written; a failed audit write must not change it.
		if err := recorder.Record(c.Request.Context(), entry); err != nil {
			logger.Error("failed to record audit entry",
				zap.String("action", action),
				zap.String("resource_id", entry.ResourceID),
				zap.Error(err),
			)
		}
	}
}
