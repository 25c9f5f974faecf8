package main

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/care-billing-api/internal/handler"
	internalmiddleware "github.com/noah-isme/care-billing-api/internal/middleware"
	"github.com/noah-isme/care-billing-api/internal/models"
)

type routeDeps struct {
	auth       internalmiddleware.TokenValidator
	recorder   internalmiddleware.AuditRecorder
	logger     *zap.Logger
	metrics    *handler.MetricsHandler
	invoices   *handler.InvoiceHandler
	attendance *handler.AttendanceHandler
	staff      *handler.StaffHandler
	audit      *handler.AuditHandler
}

var (
	billingRoles = []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager}
	allRoles     = []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager, models.RoleStaff}
	auditRoles   = []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin}
)

func registerRoutes(r *gin.Engine, prefix string, deps routeDeps) {
	r.GET("/health", deps.metrics.Health)
	r.GET("/ready", deps.metrics.Ready)
	r.GET("/metrics", deps.metrics.Prometheus)

	audit := func(action, resource string, params ...string) gin.HandlerFunc {
		return internalmiddleware.Audit(deps.recorder, deps.logger, action, resource, params...)
	}

	api := r.Group(prefix, internalmiddleware.JWT(deps.auth))

	billing := api.Group("/billing/invoices", internalmiddleware.RequireRoles(billingRoles...))
	billing.POST("/generate", audit(models.AuditActionInvoicesGenerate, "invoice"), deps.invoices.Generate)
	billing.GET("", deps.invoices.List)
	billing.GET("/:clientId/:period", deps.invoices.Get)
	billing.PATCH("/:clientId/:period/status", audit(models.AuditActionInvoiceStatus, "invoice", "clientId", "period"), deps.invoices.UpdateStatus)
	billing.GET("/:clientId/:period/pdf", deps.invoices.PDF)

	attendance := api.Group("/attendance")
	attendance.GET("", internalmiddleware.RequireRoles(allRoles...), deps.attendance.List)
	attendance.GET("/:clientId/:date", internalmiddleware.RequireRoles(allRoles...), deps.attendance.Get)
	attendance.PUT("/:clientId/:date", internalmiddleware.RequireRoles(allRoles...),
		audit(models.AuditActionAttendanceUpsert, "attendance", "clientId", "date"), deps.attendance.Upsert)
	attendance.POST("/:clientId/:date/settle-cash", internalmiddleware.RequireRoles(billingRoles...),
		audit(models.AuditActionCashSettled, "attendance", "clientId", "date"), deps.attendance.SettleCash)

	staff := api.Group("/staff")
	staff.GET("/reconciliation", internalmiddleware.RequireRoles(billingRoles...), deps.staff.Reconciliation)
	staff.POST("/:staffId/check-in", internalmiddleware.RequireRolesOrSelf("staffId", billingRoles...),
		audit(models.AuditActionStaffCheckIn, "staff_attendance", "staffId"), deps.staff.CheckIn)

	api.GET("/audit", internalmiddleware.RequireRoles(auditRoles...), deps.audit.List)
}
