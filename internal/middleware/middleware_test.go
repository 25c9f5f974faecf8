package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/care-billing-api/internal/models"
	appErrors "github.com/noah-isme/care-billing-api/pkg/errors"
)

type validatorStub map[string]*models.JWTClaims

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newProtectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := validatorStub{
		"admin": {UserID: "u-admin", Role: models.RoleAdmin},
		"staff": {UserID: "s-1", Role: models.RoleStaff},
	}
	router := gin.New()
	group := router.Group("/", JWT(tokens))
	group.POST("/billing", RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	group.POST("/staff/:staffId/check-in", RequireRolesOrSelf("staffId", models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func call(router *gin.Engine, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestJWTAndRBAC(t *testing.T) {
	router := newProtectedRouter()

	assert.Equal(t, http.StatusUnauthorized, call(router, http.MethodPost, "/billing", ""))
	assert.Equal(t, http.StatusUnauthorized, call(router, http.MethodPost, "/billing", "bogus"))
	assert.Equal(t, http.StatusOK, call(router, http.MethodPost, "/billing", "admin"))
	assert.Equal(t, http.StatusForbidden, call(router, http.MethodPost, "/billing", "staff"))

	assert.Equal(t, http.StatusOK, call(router, http.MethodPost, "/staff/s-1/check-in", "staff"))
	assert.Equal(t, http.StatusForbidden, call(router, http.MethodPost, "/staff/s-2/check-in", "staff"))
	assert.Equal(t, http.StatusOK, call(router, http.MethodPost, "/staff/s-2/check-in", "admin"))
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	router := newProtectedRouter()
	req := httptest.NewRequest(http.MethodPost, "/billing", nil)
	req.Header.Set("Authorization", "Token admin")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type observerStub struct {
	mu    sync.Mutex
	paths []string
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paths = append(o.paths, method+" "+path)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &observerStub{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/invoices/:clientId", func(c *gin.Context) { c.Status(http.StatusOK) })

	call(router, http.MethodGet, "/invoices/c-1", "")
	call(router, http.MethodGet, "/nope", "")

	assert.Equal(t, []string{"GET /invoices/:clientId", "GET unmatched"}, observer.paths)
}

type auditRecorderStub struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (r *auditRecorderStub) Record(ctx context.Context, entry models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func TestAuditRecordsSuccessfulMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &auditRecorderStub{}
	tokens := validatorStub{"admin": {UserID: "u-admin", Role: models.RoleAdmin}}
	router := gin.New()
	group := router.Group("/", JWT(tokens))
	group.PATCH("/invoices/:clientId/:period/status",
		Audit(recorder, nil, models.AuditActionInvoiceStatus, "invoice", "clientId", "period"),
		func(c *gin.Context) {
			if c.Param("clientId") == "missing" {
				c.Status(http.StatusNotFound)
				return
			}
			c.Status(http.StatusOK)
		})

	assert.Equal(t, http.StatusOK, call(router, http.MethodPatch, "/invoices/c-1/2025-03/status", "admin"))
	assert.Equal(t, http.StatusNotFound, call(router, http.MethodPatch, "/invoices/missing/2025-03/status", "admin"))

	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, "c-1/2025-03", entry.ResourceID)
	assert.Equal(t, "u-admin", entry.ActorID)
	assert.Equal(t, models.RoleAdmin, entry.Role)
	assert.Equal(t, "/invoices/:clientId/:period/status", entry.Path)
}
