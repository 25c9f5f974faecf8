package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/care-billing-api/internal/middleware"
	"github.com/noah-isme/care-billing-api/internal/models"
	appErrors "github.com/noah-isme/care-billing-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func parsePeriodParam(raw string) (models.Period, error) {
	period, err := models.ParsePeriod(raw)
	if err != nil {
		return models.Period{}, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return period, nil
}

func parseDateParam(raw string) (time.Time, error) {
	day, err := models.ParseDay(raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return day, nil
}

// parseOptionalDate returns nil for an absent or empty value.
func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	day, err := parseDateParam(*raw)
	if err != nil {
		return nil, err
	}
	return &day, nil
}
