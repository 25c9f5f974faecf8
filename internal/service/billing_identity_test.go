package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/care-billing-api/internal/models"
)

func strPtr(s string) *string { return &s }

func TestResolveBillingIdentity(t *testing.T) {
	base := models.ClientBillingProfile{Address: "1 Home St", Email: "home@example.com"}

	tests := []struct {
		name    string
		mutate  func(p *models.ClientBillingProfile)
		address string
		email   string
	}{
		{"defaults", func(p *models.ClientBillingProfile) {}, "1 Home St", "home@example.com"},
		{"separate address", func(p *models.ClientBillingProfile) {
			p.UseSeparateBillingAddress = true
			p.BillingAddress = strPtr("PO Box 9")
		}, "PO Box 9", "home@example.com"},
		{"billing address without opt-in", func(p *models.ClientBillingProfile) {
			p.BillingAddress = strPtr("PO Box 9")
		}, "1 Home St", "home@example.com"},
		{"blank billing address", func(p *models.ClientBillingProfile) {
			p.UseSeparateBillingAddress = true
			p.BillingAddress = strPtr("   ")
		}, "1 Home St", "home@example.com"},
		{"invoice email", func(p *models.ClientBillingProfile) {
			p.InvoiceEmail = strPtr("accounts@example.com")
		}, "1 Home St", "accounts@example.com"},
		{"blank invoice email", func(p *models.ClientBillingProfile) {
			p.InvoiceEmail = strPtr("")
		}, "1 Home St", "home@example.com"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			profile := base
			tc.mutate(&profile)
			identity := ResolveBillingIdentity(profile)
			assert.Equal(t, tc.address, identity.Address)
			assert.Equal(t, tc.email, identity.Email)
		})
	}
}

func TestAggregateBillable(t *testing.T) {
	entry := func(client string, day int, status models.AttendanceStatus, paymentType models.PaymentType) models.AttendanceEntry {
		return models.AttendanceEntry{ClientID: client, Date: marchDay(day), Status: status, PaymentType: paymentType, Payment: decimal.NewFromInt(40)}
	}
	entries := []models.AttendanceEntry{
		entry("b", 9, models.AttendanceStatusPresent, models.PaymentTypeInvoice),
		entry("a", 12, models.AttendanceStatusLateCancellation, models.PaymentTypeInvoice),
		entry("a", 2, models.AttendanceStatusPresent, models.PaymentTypeInvoice),
		entry("a", 4, models.AttendanceStatusAbsent, models.PaymentTypeInvoice),
		entry("a", 6, models.AttendanceStatusPresent, models.PaymentTypeCash),
		entry("c", 7, models.AttendanceStatusAbsent, models.PaymentTypeInvoice),
		{ClientID: "a", Date: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), Status: models.AttendanceStatusPresent, PaymentType: models.PaymentTypeInvoice},
	}

	groups := AggregateBillable(entries, fixtureMarch)
	assert.Equal(t, []string{"b", "a"}, groups.Order)
	assert.Len(t, groups.ByClient["b"], 1)
	a := groups.ByClient["a"]
	if assert.Len(t, a, 2) {
		assert.Equal(t, marchDay(2), a[0].Date)
		assert.Equal(t, marchDay(12), a[1].Date)
	}
	_, hasC := groups.ByClient["c"]
	assert.False(t, hasC)
}
