package service

import (
	"strings"

	"github.com/noah-isme/care-billing-api/internal/models"
)

// ResolveBillingIdentity picks the address and email an invoice is sent to.
// The separate billing address wins only when the client opted in and it is
// not blank; a non-blank invoice email always wins.
func ResolveBillingIdentity(profile models.ClientBillingProfile) models.BillingIdentity {
	identity := models.BillingIdentity{Address: profile.Address, Email: profile.Email}
	if profile.UseSeparateBillingAddress && profile.BillingAddress != nil && strings.TrimSpace(*profile.BillingAddress) != "" {
		identity.Address = *profile.BillingAddress
	}
	if profile.InvoiceEmail != nil && strings.TrimSpace(*profile.InvoiceEmail) != "" {
		identity.Email = *profile.InvoiceEmail
	}
	return identity
}
