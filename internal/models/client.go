package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ClientBillingProfile is the billing-relevant view of a client record owned
// by client management.
type ClientBillingProfile struct {
	ID                        string          `json:"id"`
	FirstName                 string          `json:"firstName"`
	Surname                   string          `json:"surname"`
	Address                   string          `json:"address"`
	BillingAddress            *string         `json:"billingAddress,omitempty"`
	UseSeparateBillingAddress bool            `json:"useSeparateBillingAddress"`
	Email                     string          `json:"email"`
	InvoiceEmail              *string         `json:"invoiceEmail,omitempty"`
	StandardRate              decimal.Decimal `json:"standardRate"`
	Active                    bool            `json:"active"`
}

// FullName joins first name and surname.
func (c ClientBillingProfile) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.Surname)
}

// BillingIdentity is the address and email an invoice is sent to.
type BillingIdentity struct {
	Address string `json:"address"`
	Email   string `json:"email"`
}
