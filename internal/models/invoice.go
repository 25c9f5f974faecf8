package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:   {InvoiceStatusSent, InvoiceStatusCancelled},
	InvoiceStatusSent:    {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusOverdue: {InvoiceStatusPaid, InvoiceStatusCancelled},
}

// Valid returns true when the status is supported.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible.
func (s InvoiceStatus) Terminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LineItemKind distinguishes attendance charges from late-cancellation fees.
type LineItemKind string

const (
	LineItemAttendance       LineItemKind = "attendance"
	LineItemLateCancellation LineItemKind = "late-cancellation"
)

// InvoiceLineItem is one charged session.
type InvoiceLineItem struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        LineItemKind    `json:"kind"`
}

// Invoice is a monthly bill for one client. Only Status and PaidDate change
// after creation.
type Invoice struct {
	InvoiceNumber  string            `json:"invoiceNumber"`
	ClientID       string            `json:"clientId"`
	ClientName     string            `json:"clientName"`
	PeriodStart    time.Time         `json:"periodStart"`
	PeriodEnd      time.Time         `json:"periodEnd"`
	InvoiceDate    time.Time         `json:"invoiceDate"`
	DueDate        time.Time         `json:"dueDate"`
	LineItems      []InvoiceLineItem `json:"lineItems"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	Total          decimal.Decimal   `json:"total"`
	Status         InvoiceStatus     `json:"status"`
	PaidDate       *time.Time        `json:"paidDate,omitempty"`
	BillingAddress string            `json:"billingAddress"`
	BillingEmail   string            `json:"billingEmail"`
	CreatedAt      time.Time         `json:"createdAt"`
	CreatedBy      string            `json:"createdBy,omitempty"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Period returns the billing period of the invoice.
func (i Invoice) Period() Period {
	return PeriodOf(i.PeriodStart)
}

// InvoiceNumberClaim reserves an invoice number across all clients.
type InvoiceNumberClaim struct {
	InvoiceNumber string    `json:"invoiceNumber"`
	ClientID      string    `json:"clientId"`
	PeriodStart   time.Time `json:"periodStart"`
	ClaimedAt     time.Time `json:"claimedAt"`
}
