package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/care-billing-api/internal/models"
)

// GenerateInvoicesRequest triggers invoice generation for one month.
type GenerateInvoicesRequest struct {
	Year       int  `json:"year" validate:"required,min=2000,max=2100"`
	Month      int  `json:"month" validate:"required,min=1,max=12"`
	Regenerate bool `json:"regenerate"`
}

// GenerationFailure describes a client whose invoice could not be produced.
type GenerationFailure struct {
	ClientID   string `json:"clientId"`
	ClientName string `json:"clientName"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// GenerationResult is the outcome of a generation run. Invoices follow the
// order of the active client list.
type GenerationResult struct {
	RunID     string              `json:"runId"`
	Period    string              `json:"period"`
	Invoices  []models.Invoice    `json:"invoices"`
	Created   int                 `json:"created"`
	Reused    int                 `json:"reused"`
	Deleted   int                 `json:"deleted"`
	Failures  []GenerationFailure `json:"failures"`
	StartedAt time.Time           `json:"startedAt"`
}

// UpdateInvoiceStatusRequest moves an invoice along its lifecycle.
type UpdateInvoiceStatusRequest struct {
	Status   models.InvoiceStatus `json:"status" validate:"required,invoice_status"`
	PaidDate *string              `json:"paidDate,omitempty"`
}

// AttendanceResponse is the wire view of an attendance entry. Attended is the
// legacy boolean kept for older clients.
type AttendanceResponse struct {
	ClientID         string                  `json:"clientId"`
	Date             string                  `json:"date"`
	AttendanceStatus models.AttendanceStatus `json:"attendanceStatus"`
	Attended         bool                    `json:"attended"`
	Payment          decimal.Decimal         `json:"payment"`
	PaymentType      models.PaymentType      `json:"paymentType"`
	InvoiceCode      string                  `json:"invoiceCode,omitempty"`
	CashOwed         *decimal.Decimal        `json:"cashOwed,omitempty"`
	CashOwedPaidDate *string                 `json:"cashOwedPaidDate,omitempty"`
	CashOwedPaidBy   *string                 `json:"cashOwedPaidBy,omitempty"`
	UpdatedAt        time.Time               `json:"updatedAt"`
	UpdatedBy        string                  `json:"updatedBy,omitempty"`
}

// NewAttendanceResponse maps an entry to its wire view.
func NewAttendanceResponse(entry models.AttendanceEntry) AttendanceResponse {
	resp := AttendanceResponse{
		ClientID:         entry.ClientID,
		Date:             models.DayKey(entry.Date),
		AttendanceStatus: entry.Status,
		Attended:         entry.Attended(),
		Payment:          entry.Payment,
		PaymentType:      entry.PaymentType,
		InvoiceCode:      entry.InvoiceCode,
		CashOwed:         entry.CashOwed,
		CashOwedPaidBy:   entry.CashOwedPaidBy,
		UpdatedAt:        entry.UpdatedAt,
		UpdatedBy:        entry.UpdatedBy,
	}
	if entry.CashOwedPaidDate != nil {
		paid := models.DayKey(*entry.CashOwedPaidDate)
		resp.CashOwedPaidDate = &paid
	}
	return resp
}

// SettleCashRequest records payment of an outstanding cash amount.
type SettleCashRequest struct {
	PaidDate *string `json:"paidDate,omitempty"`
}

// StaffCheckInRequest records a worked day; Date defaults to today.
type StaffCheckInRequest struct {
	Date *string `json:"date,omitempty"`
}
