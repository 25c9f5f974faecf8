package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/care-billing-api/pkg/optional"
)

// AttendanceStatus is the tri-state outcome of a booked session.
type AttendanceStatus string

const (
	AttendanceStatusPresent          AttendanceStatus = "present"
	AttendanceStatusLateCancellation AttendanceStatus = "late-cancellation"
	AttendanceStatusAbsent           AttendanceStatus = "absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusLateCancellation, AttendanceStatusAbsent:
		return true
	default:
		return false
	}
}

// Billable reports whether a session with this status is charged.
// Late cancellations are charged even though the client did not attend.
func (s AttendanceStatus) Billable() bool {
	return s == AttendanceStatusPresent || s == AttendanceStatusLateCancellation
}

// PaymentType is how a client settles sessions.
type PaymentType string

const (
	PaymentTypeCash    PaymentType = "cash"
	PaymentTypeInvoice PaymentType = "invoice"
)

// Valid returns true when the payment type is supported.
func (p PaymentType) Valid() bool {
	return p == PaymentTypeCash || p == PaymentTypeInvoice
}

// AttendanceEntry is the attendance state of one client on one day.
type AttendanceEntry struct {
	ClientID         string           `json:"clientId"`
	Date             time.Time        `json:"date"`
	Status           AttendanceStatus `json:"attendanceStatus"`
	Payment          decimal.Decimal  `json:"payment"`
	PaymentType      PaymentType      `json:"paymentType"`
	InvoiceCode      string           `json:"invoiceCode,omitempty"`
	CashOwed         *decimal.Decimal `json:"cashOwed,omitempty"`
	CashOwedPaidDate *time.Time       `json:"cashOwedPaidDate,omitempty"`
	CashOwedPaidBy   *string          `json:"cashOwedPaidBy,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	UpdatedBy        string           `json:"updatedBy,omitempty"`
}

// Attended is the legacy boolean view of the status.
func (e AttendanceEntry) Attended() bool {
	return e.Status.Billable()
}

// Invoiceable reports whether the entry belongs on a monthly invoice.
func (e AttendanceEntry) Invoiceable() bool {
	return e.Status.Billable() && e.PaymentType == PaymentTypeInvoice
}

// AttendancePatch carries the fields a caller wants to change. Unset fields
// keep their stored value.
type AttendancePatch struct {
	Status      optional.Value[AttendanceStatus] `json:"attendanceStatus"`
	Attended    optional.Value[bool]             `json:"attended"`
	Payment     optional.Value[decimal.Decimal]  `json:"payment"`
	PaymentType optional.Value[PaymentType]      `json:"paymentType"`
	InvoiceCode optional.Value[string]           `json:"invoiceCode"`
	CashOwed    optional.Value[decimal.Decimal]  `json:"cashOwed"`
}

// ErrInvalidPatch marks patches that cannot be applied.
var ErrInvalidPatch = errors.New("invalid attendance patch")

func patchError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidPatch, fmt.Sprintf(format, args...))
}

// ApplyAttendancePatch overlays patch on existing (nil for a first write) and
// returns the full replacement entry. It does not touch audit timestamps.
func ApplyAttendancePatch(existing *AttendanceEntry, clientID string, date time.Time, patch AttendancePatch) (AttendanceEntry, error) {
	var next AttendanceEntry
	if existing != nil {
		next = *existing
	} else {
		next = AttendanceEntry{
			ClientID:    clientID,
			Date:        Day(date),
			Payment:     decimal.Zero,
			PaymentType: PaymentTypeInvoice,
		}
	}

	switch {
	case patch.Status.IsSet():
		status, _ := patch.Status.Get()
		if !status.Valid() {
			return AttendanceEntry{}, patchError("unknown attendance status %q", status)
		}
		next.Status = status
	case patch.Status.IsClear():
		return AttendanceEntry{}, patchError("attendanceStatus cannot be cleared")
	case patch.Attended.IsSet():
		attended, _ := patch.Attended.Get()
		next.Status = statusFromLegacy(attended, existing)
	case patch.Attended.IsClear():
		return AttendanceEntry{}, patchError("attended cannot be cleared")
	case existing == nil:
		return AttendanceEntry{}, patchError("attendanceStatus is required for a new entry")
	}

	if amount, ok := patch.Payment.Get(); ok {
		if amount.IsNegative() {
			return AttendanceEntry{}, patchError("payment must not be negative")
		}
		next.Payment = amount
	} else if patch.Payment.IsClear() {
		next.Payment = decimal.Zero
	}

	if paymentType, ok := patch.PaymentType.Get(); ok {
		if !paymentType.Valid() {
			return AttendanceEntry{}, patchError("unknown payment type %q", paymentType)
		}
		next.PaymentType = paymentType
	} else if patch.PaymentType.IsClear() {
		next.PaymentType = PaymentTypeInvoice
	}

	if code := patch.InvoiceCode.Apply(&next.InvoiceCode); code != nil {
		next.InvoiceCode = *code
	} else {
		next.InvoiceCode = ""
	}

	if owed, ok := patch.CashOwed.Get(); ok && !owed.IsZero() {
		if owed.IsNegative() {
			return AttendanceEntry{}, patchError("cashOwed must not be negative")
		}
		next.CashOwed = &owed
	} else if ok || patch.CashOwed.IsClear() {
		next.CashOwed = nil
	}

	if next.Status == AttendanceStatusAbsent {
		next.Payment = decimal.Zero
		next.CashOwed = nil
	}
	if next.CashOwed != nil {
		if next.PaymentType != PaymentTypeCash {
			return AttendanceEntry{}, patchError("cashOwed is only valid for cash-paying sessions")
		}
		next.Payment = decimal.Zero
	} else {
		next.CashOwedPaidDate = nil
		next.CashOwedPaidBy = nil
	}

	return next, nil
}

// statusFromLegacy maps the legacy attended flag onto a status.
func statusFromLegacy(attended bool, existing *AttendanceEntry) AttendanceStatus {
	if !attended {
		return AttendanceStatusAbsent
	}
	if existing != nil && existing.Status.Billable() {
		return existing.Status
	}
	return AttendanceStatusPresent
}

// InvoiceCode builds the display code printed next to a session, e.g.
// "ALEE-202503". It is not the unique invoice number.
func InvoiceCode(firstName, surname string, period Period) string {
	return strings.ToUpper(NamePrefix(firstName, 1)+alphanumeric(surname)) + "-" + period.Compact()
}

// NamePrefix returns the first n ASCII letters or digits of s.
func NamePrefix(s string, n int) string {
	letters := alphanumeric(s)
	if len(letters) > n {
		return letters[:n]
	}
	return letters
}

func alphanumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
