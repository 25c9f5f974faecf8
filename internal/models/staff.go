package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StaffProfile is the payroll-relevant view of a staff member.
type StaffProfile struct {
	ID        string          `json:"id"`
	FirstName string          `json:"firstName"`
	Surname   string          `json:"surname"`
	DayRate   decimal.Decimal `json:"dayRate"`
	Active    bool            `json:"active"`
}

// FullName joins first name and surname.
func (s StaffProfile) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.Surname)
}

// StaffAttendanceEntry records one worked day. DayRate and StaffName are
// snapshots taken at check-in.
type StaffAttendanceEntry struct {
	StaffID     string          `json:"staffId"`
	StaffName   string          `json:"staffName"`
	Date        time.Time       `json:"date"`
	DayRate     decimal.Decimal `json:"dayRate"`
	CheckedInAt time.Time       `json:"checkedInAt"`
	CheckedInBy string          `json:"checkedInBy,omitempty"`
}

// StaffReconciliation summarises a staff member's worked days in a period.
type StaffReconciliation struct {
	StaffID     string                 `json:"staffId"`
	StaffName   string                 `json:"staffName"`
	Active      bool                   `json:"active"`
	DaysWorked  int                    `json:"daysWorked"`
	TotalAmount decimal.Decimal        `json:"totalAmount"`
	Entries     []StaffAttendanceEntry `json:"entries"`
}
