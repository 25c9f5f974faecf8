package service

import (
	"sort"

	"github.com/noah-isme/care-billing-api/internal/models"
)

// BillableGroups holds invoiceable attendance per client. Order lists client
// ids in first-seen order.
type BillableGroups struct {
	ByClient map[string][]models.AttendanceEntry
	Order    []string
}

// AggregateBillable keeps the entries of period that belong on an invoice and
// groups them per client in date order. Clients without such entries are not
// present in the result.
func AggregateBillable(entries []models.AttendanceEntry, period models.Period) BillableGroups {
	groups := BillableGroups{ByClient: make(map[string][]models.AttendanceEntry)}
	for _, entry := range entries {
		if !period.Contains(entry.Date) || !entry.Invoiceable() {
			continue
		}
		if _, seen := groups.ByClient[entry.ClientID]; !seen {
			groups.Order = append(groups.Order, entry.ClientID)
		}
		groups.ByClient[entry.ClientID] = append(groups.ByClient[entry.ClientID], entry)
	}
	for _, clientEntries := range groups.ByClient {
		sort.SliceStable(clientEntries, func(i, j int) bool {
			return clientEntries[i].Date.Before(clientEntries[j].Date)
		})
	}
	return groups
}
