package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// StockReservationEntrySortFields contains allowed sort fields for reservation entries
var StockReservationEntrySortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"item_code":         true,
	"warehouse":         true,
	"posting_date":      true,
	"voucher_no":        true,
	"voucher_detail_no": true,
	"reserved_qty":      true,
	"delivered_qty":     true,
	"status":            true,
	"docstatus":         true,
}
