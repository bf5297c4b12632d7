package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes orderDir to ASC or DESC.
// Anything other than DESC falls back to ASC, the ledger's chronological order.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "DESC" {
		return "DESC"
	}
	return "ASC"
}

// ValidateSortField checks sortField against a whitelist of columns.
// Returns defaultField if the input is empty or not allowed.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// MovementSortFields contains allowed sort columns for movement listings
var MovementSortFields = map[string]bool{
	"created_at": true,
	"applied_at": true,
	"quantity":   true,
}
