package persistence

import (
	"strings"

	"github.com/resys/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// maxPageSize caps list queries regardless of what the caller asks for
const maxPageSize = 200

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

// StockLocationSortFields contains allowed sort fields for stock locations
var StockLocationSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"type":       true,
}

// StockItemSortFields contains allowed sort fields for stock items
var StockItemSortFields = map[string]bool{
	"id":                   true,
	"created_at":           true,
	"updated_at":           true,
	"sku":                  true,
	"quantity_on_hand":     true,
	"quantity_reserved":    true,
	"quantity_backordered": true,
}

// StockMovementSortFields contains allowed sort fields for the movement ledger
var StockMovementSortFields = map[string]bool{
	"id":             true,
	"occurred_at":    true,
	"type":           true,
	"quantity_delta": true,
	"balance_after":  true,
}

// StockTransferSortFields contains allowed sort fields for stock transfers
var StockTransferSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"reference_number": true,
	"status":           true,
	"shipped_at":       true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"number":       true,
	"state":        true,
	"total":        true,
	"completed_at": true,
}

// applyFilter applies whitelisted ordering and pagination
func applyFilter(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	if field != "" {
		query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	}

	if filter.PageSize > 0 {
		size := min(filter.PageSize, maxPageSize)
		query = query.Offset(filter.Offset()).Limit(size)
	}
	return query
}
