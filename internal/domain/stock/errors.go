package stock

import "github.com/resys/backend/internal/domain/shared"

// Stock domain errors
var (
	ErrLocationNotFound        = shared.NewNotFoundError("LOCATION_NOT_FOUND", "Stock location not found")
	ErrStockItemNotFound       = shared.NewNotFoundError("STOCK_ITEM_NOT_FOUND", "Stock item not found")
	ErrDuplicateCode           = shared.NewConflictError("DUPLICATE_LOCATION_CODE", "A stock location with this code already exists")
	ErrDuplicateStockItem      = shared.NewConflictError("DUPLICATE_STOCK_ITEM", "Variant is already stocked at this location")
	ErrCannotDeactivateDefault = shared.NewConflictError("CANNOT_DEACTIVATE_DEFAULT", "The default location cannot be deactivated")
	ErrCannotDeleteDefault     = shared.NewConflictError("CANNOT_DELETE_DEFAULT", "The default location cannot be deleted")
	ErrInactiveDefault         = shared.NewConflictError("INACTIVE_DEFAULT", "An inactive location cannot be the default")
	ErrLocationDeleted         = shared.NewConflictError("LOCATION_DELETED", "Stock location is deleted")
	ErrInvalidLocationName     = shared.NewValidationError("INVALID_LOCATION_NAME", "Location name is required and cannot exceed 100 characters")
	ErrInvalidLocationCode     = shared.NewValidationError("INVALID_LOCATION_CODE", "Location code must be 1-50 characters of A-Z, 0-9, '-' or '_'")
	ErrInvalidLocationType     = shared.NewValidationError("INVALID_LOCATION_TYPE", "Unknown stock location type")
	ErrBackorderNotAllowed     = shared.NewConflictError("BACKORDER_NOT_ALLOWED", "Stock item does not accept backorders")
	ErrBackorderLimitExceeded  = shared.NewConflictError("BACKORDER_LIMIT_EXCEEDED", "Backorder limit exceeded")
	ErrInvalidMovement         = shared.NewValidationError("INVALID_MOVEMENT", "Invalid stock movement")
	ErrInvalidUnitCost         = shared.NewValidationError("INVALID_UNIT_COST", "Unit cost cannot be negative")
	ErrInvalidSKU              = shared.NewValidationError("INVALID_SKU", "SKU cannot exceed 100 characters")
	ErrTransferNotFound        = shared.NewNotFoundError("TRANSFER_NOT_FOUND", "Stock transfer not found")
	ErrSameLocation            = shared.NewValidationError("SAME_LOCATION", "Source and destination locations must differ")
	ErrEmptyTransfer           = shared.NewConflictError("EMPTY_TRANSFER", "A transfer needs at least one item before it ships")
	ErrTransferItemNotFound    = shared.NewNotFoundError("TRANSFER_ITEM_NOT_FOUND", "Variant is not part of this transfer")
	ErrInvalidTransferState    = shared.NewConflictError("INVALID_TRANSFER_STATE", "Operation not allowed in the current transfer status")
)
