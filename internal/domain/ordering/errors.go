package ordering

import "github.com/resys/backend/internal/domain/shared"

// Order errors
var (
	ErrOrderNotFound          = shared.NewNotFoundError("ORDER_NOT_FOUND", "Order not found")
	ErrLineItemNotFound       = shared.NewNotFoundError("LINE_ITEM_NOT_FOUND", "Line item not found")
	ErrPaymentNotFound        = shared.NewNotFoundError("PAYMENT_NOT_FOUND", "Payment not found")
	ErrInvalidStateTransition = shared.NewConflictError("INVALID_STATE_TRANSITION", "Operation is not allowed in the current order state")
	ErrCannotCancelCompleted  = shared.NewConflictError("CANNOT_CANCEL_COMPLETED", "A completed order cannot be canceled")
	ErrInsufficientPayment    = shared.NewConflictError("INSUFFICIENT_PAYMENT", "Captured payments do not cover the order total")
	ErrIncompleteAllocation   = shared.NewConflictError("INCOMPLETE_INVENTORY_ALLOCATION", "Every inventory unit must be allocated before completing the order")
	ErrAlreadyAllocated       = shared.NewConflictError("ALREADY_ALLOCATED", "Order inventory has already been allocated")
	ErrAddressMissing         = shared.NewValidationError("ADDRESS_MISSING", "Ship and bill addresses are required")
	ErrShippingMethodMissing  = shared.NewValidationError("SHIPPING_METHOD_MISSING", "A shipping method is required")
	ErrEmptyOrder             = shared.NewValidationError("EMPTY_ORDER", "Order has no line items")
	ErrInvalidStore           = shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	ErrInvalidEmail           = shared.NewValidationError("INVALID_EMAIL", "Email address is not valid")
	ErrInvalidCurrency        = shared.NewValidationError("INVALID_CURRENCY", "Currency must be an ISO 4217 code")
	ErrInvalidVariant         = shared.NewValidationError("INVALID_VARIANT", "Variant ID cannot be empty")
	ErrInvalidPrice           = shared.NewValidationError("INVALID_PRICE", "Price cannot be negative")
	ErrInvalidShippingCost    = shared.NewValidationError("INVALID_SHIPPING_COST", "Shipping cost cannot be negative")
	ErrInvalidPaymentAmount   = shared.NewValidationError("INVALID_PAYMENT_AMOUNT", "Payment amount must be positive")
	ErrInvalidPaymentState    = shared.NewConflictError("INVALID_PAYMENT_STATE", "Payment is not in a state that allows this operation")
	ErrInvalidAllocation      = shared.NewValidationError("INVALID_ALLOCATION", "Allocation is malformed")
	ErrAllocationMismatch     = shared.NewValidationError("ALLOCATION_MISMATCH", "Allocated quantities do not match the order's pending units")
	ErrUnitNotFound           = shared.NewNotFoundError("INVENTORY_UNIT_NOT_FOUND", "Inventory unit not found")
	ErrInvalidUnitTransition  = shared.NewConflictError("INVALID_UNIT_TRANSITION", "Inventory unit cannot make this transition")
	ErrAlreadyShipped         = shared.NewConflictError("ALREADY_SHIPPED", "Inventory unit has already shipped")
	ErrShipmentNotFound       = shared.NewNotFoundError("SHIPMENT_NOT_FOUND", "Shipment not found")
	ErrInvalidShipmentState   = shared.NewConflictError("INVALID_SHIPMENT_TRANSITION", "Shipment cannot make this transition")
	ErrShipmentAlreadyShipped = shared.NewConflictError("SHIPMENT_ALREADY_SHIPPED", "Shipment has already shipped")
	ErrUnitsNotReady          = shared.NewConflictError("UNITS_NOT_READY", "Every unit in the shipment must be on hand")
	ErrTrackingNumberRequired = shared.NewValidationError("TRACKING_NUMBER_REQUIRED", "Tracking number is required to ship")
	ErrLineQuantityExceedsMax = shared.NewValidationError("LINE_QUANTITY_EXCEEDS_MAX", "Line item quantity exceeds the maximum")
	ErrVariantNotFound        = shared.NewNotFoundError("VARIANT_NOT_FOUND", "Variant has no price")
)
