package fulfillment

import "github.com/resys/backend/internal/domain/shared"

// Planning errors
var (
	ErrEmptyOrder             = shared.NewValidationError("EMPTY_ORDER", "Nothing was requested")
	ErrInvalidStore           = shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	ErrNoFulfillableLocations = shared.NewFailureError("NO_FULFILLABLE_LOCATIONS", "The store has no active fulfillable stock location")
	ErrUnsupportedStrategy    = shared.NewValidationError("UNSUPPORTED_STRATEGY", "Fulfillment strategy is not supported")
	ErrPlanNotConserved       = shared.NewFailureError("PLAN_NOT_CONSERVED", "Fulfillment plan does not account for every requested unit")
)
