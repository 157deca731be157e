package ordering

import (
	"time"

	"github.com/google/uuid"
)

// PaymentState is the gateway-reported state of a payment
type PaymentState string

const (
	PaymentStatePending   PaymentState = "PENDING"
	PaymentStateCompleted PaymentState = "COMPLETED"
	PaymentStateFailed    PaymentState = "FAILED"
	PaymentStateVoid      PaymentState = "VOID"
)

// IsValid checks if the payment state is known
func (s PaymentState) IsValid() bool {
	switch s {
	case PaymentStatePending, PaymentStateCompleted, PaymentStateFailed, PaymentStateVoid:
		return true
	}
	return false
}

// Payment is the captured-amount signal from the payment collaborator.
// Only COMPLETED payments count towards the captured total.
type Payment struct {
	ID          uuid.UUID
	AmountCents int64
	State       PaymentState
	Reference   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsCaptured reports whether the payment counts towards the order total
func (p *Payment) IsCaptured() bool {
	return p.State == PaymentStateCompleted
}
