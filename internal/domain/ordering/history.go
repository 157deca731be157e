package ordering

import "time"

// StateChange is one entry in an order's append-only history
type StateChange struct {
	FromState OrderState
	ToState   OrderState
	Note      string
	At        time.Time
}
