package ordering

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NewOrderNumber returns R + yyyymmdd + 6 random digits
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("R%s%06d", now.UTC().Format("20060102"), rand.IntN(1_000_000))
}

// NewShipmentNumber returns H + 11 random digits
func NewShipmentNumber() string {
	return fmt.Sprintf("H%011d", rand.Int64N(100_000_000_000))
}
