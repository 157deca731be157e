package common

import (
	"github.com/resys/backend/internal/domain/shared/valueobject"
)

// AddressInput is a postal address in requests
type AddressInput struct {
	FirstName  string `json:"first_name" binding:"max=100"`
	LastName   string `json:"last_name" binding:"max=100"`
	Line1      string `json:"line1" binding:"required,max=255"`
	Line2      string `json:"line2" binding:"max=255"`
	City       string `json:"city" binding:"required,max=100"`
	Region     string `json:"region" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
	Country    string `json:"country" binding:"required,len=2"`
	Phone      string `json:"phone" binding:"max=50"`
}

// ToAddress validates the input into an Address
func (a AddressInput) ToAddress() (valueobject.Address, error) {
	return valueobject.NewAddress(a.FirstName, a.LastName, a.Line1, a.City, a.PostalCode, a.Country,
		valueobject.WithLine2(a.Line2),
		valueobject.WithRegion(a.Region),
		valueobject.WithPhone(a.Phone),
	)
}

// AddressResponse is a postal address in responses
type AddressResponse struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// ToAddressResponse converts an address, returning nil for the zero address
func ToAddressResponse(a valueobject.Address) *AddressResponse {
	if a.IsEmpty() {
		return nil
	}
	return &AddressResponse{
		FirstName:  a.FirstName(),
		LastName:   a.LastName(),
		Line1:      a.Line1(),
		Line2:      a.Line2(),
		City:       a.City(),
		Region:     a.Region(),
		PostalCode: a.PostalCode(),
		Country:    a.Country(),
		Phone:      a.Phone(),
	}
}
