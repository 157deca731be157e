package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/resys/backend/internal/domain/shared"
)

// Address is an immutable postal address used for shipping and billing
type Address struct {
	firstName  string
	lastName   string
	line1      string
	line2      string
	city       string
	region     string
	postalCode string
	country    string
	phone      string
}

// AddressOption is a functional option for configuring Address
type AddressOption func(*Address)

// WithLine2 sets the second address line
func WithLine2(line2 string) AddressOption {
	return func(a *Address) {
		a.line2 = strings.TrimSpace(line2)
	}
}

// WithRegion sets the state, province or region
func WithRegion(region string) AddressOption {
	return func(a *Address) {
		a.region = strings.TrimSpace(region)
	}
}

// WithPhone sets the contact phone number
func WithPhone(phone string) AddressOption {
	return func(a *Address) {
		a.phone = strings.TrimSpace(phone)
	}
}

// NewAddress creates a new Address. Name, line1, city, postal code and a
// two-letter country code are required.
func NewAddress(firstName, lastName, line1, city, postalCode, country string, opts ...AddressOption) (Address, error) {
	addr := Address{
		firstName:  strings.TrimSpace(firstName),
		lastName:   strings.TrimSpace(lastName),
		line1:      strings.TrimSpace(line1),
		city:       strings.TrimSpace(city),
		postalCode: strings.TrimSpace(postalCode),
		country:    strings.ToUpper(strings.TrimSpace(country)),
	}
	for _, opt := range opts {
		opt(&addr)
	}

	if err := addr.validate(); err != nil {
		return Address{}, err
	}
	return addr, nil
}

func (a Address) validate() error {
	switch {
	case a.firstName == "" && a.lastName == "":
		return shared.NewValidationError("INVALID_ADDRESS", "Address recipient name is required")
	case a.line1 == "":
		return shared.NewValidationError("INVALID_ADDRESS", "Address line 1 is required")
	case len(a.line1) > 255 || len(a.line2) > 255:
		return shared.NewValidationError("INVALID_ADDRESS", "Address lines cannot exceed 255 characters")
	case a.city == "":
		return shared.NewValidationError("INVALID_ADDRESS", "City is required")
	case a.postalCode == "":
		return shared.NewValidationError("INVALID_ADDRESS", "Postal code is required")
	case len(a.postalCode) > 20:
		return shared.NewValidationError("INVALID_ADDRESS", "Postal code cannot exceed 20 characters")
	case len(a.country) != 2:
		return shared.NewValidationError("INVALID_ADDRESS", "Country must be a two-letter ISO code")
	}
	return nil
}

// FirstName returns the recipient first name
func (a Address) FirstName() string { return a.firstName }

// LastName returns the recipient last name
func (a Address) LastName() string { return a.lastName }

// Line1 returns the first address line
func (a Address) Line1() string { return a.line1 }

// Line2 returns the second address line
func (a Address) Line2() string { return a.line2 }

// City returns the city
func (a Address) City() string { return a.city }

// Region returns the state, province or region
func (a Address) Region() string { return a.region }

// PostalCode returns the postal code
func (a Address) PostalCode() string { return a.postalCode }

// Country returns the ISO country code
func (a Address) Country() string { return a.country }

// Phone returns the contact phone
func (a Address) Phone() string { return a.phone }

// IsEmpty reports whether this is the zero address
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// String renders the address on one line
func (a Address) String() string {
	parts := []string{strings.TrimSpace(a.firstName + " " + a.lastName), a.line1}
	if a.line2 != "" {
		parts = append(parts, a.line2)
	}
	cityLine := a.city
	if a.region != "" {
		cityLine += ", " + a.region
	}
	parts = append(parts, cityLine+" "+a.postalCode, a.country)
	return strings.Join(parts, ", ")
}

// Equals compares two addresses by value
func (a Address) Equals(other Address) bool {
	return a == other
}

type addressJSON struct {
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

// MarshalJSON implements json.Marshaler
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressJSON{
		FirstName:  a.firstName,
		LastName:   a.lastName,
		Line1:      a.line1,
		Line2:      a.line2,
		City:       a.city,
		Region:     a.region,
		PostalCode: a.postalCode,
		Country:    a.country,
		Phone:      a.phone,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Decoded addresses go through NewAddress.
func (a *Address) UnmarshalJSON(data []byte) error {
	var v addressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == (addressJSON{}) {
		*a = Address{}
		return nil
	}

	addr, err := NewAddress(v.FirstName, v.LastName, v.Line1, v.City, v.PostalCode, v.Country,
		WithLine2(v.Line2), WithRegion(v.Region), WithPhone(v.Phone))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// Value stores the address as a JSON column
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan reads the address from a JSON column
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*a = Address{}
		return nil
	}
	return json.Unmarshal(data, a)
}
