package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddress(t *testing.T) {
	tests := []struct {
		name       string
		first      string
		line1      string
		city       string
		postalCode string
		country    string
		wantErr    bool
	}{
		{name: "valid address", first: "Ada", line1: "1 Main St", city: "Springfield", postalCode: "12345", country: "us"},
		{name: "missing recipient", line1: "1 Main St", city: "Springfield", postalCode: "12345", country: "US", wantErr: true},
		{name: "missing line1", first: "Ada", city: "Springfield", postalCode: "12345", country: "US", wantErr: true},
		{name: "missing city", first: "Ada", line1: "1 Main St", postalCode: "12345", country: "US", wantErr: true},
		{name: "missing postal code", first: "Ada", line1: "1 Main St", city: "Springfield", country: "US", wantErr: true},
		{name: "three letter country", first: "Ada", line1: "1 Main St", city: "Springfield", postalCode: "12345", country: "USA", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := NewAddress(tt.first, "Lovelace", tt.line1, tt.city, tt.postalCode, tt.country)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "US", addr.Country())
			assert.False(t, addr.IsEmpty())
		})
	}
}

func TestAddress_JSONRoundTrip(t *testing.T) {
	addr, err := NewAddress("Ada", "Lovelace", "1 Main St", "Springfield", "12345", "US",
		WithLine2("Suite 4"), WithRegion("IL"), WithPhone("555-0100"))
	require.NoError(t, err)

	data, err := json.Marshal(addr)
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, addr.Equals(decoded))
	assert.Equal(t, "Ada Lovelace, 1 Main St, Suite 4, Springfield, IL 12345, US", decoded.String())
}

func TestAddress_Scan(t *testing.T) {
	t.Run("nil yields empty address", func(t *testing.T) {
		var a Address
		require.NoError(t, a.Scan(nil))
		assert.True(t, a.IsEmpty())
	})

	t.Run("reads value written by Value", func(t *testing.T) {
		addr, err := NewAddress("Ada", "Lovelace", "1 Main St", "Springfield", "12345", "US")
		require.NoError(t, err)
		v, err := addr.Value()
		require.NoError(t, err)

		var a Address
		require.NoError(t, a.Scan(v))
		assert.True(t, addr.Equals(a))
	})

	t.Run("rejects unknown types", func(t *testing.T) {
		var a Address
		assert.Error(t, a.Scan(42))
	})

	t.Run("empty address stores NULL", func(t *testing.T) {
		v, err := Address{}.Value()
		require.NoError(t, err)
		assert.Nil(t, v)
	})
}
