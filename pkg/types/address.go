package types

import "strings"

// DefaultCountry is applied when an address omits the country.
const DefaultCountry = "India"

// ShippingAddress is the delivery destination copied onto an order.
type ShippingAddress struct {
	FullName     string `json:"fullName" validate:"required,max=100"`
	Phone        string `json:"phone" validate:"required,min=10,max=15"`
	AddressLine1 string `json:"addressLine1" validate:"required,max=200"`
	AddressLine2 string `json:"addressLine2,omitempty" validate:"max=200"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state" validate:"required,max=100"`
	ZipCode      string `json:"zipCode" validate:"required,max=12"`
	Country      string `json:"country,omitempty" validate:"max=100"`
}

// Normalize trims whitespace and applies the default country.
func (a ShippingAddress) Normalize() ShippingAddress {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Phone = strings.TrimSpace(a.Phone)
	a.AddressLine1 = strings.TrimSpace(a.AddressLine1)
	a.AddressLine2 = strings.TrimSpace(a.AddressLine2)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.ZipCode = strings.TrimSpace(a.ZipCode)
	a.Country = strings.TrimSpace(a.Country)
	if a.Country == "" {
		a.Country = DefaultCountry
	}
	return a
}
