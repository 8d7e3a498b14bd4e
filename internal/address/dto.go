package address

import (
	"strings"

	"github.com/victorybazaar/victorybazaar-backend/pkg/types"
)

// Input is a complete address as submitted by the owner.
type Input struct {
	Type         string `json:"type" validate:"omitempty,oneof=home work other"`
	FullName     string `json:"fullName" validate:"max=100"`
	Phone        string `json:"phone" validate:"max=20"`
	AddressLine1 string `json:"addressLine1" validate:"max=200"`
	AddressLine2 string `json:"addressLine2" validate:"max=200"`
	City         string `json:"city" validate:"max=100"`
	State        string `json:"state" validate:"max=100"`
	ZipCode      string `json:"zipCode" validate:"max=12"`
	Country      string `json:"country" validate:"max=100"`
	Landmark     string `json:"landmark" validate:"max=200"`
	IsDefault    bool   `json:"isDefault"`
}

func (in Input) normalize() Input {
	in.Type = strings.TrimSpace(in.Type)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = normalizePhone(in.Phone)
	in.AddressLine1 = strings.TrimSpace(in.AddressLine1)
	in.AddressLine2 = strings.TrimSpace(in.AddressLine2)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.ZipCode = strings.TrimSpace(in.ZipCode)
	in.Country = strings.TrimSpace(in.Country)
	if in.Country == "" {
		in.Country = types.DefaultCountry
	}
	in.Landmark = strings.TrimSpace(in.Landmark)
	return in
}

// Patch carries the fields an update may change. Nil fields are kept.
type Patch struct {
	Type         *string `json:"type" validate:"omitempty,oneof=home work other"`
	FullName     *string `json:"fullName" validate:"omitempty,max=100"`
	Phone        *string `json:"phone" validate:"omitempty,max=20"`
	AddressLine1 *string `json:"addressLine1" validate:"omitempty,max=200"`
	AddressLine2 *string `json:"addressLine2" validate:"omitempty,max=200"`
	City         *string `json:"city" validate:"omitempty,max=100"`
	State        *string `json:"state" validate:"omitempty,max=100"`
	ZipCode      *string `json:"zipCode" validate:"omitempty,max=12"`
	Country      *string `json:"country" validate:"omitempty,max=100"`
	Landmark     *string `json:"landmark" validate:"omitempty,max=200"`
	IsDefault    *bool   `json:"isDefault"`
}

// FieldError names one failed check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors"`
}
