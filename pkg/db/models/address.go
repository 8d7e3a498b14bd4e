package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/types"
)

// Address is a saved destination. Each user has at most one default.
type Address struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID       string            `gorm:"column:user_id;not null;index:addresses_user_id_idx" json:"-"`
	Type         enums.AddressType `gorm:"column:type;type:varchar(10);not null;default:'home'" json:"type"`
	FullName     string            `gorm:"column:full_name;not null" json:"fullName"`
	Phone        string            `gorm:"column:phone;not null" json:"phone"`
	AddressLine1 string            `gorm:"column:address_line1;not null" json:"addressLine1"`
	AddressLine2 string            `gorm:"column:address_line2;not null;default:''" json:"addressLine2,omitempty"`
	City         string            `gorm:"column:city;not null" json:"city"`
	State        string            `gorm:"column:state;not null" json:"state"`
	ZipCode      string            `gorm:"column:zip_code;not null" json:"zipCode"`
	Country      string            `gorm:"column:country;not null;default:'India'" json:"country"`
	Landmark     string            `gorm:"column:landmark;not null;default:''" json:"landmark,omitempty"`
	IsDefault    bool              `gorm:"column:is_default;not null;default:false" json:"isDefault"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}

// Shipping converts the saved address into an order destination.
func (a Address) Shipping() types.ShippingAddress {
	return types.ShippingAddress{
		FullName:     a.FullName,
		Phone:        a.Phone,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		ZipCode:      a.ZipCode,
		Country:      a.Country,
	}
}
