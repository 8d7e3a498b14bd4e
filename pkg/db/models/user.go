package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/types"
)

// User mirrors an identity from the external provider keyed by FirebaseUID.
type User struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	FirebaseUID   string            `gorm:"column:firebase_uid;not null;uniqueIndex:users_firebase_uid_key" json:"firebaseUid"`
	Email         string            `gorm:"column:email;not null;uniqueIndex:users_email_key" json:"email"`
	Phone         *string           `gorm:"column:phone" json:"phone,omitempty"`
	Profile       UserProfile       `gorm:"embedded" json:"profile"`
	Preferences   types.Preferences `gorm:"column:preferences;type:jsonb;serializer:json" json:"preferences"`
	Loyalty       Loyalty           `gorm:"embedded;embeddedPrefix:loyalty_" json:"loyalty"`
	Status        enums.UserStatus  `gorm:"column:status;type:varchar(20);not null;default:'active'" json:"status"`
	LastLogin     *time.Time        `gorm:"column:last_login" json:"lastLogin,omitempty"`
	EmailVerified bool              `gorm:"column:email_verified;not null;default:false" json:"emailVerified"`
	PhoneVerified bool              `gorm:"column:phone_verified;not null;default:false" json:"phoneVerified"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}

type UserProfile struct {
	FullName    string     `gorm:"column:full_name;not null;default:''" json:"fullName"`
	DisplayName string     `gorm:"column:display_name;not null;default:''" json:"displayName"`
	PhotoURL    string     `gorm:"column:photo_url;not null;default:''" json:"photoURL,omitempty"`
	Gender      string     `gorm:"column:gender;not null;default:''" json:"gender,omitempty"`
	DateOfBirth *time.Time `gorm:"column:date_of_birth" json:"dateOfBirth,omitempty"`
	Bio         string     `gorm:"column:bio;type:varchar(500);not null;default:''" json:"bio,omitempty"`
}

type Loyalty struct {
	Points   int               `gorm:"column:points;not null;default:0" json:"points"`
	Tier     enums.LoyaltyTier `gorm:"column:tier;type:varchar(10);not null;default:'silver'" json:"tier"`
	JoinedAt time.Time         `gorm:"column:joined_at;not null" json:"joinedAt"`
}
