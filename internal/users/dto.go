package users

import (
	"time"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/pagination"
)

// FirebaseUser is the identity record the client received from the provider.
type FirebaseUser struct {
	UID           string `json:"uid" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	DisplayName   string `json:"displayName" validate:"max=100"`
	PhotoURL      string `json:"photoURL" validate:"omitempty,url"`
	EmailVerified bool   `json:"emailVerified"`
}

// AdditionalData is applied only when the user is first created.
type AdditionalData struct {
	FullName string  `json:"fullName" validate:"max=100"`
	Phone    *string `json:"phone" validate:"omitempty,min=10,max=15"`
}

type SyncInput struct {
	FirebaseUser   FirebaseUser   `json:"firebaseUser" validate:"required"`
	AdditionalData AdditionalData `json:"additionalData"`
}

type ProfileFields struct {
	FullName    *string    `json:"fullName" validate:"omitempty,max=100"`
	DisplayName *string    `json:"displayName" validate:"omitempty,max=100"`
	PhotoURL    *string    `json:"photoURL" validate:"omitempty,url"`
	Gender      *string    `json:"gender" validate:"omitempty,oneof=male female other prefer_not_to_say"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Bio         *string    `json:"bio" validate:"omitempty,max=500"`
}

type ProfileUpdate struct {
	Profile *ProfileFields `json:"profile"`
	Phone   *string        `json:"phone" validate:"omitempty,min=10,max=15"`
}

type NotificationsUpdate struct {
	Email       *bool `json:"email"`
	SMS         *bool `json:"sms"`
	Push        *bool `json:"push"`
	Promotional *bool `json:"promotional"`
}

type PreferencesUpdate struct {
	Language      *string              `json:"language" validate:"omitempty,min=2,max=10"`
	Currency      *string              `json:"currency"`
	Theme         *string              `json:"theme"`
	Notifications *NotificationsUpdate `json:"notifications"`
}

// LoyaltyInfo reports the balance and the distance to the next tier.
type LoyaltyInfo struct {
	Points           int                `json:"points"`
	Tier             enums.LoyaltyTier  `json:"tier"`
	JoinedAt         time.Time          `json:"joinedAt"`
	NextTier         *enums.LoyaltyTier `json:"nextTier"`
	PointsToNextTier int                `json:"pointsToNextTier"`
	Progress         float64            `json:"progress"`
}

type ListFilter struct {
	Status *enums.UserStatus
	Search string
}

type UserList struct {
	Users      []models.User   `json:"users"`
	Pagination pagination.Meta `json:"pagination"`
}

type StatusInput struct {
	Status string `json:"status" validate:"required"`
}
