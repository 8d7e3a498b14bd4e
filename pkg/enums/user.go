package enums

import "fmt"

// Role is the authorization role carried in access tokens.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleOperator Role = "operator"
)

func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleOperator
}

// UserStatus is the account state managed by operators.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusDeleted   UserStatus = "deleted"
)

var validUserStatuses = []UserStatus{
	UserStatusActive,
	UserStatusInactive,
	UserStatusSuspended,
	UserStatusDeleted,
}

func (s UserStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known UserStatus.
func (s UserStatus) IsValid() bool {
	for _, candidate := range validUserStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseUserStatus converts raw input into a UserStatus.
func ParseUserStatus(value string) (UserStatus, error) {
	for _, candidate := range validUserStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user status %q", value)
}

// LoyaltyTier is derived from accumulated points.
type LoyaltyTier string

const (
	TierSilver   LoyaltyTier = "silver"
	TierGold     LoyaltyTier = "gold"
	TierPlatinum LoyaltyTier = "platinum"
)

const (
	GoldPointsThreshold     = 1000
	PlatinumPointsThreshold = 2500
)

// TierForPoints maps a points balance to its tier.
func TierForPoints(points int) LoyaltyTier {
	switch {
	case points >= PlatinumPointsThreshold:
		return TierPlatinum
	case points >= GoldPointsThreshold:
		return TierGold
	default:
		return TierSilver
	}
}

// Theme is the UI preference of a user.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// IsValid reports whether the value is a known Theme.
func (t Theme) IsValid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeAuto
}

// AddressType labels a saved address.
type AddressType string

const (
	AddressHome  AddressType = "home"
	AddressWork  AddressType = "work"
	AddressOther AddressType = "other"
)

// ParseAddressType defaults empty input to home.
func ParseAddressType(value string) (AddressType, error) {
	switch AddressType(value) {
	case "":
		return AddressHome, nil
	case AddressHome, AddressWork, AddressOther:
		return AddressType(value), nil
	default:
		return "", fmt.Errorf("invalid address type %q", value)
	}
}
