package enums

import "fmt"

// WishlistPriority ranks saved items.
type WishlistPriority string

const (
	PriorityLow    WishlistPriority = "low"
	PriorityMedium WishlistPriority = "medium"
	PriorityHigh   WishlistPriority = "high"
)

var validWishlistPriorities = []WishlistPriority{PriorityLow, PriorityMedium, PriorityHigh}

func (p WishlistPriority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known WishlistPriority.
func (p WishlistPriority) IsValid() bool {
	for _, candidate := range validWishlistPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseWishlistPriority converts raw input, treating empty input as medium.
func ParseWishlistPriority(value string) (WishlistPriority, error) {
	if value == "" {
		return PriorityMedium, nil
	}
	for _, candidate := range validWishlistPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid priority %q", value)
}
