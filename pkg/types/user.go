package types

// NotificationPreferences toggles outbound channels.
type NotificationPreferences struct {
	Email       bool `json:"email"`
	SMS         bool `json:"sms"`
	Push        bool `json:"push"`
	Promotional bool `json:"promotional"`
}

// Preferences are user-controlled display and contact settings.
type Preferences struct {
	Language      string                  `json:"language"`
	Currency      string                  `json:"currency"`
	Theme         string                  `json:"theme"`
	Notifications NotificationPreferences `json:"notifications"`
}

// DefaultPreferences is assigned to newly synced users.
func DefaultPreferences() Preferences {
	return Preferences{
		Language: "en",
		Currency: "INR",
		Theme:    "light",
		Notifications: NotificationPreferences{
			Email: true,
			SMS:   true,
			Push:  true,
		},
	}
}
