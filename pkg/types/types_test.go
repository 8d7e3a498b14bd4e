package types

import "testing"

func TestShippingAddressNormalize(t *testing.T) {
	addr := ShippingAddress{FullName: "  Asha Rao ", City: " Pune", Country: " "}.Normalize()
	if addr.FullName != "Asha Rao" || addr.City != "Pune" {
		t.Fatalf("expected trimmed fields, got %+v", addr)
	}
	if addr.Country != DefaultCountry {
		t.Fatalf("expected default country, got %q", addr.Country)
	}

	kept := ShippingAddress{Country: "Nepal"}.Normalize()
	if kept.Country != "Nepal" {
		t.Fatalf("explicit country overwritten: %q", kept.Country)
	}
}

func TestDefaultPreferences(t *testing.T) {
	prefs := DefaultPreferences()
	if prefs.Language != "en" || prefs.Currency != "INR" || prefs.Theme != "light" {
		t.Fatalf("unexpected defaults %+v", prefs)
	}
	if prefs.Notifications.Promotional {
		t.Fatal("promotional notifications should be opt-in")
	}
}
