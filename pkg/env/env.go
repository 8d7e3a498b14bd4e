package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// ListenAddr prefers the platform-assigned PORT (Cloud Run, Heroku) over the
// configured port and returns a ":port" address.
func ListenAddr(configured string) string {
	port := strings.TrimPrefix(Get("PORT", configured), ":")
	return ":" + port
}
