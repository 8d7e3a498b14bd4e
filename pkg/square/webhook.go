package square

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// VerifyWebhookSignature checks x-square-hmacsha256-signature, an HMAC over the
// notification URL followed by the raw body.
func (c *Client) VerifyWebhookSignature(notificationURL string, body []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if c == nil || c.webhookSecret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(signWebhook(c.webhookSecret, notificationURL, body)), []byte(signature))
}

func signWebhook(secret, notificationURL string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(notificationURL))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
