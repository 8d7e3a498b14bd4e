package redis

import "strings"

const namespace = "vb"

type keyspace string

const (
	idempotencySpace keyspace = "idempotency"
	rateLimitSpace   keyspace = "rate_limit"
	counterSpace     keyspace = "counter"
	revokedSpace     keyspace = "revoked"
	cacheSpace       keyspace = "cache"
	webhookSpace     keyspace = "webhook"
	lockSpace        keyspace = "lock"
)

// key joins vb:<space>:<parts...>, dropping blank parts.
func key(space keyspace, parts ...string) string {
	var b strings.Builder
	b.WriteString(namespace)
	b.WriteByte(':')
	b.WriteString(string(space))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

func (c *Client) IdempotencyKey(scope, id string) string { return key(idempotencySpace, scope, id) }

// RevokedTokenKey marks an access token id as logged out.
func (c *Client) RevokedTokenKey(tokenID string) string { return key(revokedSpace, tokenID) }

// CouponUsageKey counts one user's redemptions of a coupon.
func (c *Client) CouponUsageKey(code, userID string) string {
	return key(counterSpace, "coupon", code, userID)
}

func (c *Client) CacheKey(parts ...string) string { return key(cacheSpace, parts...) }

// WebhookKey dedupes gateway webhook deliveries.
func (c *Client) WebhookKey(gateway, eventID string) string { return key(webhookSpace, gateway, eventID) }

func (c *Client) LockKey(name string) string { return key(lockSpace, name) }
