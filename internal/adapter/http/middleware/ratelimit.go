package middleware

import (
	"fmt"
	"strconv"
	"time"

	"pix-wallet/internal/core/ports"
	"pix-wallet/pkg/apperror"
	"pix-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// DefaultRateLimitRules derives per-group limits from the configured base
// rule. Writes get half the read budget; the settlement provider gets more
// since it redelivers. A non-positive base limit disables every group.
func DefaultRateLimitRules(base RateLimitRule) map[string]RateLimitRule {
	if base.Limit <= 0 {
		return map[string]RateLimitRule{}
	}
	half := base.Limit / 2
	if half < 1 {
		half = 1
	}
	return map[string]RateLimitRule{
		"wallets_read":   base,
		"wallets_write":  {Limit: half, Window: base.Window},
		"pix_keys":       {Limit: half, Window: base.Window},
		"transfers":      {Limit: half, Window: base.Window},
		"transfers_read": base,
		"webhooks":       {Limit: base.Limit * 10, Window: base.Window},
	}
}

// RateLimiter creates a rate-limiting middleware for a given endpoint group.
func RateLimiter(limiter ports.RateLimiter, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := extractIdentifier(c)
		key := fmt.Sprintf("%s:%s", identifier, group)

		result, err := limiter.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		// Always set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := result.ResetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractIdentifier keys authenticated webhook traffic by provider and
// everything else by client IP.
func extractIdentifier(c *gin.Context) string {
	if p := c.GetString(CtxWebhookProvider); p != "" {
		return "provider:" + p
	}
	return c.ClientIP()
}
