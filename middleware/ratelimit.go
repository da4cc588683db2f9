package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"authbridge/apperr"
	"authbridge/ratelimit"
)

// RateLimit applies the sliding per-IP/per-endpoint limiter to every
// request. Skip-tier endpoints and a disabled limiter pass straight
// through without headers or bookkeeping.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Enabled() {
			c.Next()
			return
		}

		res := limiter.Check(c.ClientIP(), c.Request.URL.Path)
		if res.Limit != ratelimit.Unbounded {
			c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			c.Header("X-RateLimit-Reset", strconv.Itoa(res.ResetIn))
		}

		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(res.ResetIn))
			e := apperr.ErrRateLimited
			msg := e.Message
			if limiter.Message() != "" {
				msg = limiter.Message()
			}
			c.AbortWithStatusJSON(e.Status, gin.H{
				"error":    msg,
				"code":     e.Code,
				"reset_in": res.ResetIn,
			})
			return
		}

		c.Next()
	}
}
