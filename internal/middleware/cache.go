package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl sets the Cache-Control header. Export copies keep the
// same fixed filename across submissions, so a non-positive maxAge
// becomes no-store: a stale cbt-submission.pdf must never come out of
// a cache.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxAgeSeconds <= 0 {
			c.Header("Cache-Control", "no-store")
		} else {
			c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAgeSeconds))
		}
		c.Next()
	}
}
