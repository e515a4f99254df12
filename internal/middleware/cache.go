package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore forbids browsers and proxies from keeping responses. Attendance
// data and CAPTCHA images must disappear with the visit.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, max-age=0")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
