package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nsit-tools/attendance-dashboard/internal/response"
	"github.com/nsit-tools/attendance-dashboard/internal/service"
)

const (
	// ContextKeyVisitorID is the Gin context key for the visitor id.
	ContextKeyVisitorID = "visitor_id"

	// VisitorCookie carries the visitor token for browsers that do not set
	// the Authorization header.
	VisitorCookie = "visitor_token"
)

// RequireVisitor validates the visitor token from the Authorization header
// or the visitor cookie.
func RequireVisitor(visitorService *service.VisitorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := visitorService.ValidateToken(tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Set(ContextKeyVisitorID, claims.ID)
		c.Next()
	}
}

// GetVisitorID retrieves the visitor id from the Gin context.
func GetVisitorID(c *gin.Context) string {
	return c.GetString(ContextKeyVisitorID)
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}

	if cookie, err := c.Cookie(VisitorCookie); err == nil {
		return cookie
	}
	return ""
}
