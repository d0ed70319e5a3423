package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tharunaditya/certserver/internal/auth"
)

// AuthFailureFunc is called when an admin request is rejected
type AuthFailureFunc func(c *gin.Context, reason string)

// AdminAuth checks X-Admin-Token against a bcrypt hash and, when a TOTP
// secret is configured, X-Admin-TOTP as a second factor
func AdminAuth(tokenHash, totpSecret string, onFailure AuthFailureFunc) gin.HandlerFunc {
	reject := func(c *gin.Context, status int, code, message, reason string) {
		if onFailure != nil {
			onFailure(c, reason)
		}
		c.AbortWithStatusJSON(status, gin.H{
			"error":   code,
			"message": message,
		})
	}

	return func(c *gin.Context) {
		token := c.GetHeader("X-Admin-Token")

		if token == "" {
			reject(c, http.StatusUnauthorized, "unauthorized", "Admin token required", "missing token")
			return
		}

		if !auth.VerifyAdminToken(token, tokenHash) {
			reject(c, http.StatusForbidden, "forbidden", "Invalid admin token", "invalid token")
			return
		}

		if totpSecret != "" && !auth.ValidateTOTP(totpSecret, c.GetHeader("X-Admin-TOTP")) {
			reject(c, http.StatusForbidden, "invalid_totp", "Invalid TOTP code", "invalid totp")
			return
		}

		c.Next()
	}
}
