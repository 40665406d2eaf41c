package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// BasicAuth guards administrative endpoints. The password is compared as
// its sha256 digest against the configured hash; both comparisons are
// constant-time.
func BasicAuth(username, passwordHashHex string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok {
			unauthorized(c)
			return
		}

		sum := sha256.Sum256([]byte(pass))
		passHash := hex.EncodeToString(sum[:])

		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(passHash), []byte(passwordHashHex)) == 1
		if !userOK || !passOK {
			logger.Warn("admin authentication failed", "client_ip", c.ClientIP())
			unauthorized(c)
			return
		}

		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Basic realm="invoice-scanner admin"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": "Invalid credentials",
		},
	})
}
