package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openaxm/walletgate/service"
)

// contextKeySession is the gin context key the session claims live under
const contextKeySession = "sessionClaims"

// SessionAuth creates middleware that validates Bearer session tokens.
// Verification is stateless (signature and expiry only); expired and
// forged tokens get the same response.
func SessionAuth(svc *service.VerificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		if len(auth) < 8 || auth[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		claims, err := svc.VerifySession(auth[7:])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		c.Set(contextKeySession, claims)

		c.Next()
	}
}
