package http

import (
	"github.com/gin-gonic/gin"

	"github.com/openaxm/walletgate/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(svc *service.VerificationService) *gin.Engine {
	router := gin.Default()

	handlers := NewVerificationHandlers(svc)

	// Challenge protocol routes
	challenges := router.Group("/challenges")
	{
		challenges.POST("", handlers.IssueChallenge)
		challenges.GET("/status", handlers.CheckStatus)
	}

	// Session-protected routes
	session := router.Group("/session")
	session.Use(SessionAuth(svc))
	{
		session.GET("/me", handlers.Me)
	}

	return router
}
