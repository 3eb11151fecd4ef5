package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/nft-registry/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, auth *middleware.Authenticator) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Transactions carry their own signature
		v1.POST("/transactions", handler.SubmitTransaction)
		v1.GET("/transactions/:tx_id", handler.GetTransaction)

		// Token reads are redacted for the optional bearer viewer
		v1.GET("/tokens/:token_id", middleware.ViewerAuth(auth), handler.GetToken)
		v1.GET("/owners/:address/tokens", middleware.ViewerAuth(auth), handler.ListOwnedTokens)
	}
}
