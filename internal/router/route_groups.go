package router

import (
	"qr_review_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupPublicRoutes sets up the unauthenticated funnel routes hit from
// scanned QR codes.
func SetupPublicRoutes(engine *gin.Engine, publicHandler *handlers.PublicHandler) {
	engine.GET("/r/:token", publicHandler.ResolveToken)
	engine.GET("/qr/:token", publicHandler.RedirectToken)
	engine.GET("/public-client/:client_id", publicHandler.GetPublicClient)
	engine.POST("/api/generate-review", publicHandler.GenerateReview)
}

// SetupClientRoutes sets up the admin client routes.
func SetupClientRoutes(adminGroup *gin.RouterGroup, clientHandler *handlers.ClientHandler) {
	clientRoutes := adminGroup.Group("/clients")
	{
		clientRoutes.POST("", clientHandler.CreateClient)
		clientRoutes.GET("", clientHandler.GetClients)
		clientRoutes.GET("/:id", clientHandler.GetClientByID)
		clientRoutes.PUT("/:id", clientHandler.UpdateClient)
		clientRoutes.DELETE("/:id", clientHandler.DeleteClient)
		clientRoutes.POST("/:id/payments", clientHandler.AddPayment)
		clientRoutes.GET("/:id/payments", clientHandler.GetPayments)
		clientRoutes.GET("/:id/history", clientHandler.GetServiceHistory)
	}
}

// SetupClientTypeRoutes sets up the admin client type routes.
func SetupClientTypeRoutes(adminGroup *gin.RouterGroup, typeHandler *handlers.ClientTypeHandler) {
	typeRoutes := adminGroup.Group("/client-types")
	{
		typeRoutes.POST("", typeHandler.CreateClientType)
		typeRoutes.GET("", typeHandler.GetClientTypes)
		typeRoutes.GET("/:id", typeHandler.GetClientTypeByID)
		typeRoutes.PUT("/:id", typeHandler.UpdateClientType)
		typeRoutes.DELETE("/:id", typeHandler.DeleteClientType)
	}
}

// SetupTokenRoutes sets up the admin QR token routes.
func SetupTokenRoutes(adminGroup *gin.RouterGroup, tokenHandler *handlers.TokenHandler) {
	tokenRoutes := adminGroup.Group("/qr")
	{
		tokenRoutes.POST("", tokenHandler.MintTokens)
		tokenRoutes.GET("", tokenHandler.GetTokens)
		tokenRoutes.GET("/free", tokenHandler.GetFreeTokens)
		tokenRoutes.GET("/:token", tokenHandler.GetToken)
		tokenRoutes.POST("/:token/assign", tokenHandler.AssignToken)
		tokenRoutes.POST("/:token/unassign", tokenHandler.UnassignToken)
		tokenRoutes.POST("/:token/disable", tokenHandler.DisableToken)
	}
}

// SetupStatsRoutes sets up the admin QR stats routes.
func SetupStatsRoutes(adminGroup *gin.RouterGroup, publicHandler *handlers.PublicHandler) {
	adminGroup.GET("/qr-stats/:client_id", publicHandler.GetQrStats)
}
