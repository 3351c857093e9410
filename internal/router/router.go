package router

import (
	"database/sql"
	"time"

	"qr_review_backend/internal/handlers"
	"qr_review_backend/internal/integration/aiengine"
	"qr_review_backend/internal/repositories"
	"qr_review_backend/internal/services"
	"qr_review_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Initialize Repositories
	clientRepo := repositories.NewClientRepository(db)
	typeRepo := repositories.NewClientTypeRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)
	logRepo := repositories.NewReviewLogRepository(db)
	historyRepo := repositories.NewHistoryRepository(db)

	// Initialize Services
	aiEngineURL := utils.Getenv("AI_ENGINE_URL", "http://localhost:8000")
	generationTimeout := 30 * time.Second
	if raw := utils.Getenv("GENERATION_TIMEOUT", ""); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			generationTimeout = parsed
		}
	}
	generator := aiengine.NewClient(aiEngineURL, generationTimeout)

	clientService := services.NewClientService(clientRepo, typeRepo, historyRepo, db)
	typeService := services.NewClientTypeService(typeRepo, db)
	tokenService := services.NewTokenService(tokenRepo, db)
	reviewService := services.NewReviewService(clientService, typeRepo, logRepo, generator, db, generationTimeout)

	// Initialize Handlers
	clientHandler := handlers.NewClientHandler(clientService)
	typeHandler := handlers.NewClientTypeHandler(typeService)
	tokenHandler := handlers.NewTokenHandler(tokenService)
	publicHandler := handlers.NewPublicHandler(tokenService, clientService, reviewService)

	// Public funnel routes live at the root so printed QR codes stay short.
	SetupPublicRoutes(engine, publicHandler)

	admin := engine.Group("/api/v1/admin")
	{
		SetupClientRoutes(admin, clientHandler)
		SetupClientTypeRoutes(admin, typeHandler)
		SetupTokenRoutes(admin, tokenHandler)
		SetupStatsRoutes(admin, publicHandler)
	}
}
