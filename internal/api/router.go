package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"skillswap/server/internal/api/handlers"
	"skillswap/server/internal/api/middleware"
	"skillswap/server/internal/config"
	"skillswap/server/internal/services"
	"skillswap/server/internal/storage"
	"skillswap/server/internal/ws"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient services.TaskEnqueuer) *gin.Engine {
	// Initialize services needed by API handlers
	userService := services.NewUserService(db)
	skillService := services.NewSkillService(db)

	registry := ws.NewRegistry()
	dispatcher := ws.NewDispatcher(registry)

	tradeService := services.NewTradeService(db, userService, skillService, dispatcher)
	reviewService := services.NewReviewService(db, tradeService, userService, dispatcher)
	chatService := services.NewChatService(db, userService, taskClient)
	matchService := services.NewMatchService(userService, skillService, nil, rdb, cfg.MatchCacheTTL)

	s3StorageService, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize S3 storage for API: %v", err)
	}

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Global middleware (order matters)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	// Initialize handlers
	restTradeHandler := handlers.NewRestTradeHandler(tradeService)
	restReviewHandler := handlers.NewRestReviewHandler(reviewService)
	restChatHandler := handlers.NewRestChatHandler(chatService, s3StorageService)
	restMatchHandler := handlers.NewRestMatchHandler(matchService)
	wsHandler := ws.NewHandler(registry, dispatcher, chatService, cfg.JwtSecret)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// The websocket endpoint authenticates itself from the token query
		// parameter, so it sits outside the auth group.
		v1.GET("/ws", wsHandler.ServeWS)

		// Authenticated routes (rate limiting already applied globally)
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			// Trade routes
			authRequired.POST("/trade", restTradeHandler.CreateTrade)
			authRequired.GET("/trade", restTradeHandler.ListTrades)
			authRequired.GET("/trade/:id", restTradeHandler.GetTrade)
			authRequired.PATCH("/trade/:id/status", restTradeHandler.UpdateTradeStatus)

			// Review routes
			authRequired.POST("/review", restReviewHandler.SubmitReview)
			authRequired.GET("/review/user/:id", restReviewHandler.GetUserReviews)
			authRequired.GET("/review/trade/:id", restReviewHandler.GetTradeReviews)

			// Chat routes - unread-count before :trade_id to avoid conflicts
			authRequired.GET("/chat/unread-count", restChatHandler.GetUnreadCount)
			authRequired.GET("/chat/:trade_id/history", restChatHandler.GetHistory)
			authRequired.POST("/chat/attachment", restChatHandler.CreateAttachmentUpload)

			// Match routes
			authRequired.GET("/match/:user_id", restMatchHandler.GetCompatibility)
		}
	}

	return r
}
