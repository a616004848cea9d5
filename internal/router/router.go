package router

import (
	"log"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/easeplatform/buddy-chat/backend/internal/auth"
	"github.com/easeplatform/buddy-chat/backend/internal/handlers"
	"github.com/easeplatform/buddy-chat/backend/internal/matching"
	appMiddleware "github.com/easeplatform/buddy-chat/backend/internal/middleware"
	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/internal/realtime"
	"github.com/easeplatform/buddy-chat/backend/internal/repositories"
	"github.com/easeplatform/buddy-chat/backend/pkg/config"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies.
// firebaseAuthClient may be nil when the local auth provider is configured.
func SetupRoutes(e *echo.Echo, cfg *config.Config, pgdb *gorm.DB, mgClient *mongo.Client, firebaseAuthClient *fbauth.Client, hub *realtime.Hub) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.BuddyPair{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	mongoDB := mgClient.Database(cfg.MongoDatabase)

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	profileRepo := repositories.NewPostgresProfileRepository(pgdb)
	pairRepo := repositories.NewPostgresBuddyPairRepository(pgdb)
	conversationRepo := repositories.NewMongoConversationRepository(mongoDB)
	messageRepo := repositories.NewMongoMessageRepository(mongoDB)

	// --- Auth strategy, selected by configuration ---
	var authService auth.Service
	switch cfg.AuthProvider {
	case "firebase":
		if firebaseAuthClient == nil {
			log.Fatal("AUTH_PROVIDER=firebase but no Firebase auth client is available")
		}
		authService = auth.NewFirebaseService(userRepo, firebaseAuthClient, cfg.JWTSecret)
		log.Println("Auth provider: firebase identity delegation.")
	default:
		authService = auth.NewLocalService(userRepo, cfg.JWTSecret)
		log.Println("Auth provider: local password digests.")
	}

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(authService, userRepo)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(appMiddleware.JWTAuthMiddleware(cfg.JWTSecret))
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	authHandler.RegisterSessionRoutes(api)

	// Buddy profile routes
	profileHandler := handlers.NewProfileHandler(profileRepo, userRepo)
	profileHandler.RegisterProfileRoutes(api)
	log.Println("Profile routes configured.")

	// Matching routes
	matcher := matching.NewMatcher(userRepo, profileRepo, pairRepo, conversationRepo)
	matchHandler := handlers.NewMatchHandler(matcher)
	matchHandler.RegisterMatchRoutes(api)
	log.Println("Matching routes configured.")

	// Conversation routes
	conversationHandler := handlers.NewConversationHandler(conversationRepo, profileRepo)
	conversationHandler.RegisterConversationRoutes(api)
	log.Println("Conversation routes configured.")

	// Message routes
	messageHandler := handlers.NewMessageHandler(messageRepo, conversationRepo, hub)
	messageHandler.RegisterMessageRoutes(api)
	log.Println("Message routes configured.")

	// Realtime change feed
	wsHandler := handlers.NewWSHandler(hub)
	wsHandler.RegisterWSRoutes(api)
	log.Println("Realtime websocket route configured.")

	log.Println("All routes configured.")
}
