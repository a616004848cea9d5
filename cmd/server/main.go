package main

import (
	"context"
	"log"

	"github.com/easeplatform/buddy-chat/backend/internal/realtime"
	"github.com/easeplatform/buddy-chat/backend/internal/router"
	"github.com/easeplatform/buddy-chat/backend/pkg/config"
	"github.com/easeplatform/buddy-chat/backend/pkg/firebase"
	"github.com/easeplatform/buddy-chat/backend/validators"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase only when the delegating auth provider is configured
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var firebaseAuthClient *fbauth.Client
	if cfg.AuthProvider == "firebase" {
		firebaseAuthClient, err = firebase.NewAuthClient(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
	}

	// Realtime hub + change feed
	hub := realtime.NewHub()
	feed := realtime.NewChangeFeed(db.Mongo.Database(cfg.MongoDatabase), hub)
	feed.Run(ctx)

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, cfg, db.Postgres, db.Mongo, firebaseAuthClient, hub)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
