package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/mehedi89/chirper/backend/internal/router"
	"github.com/mehedi89/chirper/backend/pkg/config"
	"github.com/mehedi89/chirper/backend/pkg/firebase"
	"github.com/mehedi89/chirper/backend/pkg/logging"
	"github.com/mehedi89/chirper/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Firebase is optional; without credentials offline push is disabled.
	var firebaseApp *firebase.App
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err = firebase.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Printf("Firebase unavailable, offline push disabled: %v", err)
			firebaseApp = nil
		}
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db.Postgres, db.Mongo, firebaseApp, logger)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
