package main

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/opengram/backend/internal/router"
	"github.com/opengram/backend/pkg/config"
	"github.com/opengram/backend/pkg/firebase"
	"github.com/opengram/backend/pkg/logger"
	"github.com/opengram/backend/validators"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.Env); err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := config.InitDB()
	if err != nil {
		logger.Fatal("failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB()

	// Firebase is optional; without credentials only local JWT auth works.
	var firebaseApp *firebase.App
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err = firebase.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath)
		if err != nil {
			logger.Fatal("failed to initialize Firebase", zap.Error(err))
		}
	} else {
		logger.Info("FIREBASE_CREDENTIALS_PATH not set, firebase login disabled")
	}

	e := echo.New()
	e.Validator = validators.NewValidator()
	router.SetupMiddleware(e)

	var authClient *auth.Client
	if firebaseApp != nil {
		authClient = firebaseApp.AuthClient
	}
	if err := router.SetupRoutes(e, db.Postgres, db.Mongo, db.Redis, authClient, cfg.JWTSecret); err != nil {
		logger.Fatal("failed to configure routes", zap.Error(err))
	}

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
