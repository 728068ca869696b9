package router

import (
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/opengram/backend/internal/cache"
	"github.com/opengram/backend/internal/handlers"
	"github.com/opengram/backend/internal/middleware"
	"github.com/opengram/backend/internal/models"
	"github.com/opengram/backend/internal/repositories"
	"github.com/opengram/backend/internal/services"
	"github.com/opengram/backend/pkg/logger"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
}

// SetupRoutes wires repositories, services and handlers and registers all
// application routes. firebaseAuthClient and redisClient may be nil.
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, redisClient *redis.Client, firebaseAuthClient *auth.Client, jwtSecret string) error {
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Like{},
		&models.Comment{},
		&models.Event{},
		&models.Notification{},
	)
	if err != nil {
		return err
	}
	logger.Info("postgres auto-migrations completed")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	followRepo := repositories.NewPostgresFollowRepository(pgdb)
	likeRepo := repositories.NewPostgresLikeRepository(pgdb)
	commentRepo := repositories.NewPostgresCommentRepository(pgdb)
	eventRepo := repositories.NewPostgresEventRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	postRepo := repositories.NewMongoPostRepository(mgClient.Database("opengram"))

	// --- Services ---
	var unread *cache.UnreadCounter
	if redisClient != nil {
		unread = cache.NewUnreadCounter(redisClient, 5*time.Minute)
	}
	accessPolicy := services.NewAccessPolicy(followRepo, userRepo)
	notificationService := services.NewNotificationService(
		eventRepo, notificationRepo, followRepo, accessPolicy, postRepo, commentRepo, unread)
	followService := services.NewFollowService(followRepo, userRepo, notificationService)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, firebaseAuthClient, jwtSecret)
	authHandler.RegisterAuthRoutes(authGroup)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(jwtSecret))

	userHandler := handlers.NewUserHandler(userRepo, followRepo, followService)
	userHandler.RegisterProfileRoutes(api)

	followHandler := handlers.NewFollowHandler(followService, followRepo)
	followHandler.RegisterFollowRoutes(api)

	postHandler := handlers.NewPostHandler(postRepo, accessPolicy, notificationService)
	postHandler.RegisterPostRoutes(api)

	likeHandler := handlers.NewLikeHandler(likeRepo, postRepo, accessPolicy, notificationService)
	likeHandler.RegisterLikeRoutes(api)

	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, accessPolicy, notificationService)
	commentHandler.RegisterCommentRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(notificationService)
	notificationHandler.RegisterNotificationRoutes(api)

	logger.Info("all routes configured")
	return nil
}
