package router

import (
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/playmaker/backend/internal/handlers"
	"github.com/anonto42/playmaker/backend/internal/metrics"
	"github.com/anonto42/playmaker/backend/internal/middleware"
	"github.com/anonto42/playmaker/backend/internal/realtime"
	"github.com/anonto42/playmaker/backend/internal/repositories"
	"github.com/anonto42/playmaker/backend/internal/services"
	"github.com/anonto42/playmaker/backend/pkg/config"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	authRatePerSecond = 5
	authRateBurst     = 10
)

// Dependencies are the process-wide handles the routes are built from
type Dependencies struct {
	Postgres     *gorm.DB
	Mongo        *mongo.Database
	FirebaseAuth *auth.Client // nil disables Firebase login
	Hub          *realtime.Hub
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
	JWTSecret    string
	TokenTTL     time.Duration
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) error {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.Postgres)
	playerRepo := repositories.NewPostgresPlayerRepository(deps.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(deps.Postgres)
	postRepo := repositories.NewMongoPostRepository(deps.Mongo)

	postService, err := services.NewTimelinePostService(services.TimelinePostDeps{
		Posts:         postRepo,
		Users:         userRepo,
		Notifications: notificationRepo,
		Broadcaster:   deps.Hub,
		Logger:        logger.Named("timeline"),
		Metrics:       deps.Metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to build timeline post service: %w", err)
	}

	var firebaseVerifier middleware.TokenVerifier
	if deps.FirebaseAuth != nil {
		firebaseVerifier = deps.FirebaseAuth
	}
	authenticator := middleware.NewAuthenticator(deps.JWTSecret, logger.Named("auth")).
		WithFirebase(firebaseVerifier, userRepo)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth", config.AuthRateLimiter(authRatePerSecond, authRateBurst))
	authHandler := handlers.NewAuthHandler(userRepo, authenticator, firebaseVerifier, deps.TokenTTL, logger.Named("auth"))
	authHandler.RegisterAuthRoutes(authGroup)

	public := e.Group("/api/v1")
	playerHandler := handlers.NewPlayerHandler(playerRepo, userRepo)
	playerHandler.RegisterPublicPlayerRoutes(public)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1", authenticator.Middleware())

	handlers.NewUserHandler(userRepo).RegisterProfileRoutes(api)
	playerHandler.RegisterPlayerRoutes(api)
	handlers.NewTimelinePostHandler(postService).RegisterTimelinePostRoutes(api)
	handlers.NewNotificationHandler(notificationRepo, userRepo).RegisterNotificationRoutes(api)

	realtimeHandler := handlers.NewRealtimeHandler(deps.Hub, logger.Named("realtime"))
	e.GET("/ws", realtimeHandler.Connect, authenticator.Middleware())

	logger.Info("routes configured", zap.Int("count", len(e.Routes())), zap.Bool("firebase", firebaseVerifier != nil))
	return nil
}
