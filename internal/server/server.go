// Package server assembles the HTTP API from the domain packages.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"smartcity/internal/config"
	"smartcity/internal/domain/marketplace"
	"smartcity/internal/domain/messaging"
	"smartcity/internal/domain/notification"
	"smartcity/internal/domain/user"
	"smartcity/internal/middleware"
	"smartcity/internal/pkg/jwt"
)

// Models lists every table the API owns, in migration order.
func Models() []any {
	models := []any{&user.User{}}
	models = append(models, marketplace.Models()...)
	models = append(models, messaging.Models()...)
	models = append(models, &notification.Notification{})
	return models
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// NewRouter wires repositories, services and handlers onto engine.
func NewRouter(engine *gin.Engine, db *gorm.DB, cfg *config.Config) *gin.Engine {
	jwtService := jwt.New(cfg.JWTSecret, cfg.JWTTTL)

	userRepo := user.NewRepository(db)
	dispatcher := notification.NewDispatcher(notification.NewRepository(db))

	marketService := marketplace.NewService(db, userRepo, dispatcher)
	messagingService := messaging.NewService(db, userRepo, dispatcher)
	notificationService := notification.NewService(notification.NewRepository(db))
	userService := user.NewService(userRepo, jwtService, marketplace.NewRepository(db))

	userHandler := user.NewHandler(userService)
	marketHandler := marketplace.NewHandler(marketService)
	messagingHandler := messaging.NewHandler(messagingService)
	notificationHandler := notification.NewHandler(notificationService)

	engine.Use(middleware.RequestID())
	engine.Use(middleware.ErrorLogger())
	engine.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	{
		public := v1.Group("", middleware.OptionalJWTAuth(jwtService))
		userHandler.RegisterPublicRoutes(public)
		marketHandler.RegisterPublicRoutes(public)

		protected := v1.Group("", middleware.JWTAuth(jwtService))
		userHandler.RegisterProtectedRoutes(protected)
		marketHandler.RegisterProtectedRoutes(protected)
		messagingHandler.RegisterRoutes(protected)
		notificationHandler.RegisterRoutes(protected)
	}

	return engine
}
