package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"

	"smartcity/internal/config"
	"smartcity/internal/database"
	"smartcity/internal/server"
)

// @title			Durban Smart City API
// @version			1.0
// @BasePath		/api/v1
// @securityDefinitions.apikey	BearerAuth
// @in				header
// @name			Authorization
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	level := logger.Warn
	if cfg.SQLDebug {
		level = logger.Info
	}
	db, err := database.Connect(cfg.DatabaseURL, database.WithLogLevel(level))
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	if err := server.Migrate(db); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := server.NewRouter(gin.Default(), db, cfg)

	log.Printf("api listening: port=%s env=%s", cfg.Port, cfg.AppEnv)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
