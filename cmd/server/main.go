package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"crm-backend/internal/config"
	"crm-backend/internal/database"
	"crm-backend/internal/handlers"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	if err := database.InitDB(cfg); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	r := handlers.SetupRouter()
	log.Printf("listening on :%s", cfg.ListenPort)
	if err := r.Run(":" + cfg.ListenPort); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
