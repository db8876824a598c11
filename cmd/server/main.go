package main

import (
	"log"
	"time"

	"tabular-reconciliation-backend/internal/config"
	"tabular-reconciliation-backend/internal/repository"
	"tabular-reconciliation-backend/internal/routes"
	service "tabular-reconciliation-backend/internal/services/reconciliation"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	var runRepo *repository.RunRepository
	if db != nil {
		runRepo = repository.NewRunRepository(db)
		if err := runRepo.Migrate(); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	reconService, err := service.NewReconciliationService(runRepo, service.Options{
		Normalizer: cfg.Normalizer,
		Loader:     cfg.LoaderOptions(),
		Match:      cfg.MatchOptions(),
		CacheSize:  cfg.ResultCacheSize,
	})
	if err != nil {
		log.Fatalf("reconciliation service: %v", err)
	}

	r := gin.Default()
	r.MaxMultipartMemory = cfg.MaxUploadMB << 20
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, reconService, cfg.MaxUploadMB<<20)

	log.Printf("listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
