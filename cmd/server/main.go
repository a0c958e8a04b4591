package main

import (
	"context"
	"fmt"
	"log"

	"github.com/fleetops/fuel-ingest-service/internal/config"
	"github.com/fleetops/fuel-ingest-service/internal/database"
	"github.com/fleetops/fuel-ingest-service/internal/handler"
	"github.com/fleetops/fuel-ingest-service/internal/normalizer"
	"github.com/fleetops/fuel-ingest-service/internal/openrouter"
	"github.com/fleetops/fuel-ingest-service/internal/pipeline"
	"github.com/fleetops/fuel-ingest-service/internal/repository"
	"github.com/fleetops/fuel-ingest-service/internal/server"
	"github.com/fleetops/fuel-ingest-service/internal/service"
	"github.com/fleetops/fuel-ingest-service/internal/storage"
)

func main() {
	// Load configuration
	log.Println("Loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to the fleet database
	log.Println("Connecting to database...")
	db, err := database.Connect(context.Background(), cfg.PostgresURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	vehicleRepo := repository.NewPostgresVehicleRepository(db.Pool())
	fuelRepo := repository.NewPostgresFuelRepository(db.Pool())

	// Initialize OpenRouter client for invoice extraction
	extractionClient := openrouter.NewClient(&openrouter.Config{
		APIKey:  cfg.OpenRouterAPIKey,
		ModelID: cfg.OpenRouterModelID,
		Timeout: cfg.OpenRouterTimeout,
	})

	// Document archiver is optional; without S3 settings raw uploads are
	// processed but not retained
	var archiver *storage.DocumentArchiver
	if cfg.S3Endpoint != "" {
		archiver, err = storage.NewDocumentArchiver(&storage.Config{
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			AccessKeySecret: cfg.S3AccessKeySecret,
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
		})
		if err != nil {
			log.Printf("Warning: document archiver disabled: %v", err)
			archiver = nil
		}
	}

	// Assemble the ingestion pipeline
	log.Println("Creating batch ingestion orchestrator...")
	validator := pipeline.NewValidator(pipeline.ValidatorConfig{
		MinCostPerLitre: cfg.MinCostPerLitre,
		MaxCostPerLitre: cfg.MaxCostPerLitre,
		MinLitres:       cfg.MinLitres,
		MaxLitres:       cfg.MaxLitres,
		MinTotalCost:    cfg.MinTotalCost,
		MaxTotalCost:    cfg.MaxTotalCost,
	})
	orchestrator := service.NewBatchOrchestrator(
		normalizer.New(nil),
		extractionClient,
		validator,
		service.OrchestratorConfig{
			WindowSize:        cfg.WindowSize,
			WindowYield:       cfg.WindowYield,
			ExtractionTimeout: cfg.ExtractionTimeout,
		},
	)

	// Create handlers
	ingestHandler := handler.NewIngestHandler(orchestrator, vehicleRepo, fuelRepo, archiver)
	vehicleHandler := handler.NewVehicleHandler(vehicleRepo)

	// Create and configure server
	log.Println("Configuring server...")
	appServer := server.NewServer(cfg, ingestHandler, vehicleHandler)

	// Start server (blocking call)
	log.Printf("Starting server on port %d...", cfg.Port)
	if err := appServer.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server shutdown complete")
}
