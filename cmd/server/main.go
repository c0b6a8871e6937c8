package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pharmaprocure/backend/config"
	httpDelivery "github.com/pharmaprocure/backend/internal/delivery/http"
	"github.com/pharmaprocure/backend/internal/infrastructure/cache"
	"github.com/pharmaprocure/backend/internal/infrastructure/sqlite"
	"github.com/pharmaprocure/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger := config.SetupLogger(cfg.Log)
	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("database", cfg.Database.Path).
		Msg("starting pharmaprocure backend v1.0.0")

	// Open storage
	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	catalogRepo := sqlite.NewCatalogRepo(db)
	aliasRepo := sqlite.NewAliasRepo(db)
	offerRepo := sqlite.NewOfferRepo(db)
	snapshots := cache.NewSnapshotCache(5 * time.Minute)

	// Initialize usecase layer
	simplifier, err := usecase.NewNameSimplifier(cfg.Simplifier.NoisePatterns)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid simplifier configuration")
	}

	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		CutoffTokenSort:    cfg.Matching.CutoffTokenSort,
		CutoffTokenSet:     cfg.Matching.CutoffTokenSet,
		CutoffPartial:      cfg.Matching.CutoffPartial,
		ScoreTolerance:     cfg.Matching.ScoreTolerance,
		ConfidenceHigh:     cfg.Matching.ConfidenceHigh,
		ConfidenceMedium:   cfg.Matching.ConfidenceMedium,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	}, aliasRepo)

	procurement := usecase.NewProcurementService(
		catalogRepo, offerRepo, aliasRepo,
		matcher, usecase.NewCostService(), simplifier, snapshots,
	)

	log.Info().
		Int("cutoff_token_sort", cfg.Matching.CutoffTokenSort).
		Int("cutoff_token_set", cfg.Matching.CutoffTokenSet).
		Int("cutoff_partial", cfg.Matching.CutoffPartial).
		Int("score_tolerance", cfg.Matching.ScoreTolerance).
		Msg("matching configured")

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(procurement)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("server listening")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
