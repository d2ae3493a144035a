// cmd/syncer/main.go
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/Haffner32/hackathon-restock-ai/internal/cache"
	"github.com/Haffner32/hackathon-restock-ai/internal/config"
	"github.com/Haffner32/hackathon-restock-ai/internal/engine"
	"github.com/Haffner32/hackathon-restock-ai/internal/forecast"
	"github.com/Haffner32/hackathon-restock-ai/internal/ingest"
	"github.com/Haffner32/hackathon-restock-ai/internal/repository/postgres"
	"github.com/Haffner32/hackathon-restock-ai/internal/service"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Sheet fetcher for the configured stock log
	fetcher := ingest.NewSheetFetcher(cfg.Sheet)

	eng := engine.New(forecast.NewAdditive, engine.Config{
		Forecaster: engine.ForecasterConfig{
			HorizonDays:    cfg.Forecast.HorizonDays,
			ReactiveWindow: cfg.Forecast.ReactiveWindow,
			SeasonalFlex:   cfg.Forecast.SeasonalFlex,
			ReactiveFlex:   cfg.Forecast.ReactiveFlex,
		},
		Workers: cfg.Forecast.BatchWorkers,
	})

	restockService := service.NewRestockService(
		postgres.NewObservationRepository(db),
		postgres.NewDecisionRepository(db),
		cache.NewNoopAnalysisCache(),
		eng,
		nil,
	)

	// Create router
	r := mux.NewRouter()

	r.HandleFunc("/sync", func(w http.ResponseWriter, req *http.Request) {
		series, err := fetcher.Fetch(req.Context())
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}

		summary, err := restockService.IngestSeries(req.Context(), series)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}).Methods("POST")

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Sheet syncer starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
