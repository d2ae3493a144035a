// cmd/restock/main.go
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/config"
	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
	"github.com/Haffner32/hackathon-restock-ai/internal/engine"
	"github.com/Haffner32/hackathon-restock-ai/internal/forecast"
	"github.com/Haffner32/hackathon-restock-ai/internal/ingest"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "restock",
		Usage: "Predictive restock assistant",
		Commands: []*cli.Command{
			{
				Name:  "analyze",
				Usage: "Analyze a stock log and print restock recommendations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "Path to a stock-log CSV file",
					},
					&cli.StringFlag{
						Name:    "sheet-url",
						Usage:   "Published Google Sheet CSV URL",
						EnvVars: []string{"SHEET_CSV_URL"},
					},
					&cli.IntFlag{
						Name:  "horizon",
						Usage: "Forecast horizon in days",
						Value: 30,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of items analyzed concurrently",
						Value: 4,
					},
				},
				Action: runAnalyze,
			},
			{
				Name:  "sync",
				Usage: "Pull the configured sheet and persist observations to the database",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "sheet-url",
						Usage:   "Published Google Sheet CSV URL",
						EnvVars: []string{"SHEET_CSV_URL"},
					},
				},
				Action: runSync,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadSeries(c *cli.Context) (map[string][]domain.StockObservation, error) {
	if path := c.String("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		return ingest.ReadObservations(f)
	}

	sheetURL := c.String("sheet-url")
	if sheetURL == "" {
		return nil, fmt.Errorf("either --file or --sheet-url is required")
	}

	cfg := config.Load().Sheet
	cfg.CSVURL = sheetURL
	fetcher := ingest.NewSheetFetcher(cfg)
	return fetcher.Fetch(c.Context)
}

func runAnalyze(c *cli.Context) error {
	series, err := loadSeries(c)
	if err != nil {
		return err
	}

	eng := engine.New(forecast.NewAdditive, engine.Config{
		Forecaster: engine.ForecasterConfig{HorizonDays: c.Int("horizon")},
		FitTimeout: time.Minute,
		Workers:    c.Int("workers"),
	})

	results := eng.AnalyzeBatch(c.Context, series)
	failures := 0
	for _, res := range results {
		if res.Err != nil {
			failures++
			fmt.Printf("%-20s SKIPPED: %v\n", res.ItemID, res.Err)
			continue
		}
		d := res.Analysis.Decision
		fmt.Printf("%-20s order %.0f units (stock %.0f, seasonal %.0f, reactive %.0f, floor %.0f): %s\n",
			d.ItemID, d.OrderQuantity, d.CurrentStock,
			d.SeasonalForecast, d.ReactiveForecast, d.FallbackFloor,
			d.Rationale())
	}

	if failures == len(results) && failures > 0 {
		return fmt.Errorf("all %d item(s) failed analysis", failures)
	}
	return nil
}

func runSync(c *cli.Context) error {
	cfg := config.Load().Sheet
	if url := c.String("sheet-url"); url != "" {
		cfg.CSVURL = url
	}

	series, err := ingest.NewSheetFetcher(cfg).Fetch(c.Context)
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(c.Context); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := ensureObservationsTable(c.Context, db); err != nil {
		return err
	}

	total := 0
	for itemID, obs := range series {
		n, err := upsertObservations(c.Context, db, obs)
		if err != nil {
			return fmt.Errorf("failed to sync item %s: %w", itemID, err)
		}
		total += n
	}

	fmt.Printf("synced %d observation(s) across %d item(s)\n", total, len(series))
	return nil
}

func ensureObservationsTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS stock_observations (
			item_id     TEXT NOT NULL,
			observed_at TIMESTAMPTZ NOT NULL,
			on_hand     DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (item_id, observed_at)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func upsertObservations(ctx context.Context, db *sql.DB, obs []domain.StockObservation) (int, error) {
	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO stock_observations (item_id, observed_at, on_hand)
		VALUES ($1, $2, $3)
		ON CONFLICT (item_id, observed_at)
		DO UPDATE SET on_hand = EXCLUDED.on_hand
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for _, o := range obs {
		if _, err := stmt.ExecContext(ctx, o.ItemID, o.Timestamp, o.OnHand); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
