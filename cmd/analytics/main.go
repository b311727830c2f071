// cmd/analytics/main.go
package main

import (
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/anomaly"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/cache"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/confidence"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/config"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/forecast"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/prep"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/repository/postgres"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/service"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/storage"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/transfer"
	"github.com/shelfwatch/shelfwatch/backend-go/pkg/logger"
)

// engine bundles the wired services the commands share.
type engine struct {
	cfg        *config.Config
	anomalies  *service.AnomalyService
	transfers  *service.TransferService
	prep       *service.PrepService
	confidence *service.ConfidenceService
	export     *service.ExportService
}

func newEngine(dbURL string) (*engine, error) {
	cfg := config.Load()

	var db *postgres.DB
	var err error
	if dbURL != "" {
		db, err = postgres.NewDBFromURL("pgx", dbURL)
	} else {
		db, err = postgres.NewDB(&cfg.Database)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	inventory := postgres.NewInventoryRepository(db)
	sales := postgres.NewSalesRepository(db)
	receipts := postgres.NewReceiptRepository(db)
	transferRepo := postgres.NewTransferRepository(db)
	distances := postgres.NewDistanceRepository(db)
	counts := postgres.NewCycleCountRepository(db)
	skus := postgres.NewSKURepository(db)
	stores := postgres.NewStoreRepository(db)
	events := postgres.NewAnomalyRepository(db)
	recommendations := postgres.NewRecommendationRepository(db)
	prepRepo := postgres.NewPrepRepository(db)

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	forecaster := forecast.NewForecaster(sales, cfg.Engine.Forecast)
	hourly := forecast.NewHourlyForecaster(sales, forecastCache, cfg.Engine.Hourly)
	detector := anomaly.NewDetector(inventory, sales, receipts, transferRepo, events, cfg.Engine.Anomaly)
	scorer := confidence.NewScorer(events, counts, skus, detector, cfg.Engine.Confidence)
	optimizer := transfer.NewOptimizer(stores, skus, inventory, distances, forecaster, cfg.Engine.Transfer)
	generator := prep.NewGenerator(skus, inventory, hourly, cfg.Engine.Prep)

	e := &engine{
		cfg:        cfg,
		anomalies:  service.NewAnomalyService(detector, events),
		transfers:  service.NewTransferService(optimizer, recommendations, transferRepo),
		prep:       service.NewPrepService(generator, prepRepo),
		confidence: service.NewConfidenceService(scorer, skus, inventory),
	}

	if cfg.Export.Enabled {
		bucket, err := storage.NewS3Client(cfg.Export)
		if err != nil {
			return nil, err
		}
		e.export = service.NewExportService(bucket)
	}
	return e, nil
}

func dbURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Postgres connection URL (falls back to the DB_* variables)",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func asOfFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "as-of",
		Usage: "Evaluation date in YYYY-MM-DD format",
		Value: time.Now().UTC().Format("2006-01-02"),
	}
}

func parseAsOf(c *cli.Context) (time.Time, error) {
	asOf, err := time.Parse("2006-01-02", c.String("as-of"))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid as-of date: %w", err)
	}
	return asOf, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "analytics",
		Usage: "Run inventory analytics passes from the command line",
		Commands: []*cli.Command{
			{
				Name:  "scan-anomalies",
				Usage: "Reconcile inventory movement and record unexplained changes",
				Flags: []cli.Flag{
					dbURLFlag(),
					asOfFlag(),
					&cli.BoolFlag{Name: "export", Usage: "Upload the findings as a CSV report"},
				},
				Action: runScan,
			},
			{
				Name:  "recommend-transfers",
				Usage: "Run one transfer optimizer pass and store its recommendations",
				Flags: []cli.Flag{
					dbURLFlag(),
					asOfFlag(),
					&cli.BoolFlag{Name: "export", Usage: "Upload the recommendations as a CSV report"},
				},
				Action: runTransfers,
			},
			{
				Name:  "prep-schedule",
				Usage: "Regenerate a store's prep schedule",
				Flags: []cli.Flag{
					dbURLFlag(),
					&cli.Int64Flag{Name: "store-id", Usage: "Store to schedule", Required: true},
				},
				Action: runPrep,
			},
			{
				Name:  "count-priorities",
				Usage: "Rank a store's SKUs for cycle counting",
				Flags: []cli.Flag{
					dbURLFlag(),
					asOfFlag(),
					&cli.Int64Flag{Name: "store-id", Usage: "Store to rank", Required: true},
				},
				Action: runCountPriorities,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("analytics command failed")
	}
}

func runScan(c *cli.Context) error {
	asOf, err := parseAsOf(c)
	if err != nil {
		return err
	}

	e, err := newEngine(c.String("db-url"))
	if err != nil {
		return err
	}

	findings, err := e.anomalies.Scan(c.Context, asOf)
	if err != nil {
		return err
	}

	for _, f := range findings {
		logger.Log.Info().
			Int64("store_id", f.StoreID).
			Int64("sku_id", f.SKUID).
			Str("date", f.Date).
			Float64("residual", f.Residual).
			Str("severity", f.Severity).
			Msg(f.Explanation)
	}

	if c.Bool("export") {
		if e.export == nil {
			return fmt.Errorf("export requested but EXPORT_ENABLED is false")
		}
		key, err := e.export.ExportAnomalyReport(c.Context, findings, asOf)
		if err != nil {
			return err
		}
		logger.Log.Info().Str("key", key).Msg("report uploaded")
	}
	return nil
}

func runTransfers(c *cli.Context) error {
	asOf, err := parseAsOf(c)
	if err != nil {
		return err
	}

	e, err := newEngine(c.String("db-url"))
	if err != nil {
		return err
	}

	result, err := e.transfers.RunPass(c.Context, asOf)
	if err != nil {
		return err
	}

	for _, rec := range result.Recommendations {
		logger.Log.Info().
			Int64("from", rec.FromStoreID).
			Int64("to", rec.ToStoreID).
			Int64("sku_id", rec.SKUID).
			Int("qty", rec.Qty).
			Float64("urgency", rec.UrgencyScore).
			Msg(rec.Rationale)
	}
	logger.Log.Info().
		Int("total", result.Summary.TotalOpportunities).
		Int("high_urgency", result.Summary.HighUrgency).
		Float64("estimated_savings", result.Summary.EstimatedSavings).
		Msg("pass summary")

	if c.Bool("export") {
		if e.export == nil {
			return fmt.Errorf("export requested but EXPORT_ENABLED is false")
		}
		key, err := e.export.ExportTransferReport(c.Context, result.Recommendations, asOf)
		if err != nil {
			return err
		}
		logger.Log.Info().Str("key", key).Msg("report uploaded")
	}
	return nil
}

func runPrep(c *cli.Context) error {
	e, err := newEngine(c.String("db-url"))
	if err != nil {
		return err
	}

	recs, err := e.prep.Generate(c.Context, c.Int64("store-id"), time.Now())
	if err != nil {
		return err
	}

	for _, rec := range recs {
		logger.Log.Info().
			Int64("sku_id", rec.SKUID).
			Str("sku", rec.SKUName).
			Time("prep_time", rec.PrepTime).
			Int("qty", rec.QtyToPrep).
			Str("priority", rec.Priority).
			Msg(rec.Reason)
	}
	return nil
}

func runCountPriorities(c *cli.Context) error {
	asOf, err := parseAsOf(c)
	if err != nil {
		return err
	}

	e, err := newEngine(c.String("db-url"))
	if err != nil {
		return err
	}

	candidates, err := e.confidence.CountPriorities(c.Context, c.Int64("store-id"), asOf)
	if err != nil {
		return err
	}

	for _, cand := range candidates {
		logger.Log.Info().
			Int64("sku_id", cand.SKUID).
			Str("sku", cand.SKUName).
			Float64("score", cand.Confidence.Score).
			Str("grade", cand.Confidence.Grade).
			Float64("priority", cand.Priority).
			Str("label", cand.PriorityLabel).
			Msg("count candidate")
	}
	return nil
}
