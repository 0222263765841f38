package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/estoque/internal/cache"
	"github.com/mamadbah2/estoque/internal/config"
	"github.com/mamadbah2/estoque/internal/domain/models"
	"github.com/mamadbah2/estoque/internal/repository/mongodb"
	"github.com/mamadbah2/estoque/internal/repository/sheets"
	"github.com/mamadbah2/estoque/internal/scheduler"
	"github.com/mamadbah2/estoque/internal/server/handlers"
	"github.com/mamadbah2/estoque/internal/server/router"
	"github.com/mamadbah2/estoque/internal/service/inventory"
	"github.com/mamadbah2/estoque/pkg/clients/sheetexport"
	"github.com/mamadbah2/estoque/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	source := newSource(cfg, baseLogger)

	var recorder inventory.LookupRecorder
	if cfg.MongoDB.URI != "" {
		connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoRepo, err := mongodb.NewLookupRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		cancel()
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		recorder = mongoRepo
		baseLogger.Info("lookup audit enabled", zap.String("db", cfg.MongoDB.DBName))
	}

	columns := models.ColumnSet{
		Code:                cfg.Columns.Code,
		ProductName:         cfg.Columns.ProductName,
		StockGroup:          cfg.Columns.StockGroup,
		QuantityInStock:     cfg.Columns.QuantityInStock,
		WeeklyAverageSales:  cfg.Columns.WeeklyAverageSales,
		StockAnalysisStatus: cfg.Columns.StockAnalysisStatus,
	}

	mode, err := inventory.ParseCleaningMode(cfg.Pipeline.NumericCleaning)
	if err != nil {
		baseLogger.Fatal("invalid numeric cleaning mode", zap.Error(err))
	}
	if cfg.Pipeline.RepairLeadingZero || cfg.Pipeline.PadLeadingZero {
		baseLogger.Warn("leading zero heuristics enabled, whole values between 10 and 999 may be misread",
			zap.Bool("repair", cfg.Pipeline.RepairLeadingZero),
			zap.Bool("pad", cfg.Pipeline.PadLeadingZero))
	}

	location := cfg.Pipeline.Location()
	inventorySvc := inventory.NewService(
		source,
		cache.NewTTL[models.InventoryTable](cfg.Cache.TTL),
		inventory.NewNormalizer(columns, inventory.NormalizerOptions{
			Mode:              mode,
			RepairLeadingZero: cfg.Pipeline.RepairLeadingZero,
		}),
		inventory.NewFormatter(columns, inventory.FormatterOptions{
			Decimals:       int32(cfg.Pipeline.DisplayDecimals),
			PadLeadingZero: cfg.Pipeline.PadLeadingZero,
			Location:       location,
		}),
		recorder,
		logger.Named(baseLogger, "svc.inventory"),
	)

	inventoryHandler := handlers.NewInventoryHandler(inventorySvc, logger.Named(baseLogger, "handlers.inventory"))
	engine := router.New(inventoryHandler, logger.Named(baseLogger, "router"))

	if cfg.Cache.WarmSchedule != "" {
		sched := scheduler.NewScheduler(cfg.Cache.WarmSchedule, location, inventorySvc, logger.Named(baseLogger, "scheduler"))
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("source", cfg.Sheets.Source),
			zap.Duration("cache_ttl", cfg.Cache.TTL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newSource picks the sheet reader. Neither touches the network or the
// credentials here; failures surface as load errors of the first render.
func newSource(cfg *config.Config, base *zap.Logger) inventory.Source {
	if cfg.Sheets.Source == config.SourceCSVExport {
		base.Info("reading inventory from csv export", zap.String("spreadsheet_id", cfg.Sheets.SpreadsheetID))
		return sheetexport.NewClient(cfg.Sheets, logger.Named(base, "client.sheetexport"))
	}
	return sheets.NewGoogleSheetRepository(cfg.Sheets, logger.Named(base, "repo.sheets"))
}
