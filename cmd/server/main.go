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

	"github.com/mamadbah2/challans/internal/config"
	"github.com/mamadbah2/challans/internal/repository"
	"github.com/mamadbah2/challans/internal/repository/memory"
	"github.com/mamadbah2/challans/internal/repository/mongodb"
	"github.com/mamadbah2/challans/internal/repository/sheets"
	"github.com/mamadbah2/challans/internal/scheduler"
	"github.com/mamadbah2/challans/internal/server/handlers"
	"github.com/mamadbah2/challans/internal/server/router"
	assetsvc "github.com/mamadbah2/challans/internal/service/assets"
	catalogsvc "github.com/mamadbah2/challans/internal/service/catalog"
	challansvc "github.com/mamadbah2/challans/internal/service/challans"
	"github.com/mamadbah2/challans/internal/service/documents"
	reportingsvc "github.com/mamadbah2/challans/internal/service/reporting"
	"github.com/mamadbah2/challans/internal/service/tracker"
	whatsappsvc "github.com/mamadbah2/challans/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/challans/pkg/clients/whatsapp"
	"github.com/mamadbah2/challans/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)
	loc := cfg.Location()

	store, err := openStore(cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init record store", zap.Error(err), zap.String("backend", cfg.Store.Backend))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close record store", zap.Error(err))
		}
	}()

	trackerLogger := baseLogger.Named("svc.tracker")
	returnables := tracker.New(store, trackerLogger,
		tracker.WithLocation(loc),
		tracker.WithRefreshHook(func(ctx context.Context) {
			trackerLogger.Debug("returnable view reconciled")
		}),
	)

	challanOpts := []challansvc.Option{
		challansvc.WithLocation(loc),
		challansvc.WithChangeHook(func(ctx context.Context) {
			if err := returnables.Refresh(ctx); err != nil {
				trackerLogger.Warn("tracker refresh after challan change failed", zap.Error(err))
			}
		}),
	}
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		challanOpts = append(challanOpts, challansvc.WithRegister(sheets.NewChallanRegister(sheetsRepo, baseLogger.Named("repo.register"))))
		baseLogger.Info("challan register mirror enabled")
	}

	challanSvc := challansvc.NewService(store, cfg.Challans.Prefix, baseLogger.Named("svc.challans"), challanOpts...)
	catalogSvc := catalogsvc.NewService(store, baseLogger.Named("svc.catalog"))
	assetSvc := assetsvc.NewService(store, loc, baseLogger.Named("svc.assets"))
	docs := documents.NewGenerator(cfg.Documents.TemplateDir, baseLogger.Named("svc.documents"))
	reportingSvc := reportingsvc.NewService(store, returnables, baseLogger.Named("svc.reporting"))

	var messagingSvc whatsappsvc.MessagingService
	if cfg.WhatsApp.Enabled() {
		messagingSvc = whatsappsvc.NewMetaWhatsAppService(whatsappclient.NewClient(cfg.WhatsApp), baseLogger.Named("svc.whatsapp"))
		baseLogger.Info("whatsapp reminders enabled")
	} else {
		messagingSvc = whatsappsvc.NewNoopMessagingService(baseLogger.Named("svc.whatsapp"))
		baseLogger.Warn("whatsapp credentials missing, reminders will only be recorded")
	}

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if err := returnables.Refresh(bootCtx); err != nil {
		baseLogger.Warn("initial tracker refresh failed", zap.Error(err))
	}
	cancelBoot()

	sched := scheduler.NewScheduler(*cfg, returnables, reportingSvc, messagingSvc, store, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	engine := router.New(router.Handlers{
		Challans:  handlers.NewChallanHandler(challanSvc, catalogSvc, docs, baseLogger.Named("handlers.challans")),
		Tracker:   handlers.NewTrackerHandler(returnables, tracker.NewConfirmations(returnables, tracker.PendingTTL), baseLogger.Named("handlers.tracker")),
		Tracking:  handlers.NewTrackingHandler(assetSvc, baseLogger.Named("handlers.tracking")),
		Dashboard: handlers.NewDashboardHandler(reportingSvc, sched, store, baseLogger.Named("handlers.dashboard")),
		Projects:  handlers.NewProjectHandler(catalogSvc, baseLogger.Named("handlers.projects")),
		Clients:   handlers.NewClientHandler(catalogSvc, baseLogger.Named("handlers.clients")),
		Locations: handlers.NewLocationHandler(catalogSvc, baseLogger.Named("handlers.locations")),
		Assets:    handlers.NewAssetHandler(assetSvc, baseLogger.Named("handlers.assets")),
	}, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
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

func openStore(cfg *config.Config, baseLogger *zap.Logger) (repository.Store, error) {
	if cfg.Store.Backend == config.BackendMemory {
		baseLogger.Warn("using in-memory record store, data is lost on restart")
		return memory.NewStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
}
