package mesher

import (
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudcopper/mesher/adapters"
	"github.com/cloudcopper/mesher/adapters/http"
	"github.com/cloudcopper/mesher/adapters/http/controllers"
	"github.com/cloudcopper/mesher/adapters/repository"
	"github.com/cloudcopper/mesher/domain/errors"
	"github.com/cloudcopper/mesher/infra"
	"github.com/cloudcopper/mesher/infra/config"
	"github.com/cloudcopper/mesher/lib"
	"github.com/cloudcopper/mesher/ports"
	"github.com/spf13/afero"
)

// App execute application and returns error, when complete by ctrl-c.
// The application reads config from layered filesystem,
// which consists of next layers:
//   - ./ of ${MESHER_ROOT} (optional)
//   - ./ of current working directory
//   - fs given as parameter (cmdFS)
func App(log ports.Logger, cmdFS fs.FS) error {
	var realFS ports.FS = afero.NewOsFs()

	// EventBus
	var bus ports.EventBus = infra.NewEventBus()
	defer bus.Shutdown()

	// Create layered filesystem
	layers, err := infra.NewLayerFileSystem(config.TopRootFileSystemPath, os.Getwd, cmdFS)
	if err != nil {
		log.Error("unable to create layered filesystem", slog.Any("err", err))
		return lib.NewErrorCode(err, errors.RetLayerFilesystemError)
	}

	// Load configuration
	cfg, err := config.LoadConfig(log, layers)
	if err != nil {
		log.Error("unable to load config", slog.Any("err", err))
		return lib.NewErrorCode(err, errors.RetLoadConfigError)
	}

	// Open database
	driver := infra.DriverSqlite
	source := infra.SourceSqlite(cfg.HistoryDB)
	db, closeDb, err := infra.NewDatabase(log, driver, source)
	if err != nil {
		log.Error("unable to create database", slog.Any("err", err), slog.String("driver", driver), slog.String("source", source))
		return lib.NewErrorCode(err, errors.RetCreateDatabaseError)
	}
	defer closeDb()
	// Sync database
	if err := infra.MigrateDatabase(db); err != nil {
		log.Error("unable sync database", slog.Any("err", err), slog.String("driver", driver), slog.String("source", source))
		return lib.NewErrorCode(err, errors.RetMigrateDatabaseError)
	}
	// Create history repository
	historyRepository, err := repository.NewConversionRepository(db, realFS)
	if err != nil {
		log.Error("unable create history repository", slog.Any("err", err))
		return lib.NewErrorCode(err, errors.RetCreateHistoryRepository)
	}
	// Create history service
	// - stores every artifact state change
	historyService := NewHistoryService(log, bus, historyRepository, config.HistoryLimit)
	defer historyService.Close()

	// Prepare temp folder and remove leftovers of previous run
	if _, err := prepareTempFolder(log, realFS, cfg.TempFolder); err != nil {
		log.Error("unable to prepare temp folder", slog.Any("err", err), slog.String("folder", cfg.TempFolder))
		return lib.NewErrorCode(err, errors.RetStartupSweepError)
	}
	store, err := adapters.NewTempStoreAdapter(log, realFS, cfg.TempFolder, int64(cfg.MaxUploadSize))
	if err != nil {
		log.Error("unable to create temp store", slog.Any("err", err))
		return lib.NewErrorCode(err, errors.RetCreateTempFolderError)
	}

	// Create geometry engine
	// The engine calls are limited by configured concurrency
	engine := infra.NewExecEngine(log, realFS, cfg.Engine.Command, cfg.Engine.Args, cfg.Engine.Timeout.Std())
	converter := adapters.NewConversionAdapter(log, realFS, store, adapters.NewSerializedEngine(engine, cfg.Engine.Concurrency))

	// Create artifact service
	// - creates artifacts by uploads and inbox files
	// - disposes expired artifacts
	ids := adapters.NewIdentityAllocator(cfg.Identity)
	artifactService := NewArtifactService(log, ArtifactServiceConfig{
		MaxAge:        cfg.MaxAge.Std(),
		SweepInterval: config.SweepInterval,
	}, bus, ids, store, converter, realFS)
	defer artifactService.Close()

	// Optional inbox folder
	if cfg.Inbox != "" {
		inboxWatcher, err := infra.NewWatcherService("inbox", log, bus)
		if err != nil {
			log.Error("unable to create new watcher service", slog.Any("err", err))
			return lib.NewErrorCode(err, errors.RetCreateInboxWatcherError)
		}
		defer inboxWatcher.Close()
		inboxService, err := NewInboxService(log, bus, artifactService, realFS, cfg.Inbox, cfg.Outbox, config.InboxSettle)
		if err != nil {
			log.Error("unable to create inbox service", slog.Any("err", err))
			return lib.NewErrorCode(err, errors.RetCreateInboxWatcherError)
		}
		defer inboxService.Close()
	}

	// Create router
	// The request timeout covers upload and conversion
	timeout := time.Duration(0)
	if t := cfg.Engine.Timeout.Std(); t > 0 {
		timeout = 2 * t
	}
	router := newRouter(log, timeout, int64(cfg.MaxUploadSize), artifactService, historyService)
	// Create http server
	// The router must has all routes already
	// It will start server in separate goroutine
	addr := config.Listen
	httpServer, err := infra.NewWebServer(log, addr, router)
	if err != nil {
		log.Error("unable create web server", slog.Any("err", err), slog.String("addr", addr))
		return lib.NewErrorCode(err, errors.RetCreateWebServerError)
	}

	// Add ctrl-c shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	log.Info("press ctrl-c to exit")
	// Wait for ctrl-c
	<-c

	// Close http server first, so in-flight uploads dispose own artifacts
	httpServer.Close()
	return nil
}

// newRouter creates router with all routes of the service
func newRouter(log ports.Logger, timeout time.Duration, maxUploadSize int64, as *ArtifactService, hs *HistoryService) ports.Router {
	router := http.NewRouter(log, timeout)
	render := infra.NewRender()
	// Create controllers
	uploadController := controllers.NewUploadController(log, render, as, maxUploadSize)
	conversionController := controllers.NewConversionController(log, render, hs)
	healthController := controllers.NewHealthController(log, render, as)
	// Add routes
	router.Post("/upload", uploadController.Upload)
	router.Get("/conversions", conversionController.List)
	router.Get("/conversions/{artifactID}", conversionController.Get)
	router.Get("/healthz", healthController.Health)
	router.NotFound(healthController.NotFound)
	return router
}
