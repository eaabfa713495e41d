// -----------------------------------------------------------------------
// Application Wiring - Builds and owns every service and handler
// -----------------------------------------------------------------------

package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/congrego/internal/common"
	"github.com/ternarybob/congrego/internal/directory"
	"github.com/ternarybob/congrego/internal/handlers"
	"github.com/ternarybob/congrego/internal/interfaces"
	"github.com/ternarybob/congrego/internal/parser"
	"github.com/ternarybob/congrego/internal/pipeline"
	"github.com/ternarybob/congrego/internal/storage"
	storagebadger "github.com/ternarybob/congrego/internal/storage/badger"
	"github.com/ternarybob/congrego/internal/sweeper"
	"github.com/ternarybob/congrego/internal/taskstore"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager *storagebadger.Manager
	TaskStore      interfaces.TaskStore
	GroupStorage   interfaces.GroupStorage

	DirectoryClient *directory.Client
	Pipeline        *pipeline.Service
	Sweeper         *sweeper.Sweeper

	// HTTP handlers
	APIHandler    *handlers.APIHandler
	UploadHandler *handlers.UploadHandler
	TaskHandler   *handlers.TaskHandler
	GroupHandler  *handlers.GroupHandler
	WSHandler     *handlers.WebSocketHandler
}

// New creates the application, wiring storage, the directory client, the
// ingestion pipeline and the HTTP handlers from configuration.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := a.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	a.initServices()
	a.initHandlers()

	if err := a.Sweeper.Start(cfg.Tasks.SweepSchedule); err != nil {
		return nil, fmt.Errorf("failed to start retention sweeper: %w", err)
	}

	logger.Info().
		Str("task_store", cfg.Tasks.Store).
		Str("directory_url", cfg.Directory.BaseURL).
		Msg("Application initialized")

	return a, nil
}

// initStorage opens BadgerDB and selects the task store backend. The group
// store is always persistent; the task store can run in memory when task
// history does not need to survive restarts.
func (a *App) initStorage() error {
	manager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return err
	}
	a.StorageManager = manager
	a.GroupStorage = manager.GroupStorage()

	switch a.Config.Tasks.Store {
	case "badger":
		a.TaskStore = manager.TaskStorage()
	default:
		a.TaskStore = taskstore.NewMemoryStore(a.Logger)
	}

	return nil
}

func (a *App) initServices() {
	cfg := a.Config

	a.DirectoryClient = directory.NewClient(cfg.Directory.APIKey,
		directory.WithBaseURL(cfg.Directory.BaseURL),
		directory.WithAPIVersion(cfg.Directory.APIVersion),
		directory.WithRateLimit(cfg.Directory.RateLimit),
		directory.WithHTTPClient(&http.Client{
			Timeout: common.ParseDurationOr(cfg.Directory.RequestTimeout, 30*time.Second),
		}),
		directory.WithLogger(a.Logger),
	)

	delayer := pipeline.NewFixedDelayer(common.ParseDurationOr(cfg.Directory.BatchDelay, 350*time.Millisecond))
	resolver := pipeline.NewBatchResolver(a.DirectoryClient, cfg.Directory.BatchSize, delayer, a.Logger)
	deduper := pipeline.NewDeduper(a.GroupStorage, a.Logger)

	a.WSHandler = handlers.NewWebSocketHandler(a.Logger)

	a.Pipeline = pipeline.NewService(
		parser.NewLineParser(),
		resolver,
		deduper,
		a.TaskStore,
		a.WSHandler,
		cfg.Upload,
		a.Logger,
	)

	a.Sweeper = sweeper.NewSweeper(a.TaskStore, common.ParseDurationOr(cfg.Tasks.Retention, 24*time.Hour), a.Logger)
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.UploadHandler = handlers.NewUploadHandler(a.Pipeline, a.Config.Upload, a.Logger)
	a.TaskHandler = handlers.NewTaskHandler(a.TaskStore, a.Logger)
	a.GroupHandler = handlers.NewGroupHandler(a.GroupStorage, a.Logger)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}

	if a.Pipeline != nil {
		a.Pipeline.Close()
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
			return err
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
