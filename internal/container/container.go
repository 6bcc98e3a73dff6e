// Package container wires the export pipeline and owns its lifecycle.
package container

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/tietracker/tiexport/internal/config"
	"github.com/tietracker/tiexport/internal/delivery"
	"github.com/tietracker/tiexport/internal/export"
	"github.com/tietracker/tiexport/internal/i18n"
	"github.com/tietracker/tiexport/internal/repository"
	"github.com/tietracker/tiexport/internal/share"
	"github.com/tietracker/tiexport/internal/spreadsheet"
	"github.com/tietracker/tiexport/internal/storage"
	"github.com/tietracker/tiexport/internal/worker"
	"github.com/tietracker/tiexport/pkg/database"
	"go.uber.org/zap"
)

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and close in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	db       *database.DB
	projects *repository.ProjectRepository
	tasks    *repository.TaskRepository

	exportWorker *worker.ExportWorker
	workers      *worker.Manager
	service      *export.Service

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components; call Start.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes the database, the export worker and the delivery strategies
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	if err := c.initDatabase(ctx); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized", zap.String("path", c.config.Database.Path))

	if err := c.initWorkers(ctx); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize workers: %w", err)
	}

	if err := c.initService(); err != nil {
		c.workers.StopAll()
		c.closeDatabase()
		return fmt.Errorf("failed to initialize export service: %w", err)
	}

	c.ready.Store(true)
	c.logger.Info("Container started")
	return nil
}

// Close stops the workers and closes the database. Closing twice is an error.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	if c.workers != nil {
		c.workers.StopAll()
	}

	err := c.closeDatabase()

	c.closed.Store(true)
	c.ready.Store(false)

	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("Container closed")
	return nil
}

// Ready returns true when all components are initialized
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	set := func(name string, h ComponentHealth) {
		status.Components[name] = h
		if !h.Healthy {
			status.Overall = false
		}
	}

	c.mu.Lock()
	db, exportWorker := c.db, c.exportWorker
	c.mu.Unlock()

	switch {
	case db == nil:
		set("database", ComponentHealth{Message: "not initialized"})
	default:
		if err := db.PingContext(ctx); err != nil {
			set("database", ComponentHealth{Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			set("database", ComponentHealth{Healthy: true})
		}
	}

	if exportWorker == nil {
		set("export_worker", ComponentHealth{Message: "not initialized"})
	} else {
		ws := exportWorker.GetStatus()
		set("export_worker", ComponentHealth{
			Healthy: ws.IsRunning,
			Message: fmt.Sprintf("pending: %d, completed: %d, failed: %d", ws.Pending, ws.CompletedCount, ws.FailedCount),
		})
	}

	return status
}

// Check reports an error when any component is unhealthy
func (c *Container) Check(ctx context.Context) error {
	h := c.Health(ctx)
	if h.Overall {
		return nil
	}
	for name, comp := range h.Components {
		if !comp.Healthy {
			return fmt.Errorf("%s unhealthy: %s", name, comp.Message)
		}
	}
	return fmt.Errorf("unhealthy")
}

func (c *Container) initDatabase(ctx context.Context) error {
	db, err := database.New(database.Config{
		Path:            c.config.Database.Path,
		MaxOpenConns:    c.config.Database.MaxOpenConns,
		MaxIdleConns:    c.config.Database.MaxIdleConns,
		ConnMaxLifetime: c.config.Database.ConnMaxLifetime,
		BusyTimeout:     c.config.Database.BusyTimeout,
	}, c.logger)
	if err != nil {
		return err
	}
	c.db = db

	if err := database.NewMigrator(db, c.logger).RunEmbedded(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	c.projects = repository.NewProjectRepository(db.DB, c.logger)
	c.tasks = repository.NewTaskRepository(db.DB, c.logger)
	return nil
}

func (c *Container) initWorkers(ctx context.Context) error {
	generator := spreadsheet.NewGenerator(c.projects, c.tasks, c.logger)

	c.exportWorker = worker.NewExportWorker(generator, worker.ExportWorkerConfig{
		QueueSize: c.config.Worker.QueueSize,
		Timeout:   c.config.Worker.Timeout,
	}, c.logger)

	c.workers = worker.NewManager(c.logger)
	c.workers.Register(c.exportWorker)

	return c.workers.StartAll(ctx)
}

func (c *Container) initService() error {
	catalog, err := i18n.Load(c.config.Export.Locale)
	if err != nil {
		return err
	}

	exp := c.config.Export
	sandbox := storage.NewSandbox(map[delivery.DirectoryScope]string{
		delivery.ScopeDocuments: exp.Sandbox.Documents,
		delivery.ScopeData:      exp.Sandbox.Data,
		delivery.ScopeCache:     exp.Sandbox.Cache,
	}, c.logger)
	if err := ensureRoots(exp.Sandbox.Documents, exp.Sandbox.Data, exp.Sandbox.Cache); err != nil {
		return err
	}

	sharer := share.New(c.config.Share.Command, c.config.Share.Args, c.logger)

	c.service = export.NewService(c.exportWorker, catalog, export.NewResolver(), c.logger,
		delivery.NewNativeStrategy(storage.NewDirectoryPicker(exp.NativeDir, exp.Overwrite, nil, c.logger), c.logger),
		delivery.NewDownloadStrategy(
			delivery.NewResourceRegistry(exp.MaxDownloadBytes),
			storage.NewDirectoryTrigger(exp.DownloadDir, c.logger),
			c.logger,
		),
		delivery.NewMobileStrategy(sandbox, sharer, export.ShareSubject, delivery.MobileConfig{
			Folder:     exp.Sandbox.Folder,
			Scope:      delivery.ScopeDocuments,
			ShareTitle: c.config.Share.Title,
		}, c.logger),
	)

	c.logger.Info("Export service initialized",
		zap.String("locale", c.config.Export.Locale),
		zap.Bool("share_command", c.config.Share.Command != ""))
	return nil
}

func (c *Container) closeDatabase() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Service returns the export facade
func (c *Container) Service() *export.Service {
	return c.service
}

// Projects returns the project repository
func (c *Container) Projects() *repository.ProjectRepository {
	return c.projects
}

// Tasks returns the task repository
func (c *Container) Tasks() *repository.TaskRepository {
	return c.tasks
}

// Logger returns the container logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// ensureRoots creates the sandbox scope roots. Folders inside them are left to the strategies.
func ensureRoots(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create sandbox root %s: %w", dir, err)
		}
	}
	return nil
}
