package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"viewengine/internal/config"
	"viewengine/internal/domain"
	"viewengine/internal/gateway"
	"viewengine/internal/logging"
	"viewengine/internal/modules"
	"viewengine/internal/repository"
	"viewengine/internal/repository/sqlite"
	"viewengine/internal/theme"
)

// app holds the services one command invocation works with.
type app struct {
	cfg     *config.Config
	styles  *theme.Styles
	log     *logging.Logger
	db      *sqlite.DB
	modules *modules.Registry
	views   *gateway.Gateway
	owner   string

	mu     sync.Mutex
	stores map[string]*sqlite.RecordStore
}

// loads config, opens the database and registers every module
func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logging.New(logging.Config{
		Level:       cfg.LogLevel,
		Development: cfg.LogDevelopment,
		OutputPaths: []string{filepath.Join(config.GetConfigDir(), "viewctl.log")},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	registry := modules.NewRegistry(cfg.Limits())
	if err := registry.LoadBuiltin(); err != nil {
		return nil, fmt.Errorf("failed to load builtin modules: %w", err)
	}
	if cfg.ModulesDir != "" {
		if err := registry.Load(cfg.ModulesDir); err != nil {
			return nil, fmt.Errorf("failed to load modules from %s: %w", cfg.ModulesDir, err)
		}
	}

	db, err := sqlite.NewDB(sqlite.Config{Path: cfg.DBPath})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := &app{
		cfg:     cfg,
		styles:  theme.Resolve(cfg.ThemeName),
		log:     log,
		db:      db,
		modules: registry,
		owner:   cfg.OwnerID,
		stores:  make(map[string]*sqlite.RecordStore),
	}
	if asOwner != "" {
		a.owner = asOwner
	}

	gwCfg := gateway.DefaultConfig()
	gwCfg.Limits = cfg.Limits()
	gwCfg.CountTTL = cfg.CountTTL()
	gwCfg.RefreshPerSecond = float64(cfg.CountRefreshPerSecond)
	a.views, err = gateway.New(sqlite.NewViewRepository(db), registry, a, gwCfg, gateway.WithLogger(log))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize view gateway: %w", err)
	}

	log.Debugw("app ready", "db", cfg.DBPath, "owner", a.owner, "modules", registry.EntityTypes())
	return a, nil
}

func (a *app) Close() {
	a.log.Sync()
	a.db.Close()
}

// ExecutorFor lets the gateway count records through the same stores the
// commands read from.
func (a *app) ExecutorFor(entityType string) (repository.RecordExecutor, error) {
	return a.store(entityType)
}

func (a *app) store(entityType string) (*sqlite.RecordStore, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if s, ok := a.stores[entityType]; ok {
		return s, nil
	}
	module, err := a.modules.Get(entityType)
	if err != nil {
		return nil, err
	}
	s, err := sqlite.NewRecordStore(a.db, module)
	if err != nil {
		return nil, err
	}
	a.stores[entityType] = s
	return s, nil
}

func (a *app) module(entityType string) (*domain.ModuleConfig, error) {
	return a.modules.Get(entityType)
}

// prints a domain failure the way every command reports them
func (a *app) fail(format string, args ...any) {
	fmt.Println(a.styles.Error.Render("✗ " + fmt.Sprintf(format, args...)))
}

func (a *app) context() context.Context {
	return logging.WithLogger(context.Background(), a.log)
}
