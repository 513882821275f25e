package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pagebuilder/internal/config"
	"pagebuilder/internal/domain"
	mcpserver "pagebuilder/internal/mcp"
	"pagebuilder/internal/observability"
	"pagebuilder/internal/plugins"
	"pagebuilder/internal/secret"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

// App owns everything needed to edit one site: configuration, the stores,
// the editing session and the surfaces exposing it.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	secrets *secret.Resolver

	db       *storage.DB
	store    domain.DocumentStore
	gateway  *storage.Gateway
	site     *service.SiteService
	mcp      *mcpserver.Server
	events   *fanout
	autosave *service.Autosaver
	watcher  *pageWatcher
	files    *storage.FileWatcher
}

// New loads configuration and builds the session. Nothing runs in the
// background until Start.
func New(ctx context.Context, version string, opts ...config.Option) (*App, error) {
	level, err := config.Lookup("PAGEBUILDER_LOG_LEVEL", opts...)
	if err != nil {
		return nil, err
	}
	if level == "" {
		level = "info"
	}
	logger, err := observability.NewLogger(level)
	if err != nil {
		return nil, err
	}

	a := &App{logger: logger, events: &fanout{}}
	if a.secrets, err = newSecretResolver(ctx, logger, opts); err != nil {
		return nil, err
	}

	cfg, err := config.Load(ctx, append(opts, config.WithSecretResolver(a.secrets))...)
	if err != nil {
		a.secrets.Close()
		return nil, fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	if err := a.open(ctx, version); err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func newSecretResolver(ctx context.Context, logger *zap.Logger, opts []config.Option) (*secret.Resolver, error) {
	project, err := config.Lookup("PAGEBUILDER_SECRETS_PROJECT_ID", opts...)
	if err != nil {
		return nil, err
	}
	if project == "" {
		project, _ = config.Lookup("PAGEBUILDER_FIRESTORE_PROJECT_ID", opts...)
	}
	stores := []secret.SecretStore{secret.NewEnvStore()}
	if v, _ := config.Lookup("PAGEBUILDER_SECRETS_KEYCHAIN", opts...); v == "true" || v == "1" {
		if kc := secret.NewKeychainStore(); kc.Available() {
			stores = append(stores, kc)
		} else {
			logger.Warn("keychain requested but not available")
		}
	}
	return secret.NewResolver(ctx,
		secret.WithStores(stores...),
		secret.WithProject(project),
		secret.WithLogger(logger.Named("secrets")),
	), nil
}

func (a *App) open(ctx context.Context, version string) error {
	cfg := a.cfg

	// History and settings always live in SQLite, whatever holds the document.
	db, err := storage.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db

	store, err := storage.NewDocumentStore(ctx, storage.StoreOptions{
		Driver:                storage.Driver(cfg.Store.Driver),
		DSN:                   cfg.Store.DSN,
		Password:              cfg.Store.Password,
		Database:              cfg.Store.Database,
		Dir:                   cfg.Store.Dir,
		FirestoreProjectID:    cfg.Store.FirestoreProjectID,
		FirestoreEmulatorHost: cfg.Store.FirestoreEmulatorHost,
	}, db)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	a.store = store
	a.gateway = storage.NewGateway(store, cfg.Site.ID, a.logger.Named("gateway"))

	seed, err := seedFunc(cfg.Site.TemplateFile)
	if err != nil {
		return err
	}

	registry := service.NewPluginRegistry()
	plugins.RegisterDefaults(registry)

	a.events.Add(service.LogEmitter{Logger: a.logger.Named("events")})
	a.site = service.NewSiteService(a.gateway,
		storage.NewSQLiteHistoryStore(db, cfg.History.Limit),
		a.events,
		service.WithSettings(storage.NewSettingsStore(db)),
		service.WithPlugins(registry),
		service.WithLogger(a.logger.Named("site")),
		service.WithSeed(seed),
		service.WithAuthenticated(cfg.Site.StartAuthenticated),
	)
	if err := a.site.Load(ctx); err != nil {
		return fmt.Errorf("load site: %w", err)
	}

	a.mcp = mcpserver.New(mcpserver.Deps{Site: a.site, Logger: a.logger.Named("mcp"), Version: version})
	a.events.Add(a.mcp)

	a.logger.Info("site loaded",
		zap.String("site", cfg.Site.ID),
		zap.String("driver", cfg.Store.Driver),
		zap.Int("pages", len(a.site.Document().Pages)),
	)
	return nil
}

// seedFunc returns the document a brand new site starts from.
func seedFunc(templateFile string) (func() domain.Document, error) {
	if templateFile == "" {
		return nil, nil
	}
	tpl, err := config.LoadTemplate(templateFile)
	if err != nil {
		return nil, err
	}
	doc, err := tpl.Build()
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", templateFile, err)
	}
	return func() domain.Document { return doc }, nil
}

// Start launches autosave and external change detection.
func (a *App) Start(ctx context.Context) error {
	if a.cfg.Autosave.Enabled {
		a.autosave = service.NewAutosaver(a.site, a.cfg.Autosave.Schedule, a.logger.Named("autosave"))
		if err := a.autosave.Start(ctx); err != nil {
			return err
		}
	}
	if !a.cfg.Store.Watch {
		return nil
	}

	switch store := a.store.(type) {
	case *storage.FileDocumentStore:
		files, err := storage.NewFileWatcher(store, func(siteID string, data []byte) {
			if siteID != a.cfg.Site.ID {
				return
			}
			a.applyExternal(ctx, data)
		}, a.logger.Named("watcher"))
		if err != nil {
			return err
		}
		a.files = files
	case *storage.SQLiteDocumentStore:
		a.watcher = newPageWatcher(ctx, a, store)
		a.watcher.Start()
	}
	return nil
}

// applyExternal adopts a document another process wrote, unless this
// session has unsaved edits that would be lost.
func (a *App) applyExternal(ctx context.Context, data []byte) {
	if a.site.Dirty() {
		a.logger.Warn("stored document changed while there are unsaved edits; keeping local edits")
		return
	}
	if err := a.site.ApplyExternal(ctx, data); err != nil {
		a.logger.Warn("ignore external document", zap.Error(err))
		return
	}
	a.logger.Info("reloaded document changed by another process")
}

// Close stops background work and releases stores. A running autosaver
// makes one last save on the way out.
func (a *App) Close(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.files != nil {
		a.files.Close()
	}
	if a.autosave != nil {
		a.autosave.Stop(ctx)
	}
	var errs []error
	if a.gateway != nil {
		errs = append(errs, a.gateway.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.secrets != nil {
		errs = append(errs, a.secrets.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("shutdown", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func (a *App) Config() config.Config { return a.cfg }
func (a *App) Logger() *zap.Logger { return a.logger }
func (a *App) Site() *service.SiteService { return a.site }
func (a *App) MCP() *mcpserver.Server { return a.mcp }
