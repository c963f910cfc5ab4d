// Package app wires configuration, upstream source, snapshot store and HTTP server together
// and runs one of the process modes:
//
//   - serve: dashboard, JSON API, health and metrics, kept fresh by poll and LISTEN
//   - export: one-shot spreadsheet export to a file or stdout
//   - migrate: apply the embedded database migrations and exit
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	coreerrors "github.com/lueurxax/trend-dashboard/internal/core/errors"
	"github.com/lueurxax/trend-dashboard/internal/core/ports"
	"github.com/lueurxax/trend-dashboard/internal/dashboard"
	"github.com/lueurxax/trend-dashboard/internal/export"
	"github.com/lueurxax/trend-dashboard/internal/platform/config"
	"github.com/lueurxax/trend-dashboard/internal/platform/observability"
	"github.com/lueurxax/trend-dashboard/internal/snapshot"
	db "github.com/lueurxax/trend-dashboard/internal/storage"
	"github.com/lueurxax/trend-dashboard/internal/supabase"
	"github.com/lueurxax/trend-dashboard/internal/trends"
)

const (
	// StdoutTarget as export output writes to standard output.
	StdoutTarget = "-"

	logFieldSource = "source"
	logFieldFile   = "file"
	logFieldRows   = "rows"
)

// Source is an upstream the dashboard reads from.
type Source interface {
	ports.TrendSource
	ports.Pinger
}

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	loc      *time.Location
	database *db.DB
	source   Source
	logger   *zerolog.Logger
}

// New connects to the configured upstream. Call Close when done.
func New(ctx context.Context, cfg *config.Config, mode config.Mode, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, loc: loc, logger: logger}

	if mode == config.ModeMigrate || cfg.DataSource == config.DataSourcePostgres {
		if err := a.connectDatabase(ctx); err != nil {
			return nil, err
		}
	}

	if mode == config.ModeMigrate {
		return a, nil
	}

	source, err := a.newSource()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.source = source

	return a, nil
}

// NewWithSource creates an App reading from an already built source.
func NewWithSource(cfg *config.Config, source Source, logger *zerolog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &App{cfg: cfg, loc: loc, source: source, logger: logger}, nil
}

func (a *App) connectDatabase(ctx context.Context) error {
	dbCfg := a.cfg.DatabaseCfg()

	database, err := db.NewWithOptions(ctx, dbCfg.PostgresDSN, db.PoolOptions{
		MaxConns:          dbCfg.MaxConnections,
		MinConns:          dbCfg.MinConnections,
		MaxConnIdleTime:   dbCfg.MaxConnIdleTime,
		MaxConnLifetime:   dbCfg.MaxConnLifetime,
		HealthCheckPeriod: dbCfg.HealthCheckPeriod,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	a.database = database

	return nil
}

func (a *App) newSource() (Source, error) {
	switch a.cfg.DataSource {
	case config.DataSourcePostgres:
		a.logger.Info().Str(logFieldSource, config.DataSourcePostgres).Str("table", a.cfg.TrendsTable).Msg("reading trends from postgres")

		return a.database.Trends(a.cfg.TrendsTable), nil
	case config.DataSourceREST:
		sbCfg := a.cfg.SupabaseCfg()

		client, err := supabase.New(supabase.Config{
			BaseURL:           sbCfg.URL,
			APIKey:            sbCfg.Key,
			Table:             sbCfg.Table,
			PageSize:          sbCfg.PageSize,
			RequestsPerSecond: sbCfg.RequestsPerSecond,
			Timeout:           sbCfg.Timeout,
			Logger:            a.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("supabase client: %w", err)
		}

		a.logger.Info().Str(logFieldSource, config.DataSourceREST).Str("url", sbCfg.URL).Msg("reading trends via rest")

		return client, nil
	default:
		return nil, fmt.Errorf("%w: %q", coreerrors.ErrUnknownDataSource, a.cfg.DataSource)
	}
}

// Close releases the database pool.
func (a *App) Close() {
	if a.database != nil {
		a.database.Close()
	}
}

// RunMigrate applies pending migrations.
func (a *App) RunMigrate(ctx context.Context) error {
	if a.database == nil {
		return fmt.Errorf("%w: database", coreerrors.ErrClientNotInitialized)
	}

	a.logger.Info().Msg("Running migrations")

	if err := a.database.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	return nil
}

func (a *App) newStore() (*snapshot.Store, error) {
	store, err := snapshot.New(snapshot.Options{
		Location:      a.loc,
		ViewCacheSize: a.cfg.RefreshCfg().ViewCacheSize,
		Logger:        a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}

	return store, nil
}

// RunServe serves the dashboard until ctx is canceled.
func (a *App) RunServe(ctx context.Context) error {
	a.logger.Info().Msg("Starting serve mode")

	if a.database != nil && a.cfg.MigrateOnStart {
		if err := a.RunMigrate(ctx); err != nil {
			return err
		}
	}

	store, err := a.newStore()
	if err != nil {
		return err
	}

	refreshCfg := a.cfg.RefreshCfg()
	updater := snapshot.NewUpdater(store, a.source, refreshCfg.Timeout, a.logger)

	// The server starts even when the first load fails; /readyz stays red until a refresh lands.
	if err := updater.Refresh(ctx, snapshot.TriggerStartup); err != nil {
		a.logger.Error().Err(err).Msg("initial snapshot load failed")
	}

	handler, err := a.newDashboardHandler(store, updater)
	if err != nil {
		return err
	}

	server := observability.NewServer(a.cfg.HTTPPort, a.readiness(store), handler, a.logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start(gctx)
	})

	g.Go(func() error {
		return updater.RunPoller(gctx, refreshCfg.Interval)
	})

	if feed := a.changeFeed(); feed != nil {
		g.Go(func() error {
			return updater.RunListener(gctx, feed)
		})

		g.Go(func() error {
			<-gctx.Done()
			feed.Close()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}

func (a *App) changeFeed() *db.Listener {
	dbCfg := a.cfg.DatabaseCfg()
	if a.database == nil || a.cfg.DataSource != config.DataSourcePostgres || !dbCfg.RealtimeEnabled {
		return nil
	}

	return a.database.NewListener(dbCfg.NotifyChannel)
}

func (a *App) newDashboardHandler(store *snapshot.Store, refresher dashboard.Refresher) (*dashboard.Handler, error) {
	dashCfg := a.cfg.DashboardCfg()
	exportCfg := a.cfg.ExportCfg()

	opts := dashboard.Options{
		Store:        store,
		Refresher:    refresher,
		Password:     dashCfg.Password,
		CookieSecure: dashCfg.CookieSecure,
		Export: trends.RowOptions{
			SourceLabel:     exportCfg.SourceLabel,
			PagePlaceholder: exportCfg.PagePlaceholder,
		},
		RateLimit:         rate.Limit(dashCfg.RateLimitRPS),
		RateBurst:         dashCfg.RateLimitBurst,
		RateLimitClients:  dashCfg.RateLimitClients,
		TrustProxyHeaders: dashCfg.TrustProxyHeaders,
		Logger:            a.logger,
	}

	if a.cfg.AuthEnabled() {
		opts.Sessions = dashboard.NewSessionService(dashCfg.SessionSecret, dashCfg.SessionTTL)
	} else {
		a.logger.Warn().Msg("DASHBOARD_PASSWORD is empty, dashboard is open without login")
	}

	handler, err := dashboard.NewHandler(opts)
	if err != nil {
		return nil, fmt.Errorf("dashboard handler init: %w", err)
	}

	return handler, nil
}

// readiness is ready once a snapshot is loaded and the upstream answers.
func (a *App) readiness(store *snapshot.Store) observability.ReadyFunc {
	return func(ctx context.Context) error {
		if !store.Status().Ready {
			return coreerrors.ErrSnapshotNotReady
		}

		if err := a.source.Ping(ctx); err != nil {
			return fmt.Errorf("upstream: %w", err)
		}

		return nil
	}
}

// ExportRequest selects what RunExport writes.
type ExportRequest struct {
	Scope  string
	Value  string
	Format string

	// Out is a file or directory path, StdoutTarget, or empty for the default file name
	// in the working directory.
	Out string
}

// RunExport loads the current trends once and writes the selected rows as a spreadsheet.
// It returns the path written, or StdoutTarget.
func (a *App) RunExport(ctx context.Context, req ExportRequest) (string, error) {
	scope, err := trends.ParseExportScope(req.Scope, req.Value)
	if err != nil {
		return "", err
	}

	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return "", err
	}

	store, err := a.newStore()
	if err != nil {
		return "", err
	}

	if err := snapshot.NewUpdater(store, a.source, a.cfg.RefreshCfg().Timeout, a.logger).
		Refresh(ctx, snapshot.TriggerManual); err != nil {
		return "", err
	}

	records, err := store.ExportRecords(scope)
	if err != nil {
		return "", fmt.Errorf("select export rows: %w", err)
	}

	exportCfg := a.cfg.ExportCfg()
	rows := trends.ExportRows(records, trends.RowOptions{
		SourceLabel:     exportCfg.SourceLabel,
		PagePlaceholder: exportCfg.PagePlaceholder,
	})

	if req.Out == StdoutTarget {
		return StdoutTarget, export.Write(os.Stdout, rows, format)
	}

	path := exportPath(req.Out, export.FileName(scope, format))

	if err := writeFile(path, func(w io.Writer) error { return export.Write(w, rows, format) }); err != nil {
		return "", err
	}

	a.logger.Info().Str(logFieldFile, path).Int(logFieldRows, len(rows)).Msg("export written")

	return path, nil
}

func exportPath(out, fileName string) string {
	if out == "" {
		return fileName
	}

	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, fileName)
	}

	return out
}

func writeFile(path string, write func(w io.Writer) error) (err error) {
	f, err := os.Create(path) //nolint:gosec // path comes from the operator's command line
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close export file: %w", cerr)
		}
	}()

	return write(f)
}
