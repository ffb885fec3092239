// Package sitecontent wires the content repository, its document store and
// the admin HTTP surface into the sitecontent application and its commands.
package sitecontent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/surrealdb/sitecontent/pkg/admin"
	"github.com/surrealdb/sitecontent/pkg/auth"
	"github.com/surrealdb/sitecontent/pkg/content"
	"github.com/surrealdb/sitecontent/pkg/docstore"
	"github.com/surrealdb/sitecontent/pkg/docstore/memory"
	"github.com/surrealdb/sitecontent/pkg/docstore/postgres"
	"github.com/surrealdb/sitecontent/pkg/docstore/sqlite"
	sdbstore "github.com/surrealdb/sitecontent/pkg/docstore/surrealdb"
	"github.com/surrealdb/sitecontent/pkg/logger"
	"github.com/surrealdb/sitecontent/pkg/metrics"
	"github.com/surrealdb/sitecontent/pkg/models"
	"github.com/surrealdb/sitecontent/pkg/snapshot"
)

// Collections lists every collection the application owns.
var Collections = []string{
	models.CollectionProjects,
	models.CollectionServices,
	models.CollectionCompanyInfo,
	models.CollectionContact,
}

type App struct {
	config    *Config
	log       zerolog.Logger
	logData   *logger.LogData
	logWriter io.Writer

	base     docstore.Store
	store    *docstore.ReadOnlyStore
	readOnly atomic.Bool
	metrics  *metrics.Collector
	now      func() time.Time

	Projects *content.Repository[models.Project]
	Services *content.Services
	Company  *content.Singleton[models.CompanyInfo]
	Contact  *content.Singleton[models.ContactInfo]
}

// Option adjusts an App under construction.
type Option func(*App)

// WithStore uses store instead of opening the configured driver.
func WithStore(store docstore.Store) Option {
	return func(a *App) { a.base = store }
}

// WithClock replaces time.Now for updatedAt stamps and snapshot names.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithLogWriter sends logs to w instead of stderr. log.path still wins.
func WithLogWriter(w io.Writer) Option {
	return func(a *App) { a.logWriter = w }
}

// New opens the configured store and builds the repositories.
func New(ctx context.Context, config *Config, opts ...Option) (*App, error) {
	app := &App{config: config, now: time.Now, logWriter: os.Stderr}
	for _, opt := range opts {
		opt(app)
	}

	var err error
	app.logData, err = logger.New().
		FromBuffer(app.logWriter).
		FromPath(config.Log.Path).
		Level(config.Log.Level).
		Format(config.Log.Format).
		Make()
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	app.log = app.logData.Logger

	if app.base == nil {
		app.base, err = openStore(ctx, config)
		if err != nil {
			_ = app.logData.Close()
			return nil, err
		}
	}
	app.log.Info().Str("store", config.Store).Msg("connected to document store")

	app.readOnly.Store(config.ReadOnly)
	app.store = docstore.NewReadOnly(app.base, app.IsReadOnly)
	app.metrics = metrics.New()

	copts := []content.Option{
		content.WithTimeout(config.Timeout),
		content.WithLogger(logger.Component(app.log, "content")),
		content.WithClock(app.now),
		content.WithObserver(app.metrics),
		content.WithRepairConcurrency(config.Repair.Concurrency),
	}
	app.Projects = content.NewProjects(app.store, copts...)
	app.Services = content.NewServices(app.store, copts...)
	app.Company = content.NewCompanyInfo(app.store, copts...)
	app.Contact = content.NewContactInfo(app.store, copts...)
	return app, nil
}

func openStore(ctx context.Context, config *Config) (docstore.Store, error) {
	switch config.Store {
	case StoreMemory:
		return memory.New(), nil
	case StoreSurrealDB:
		store, err := sdbstore.Open(ctx, sdbstore.Config{
			URL:       config.SurrealDB.URL,
			Namespace: config.SurrealDB.Namespace,
			Database:  config.SurrealDB.Database,
			Username:  config.SurrealDB.Username,
			Password:  config.SurrealDB.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
		}
		return store, nil
	case StorePostgres:
		store, err := postgres.Open(ctx, config.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		return store, nil
	case StoreSQLite:
		store, err := sqlite.Open(ctx, config.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown store %q", config.Store)
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.base != nil {
		errs = append(errs, a.base.Close(ctx))
	}
	if a.logData != nil {
		errs = append(errs, a.logData.Close())
	}
	return errors.Join(errs...)
}

// Store returns the read-only guarded store.
func (a *App) Store() docstore.Store {
	return a.store
}

func (a *App) Logger() zerolog.Logger {
	return a.log
}

func (a *App) SetReadOnly(readOnly bool) {
	a.readOnly.Store(readOnly)
	a.log.Warn().Bool("read_only", readOnly).Msg("application read-only mode changed")
}

func (a *App) IsReadOnly() bool {
	return a.readOnly.Load()
}

// Handler returns the HTTP surface of the application.
func (a *App) Handler() (http.Handler, error) {
	var authn auth.Authenticator
	if a.config.Auth.JWTSecret != "" {
		var opts []auth.JWTOption
		if a.config.Auth.Issuer != "" {
			opts = append(opts, auth.WithIssuer(a.config.Auth.Issuer))
		}
		jwtAuth, err := auth.NewJWT(a.config.Auth.JWTSecret, opts...)
		if err != nil {
			return nil, err
		}
		authn = jwtAuth
	} else {
		a.log.Warn().Msg("auth.jwt_secret is empty, admin routes will reject every request")
	}

	return admin.New(admin.Config{
		Projects:  a.Projects,
		Services:  a.Services,
		Company:   a.Company,
		Contact:   a.Contact,
		Auth:      authn,
		AdminRole: a.config.Auth.AdminRole,
		ReadOnly:  &a.readOnly,
		Metrics:   a.metrics.Handler(),
		Logger:    logger.Component(a.log, "http"),
	}), nil
}

// RepairOptions tunes App.Repair.
type RepairOptions struct {
	DryRun bool
	// Snapshot saves the services collection before writing.
	Snapshot bool
}

// RepairReport is the outcome of App.Repair.
type RepairReport struct {
	content.RepairResult
	Snapshot string `json:"snapshot,omitempty"`
}

// Repair normalizes the isActive flag of every service.
func (a *App) Repair(ctx context.Context, opts RepairOptions) (RepairReport, error) {
	var report RepairReport
	if opts.Snapshot && !opts.DryRun {
		name, err := a.Dump(ctx, "before repair", models.CollectionServices)
		if err != nil {
			return report, fmt.Errorf("snapshot before repair failed: %w", err)
		}
		report.Snapshot = name
	}
	res, err := a.Services.Repair(ctx, content.RepairOptions{DryRun: opts.DryRun})
	if err != nil {
		return report, fmt.Errorf("repair failed: %w", err)
	}
	report.RepairResult = res
	return report, nil
}

// Audit compares the native active filter with the coerced flag.
func (a *App) Audit(ctx context.Context) (content.AuditReport, error) {
	return a.Services.AuditActive(ctx)
}

// Dump saves a snapshot of collections, all of them when none are given,
// and returns its name.
func (a *App) Dump(ctx context.Context, reason string, collections ...string) (string, error) {
	if len(collections) == 0 {
		collections = Collections
	}
	sink, err := a.sink(ctx)
	if err != nil {
		return "", err
	}
	snap, err := snapshot.Take(ctx, a.base, collections, reason, a.now())
	if err != nil {
		return "", err
	}
	name, err := snapshot.Save(ctx, sink, snap)
	if err != nil {
		return "", err
	}
	a.log.Info().Str("snapshot", name).Interface("counts", snap.Manifest.Counts).Msg("snapshot saved")
	return name, nil
}

// Restore writes a snapshot back. An empty name restores the latest one.
func (a *App) Restore(ctx context.Context, name string) (int, error) {
	sink, err := a.sink(ctx)
	if err != nil {
		return 0, err
	}
	snap, err := snapshot.Load(ctx, sink, name)
	if err != nil {
		return 0, err
	}
	n, err := snapshot.Restore(ctx, a.store, snap)
	if err != nil {
		return n, err
	}
	a.log.Info().Int("documents", n).Time("created_at", snap.Manifest.CreatedAt).Msg("snapshot restored")
	return n, nil
}

func (a *App) sink(ctx context.Context) (snapshot.Sink, error) {
	s3 := a.config.Snapshot.S3
	if s3.Bucket == "" {
		return snapshot.DirSink{Dir: a.config.Snapshot.Dir}, nil
	}
	return snapshot.NewS3(ctx, snapshot.S3Config{
		Bucket:    s3.Bucket,
		Prefix:    s3.Prefix,
		Region:    s3.Region,
		Endpoint:  s3.Endpoint,
		PathStyle: s3.PathStyle,
	})
}
