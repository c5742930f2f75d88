package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/services/cloud/aws"
	"github.com/de-tools/cost-atlas/pkg/services/config"
	"github.com/de-tools/cost-atlas/pkg/services/pipeline"
	"github.com/de-tools/cost-atlas/pkg/services/remediation"
	"github.com/de-tools/cost-atlas/pkg/store/duckdb"
	"github.com/de-tools/cost-atlas/pkg/store/duckdb/report"
	"github.com/de-tools/cost-atlas/pkg/store/duckdb/scan"
	"github.com/de-tools/cost-atlas/pkg/store/file"
)

// App owns the long-lived dependencies shared by the CLI commands and the web server.
// AWS clients are created on first use so that offline commands work without credentials.
type App struct {
	cfg     *config.Config
	db      *sql.DB
	scans   scan.Store
	reports report.Store

	awsMu   sync.Mutex
	clients aws.ClientFactory
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: cfg.Storage.DBPath})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
	}
	a, err := newWithDB(cfg, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func newWithDB(cfg *config.Config, db *sql.DB) (*App, error) {
	scans, err := scan.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan store: %w", err)
	}
	reports, err := report.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create report store: %w", err)
	}
	return &App{cfg: cfg, db: db, scans: scans, reports: reports}, nil
}

func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) Scans() scan.Store {
	return a.scans
}

func (a *App) Reports() report.Store {
	return a.reports
}

// awsClients loads the AWS configuration once it succeeds; failures are retried on the next call.
func (a *App) awsClients(ctx context.Context) (aws.ClientFactory, error) {
	a.awsMu.Lock()
	defer a.awsMu.Unlock()
	if a.clients != nil {
		return a.clients, nil
	}

	awsCfg, err := aws.LoadConfig(ctx, a.cfg.AWS.Profile)
	if err != nil {
		return nil, err
	}
	a.clients = aws.NewClientFactory(*awsCfg)
	return a.clients, nil
}

// Collector returns a live snapshot source for the configured regions. Credentials are
// resolved on the first Collect call.
func (a *App) Collector() pipeline.SnapshotSource {
	return lazyCollector{app: a}
}

// Executor builds a remediation executor. Dry-run executors never touch the provider; live ones
// resolve credentials on the first remediation call.
func (a *App) Executor(dryRun bool) (*remediation.Executor, error) {
	opts := a.cfg.ExecutorOptions()
	opts.DryRun = dryRun
	if dryRun {
		return remediation.NewExecutor(nil, opts)
	}
	return remediation.NewExecutor(lazyProvider{app: a}, opts)
}

type lazyCollector struct {
	app *App
}

func (c lazyCollector) Collect(ctx context.Context) (*domain.ResourceSnapshot, error) {
	clients, err := c.app.awsClients(ctx)
	if err != nil {
		return nil, err
	}
	collector, err := aws.NewCollector(clients, c.app.cfg.CollectorSettings())
	if err != nil {
		return nil, err
	}
	return collector.Collect(ctx)
}

type lazyProvider struct {
	app *App
}

func (p lazyProvider) provider(ctx context.Context) (*aws.Provider, error) {
	clients, err := p.app.awsClients(ctx)
	if err != nil {
		return nil, err
	}
	return aws.NewProvider(clients)
}

func (p lazyProvider) StopInstance(ctx context.Context, region, instanceID string) error {
	provider, err := p.provider(ctx)
	if err != nil {
		return err
	}
	return provider.StopInstance(ctx, region, instanceID)
}

func (p lazyProvider) CreateVolumeSnapshot(ctx context.Context, region, volumeID, description string) (string, error) {
	provider, err := p.provider(ctx)
	if err != nil {
		return "", err
	}
	return provider.CreateVolumeSnapshot(ctx, region, volumeID, description)
}

type PipelineOptions struct {
	// Source overrides the live collector, e.g. with a saved snapshot file.
	Source pipeline.SnapshotSource
	// Remediate runs the executor over the recommendations.
	Remediate bool
	DryRun    bool
	// ArchiveDir additionally writes snapshots and reports as JSON files under this directory.
	ArchiveDir string
}

func (a *App) Pipeline(opts PipelineOptions) (*pipeline.Pipeline, error) {
	source := opts.Source
	if source == nil {
		source = a.Collector()
	}

	settings := a.cfg.PipelineSettings()
	settings.AutoRemediate = opts.Remediate

	pipelineOpts := []pipeline.Option{
		pipeline.WithSnapshotSink(a.scans),
		pipeline.WithReportSink(a.reports),
	}
	if opts.ArchiveDir != "" {
		archive, err := file.NewArchive(opts.ArchiveDir)
		if err != nil {
			return nil, err
		}
		pipelineOpts = append(pipelineOpts, pipeline.WithSnapshotSink(archive), pipeline.WithReportSink(archive))
	}
	if opts.Remediate {
		executor, err := a.Executor(opts.DryRun)
		if err != nil {
			return nil, err
		}
		pipelineOpts = append(pipelineOpts, pipeline.WithExecutor(executor))
	}

	return pipeline.New(source, settings, pipelineOpts...)
}

func (a *App) Close() error {
	return a.db.Close()
}
