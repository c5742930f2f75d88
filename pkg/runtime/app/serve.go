package app

import (
	"context"
	"fmt"

	"github.com/de-tools/cost-atlas/pkg/server"
	"github.com/de-tools/cost-atlas/pkg/services/scheduler"
	"github.com/rs/zerolog"
)

// Serve runs the dashboard API and the analysis scheduler until ctx is done. Scheduled and
// dashboard-triggered runs use the remediation settings from the configuration.
func (a *App) Serve(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	p, err := a.Pipeline(PipelineOptions{
		Remediate: a.cfg.Remediation.Enabled,
		DryRun:    a.cfg.Remediation.DryRun,
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	sched, err := scheduler.New(p, a.cfg.Schedule.Cron)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	executor, err := a.Executor(a.cfg.Remediation.DryRun)
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	webAPI := server.NewWebAPI(server.Config{
		Addr: a.cfg.ServerAddr(),
		Dependencies: server.Dependencies{
			Snapshots: a.scans,
			Reports:   a.reports,
			Trigger:   sched,
			Executor:  executor,
			Logger:    *logger,
		},
	})

	logger.Info().
		Bool("dry_run", a.cfg.Remediation.DryRun).
		Bool("auto_remediate", a.cfg.Remediation.Enabled).
		Strs("regions", a.cfg.Regions).
		Msg("cost atlas ready")
	return webAPI.Start(ctx)
}
