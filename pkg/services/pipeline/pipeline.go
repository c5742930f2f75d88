package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/services/analyzer"
	"github.com/de-tools/cost-atlas/pkg/services/recommender"
	"github.com/de-tools/cost-atlas/pkg/services/remediation"
	"github.com/rs/zerolog"
)

// SnapshotSource provides the snapshot a run works on.
type SnapshotSource interface {
	Collect(ctx context.Context) (*domain.ResourceSnapshot, error)
}

type SnapshotSink interface {
	SaveSnapshot(ctx context.Context, snapshot *domain.ResourceSnapshot) error
}

type ReportSink interface {
	SaveReport(ctx context.Context, report *domain.AnalysisReport) error
}

// BatchExecutor is satisfied by *remediation.Executor.
type BatchExecutor interface {
	ExecuteBatch(ctx context.Context, recs []domain.Recommendation, ceiling float64) []domain.RemediationOutcome
}

type Settings struct {
	Analyzer           analyzer.Settings
	AutoRemediate      bool
	AutoApproveCeiling float64
}

func DefaultSettings() Settings {
	return Settings{
		Analyzer:           analyzer.DefaultSettings(),
		AutoApproveCeiling: remediation.DefaultAutoApproveCeiling,
	}
}

type Pipeline struct {
	source    SnapshotSource
	snapshots []SnapshotSink
	reports   []ReportSink
	executor  BatchExecutor
	settings  Settings
	now       func() time.Time
	summarize func(*domain.ResourceSnapshot) domain.SnapshotSummary
}

type Option func(*Pipeline)

// WithSnapshotSink adds a sink; sinks are written in the order they were added.
func WithSnapshotSink(sink SnapshotSink) Option {
	return func(p *Pipeline) { p.snapshots = append(p.snapshots, sink) }
}

func WithReportSink(sink ReportSink) Option {
	return func(p *Pipeline) { p.reports = append(p.reports, sink) }
}

// WithExecutor sets the executor used when Settings.AutoRemediate is on.
func WithExecutor(executor BatchExecutor) Option {
	return func(p *Pipeline) { p.executor = executor }
}

func New(source SnapshotSource, settings Settings, opts ...Option) (*Pipeline, error) {
	if source == nil {
		return nil, fmt.Errorf("snapshot source is required")
	}
	p := &Pipeline{
		source:    source,
		settings:  settings,
		now:       time.Now,
		summarize: (*domain.ResourceSnapshot).Summary,
	}
	for _, opt := range opts {
		opt(p)
	}
	if settings.AutoRemediate && p.executor == nil {
		return nil, fmt.Errorf("auto remediation requires an executor")
	}
	return p, nil
}

// Run performs one full pass. Only a failure to obtain the snapshot aborts the run; failures in
// later stages end up in the report warnings.
func (p *Pipeline) Run(ctx context.Context) (*domain.AnalysisReport, error) {
	logger := zerolog.Ctx(ctx)
	started := p.now()

	snapshot, err := p.source.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain snapshot: %w", err)
	}
	if snapshot == nil {
		return nil, fmt.Errorf("failed to obtain snapshot: source returned no snapshot")
	}

	report := &domain.AnalysisReport{
		Timestamp:       started,
		Recommendations: []domain.Recommendation{},
		ActionsTaken:    []domain.RemediationOutcome{},
		Warnings:        []string{},
	}
	warn := func(stage string, err error) {
		logger.Error().Err(err).Str("stage", stage).Msg("pipeline stage failed")
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", stage, err))
	}

	for _, sink := range p.snapshots {
		if err := runStage(func() error { return sink.SaveSnapshot(ctx, snapshot) }); err != nil {
			warn("save snapshot", err)
		}
	}

	if err := runStage(func() error {
		report.ScanSummary = p.summarize(snapshot)
		return nil
	}); err != nil {
		warn("scan summary", err)
	}

	var analysis analyzer.Result
	if err := runStage(func() error {
		analysis = analyzer.Analyze(snapshot, p.settings.Analyzer)
		return nil
	}); err != nil {
		warn("rule analysis", err)
	}
	report.Warnings = append(report.Warnings, analysis.Warnings...)

	var patterns recommender.Result
	if err := runStage(func() error {
		patterns = recommender.Recommend(snapshot, started)
		return nil
	}); err != nil {
		warn("usage pattern analysis", err)
	}
	report.Warnings = append(report.Warnings, patterns.Warnings...)

	report.Recommendations = append(report.Recommendations, analysis.Recommendations...)
	report.Recommendations = append(report.Recommendations, patterns.Recommendations...)
	report.TotalPotentialMonthlySavings = analysis.TotalPotentialMonthlySavings

	if p.settings.AutoRemediate {
		if err := runStage(func() error {
			outcomes := p.executor.ExecuteBatch(ctx, report.Recommendations, p.settings.AutoApproveCeiling)
			report.ActionsTaken = append(report.ActionsTaken, outcomes...)
			return nil
		}); err != nil {
			warn("remediation", err)
		}
	}

	for _, sink := range p.reports {
		if err := runStage(func() error { return sink.SaveReport(ctx, report) }); err != nil {
			warn("save report", err)
		}
	}

	logger.Info().
		Int("recommendations", len(report.Recommendations)).
		Float64("total_potential_savings", report.TotalPotentialMonthlySavings).
		Int("actions_taken", len(report.ActionsTaken)).
		Int("warnings", len(report.Warnings)).
		Dur("elapsed", p.now().Sub(started)).
		Msg("analysis finished")

	return report, nil
}

func runStage(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
