package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

var ErrRunInProgress = errors.New("an analysis run is already in progress")

// Runner is satisfied by *pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context) (*domain.AnalysisReport, error)
}

// Scheduler triggers pipeline runs on a cron schedule. Manual and scheduled runs share a guard
// so that at most one run is active at a time.
type Scheduler struct {
	runner Runner
	spec   string
	cron   *cron.Cron

	runMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	last   *domain.AnalysisReport
}

func New(runner Runner, spec string) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{
		runner: runner,
		spec:   spec,
		cron:   cron.New(),
	}, nil
}

// Start schedules runs until Stop is called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("scheduler already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	logger := zerolog.Ctx(ctx)
	_, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			logger.Error().Err(err).Msg("scheduled analysis failed")
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("failed to schedule analysis: %w", err)
	}

	s.cancel = cancel
	s.cron.Start()
	logger.Info().Str("schedule", s.spec).Msg("scheduler started")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop cancels the running analysis, if any, and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-s.cron.Stop().Done()
}

// RunOnce runs the pipeline immediately unless another run is active.
func (s *Scheduler) RunOnce(ctx context.Context) (*domain.AnalysisReport, error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	logger := zerolog.Ctx(ctx)
	logger.Info().Msg("starting analysis run")
	report, err := s.runner.Run(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()
	return report, nil
}

// LastReport returns the report of the latest successful run, or nil.
func (s *Scheduler) LastReport() *domain.AnalysisReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
