package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerFunc func(ctx context.Context) (*domain.AnalysisReport, error)

func (f runnerFunc) Run(ctx context.Context) (*domain.AnalysisReport, error) {
	return f(ctx)
}

func TestNew_Validation(t *testing.T) {
	ok := runnerFunc(func(context.Context) (*domain.AnalysisReport, error) { return nil, nil })

	_, err := New(nil, "0 2 * * *")
	assert.Error(t, err)

	_, err = New(ok, "every day at two")
	assert.Error(t, err)

	s, err := New(ok, "0 2 * * *")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestRunOnce(t *testing.T) {
	report := &domain.AnalysisReport{TotalPotentialMonthlySavings: 18.35}
	s, err := New(runnerFunc(func(context.Context) (*domain.AnalysisReport, error) {
		return report, nil
	}), "0 2 * * *")
	require.NoError(t, err)

	assert.Nil(t, s.LastReport())
	got, err := s.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Same(t, report, got)
	assert.Same(t, report, s.LastReport())
}

func TestRunOnce_KeepsLastReportOnFailure(t *testing.T) {
	calls := 0
	first := &domain.AnalysisReport{}
	s, err := New(runnerFunc(func(context.Context) (*domain.AnalysisReport, error) {
		calls++
		if calls == 1 {
			return first, nil
		}
		return nil, errors.New("no credentials")
	}), "0 2 * * *")
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	_, err = s.RunOnce(context.Background())

	assert.ErrorContains(t, err, "no credentials")
	assert.Same(t, first, s.LastReport())
}

func TestRunOnce_RejectsOverlappingRuns(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	s, err := New(runnerFunc(func(context.Context) (*domain.AnalysisReport, error) {
		close(started)
		<-release
		return &domain.AnalysisReport{}, nil
	}), "0 2 * * *")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.RunOnce(context.Background())
		done <- err
	}()
	<-started

	_, err = s.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(release)
	assert.NoError(t, <-done)
}

func TestStart_RunsOnSchedule(t *testing.T) {
	var runs atomic.Int32
	s, err := New(runnerFunc(func(context.Context) (*domain.AnalysisReport, error) {
		runs.Add(1)
		return &domain.AnalysisReport{}, nil
	}), "@every 1s")
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
	s.Stop()
}

func TestStart_StopsWithContext(t *testing.T) {
	var sawCancel atomic.Bool
	s, err := New(runnerFunc(func(ctx context.Context) (*domain.AnalysisReport, error) {
		<-ctx.Done()
		sawCancel.Store(true)
		return nil, ctx.Err()
	}), "@every 1s")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	time.Sleep(1500 * time.Millisecond)
	cancel()

	assert.Eventually(t, sawCancel.Load, 2*time.Second, 20*time.Millisecond)
}
