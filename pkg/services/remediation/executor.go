package remediation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/smithy-go"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultAutoApproveCeiling is the monthly savings below which recommendations run unattended.
	DefaultAutoApproveCeiling = 20.0
	defaultConcurrency        = 4
)

// Provider issues remediation calls against the cloud account.
type Provider interface {
	StopInstance(ctx context.Context, region, instanceID string) error
	CreateVolumeSnapshot(ctx context.Context, region, volumeID, description string) (string, error)
}

type Options struct {
	DryRun bool
	// Concurrency bounds the number of provider calls in flight during a batch (default: 4).
	Concurrency int
}

// Executor turns recommendations into remediation outcomes. Its dry-run mode is fixed at
// construction time.
type Executor struct {
	provider    Provider
	dryRun      bool
	concurrency int
	now         func() time.Time
}

func NewExecutor(provider Provider, opts Options) (*Executor, error) {
	if provider == nil && !opts.DryRun {
		return nil, fmt.Errorf("live remediation requires a provider")
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Executor{
		provider:    provider,
		dryRun:      opts.DryRun,
		concurrency: concurrency,
		now:         time.Now,
	}, nil
}

func (e *Executor) DryRun() bool {
	return e.dryRun
}

// Execute remediates a single recommendation. Provider failures and panics are captured in the
// returned outcome.
func (e *Executor) Execute(ctx context.Context, rec domain.Recommendation) (outcome domain.RemediationOutcome) {
	logger := zerolog.Ctx(ctx).With().
		Str("region", rec.Region).
		Str("resource_id", rec.ResourceID).
		Str("action", string(rec.Action)).
		Bool("dry_run", e.dryRun).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			outcome = e.failure(rec, fmt.Errorf("remediation panicked: %v", r))
		}
		if outcome.Succeeded {
			logger.Info().Msg(outcome.Result)
		} else {
			logger.Error().Str("error", outcome.Error).Msg("remediation failed")
		}
	}()

	var (
		result string
		err    error
	)
	switch rec.Action {
	case domain.ActionStop:
		result, err = e.stopInstance(ctx, rec)
	case domain.ActionSnapshotAndDelete:
		result, err = e.snapshotVolume(ctx, rec)
	case domain.ActionAdviseOnly:
		result = fmt.Sprintf("No remediation performed: %s is advisory only", rec.ResourceID)
	default:
		result = fmt.Sprintf("No remediation performed: unknown action %q for %s", rec.Action, rec.ResourceID)
	}

	if err != nil {
		return e.failure(rec, err)
	}
	return domain.RemediationOutcome{
		Timestamp:      e.now(),
		Recommendation: rec,
		Result:         result,
		Succeeded:      true,
	}
}

func (e *Executor) stopInstance(ctx context.Context, rec domain.Recommendation) (string, error) {
	if e.dryRun {
		return fmt.Sprintf("[DRY RUN] Would stop instance %s in %s", rec.ResourceID, rec.Region), nil
	}
	if err := e.provider.StopInstance(ctx, rec.Region, rec.ResourceID); err != nil {
		return "", fmt.Errorf("stop instance %s: %w", rec.ResourceID, err)
	}
	return fmt.Sprintf("Stop requested for instance %s", rec.ResourceID), nil
}

// snapshotVolume only performs the snapshot half of snapshot-and-delete. Deleting the volume
// is a separate, explicitly confirmed step.
func (e *Executor) snapshotVolume(ctx context.Context, rec domain.Recommendation) (string, error) {
	if e.dryRun {
		return fmt.Sprintf("[DRY RUN] Would snapshot and delete volume %s in %s", rec.ResourceID, rec.Region), nil
	}
	description := fmt.Sprintf("Auto-backup before deletion - %s", e.now().UTC().Format(time.RFC3339))
	snapshotID, err := e.provider.CreateVolumeSnapshot(ctx, rec.Region, rec.ResourceID, description)
	if err != nil {
		return "", fmt.Errorf("snapshot volume %s: %w", rec.ResourceID, err)
	}
	return fmt.Sprintf("Created snapshot %s, ready to delete %s (deletion requires manual confirmation)",
		snapshotID, rec.ResourceID), nil
}

func (e *Executor) failure(rec domain.Recommendation, err error) domain.RemediationOutcome {
	return domain.RemediationOutcome{
		Timestamp:      e.now(),
		Recommendation: rec,
		Error:          describeError(err),
		Succeeded:      false,
	}
}

// describeError prefixes provider API errors with their error code.
func describeError(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s: %v", apiErr.ErrorCode(), err)
	}
	return err.Error()
}

type actionKey struct {
	resourceID string
	action     domain.Action
}

// ExecuteBatch runs every recommendation whose estimated savings are below ceiling. Others are
// left for manual approval and are absent from the result. Each (resource, action) pair runs at
// most once. Outcomes follow input order. Once ctx is cancelled no further calls are issued;
// outcomes of calls already issued are still returned.
func (e *Executor) ExecuteBatch(
	ctx context.Context,
	recs []domain.Recommendation,
	ceiling float64,
) []domain.RemediationOutcome {
	logger := zerolog.Ctx(ctx)

	var approved []domain.Recommendation
	seen := make(map[actionKey]struct{}, len(recs))
	for _, rec := range recs {
		if rec.EstimatedMonthlySavings >= ceiling {
			logger.Debug().
				Str("resource_id", rec.ResourceID).
				Float64("monthly_savings", rec.EstimatedMonthlySavings).
				Msg("left for manual approval")
			continue
		}
		key := actionKey{resourceID: rec.ResourceID, action: rec.Action}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		approved = append(approved, rec)
	}

	slots := make([]*domain.RemediationOutcome, len(approved))
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, rec := range approved {
		i, rec := i, rec
		if ctx.Err() != nil {
			logger.Warn().Int("remaining", len(approved)-i).Msg("remediation batch cancelled")
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcome := e.Execute(ctx, rec)
			slots[i] = &outcome
			return nil
		})
	}
	_ = g.Wait()

	outcomes := make([]domain.RemediationOutcome, 0, len(approved))
	for _, outcome := range slots {
		if outcome != nil {
			outcomes = append(outcomes, *outcome)
		}
	}

	logger.Info().
		Int("executed", len(outcomes)).
		Int("candidates", len(recs)).
		Bool("dry_run", e.dryRun).
		Msg("remediation batch finished")
	return outcomes
}
