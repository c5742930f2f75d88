package analyzer

import (
	"math"
	"testing"
	"time"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/store/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *domain.ResourceSnapshot {
	launched := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &domain.ResourceSnapshot{
		CapturedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Regions: map[string]domain.RegionInventory{
			"us-west-2": {
				Instances: []domain.ComputeInstance{
					{ID: "i-101", InstanceClass: "m5.large", State: domain.InstanceStateRunning, CPUAverage7d: 1.5},
				},
			},
			"us-east-1": {
				Instances: []domain.ComputeInstance{
					{
						ID:            "i-001",
						InstanceClass: "t2.micro",
						State:         domain.InstanceStateRunning,
						LaunchedAt:    &launched,
						CPUAverage7d:  2.0,
						Tags:          map[string]string{"Name": "web"},
					},
					{ID: "i-002", InstanceClass: "t3.small", State: domain.InstanceStateRunning, CPUAverage7d: 45},
					{ID: "i-003", InstanceClass: "t2.small", State: domain.InstanceStateStopped, CPUAverage7d: 0},
				},
				Volumes: []domain.BlockVolume{
					{ID: "vol-001", SizeGB: 100, State: domain.VolumeStateAvailable, VolumeClass: "gp2"},
					{ID: "vol-002", SizeGB: 50, State: domain.VolumeStateInUse, Attached: true, VolumeClass: "gp3"},
				},
			},
		},
	}
}

func TestAnalyze_IdleInstanceScenario(t *testing.T) {
	snapshot := &domain.ResourceSnapshot{
		Regions: map[string]domain.RegionInventory{
			"us-east-1": {Instances: []domain.ComputeInstance{
				{ID: "i-001", InstanceClass: "t2.micro", State: domain.InstanceStateRunning, CPUAverage7d: 2.0},
			}},
		},
	}

	res := Analyze(snapshot, DefaultSettings())

	require.Len(t, res.Recommendations, 1)
	rec := res.Recommendations[0]
	assert.Equal(t, domain.KindIdleCompute, rec.Kind)
	assert.Equal(t, domain.ActionStop, rec.Action)
	assert.Equal(t, domain.SeverityHigh, rec.Severity)
	assert.Equal(t, "us-east-1", rec.Region)
	assert.Equal(t, "t2.micro", rec.ResourceClass)
	assert.Equal(t, 8.35, rec.EstimatedMonthlySavings)
	assert.Contains(t, rec.IssueDescription, "2%")
	assert.Empty(t, res.Warnings)
}

func TestAnalyze_UnattachedVolumeScenario(t *testing.T) {
	snapshot := &domain.ResourceSnapshot{
		Regions: map[string]domain.RegionInventory{
			"eu-west-1": {Volumes: []domain.BlockVolume{
				{ID: "vol-001", SizeGB: 100, State: domain.VolumeStateAvailable, VolumeClass: "gp2"},
			}},
		},
	}

	res := Analyze(snapshot, DefaultSettings())

	require.Len(t, res.Recommendations, 1)
	rec := res.Recommendations[0]
	assert.Equal(t, domain.KindUnattachedVolume, rec.Kind)
	assert.Equal(t, domain.ActionSnapshotAndDelete, rec.Action)
	assert.Equal(t, domain.SeverityMedium, rec.Severity)
	assert.Equal(t, "EBS gp2", rec.ResourceClass)
	assert.Equal(t, 10.0, rec.EstimatedMonthlySavings)
	assert.Equal(t, 10.0, res.TotalPotentialMonthlySavings)
}

func TestAnalyze_RulesAndOrdering(t *testing.T) {
	res := Analyze(testSnapshot(), DefaultSettings())

	require.Len(t, res.Recommendations, 3)
	ids := []string{}
	for _, rec := range res.Recommendations {
		ids = append(ids, rec.ResourceID)
	}
	// regions ascend, instances precede volumes inside a region
	assert.Equal(t, []string{"i-001", "vol-001", "i-101"}, ids)

	// 8.35 + 10.00 + 0.096*720 (69.12)
	assert.Equal(t, 87.47, res.TotalPotentialMonthlySavings)
}

func TestAnalyze_TotalMatchesSumOfRecommendations(t *testing.T) {
	res := Analyze(testSnapshot(), DefaultSettings())

	sum := 0.0
	for _, rec := range res.Recommendations {
		sum += rec.EstimatedMonthlySavings
	}
	assert.InDelta(t, sum, res.TotalPotentialMonthlySavings, 1e-9)
	assert.Equal(t, math.Round(sum*100)/100, res.TotalPotentialMonthlySavings)
}

func TestAnalyze_Idempotent(t *testing.T) {
	snapshot := testSnapshot()

	first := Analyze(snapshot, DefaultSettings())
	second := Analyze(snapshot, DefaultSettings())

	assert.Equal(t, first, second)
}

func TestAnalyze_DoesNotShareStateWithSnapshot(t *testing.T) {
	snapshot := testSnapshot()
	res := Analyze(snapshot, DefaultSettings())

	detail, ok := res.Recommendations[0].SourceDetail.(domain.ComputeInstance)
	require.True(t, ok)
	detail.Tags["Name"] = "changed"

	assert.Equal(t, "web", snapshot.Regions["us-east-1"].Instances[0].Tags["Name"])
}

func TestAnalyze_SkipsMalformedRecords(t *testing.T) {
	snapshot := &domain.ResourceSnapshot{
		Regions: map[string]domain.RegionInventory{
			"us-east-1": {
				Instances: []domain.ComputeInstance{
					{ID: "", InstanceClass: "t2.micro", State: domain.InstanceStateRunning, CPUAverage7d: 1},
					{ID: "i-bad", InstanceClass: "t2.micro", State: domain.InstanceStateRunning, CPUAverage7d: math.NaN()},
					{ID: "i-good", InstanceClass: "t2.micro", State: domain.InstanceStateRunning, CPUAverage7d: 1},
				},
				Volumes: []domain.BlockVolume{
					{ID: "vol-zero", SizeGB: 0, State: domain.VolumeStateAvailable},
					{ID: "vol-good", SizeGB: 20, State: domain.VolumeStateAvailable},
				},
			},
		},
	}

	res := Analyze(snapshot, DefaultSettings())

	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, "i-good", res.Recommendations[0].ResourceID)
	assert.Equal(t, "vol-good", res.Recommendations[1].ResourceID)
	assert.Len(t, res.Warnings, 3)
}

func TestAnalyze_OneRecommendationPerResource(t *testing.T) {
	snapshot := &domain.ResourceSnapshot{
		Regions: map[string]domain.RegionInventory{
			"us-east-1": {
				Instances: []domain.ComputeInstance{
					{ID: "i-001", InstanceClass: "t2.micro", State: domain.InstanceStateRunning, CPUAverage7d: 1},
					{ID: "i-001", InstanceClass: "t2.micro", State: domain.InstanceStateRunning, CPUAverage7d: 1},
				},
			},
		},
	}

	res := Analyze(snapshot, DefaultSettings())

	assert.Len(t, res.Recommendations, 1)
	assert.Len(t, res.Warnings, 1)
}

func TestAnalyze_ThresholdBoundaries(t *testing.T) {
	snapshot := &domain.ResourceSnapshot{
		Regions: map[string]domain.RegionInventory{
			"us-east-1": {
				Instances: []domain.ComputeInstance{
					{ID: "i-at", InstanceClass: "t2.micro", State: domain.InstanceStateRunning, CPUAverage7d: 5.0},
					{ID: "i-below", InstanceClass: "t2.micro", State: domain.InstanceStateRunning, CPUAverage7d: 4.99},
					{ID: "i-other", InstanceClass: "t2.micro", State: domain.InstanceStateOther, CPUAverage7d: 0},
				},
				Volumes: []domain.BlockVolume{
					{ID: "vol-detached-inuse", SizeGB: 10, State: domain.VolumeStateInUse},
					{ID: "vol-attached-available", SizeGB: 10, State: domain.VolumeStateAvailable, Attached: true},
				},
			},
		},
	}

	res := Analyze(snapshot, DefaultSettings())

	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, "i-below", res.Recommendations[0].ResourceID)
}

func TestAnalyze_CustomSettings(t *testing.T) {
	settings := DefaultSettings()
	settings.IdleCPUThreshold = 50
	settings.Pricing = pricing.NewStore(pricing.Settings{DefaultHourly: 0.1, VolumeGBMonthly: 0.05})

	snapshot := &domain.ResourceSnapshot{
		Regions: map[string]domain.RegionInventory{
			"us-east-1": {
				Instances: []domain.ComputeInstance{
					{ID: "i-001", InstanceClass: "z1.custom", State: domain.InstanceStateRunning, CPUAverage7d: 30},
				},
				Volumes: []domain.BlockVolume{
					{ID: "vol-001", SizeGB: 33, State: domain.VolumeStateAvailable},
				},
			},
		},
	}

	res := Analyze(snapshot, settings)

	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, 72.0, res.Recommendations[0].EstimatedMonthlySavings)
	assert.Equal(t, 1.65, res.Recommendations[1].EstimatedMonthlySavings)
	assert.Equal(t, 73.65, res.TotalPotentialMonthlySavings)
}

func TestAnalyze_EmptySnapshot(t *testing.T) {
	res := Analyze(&domain.ResourceSnapshot{}, Settings{IdleCPUThreshold: 5})

	assert.Empty(t, res.Recommendations)
	assert.Zero(t, res.TotalPotentialMonthlySavings)
}
