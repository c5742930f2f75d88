package recommender

import (
	"testing"
	"time"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asOf = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func running(id string, cpu float64) domain.ComputeInstance {
	return domain.ComputeInstance{
		ID:            id,
		InstanceClass: "t3.medium",
		State:         domain.InstanceStateRunning,
		CPUAverage7d:  cpu,
	}
}

func snapshotOf(instances ...domain.ComputeInstance) *domain.ResourceSnapshot {
	return &domain.ResourceSnapshot{
		CapturedAt: asOf,
		Regions: map[string]domain.RegionInventory{
			"us-east-1": {Instances: instances},
		},
	}
}

func resourceIDs(recs []domain.Recommendation) []string {
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ResourceID)
	}
	return ids
}

func TestRecommend_TooFewRunningInstances(t *testing.T) {
	tests := []struct {
		name     string
		snapshot *domain.ResourceSnapshot
	}{
		{"empty", &domain.ResourceSnapshot{}},
		{"two low", snapshotOf(running("i-1", 0.5), running("i-2", 1))},
		{"two high", snapshotOf(running("i-1", 90), running("i-2", 99))},
		{
			"stopped instances are not counted",
			snapshotOf(
				running("i-1", 1),
				running("i-2", 2),
				domain.ComputeInstance{ID: "i-3", InstanceClass: "t2.micro", State: domain.InstanceStateStopped},
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Recommend(tt.snapshot, asOf)
			assert.Empty(t, res.Recommendations)
			assert.NotNil(t, res.Recommendations)
			assert.Empty(t, res.Warnings)
		})
	}
}

func TestRecommend_LowUsageGroup(t *testing.T) {
	snapshot := snapshotOf(
		running("i-a", 1),
		running("i-b", 2),
		running("i-c", 3),
		running("i-d", 60),
		running("i-e", 62),
		running("i-f", 95),
	)

	res := Recommend(snapshot, asOf)

	require.Len(t, res.Recommendations, 3)
	assert.Equal(t, []string{"i-a", "i-b", "i-c"}, resourceIDs(res.Recommendations))
	for _, rec := range res.Recommendations {
		assert.Equal(t, domain.KindUsagePattern, rec.Kind)
		assert.Equal(t, domain.ActionAdviseOnly, rec.Action)
		assert.Zero(t, rec.EstimatedMonthlySavings)
		assert.Contains(t, rec.IssueDescription, "avg 2.0% CPU")

		detail, ok := rec.SourceDetail.(domain.PatternDetail)
		require.True(t, ok)
		assert.Equal(t, 0, detail.Group)
		assert.InDelta(t, 2.0, detail.GroupMeanCPU, 1e-9)
	}
}

func TestRecommend_CatchesLowButNotIdleInstances(t *testing.T) {
	snapshot := snapshotOf(
		running("i-a", 6),
		running("i-b", 7),
		running("i-c", 8),
		running("i-d", 60),
		running("i-e", 75),
		running("i-f", 95),
	)

	res := Recommend(snapshot, asOf)

	assert.Equal(t, []string{"i-a", "i-b", "i-c"}, resourceIDs(res.Recommendations))
	assert.Contains(t, res.Recommendations[0].IssueDescription, "avg 7.0% CPU")
}

func TestRecommend_NoLowUsageGroup(t *testing.T) {
	snapshot := snapshotOf(
		running("i-a", 20),
		running("i-b", 40),
		running("i-c", 60),
		running("i-d", 80),
	)

	res := Recommend(snapshot, asOf)

	assert.Empty(t, res.Recommendations)
	assert.Empty(t, res.Warnings)
}

func TestRecommend_Deterministic(t *testing.T) {
	launched := asOf.Add(-45 * 24 * time.Hour)
	old := asOf.Add(-400 * 24 * time.Hour)
	a := running("i-a", 3)
	a.LaunchedAt = &launched
	b := running("i-b", 4)
	b.LaunchedAt = &old
	snapshot := &domain.ResourceSnapshot{
		Regions: map[string]domain.RegionInventory{
			"eu-west-1": {Instances: []domain.ComputeInstance{a, running("i-c", 9)}},
			"us-east-1": {Instances: []domain.ComputeInstance{b, running("i-d", 70), running("i-e", 2)}},
		},
	}

	first := Recommend(snapshot, asOf)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Recommend(snapshot, asOf))
	}
}

func TestRecommend_DegenerateFeaturesWarns(t *testing.T) {
	snapshot := snapshotOf(running("i-a", 3), running("i-b", 3), running("i-c", 3))

	res := Recommend(snapshot, asOf)

	assert.Empty(t, res.Recommendations)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], ErrDegenerateFeatures.Error())
}

func TestRecommend_TwoDistinctUsageLevels(t *testing.T) {
	snapshot := snapshotOf(running("i-a", 6), running("i-b", 6), running("i-c", 6), running("i-d", 80))

	res := Recommend(snapshot, asOf)

	assert.Empty(t, res.Warnings)
	require.Len(t, res.Recommendations, 3)
	for i, id := range []string{"i-a", "i-b", "i-c"} {
		assert.Equal(t, id, res.Recommendations[i].ResourceID)
		assert.Equal(t, domain.KindUsagePattern, res.Recommendations[i].Kind)
	}
}

func TestRecommend_SkipsMalformedInstances(t *testing.T) {
	snapshot := snapshotOf(
		running("i-a", 1),
		running("i-b", 2),
		domain.ComputeInstance{ID: "i-bad", State: domain.InstanceStateRunning, CPUAverage7d: 1},
	)

	res := Recommend(snapshot, asOf)

	assert.Empty(t, res.Recommendations)
	assert.Len(t, res.Warnings, 1)
}

func TestDaysSinceLaunch(t *testing.T) {
	tenAndHalf := asOf.Add(-(10*24 + 12) * time.Hour)
	future := asOf.Add(48 * time.Hour)

	assert.Equal(t, 0, daysSinceLaunch(nil, asOf))
	assert.Equal(t, 10, daysSinceLaunch(&tenAndHalf, asOf))
	assert.Equal(t, 0, daysSinceLaunch(&future, asOf))
}

func TestStandardize(t *testing.T) {
	out, err := standardize([][]float64{{1, 5}, {3, 5}})
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{-1, 0}, {1, 0}}, out)
}

func TestCluster(t *testing.T) {
	t.Run("farthest point seeding", func(t *testing.T) {
		points := [][]float64{{1}, {2}, {3}, {60}, {62}, {95}}

		labels, err := Cluster(points, 3)

		require.NoError(t, err)
		assert.Equal(t, []int{0, 0, 0, 2, 2, 1}, labels)
	})

	t.Run("identical points", func(t *testing.T) {
		_, err := Cluster([][]float64{{1, 1}, {1, 1}, {1, 1}}, 3)
		assert.ErrorIs(t, err, ErrDegenerateFeatures)
	})

	t.Run("fewer distinct points than groups", func(t *testing.T) {
		labels, err := Cluster([][]float64{{1, 1}, {1, 1}, {2, 2}}, 3)

		require.NoError(t, err)
		assert.Equal(t, []int{0, 0, 1}, labels)
	})

	t.Run("invalid group count", func(t *testing.T) {
		_, err := Cluster([][]float64{{1}}, 0)
		assert.Error(t, err)
	})
}
