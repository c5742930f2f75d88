package recommender

import (
	"fmt"
	"time"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"gonum.org/v1/gonum/stat"
)

const (
	// GroupCount is the number of usage groups running instances are partitioned into.
	GroupCount = 3
	// LowUsageCPUThreshold marks a group as underutilized when its mean CPU is below it.
	LowUsageCPUThreshold = 10.0
)

// Result holds usage-pattern recommendations and any warnings raised while producing them.
type Result struct {
	Recommendations []domain.Recommendation
	Warnings        []string
}

// Recommend groups the running instances of the snapshot by (cpu average, days since launch)
// and emits an advise-only recommendation for every member of a low-usage group.
// Fewer than GroupCount running instances is not an error and yields no recommendations.
// Numerical failures are reported as warnings with an empty result.
func Recommend(snapshot *domain.ResourceSnapshot, asOf time.Time) (res Result) {
	res.Recommendations = []domain.Recommendation{}

	samples, warnings := collectSamples(snapshot, asOf)
	res.Warnings = warnings
	if len(samples) < GroupCount {
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res.Recommendations = []domain.Recommendation{}
			res.Warnings = append(res.Warnings, fmt.Sprintf("usage pattern analysis aborted: %v", r))
		}
	}()

	raw := make([][]float64, len(samples))
	for i, s := range samples {
		raw[i] = s.vector()
	}
	scaled, err := standardize(raw)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("usage pattern analysis skipped: %v", err))
		return res
	}
	labels, err := Cluster(scaled, GroupCount)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("usage pattern analysis skipped: %v", err))
		return res
	}

	for group := 0; group < GroupCount; group++ {
		var members []sample
		var cpus []float64
		for i, s := range samples {
			if labels[i] == group {
				members = append(members, s)
				cpus = append(cpus, s.cpu)
			}
		}
		if len(members) == 0 {
			continue
		}

		meanCPU := stat.Mean(cpus, nil)
		if meanCPU >= LowUsageCPUThreshold {
			continue
		}
		for _, m := range members {
			res.Recommendations = append(res.Recommendations, newPatternRecommendation(m, group, meanCPU))
		}
	}

	return res
}

func newPatternRecommendation(s sample, group int, meanCPU float64) domain.Recommendation {
	return domain.Recommendation{
		Kind:              domain.KindUsagePattern,
		Severity:          domain.SeverityMedium,
		Region:            s.region,
		ResourceID:        s.instance.ID,
		ResourceClass:     s.instance.InstanceClass,
		IssueDescription:  fmt.Sprintf("Instance in low-utilization group (avg %.1f%% CPU)", meanCPU),
		ActionDescription: "Consider downsizing or scheduling the instance",
		Action:            domain.ActionAdviseOnly,
		SourceDetail: domain.PatternDetail{
			Group:           group,
			GroupMeanCPU:    meanCPU,
			CPUAverage7d:    s.cpu,
			DaysSinceLaunch: s.days,
			Instance:        s.instance.Clone(),
		},
	}
}
