package recommender

import (
	"fmt"
	"math"
	"time"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"gonum.org/v1/gonum/stat"
)

// sample is one running instance together with its raw feature values.
type sample struct {
	region   string
	instance domain.ComputeInstance
	cpu      float64
	days     int
}

func (s sample) vector() []float64 {
	return []float64{s.cpu, float64(s.days)}
}

// collectSamples walks the snapshot in region order and keeps running instances only.
func collectSamples(snapshot *domain.ResourceSnapshot, asOf time.Time) ([]sample, []string) {
	var (
		samples  []sample
		warnings []string
	)
	for _, region := range snapshot.RegionNames() {
		for _, instance := range snapshot.Regions[region].Instances {
			if instance.State != domain.InstanceStateRunning {
				continue
			}
			if err := instance.Validate(); err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: skipped instance: %v", region, err))
				continue
			}
			samples = append(samples, sample{
				region:   region,
				instance: instance,
				cpu:      instance.CPUAverage7d,
				days:     daysSinceLaunch(instance.LaunchedAt, asOf),
			})
		}
	}
	return samples, warnings
}

// daysSinceLaunch counts whole days between launch and asOf. Unknown launch times and
// launches after asOf count as zero.
func daysSinceLaunch(launchedAt *time.Time, asOf time.Time) int {
	if launchedAt == nil {
		return 0
	}
	days := int(asOf.Sub(*launchedAt).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// standardize rescales every dimension to zero mean and unit population variance.
// A dimension without variance maps to zero.
func standardize(points [][]float64) ([][]float64, error) {
	if len(points) == 0 {
		return nil, nil
	}
	dims := len(points[0])
	out := make([][]float64, len(points))
	for i := range out {
		out[i] = make([]float64, dims)
	}

	column := make([]float64, len(points))
	for d := 0; d < dims; d++ {
		for i, p := range points {
			column[i] = p[d]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		if !isFinite(mean) || !isFinite(std) {
			return nil, fmt.Errorf("feature %d: non-finite statistics (mean=%v, std=%v)", d, mean, std)
		}
		for i := range points {
			if std == 0 {
				out[i][d] = 0
				continue
			}
			out[i][d] = (points[i][d] - mean) / std
		}
	}
	return out, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
