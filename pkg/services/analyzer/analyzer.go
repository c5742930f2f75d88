package analyzer

import (
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/store/pricing"
	"github.com/shopspring/decimal"
)

const hoursPerMonth = 24 * 30

// Settings contains configurable thresholds for the rule-based analysis
type Settings struct {
	// IdleCPUThreshold flags running instances whose 7-day CPU average is below it (default: 5.0)
	IdleCPUThreshold float64
	// IdleDays is reserved; no rule reads it yet (default: 7)
	IdleDays int
	// UnattachedVolumeDays is reserved; no rule reads it yet (default: 30)
	UnattachedVolumeDays int
	Pricing              pricing.Store
}

// DefaultSettings returns the default configuration for the analyzer
func DefaultSettings() Settings {
	return Settings{
		IdleCPUThreshold:     5.0,
		IdleDays:             7,
		UnattachedVolumeDays: 30,
		Pricing:              pricing.NewDefaultStore(),
	}
}

// Result is the output of one analysis run.
type Result struct {
	Recommendations              []domain.Recommendation
	TotalPotentialMonthlySavings float64
	// Warnings lists records that were skipped because they were malformed.
	Warnings []string
}

// Analyze applies the idle-compute and unattached-volume rules to every region of the
// snapshot. It performs no I/O and never mutates the snapshot.
func Analyze(snapshot *domain.ResourceSnapshot, settings Settings) Result {
	if settings.Pricing == nil {
		settings.Pricing = pricing.NewDefaultStore()
	}

	res := Result{Recommendations: []domain.Recommendation{}}
	total := decimal.Zero

	for _, region := range snapshot.RegionNames() {
		inv := snapshot.Regions[region]

		recs, warnings := analyzeInstances(region, inv.Instances, settings)
		res.Recommendations = append(res.Recommendations, recs...)
		res.Warnings = append(res.Warnings, warnings...)

		recs, warnings = analyzeVolumes(region, inv.Volumes, settings)
		res.Recommendations = append(res.Recommendations, recs...)
		res.Warnings = append(res.Warnings, warnings...)
	}

	for _, rec := range res.Recommendations {
		total = total.Add(decimal.NewFromFloat(rec.EstimatedMonthlySavings))
	}
	res.TotalPotentialMonthlySavings = total.Round(2).InexactFloat64()

	return res
}

// roundCents rounds a dollar amount half away from zero to two decimals.
func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
