package analyzer

import (
	"fmt"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
)

func analyzeInstances(
	region string,
	instances []domain.ComputeInstance,
	settings Settings,
) ([]domain.Recommendation, []string) {
	var (
		recs     []domain.Recommendation
		warnings []string
	)
	seen := make(map[string]struct{}, len(instances))

	for _, instance := range instances {
		if err := instance.Validate(); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: skipped instance: %v", region, err))
			continue
		}
		if _, dup := seen[instance.ID]; dup {
			warnings = append(warnings, fmt.Sprintf("%s: skipped duplicate instance %s", region, instance.ID))
			continue
		}
		seen[instance.ID] = struct{}{}

		if instance.State != domain.InstanceStateRunning || instance.CPUAverage7d >= settings.IdleCPUThreshold {
			continue
		}

		hourlyRate := settings.Pricing.InstanceHourlyRate(instance.InstanceClass)
		recs = append(recs, domain.Recommendation{
			Kind:                    domain.KindIdleCompute,
			Severity:                domain.SeverityHigh,
			Region:                  region,
			ResourceID:              instance.ID,
			ResourceClass:           instance.InstanceClass,
			IssueDescription:        fmt.Sprintf("Instance has %v%% average CPU (last 7 days)", instance.CPUAverage7d),
			ActionDescription:       "Stop instance during idle periods",
			Action:                  domain.ActionStop,
			EstimatedMonthlySavings: roundCents(hourlyRate * hoursPerMonth),
			SourceDetail:            instance.Clone(),
		})
	}

	return recs, warnings
}
