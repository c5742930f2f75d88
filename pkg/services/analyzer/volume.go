package analyzer

import (
	"fmt"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
)

func analyzeVolumes(
	region string,
	volumes []domain.BlockVolume,
	settings Settings,
) ([]domain.Recommendation, []string) {
	var (
		recs     []domain.Recommendation
		warnings []string
	)
	seen := make(map[string]struct{}, len(volumes))
	ratePerGB := settings.Pricing.VolumeMonthlyRatePerGB()

	for _, volume := range volumes {
		if err := volume.Validate(); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: skipped volume: %v", region, err))
			continue
		}
		if _, dup := seen[volume.ID]; dup {
			warnings = append(warnings, fmt.Sprintf("%s: skipped duplicate volume %s", region, volume.ID))
			continue
		}
		seen[volume.ID] = struct{}{}

		if volume.Attached || volume.State != domain.VolumeStateAvailable {
			continue
		}

		recs = append(recs, domain.Recommendation{
			Kind:                    domain.KindUnattachedVolume,
			Severity:                domain.SeverityMedium,
			Region:                  region,
			ResourceID:              volume.ID,
			ResourceClass:           fmt.Sprintf("EBS %s", volume.VolumeClass),
			IssueDescription:        fmt.Sprintf("Volume (%d GB) unattached since creation", volume.SizeGB),
			ActionDescription:       "Delete unattached volume or create snapshot",
			Action:                  domain.ActionSnapshotAndDelete,
			EstimatedMonthlySavings: roundCents(float64(volume.SizeGB) * ratePerGB),
			SourceDetail:            volume,
		})
	}

	return recs, warnings
}
