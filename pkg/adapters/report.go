package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/de-tools/cost-atlas/pkg/models/api"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
)

func MapRecommendationDomainToApi(r domain.Recommendation) api.Recommendation {
	return api.Recommendation{
		Type:           string(r.Kind),
		Severity:       string(r.Severity),
		Region:         r.Region,
		ResourceID:     r.ResourceID,
		ResourceType:   r.ResourceClass,
		Issue:          r.IssueDescription,
		Recommendation: r.ActionDescription,
		Action:         string(r.Action),
		MonthlySavings: r.EstimatedMonthlySavings,
		Details:        mapDetailDomainToApi(r.SourceDetail),
	}
}

func mapDetailDomainToApi(detail any) json.RawMessage {
	var v any
	switch d := detail.(type) {
	case nil:
		return nil
	case domain.ComputeInstance:
		v = MapInstanceDomainToApi(d)
	case domain.BlockVolume:
		v = MapVolumeDomainToApi(d)
	case domain.PatternDetail:
		v = api.PatternDetail{
			Group:           d.Group,
			GroupMeanCPU:    d.GroupMeanCPU,
			CPUAvg7d:        d.CPUAverage7d,
			DaysSinceLaunch: d.DaysSinceLaunch,
			Instance:        MapInstanceDomainToApi(d.Instance),
		}
	case json.RawMessage:
		return d
	default:
		v = d
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

// MapRecommendationApiToDomain decodes details according to the recommendation type. Unknown
// actions map to domain.ActionUnknown.
func MapRecommendationApiToDomain(r api.Recommendation) (domain.Recommendation, error) {
	res := domain.Recommendation{
		Kind:                    domain.RecommendationKind(r.Type),
		Severity:                domain.Severity(r.Severity),
		Region:                  r.Region,
		ResourceID:              r.ResourceID,
		ResourceClass:           r.ResourceType,
		IssueDescription:        r.Issue,
		ActionDescription:       r.Recommendation,
		Action:                  domain.ParseAction(r.Action),
		EstimatedMonthlySavings: r.MonthlySavings,
	}
	if len(r.Details) == 0 || string(r.Details) == "null" {
		return res, nil
	}

	switch res.Kind {
	case domain.KindIdleCompute:
		var d api.EC2Instance
		if err := json.Unmarshal(r.Details, &d); err != nil {
			return res, fmt.Errorf("failed to decode details of %s: %w", r.ResourceID, err)
		}
		res.SourceDetail = MapInstanceApiToDomain(d)
	case domain.KindUnattachedVolume:
		var d api.EBSVolume
		if err := json.Unmarshal(r.Details, &d); err != nil {
			return res, fmt.Errorf("failed to decode details of %s: %w", r.ResourceID, err)
		}
		res.SourceDetail = MapVolumeApiToDomain(d)
	case domain.KindUsagePattern:
		var d api.PatternDetail
		if err := json.Unmarshal(r.Details, &d); err != nil {
			return res, fmt.Errorf("failed to decode details of %s: %w", r.ResourceID, err)
		}
		res.SourceDetail = domain.PatternDetail{
			Group:           d.Group,
			GroupMeanCPU:    d.GroupMeanCPU,
			CPUAverage7d:    d.CPUAvg7d,
			DaysSinceLaunch: d.DaysSinceLaunch,
			Instance:        MapInstanceApiToDomain(d.Instance),
		}
	default:
		res.SourceDetail = append(json.RawMessage{}, r.Details...)
	}
	return res, nil
}

func MapOutcomeDomainToApi(o domain.RemediationOutcome) api.ActionTaken {
	return api.ActionTaken{
		Timestamp:      o.Timestamp,
		Recommendation: MapRecommendationDomainToApi(o.Recommendation),
		Result:         o.Result,
		Error:          o.Error,
		Succeeded:      o.Succeeded,
	}
}

func MapOutcomeApiToDomain(a api.ActionTaken) (domain.RemediationOutcome, error) {
	rec, err := MapRecommendationApiToDomain(a.Recommendation)
	if err != nil {
		return domain.RemediationOutcome{}, err
	}
	return domain.RemediationOutcome{
		Timestamp:      a.Timestamp,
		Recommendation: rec,
		Result:         a.Result,
		Error:          a.Error,
		Succeeded:      a.Succeeded,
	}, nil
}

func MapReportDomainToApi(r *domain.AnalysisReport) api.Report {
	res := api.Report{
		Timestamp:             r.Timestamp,
		ScanSummary:           MapSummaryDomainToApi(r.ScanSummary),
		TotalRecommendations:  len(r.Recommendations),
		TotalPotentialSavings: r.TotalPotentialMonthlySavings,
		Recommendations:       make([]api.Recommendation, 0, len(r.Recommendations)),
		ActionsTaken:          make([]api.ActionTaken, 0, len(r.ActionsTaken)),
		Warnings:              append([]string{}, r.Warnings...),
	}
	for _, rec := range r.Recommendations {
		res.Recommendations = append(res.Recommendations, MapRecommendationDomainToApi(rec))
	}
	for _, o := range r.ActionsTaken {
		res.ActionsTaken = append(res.ActionsTaken, MapOutcomeDomainToApi(o))
	}
	return res
}

func MapReportApiToDomain(r api.Report) (*domain.AnalysisReport, error) {
	res := &domain.AnalysisReport{
		Timestamp:                    r.Timestamp,
		ScanSummary:                  MapSummaryApiToDomain(r.ScanSummary),
		TotalPotentialMonthlySavings: r.TotalPotentialSavings,
		Recommendations:              make([]domain.Recommendation, 0, len(r.Recommendations)),
		ActionsTaken:                 make([]domain.RemediationOutcome, 0, len(r.ActionsTaken)),
		Warnings:                     append([]string{}, r.Warnings...),
	}
	for _, rec := range r.Recommendations {
		d, err := MapRecommendationApiToDomain(rec)
		if err != nil {
			return nil, err
		}
		res.Recommendations = append(res.Recommendations, d)
	}
	for _, a := range r.ActionsTaken {
		o, err := MapOutcomeApiToDomain(a)
		if err != nil {
			return nil, err
		}
		res.ActionsTaken = append(res.ActionsTaken, o)
	}
	return res, nil
}
