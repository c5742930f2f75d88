package domain

import "time"

// RemediationOutcome records what the executor did with one recommendation.
// Exactly one of Result and Error is set.
type RemediationOutcome struct {
	Timestamp      time.Time
	Recommendation Recommendation
	Result         string
	Error          string
	Succeeded      bool
}

// AnalysisReport is the output of one pipeline run.
type AnalysisReport struct {
	Timestamp       time.Time
	Recommendations []Recommendation
	// TotalPotentialMonthlySavings covers rule-based recommendations only, rounded to cents.
	TotalPotentialMonthlySavings float64
	ScanSummary                  SnapshotSummary
	ActionsTaken                 []RemediationOutcome
	Warnings                     []string
}
