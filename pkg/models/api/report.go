package api

import (
	"encoding/json"
	"time"
)

type Recommendation struct {
	Type           string          `json:"type"`
	Severity       string          `json:"severity"`
	Region         string          `json:"region"`
	ResourceID     string          `json:"resource_id"`
	ResourceType   string          `json:"resource_type"`
	Issue          string          `json:"issue"`
	Recommendation string          `json:"recommendation"`
	Action         string          `json:"action"`
	MonthlySavings float64         `json:"monthly_savings"`
	Details        json.RawMessage `json:"details,omitempty"`
}

// PatternDetail is the details payload of usage-pattern recommendations.
type PatternDetail struct {
	Group           int         `json:"group"`
	GroupMeanCPU    float64     `json:"group_mean_cpu"`
	CPUAvg7d        float64     `json:"cpu_avg_7d"`
	DaysSinceLaunch int         `json:"days_since_launch"`
	Instance        EC2Instance `json:"instance"`
}

type ActionTaken struct {
	Timestamp      time.Time      `json:"timestamp"`
	Recommendation Recommendation `json:"recommendation"`
	Result         string         `json:"result,omitempty"`
	Error          string         `json:"error,omitempty"`
	Succeeded      bool           `json:"succeeded"`
}

type Report struct {
	Timestamp             time.Time        `json:"timestamp"`
	ScanSummary           SnapshotSummary  `json:"scan_summary"`
	TotalRecommendations  int              `json:"total_recommendations"`
	TotalPotentialSavings float64          `json:"total_potential_savings"`
	Recommendations       []Recommendation `json:"recommendations"`
	ActionsTaken          []ActionTaken    `json:"actions_taken"`
	Warnings              []string         `json:"warnings"`
}

// TriggerScanResponse is the body of a successful manual scan. The flat fields are the ones the
// dashboard front-end reads; the full report rides along.
type TriggerScanResponse struct {
	Success              bool            `json:"success"`
	Message              string          `json:"message"`
	Summary              SnapshotSummary `json:"summary"`
	RecommendationsCount int             `json:"recommendations_count"`
	PotentialSavings     float64         `json:"potential_savings"`
	Report               *Report         `json:"report,omitempty"`
}

type ExecuteActionResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Outcome ActionTaken `json:"outcome"`
}

// ErrorResponse is returned by the read-only routes.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FailureResponse is returned by the action routes.
type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
