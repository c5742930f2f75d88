package domain

type RecommendationKind string

const (
	KindIdleCompute      RecommendationKind = "idle-compute"
	KindUnattachedVolume RecommendationKind = "unattached-volume"
	KindUsagePattern     RecommendationKind = "usage-pattern"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Action string

const (
	ActionStop              Action = "stop"
	ActionSnapshotAndDelete Action = "snapshot-and-delete"
	ActionAdviseOnly        Action = "advise-only"
	ActionUnknown           Action = "unknown"
)

// ParseAction maps a wire value onto Action; anything unrecognised becomes ActionUnknown.
func ParseAction(s string) Action {
	switch Action(s) {
	case ActionStop, ActionSnapshotAndDelete, ActionAdviseOnly:
		return Action(s)
	default:
		return ActionUnknown
	}
}

// Recommendation is a single proposed cost-saving action tied to one resource.
// Values are never modified after an analyzer emits them.
type Recommendation struct {
	Kind                    RecommendationKind
	Severity                Severity
	Region                  string
	ResourceID              string
	ResourceClass           string
	IssueDescription        string
	ActionDescription       string
	Action                  Action
	EstimatedMonthlySavings float64
	SourceDetail            any // copy of the originating record
}

// PatternDetail is the SourceDetail of usage-pattern recommendations.
type PatternDetail struct {
	Group           int
	GroupMeanCPU    float64
	CPUAverage7d    float64
	DaysSinceLaunch int
	Instance        ComputeInstance
}
