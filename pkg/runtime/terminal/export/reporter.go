package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/de-tools/cost-atlas/pkg/adapters"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (expected text or json)", s)
	}
}

type TableConfig struct {
	ResourceWidth int
	RegionWidth   int
	ActionWidth   int
	SavingsWidth  int
	IssueWidth    int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		ResourceWidth: 22,
		RegionWidth:   14,
		ActionWidth:   19,
		SavingsWidth:  10,
		IssueWidth:    48,
	}
}

type Reporter struct {
	writer io.Writer
	format Format
	config TableConfig
}

func NewReporter(writer io.Writer, format Format) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	if format == "" {
		format = FormatText
	}
	return &Reporter{
		writer: writer,
		format: format,
		config: DefaultTableConfig(),
	}
}

const reportTemplate = `
Cost Analysis Report
Generated: {{.Timestamp.UTC.Format "2006-01-02 15:04:05"}} UTC

Resources scanned: {{.ScanSummary.TotalInstances}} instances ({{.ScanSummary.IdleInstances}} idle), {{.ScanSummary.TotalVolumes}} volumes ({{.ScanSummary.UnattachedVolumes}} unattached), {{.ScanSummary.TotalDatabases}} databases
Recommendations: {{len .Recommendations}}
Potential monthly savings: {{money .TotalPotentialMonthlySavings}}
{{if .Recommendations}}
{{separator}}
{{formatRow "Resource" "Region" "Action" "Savings/mo" "Issue"}}
{{separator}}
{{range .Recommendations}}{{formatRow .ResourceID .Region (printf "%s" .Action) (money .EstimatedMonthlySavings) .IssueDescription}}
{{end}}{{separator}}
{{end}}{{if .ActionsTaken}}
=== Actions Taken ===
{{range .ActionsTaken}}- {{.Recommendation.ResourceID}}: {{if .Succeeded}}{{.Result}}{{else}}FAILED: {{.Error}}{{end}}
{{end}}{{end}}{{if .Warnings}}
=== Warnings ===
{{range .Warnings}}- {{.}}
{{end}}{{end}}`

const snapshotTemplate = `
Resource Scan
Captured: {{.CapturedAt.UTC.Format "2006-01-02 15:04:05"}} UTC
{{range .Regions}}
{{printf "%-16s" .Name}} instances: {{.Instances}}  volumes: {{.Volumes}}  databases: {{.Databases}}{{end}}

Totals: {{.Summary.TotalInstances}} instances ({{.Summary.IdleInstances}} idle), {{.Summary.TotalVolumes}} volumes ({{.Summary.UnattachedVolumes}} unattached), {{.Summary.TotalDatabases}} databases
`

const outcomeTemplate = `{{.Recommendation.ResourceID}} ({{printf "%s" .Recommendation.Action}}): {{if .Succeeded}}{{.Result}}{{else}}FAILED: {{.Error}}{{end}}
`

func (c *Reporter) funcMap() template.FuncMap {
	return template.FuncMap{
		"money": func(v float64) string {
			return fmt.Sprintf("$%.2f", v)
		},
		"formatRow": func(resource, region, action, savings, issue string) string {
			return fmt.Sprintf("| %-*s | %-*s | %-*s | %*s | %-*s |",
				c.config.ResourceWidth, resource,
				c.config.RegionWidth, region,
				c.config.ActionWidth, action,
				c.config.SavingsWidth, savings,
				c.config.IssueWidth, issue)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.ResourceWidth+2),
				strings.Repeat("-", c.config.RegionWidth+2),
				strings.Repeat("-", c.config.ActionWidth+2),
				strings.Repeat("-", c.config.SavingsWidth+2),
				strings.Repeat("-", c.config.IssueWidth+2))
		},
	}
}

func (c *Reporter) render(name, tmpl string, data any) error {
	t, err := template.New(name).Funcs(c.funcMap()).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return t.Execute(c.writer, data)
}

func (c *Reporter) encode(v any) error {
	enc := json.NewEncoder(c.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *Reporter) HandleReport(report *domain.AnalysisReport) error {
	if c.format == FormatJSON {
		return c.encode(adapters.MapReportDomainToApi(report))
	}
	return c.render("report", reportTemplate, report)
}

type regionRow struct {
	Name      string
	Instances int
	Volumes   int
	Databases int
}

func (c *Reporter) HandleSnapshot(snapshot *domain.ResourceSnapshot) error {
	if c.format == FormatJSON {
		return c.encode(adapters.MapSnapshotDomainToApi(snapshot))
	}

	rows := make([]regionRow, 0, len(snapshot.Regions))
	for _, name := range snapshot.RegionNames() {
		inv := snapshot.Regions[name]
		rows = append(rows, regionRow{
			Name:      name,
			Instances: len(inv.Instances),
			Volumes:   len(inv.Volumes),
			Databases: len(inv.Databases),
		})
	}
	return c.render("snapshot", snapshotTemplate, struct {
		CapturedAt time.Time
		Regions    []regionRow
		Summary    domain.SnapshotSummary
	}{
		CapturedAt: snapshot.CapturedAt,
		Regions:    rows,
		Summary:    snapshot.Summary(),
	})
}

func (c *Reporter) HandleOutcome(outcome domain.RemediationOutcome) error {
	if c.format == FormatJSON {
		return c.encode(adapters.MapOutcomeDomainToApi(outcome))
	}
	return c.render("outcome", outcomeTemplate, outcome)
}
