package commands

import (
	"fmt"

	"github.com/de-tools/cost-atlas/pkg/runtime/app"
	"github.com/de-tools/cost-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/cost-atlas/pkg/store/file"
	"github.com/spf13/cobra"
)

type AnalyzeCmd struct {
	env          *Env
	snapshotPath string
	execute      bool
	live         bool
	output       string
	archiveDir   string
}

func NewAnalyzeCmd(env *Env) *cobra.Command {
	ac := &AnalyzeCmd{env: env}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full analysis pipeline and print the report",
		RunE:  ac.run,
	}

	cmd.Flags().StringVar(&ac.snapshotPath, "snapshot", "", "Analyze a saved snapshot file instead of scanning AWS")
	cmd.Flags().BoolVar(&ac.execute, "execute", false, "Remediate recommendations below the auto-approve ceiling")
	cmd.Flags().BoolVar(&ac.live, "live", false, "Perform remediation for real instead of a dry run")
	cmd.Flags().StringVarP(&ac.output, "output", "o", string(export.FormatText), "Output format: text or json")
	cmd.Flags().StringVar(&ac.archiveDir, "archive-dir", "", "Also write the snapshot and report as JSON under this directory")

	return cmd
}

func (ac *AnalyzeCmd) run(cmd *cobra.Command, _ []string) error {
	format, err := export.ParseFormat(ac.output)
	if err != nil {
		return err
	}
	if ac.live && !ac.execute {
		return fmt.Errorf("--live requires --execute")
	}
	a, err := ac.env.App()
	if err != nil {
		return err
	}

	source := ac.env.LiveSource(a)
	if ac.snapshotPath != "" {
		if source, err = file.NewSnapshotSource(ac.snapshotPath); err != nil {
			return err
		}
	}

	p, err := a.Pipeline(app.PipelineOptions{
		Source:     source,
		Remediate:  ac.execute,
		DryRun:     !ac.live,
		ArchiveDir: ac.archiveDir,
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	report, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}
	return export.NewReporter(cmd.OutOrStdout(), format).HandleReport(report)
}
