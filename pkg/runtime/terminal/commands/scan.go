package commands

import (
	"fmt"

	"github.com/de-tools/cost-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/cost-atlas/pkg/store/file"
	"github.com/spf13/cobra"
)

type ScanCmd struct {
	env        *Env
	output     string
	archiveDir string
}

func NewScanCmd(env *Env) *cobra.Command {
	sc := &ScanCmd{env: env}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Collect a resource snapshot and store it",
		RunE:  sc.run,
	}

	cmd.Flags().StringVarP(&sc.output, "output", "o", string(export.FormatText), "Output format: text or json")
	cmd.Flags().StringVar(&sc.archiveDir, "archive-dir", "", "Also write the snapshot as JSON under this directory")

	return cmd
}

func (sc *ScanCmd) run(cmd *cobra.Command, _ []string) error {
	format, err := export.ParseFormat(sc.output)
	if err != nil {
		return err
	}
	a, err := sc.env.App()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	snapshot, err := sc.env.LiveSource(a).Collect(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect snapshot: %w", err)
	}
	if err := a.Scans().SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	if sc.archiveDir != "" {
		archive, err := file.NewArchive(sc.archiveDir)
		if err != nil {
			return err
		}
		if err := archive.SaveSnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("failed to archive snapshot: %w", err)
		}
	}

	return export.NewReporter(cmd.OutOrStdout(), format).HandleSnapshot(snapshot)
}
