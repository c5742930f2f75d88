package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/de-tools/cost-atlas/pkg/adapters"
	"github.com/de-tools/cost-atlas/pkg/models/api"
	"github.com/de-tools/cost-atlas/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

type ExecuteCmd struct {
	env                *Env
	recommendationPath string
	live               bool
	output             string
}

func NewExecuteCmd(env *Env) *cobra.Command {
	ec := &ExecuteCmd{env: env}
	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Remediate a single recommendation",
		RunE:  ec.run,
	}

	cmd.Flags().StringVar(&ec.recommendationPath, "recommendation", "", "Path to a recommendation JSON document")
	cmd.Flags().BoolVar(&ec.live, "live", false, "Perform remediation for real instead of a dry run")
	cmd.Flags().StringVarP(&ec.output, "output", "o", string(export.FormatText), "Output format: text or json")

	_ = cmd.MarkFlagRequired("recommendation")

	return cmd
}

func (ec *ExecuteCmd) run(cmd *cobra.Command, _ []string) error {
	format, err := export.ParseFormat(ec.output)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(ec.recommendationPath)
	if err != nil {
		return fmt.Errorf("failed to read recommendation: %w", err)
	}
	var wire api.Recommendation
	if err := json.Unmarshal(raw, &wire); err != nil {
		return fmt.Errorf("failed to decode recommendation: %w", err)
	}
	if wire.ResourceID == "" {
		return fmt.Errorf("recommendation has no resource_id")
	}
	rec, err := adapters.MapRecommendationApiToDomain(wire)
	if err != nil {
		return err
	}

	a, err := ec.env.App()
	if err != nil {
		return err
	}
	executor, err := a.Executor(!ec.live)
	if err != nil {
		return err
	}

	outcome := executor.Execute(cmd.Context(), rec)
	if err := export.NewReporter(cmd.OutOrStdout(), format).HandleOutcome(outcome); err != nil {
		return err
	}
	if !outcome.Succeeded {
		return fmt.Errorf("remediation of %s failed", rec.ResourceID)
	}
	return nil
}
