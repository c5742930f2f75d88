package commands

import (
	"github.com/spf13/cobra"
)

func NewServeCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API and the analysis scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.App()
			if err != nil {
				return err
			}
			return a.Serve(cmd.Context())
		},
	}
}
