package commands

import (
	"fmt"

	"github.com/de-tools/cost-atlas/pkg/services/config"
	"github.com/spf13/cobra"
)

type ProfilesCmd struct {
	env  *Env
	path string
}

func NewProfilesCmd(env *Env) *cobra.Command {
	pc := &ProfilesCmd{env: env}
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List AWS profiles from the shared config file",
		RunE:  pc.run,
	}

	cmd.Flags().StringVar(&pc.path, "aws-config", "", "Path to the AWS shared config file (default is aws::shared_config_file or ~/.aws/config)")

	return cmd
}

func (pc *ProfilesCmd) run(cmd *cobra.Command, _ []string) error {
	cfg, err := pc.env.Config()
	if err != nil {
		return err
	}
	path := pc.path
	if path == "" {
		path = cfg.AWS.SharedConfigFile
	}
	if path == "" {
		path = config.DefaultSharedConfigPath()
	}

	registry, err := config.NewProfileRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to read AWS profiles: %w", err)
	}
	profiles, err := registry.GetProfiles(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(profiles) == 0 {
		fmt.Fprintf(out, "No profiles found in %s\n", path)
	} else {
		fmt.Fprintf(out, "Profiles in %s:\n", path)
		for _, profile := range profiles {
			fmt.Fprintf(out, "%-24s %-8s %s\n", profile.Name, orDash(profile.Source), orDash(profile.Region))
		}
	}

	if cfg.AWS.Profile != "" {
		if _, err := registry.GetProfile(cmd.Context(), cfg.AWS.Profile); err != nil {
			fmt.Fprintf(out, "Configured profile %q: not found\n", cfg.AWS.Profile)
		} else {
			fmt.Fprintf(out, "Configured profile: %s\n", cfg.AWS.Profile)
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
