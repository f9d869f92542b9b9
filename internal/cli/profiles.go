package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slmtnm/s4fs/internal/config"
)

func newProfilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the profiles in .s3cfg",
		Long:  `List the profiles of the first .s3cfg found. The selected one is marked with "*".`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.FindS3Config()
			if err != nil {
				return err
			}
			profiles, err := config.Profiles(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range profiles {
				mark := " "
				if name == a.settings.Profile {
					mark = "*"
				}
				fmt.Fprintf(out, "%s %s\n", mark, name)
			}
			return nil
		},
	}
}

// completeProfiles offers the .s3cfg sections for --profile.
func completeProfiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	path, err := config.FindS3Config()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	profiles, err := config.Profiles(path)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return profiles, cobra.ShellCompDirectiveNoFileComp
}
