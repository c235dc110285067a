package cmd

import (
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/silkmc/silk-installer/internal/installer"
	"github.com/silkmc/silk-installer/internal/launcher"
	"github.com/silkmc/silk-installer/internal/launchjson"
	"github.com/silkmc/silk-installer/internal/logging"
	"github.com/spf13/cobra"
)

var noProfile bool

var installClientCmd = &cobra.Command{
	Use:   "install-client <game-version> [loader-version]",
	Short: "Install a Silk Loader client profile for a game version",
	Args:  usageArgs(cobra.RangeArgs(1, 2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		gameVersion := args[0]
		loader := loaderVersion
		if len(args) == 2 {
			loader = args[1]
		}

		dir := installDir
		if dir == "" {
			var err error
			dir, err = launcher.DefaultInstallDir()
			if err != nil {
				return err
			}
		}

		if loader != "" {
			logging.Infof("Installing client of version %s with loader version %s\n", gameVersion, loader)
		} else {
			logging.Infof("Installing client of version %s\n", gameVersion)
		}
		logging.Debugf("Verbose: install dir=%s generate-profile=%t\n", dir, !noProfile)

		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("resolving versions"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)

		plan, err := installer.Run(cmd.Context(), installer.Options{
			GameVersion:     gameVersion,
			LoaderVersion:   loader,
			GenerateProfile: !noProfile,
			InstallDir:      dir,
			Status: func(msg string) {
				bar.Describe(msg)
				_ = bar.Add(1)
			},
		})
		_ = bar.Finish()
		if err != nil {
			return err
		}

		logging.Infof("Installed %s into %s\n",
			launchjson.ProfileName(plan.LoaderVersion, plan.GameVersion), dir)
		return nil
	},
}

func init() {
	installClientCmd.Flags().BoolVar(&noProfile, "no-profile", false, "Skip registering the profile in launcher_profiles.json")
	rootCmd.AddCommand(installClientCmd)
}
