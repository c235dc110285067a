package cmd

import (
	"github.com/silkmc/silk-installer/internal/logging"
	"github.com/silkmc/silk-installer/internal/meta"
	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions [game-version]",
	Short: "List loader versions, or check whether a game version is installable",
	Args:  usageArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		snap, err := meta.FetchSnapshot(ctx, meta.DefaultBaseURL)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			game := args[0]
			m, err := meta.FetchManifest(ctx, meta.DefaultManifestURL)
			if err != nil {
				return err
			}
			switch {
			case !m.HasVersion(game):
				logging.Infof("%s: unknown game version\n", game)
			case snap.Intermediary[game] == "":
				logging.Infof("%s: exists but has no intermediary mappings\n", game)
			default:
				logging.Infof("%s: installable\n", game)
			}
			return nil
		}

		if len(snap.LoaderVersions) == 0 {
			logging.Infoln("No loader versions available.")
			return nil
		}
		logging.Infoln("Available loader versions (newest first):")
		for _, v := range snap.LoaderVersions {
			logging.Infoln(" ", v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}
