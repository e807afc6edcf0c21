package main

import (
	"github.com/spf13/cobra"
)

// cliOptions are the persistent flags shared by every subcommand
type cliOptions struct {
	json          bool
	moderation    string
	landmarksFile string
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "worlddexctl",
		Short:         "WorldDex operator tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Print machine readable JSON")
	rootCmd.PersistentFlags().StringVar(&opts.moderation, "moderation-file", "", "Banned label TOML (default embedded list)")
	rootCmd.PersistentFlags().StringVar(&opts.landmarksFile, "landmarks-file", "", "Landmark registry TOML (default embedded Stanford set)")

	rootCmd.AddCommand(newXPCommand(opts))
	rootCmd.AddCommand(newLandmarksCommand(opts))
	rootCmd.AddCommand(newModerateCommand(opts))
	rootCmd.AddCommand(newRouteCommand(opts))
	rootCmd.AddCommand(newIdentifyCommand(opts))

	return rootCmd
}
