package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"worlddex/internal/core/moderation"
)

func (o *cliOptions) banned() (*moderation.BannedLabelSet, error) {
	if o.moderation == "" {
		return moderation.Default()
	}
	return moderation.LoadFile(o.moderation)
}

func newModerateCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "moderate <label>",
		Short: "Run a label through the banned label filter",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := opts.banned()
			if err != nil {
				return err
			}
			v := set.Check(strings.Join(args, " "))
			if opts.json {
				return writeJSON(cmd, v)
			}
			if v.Allowed {
				msg := "allowed"
				if v.Safe != "" {
					msg += fmt.Sprintf(" (safe compound %q)", v.Safe)
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), msg)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "rejected: %s %q\n", v.Reason, v.Match)
			return err
		},
	}
}
