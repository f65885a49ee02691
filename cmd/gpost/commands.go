package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tcnksm/go-latest"

	"github.com/leftmike/gpost"
	"github.com/leftmike/gpost/internal/cli"
)

func newDialectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the controller dialects",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, d := range gpost.Dialects() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", d.Name, d.Description)
				for _, s := range d.Settings {
					fmt.Fprintf(cmd.OutOrStdout(), "    %s=%q\n", s.Option, s.Value)
				}
			}
		},
	}
}

func newOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List the options accepted by --set and config files, with their defaults",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), cli.Usage())
		},
	}
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Check for a newer release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := &latest.GithubTag{
				Owner:      "leftmike",
				Repository: "gpost",
			}
			res, err := latest.Check(tag, version)
			if err != nil {
				return fmt.Errorf("update check: %w", err)
			}
			if res.Outdated {
				fmt.Fprintf(cmd.OutOrStdout(), "a new version is available: %s (you have %s)\n",
					res.Current, version)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "gpost %s is the latest version\n", version)
			}
			return nil
		},
	}
}
