package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose    bool
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "rrboss",
		Short:         "rrboss estimates redshifts for BOSS targets, locally or across a distributed world",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to launcher configuration file")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newEnvCmd(flags))
	cmd.AddCommand(newRunsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
