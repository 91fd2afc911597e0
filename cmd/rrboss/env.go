package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ebosslab/rrboss/internal/comm/world"
	"github.com/ebosslab/rrboss/internal/config"
	"github.com/ebosslab/rrboss/internal/launch"
)

var envLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

func newEnvCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Report the execution environment and the mode a run would select",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}

			styled := term.IsTerminal(int(os.Stdout.Fd()))
			label := func(s string) string {
				if styled {
					return envLabelStyle.Render(s)
				}
				return s
			}

			out := cmd.OutOrStdout()

			restricted, evidence := launch.Restriction(cfg.Site.Policy())
			if evidence != "" {
				fmt.Fprintf(out, "%s %v (%s)\n", label("restricted node:"), restricted, evidence)
			} else {
				fmt.Fprintf(out, "%s %v\n", label("restricted node:"), restricted)
			}

			env, ok := world.Detect()
			if ok {
				fmt.Fprintf(out, "%s %s (size %s, rank %s)\n", label("launcher environment:"), env.Source, env.Size, env.Rank)
			} else {
				fmt.Fprintf(out, "%s none\n", label("launcher environment:"))
			}

			mode := launch.ModeLocal
			if !restricted && ok {
				mode = launch.ModeDistributed
			}
			fmt.Fprintf(out, "%s %s\n", label("selected mode:"), mode)

			return nil
		},
	}

	return cmd
}
