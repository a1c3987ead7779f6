package cmd

import (
	"github.com/spf13/cobra"

	"tracecfg/internal/config"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report [trace.json]",
		Short: "Summarize the graph of a trace as markdown",
		Long: `Print statistics, loops, foreign call targets and the largest blocks of the
graph. The markdown is rendered for the terminal unless output is redirected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Flags().Set("format", config.FormatReport); err != nil {
				return err
			}
			return runExport(cmd, args[0], nil)
		},
	}
}
