package cmd

import (
	"errors"
	"log/slog"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"tracecfg/internal/render"
	"tracecfg/internal/ui/browse"
	"tracecfg/internal/ui/colorize"
)

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [trace.json]",
		Short: "Explore the graph of a trace interactively",
		Long: `Open a terminal browser over the vertices of the graph. Enter shows the
selected block, Tab cycles between the vertex list, the block and the report.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(os.Stdout.Fd()) {
				return errors.New("browse needs a terminal; use --format listing instead")
			}
			conf, _, r, err := load(cmd, args[0], nil)
			if err != nil {
				return err
			}
			err = browse.Run(cmd.Context(), r.graph, browse.Options{
				Title:       r.name(),
				Color:       colorize.New(!conf.NoColor),
				Report:      render.Report(r.graph, r.reportInfo()),
				ReportStyle: conf.ReportStyle,
			})
			if err != nil {
				slog.Error("TUI run error", "error", err)
				return err
			}
			return nil
		},
	}
}
