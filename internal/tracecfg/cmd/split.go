package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split [trace.json] [addr...]",
		Short: "Split blocks at the given addresses before exporting",
		Long: `Build the graph of a trace, split the block containing each address so that
a new vertex starts there, and export the result. An address that is already
a vertex start, or that lies between instructions, leaves the graph as is.`,
		Example: `
# Start a new block at 0x1004 and print the listing
tracecfg split -f listing trace.json 0x1004
  `,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addrs, err := parseAddrs(args[1:])
			if err != nil {
				return err
			}
			return runExport(cmd, args[0], addrs)
		},
	}
}

func parseAddrs(args []string) ([]uint64, error) {
	out := make([]uint64, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseUint(a, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("address %q: %w", a, err)
		}
		out = append(out, v)
	}
	return out, nil
}
