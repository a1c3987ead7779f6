package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"tracecfg/internal/config"
	"tracecfg/internal/trace"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema [config|trace]",
		Short:     "Print a JSON schema",
		Long:      "Print the JSON schema of the configuration file or of one trace record",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"config", "trace"},
		RunE: func(cmd *cobra.Command, args []string) error {
			reflector := new(jsonschema.Reflector)
			var s *jsonschema.Schema
			switch args[0] {
			case "config":
				s = reflector.Reflect(&config.Config{})
			default:
				s = reflector.Reflect(&trace.Record{})
			}
			bts, err := json.MarshalIndent(s, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(bts))
			return nil
		},
	}
}
