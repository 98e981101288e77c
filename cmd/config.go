package cmd

import (
	"github.com/spf13/cobra"
)

func newConfigCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the configuration, or persist the given --output-format",
		Example: `  tt config
  tt --output-format yaml config`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			var format *string
			if cmd.Flags().Changed("output-format") {
				format = &o.outputFormat
			}
			return a.Configure(cmd.Context(), format, o.output(cmd))
		},
	}
}
