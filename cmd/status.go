package cmd

import (
	"github.com/spf13/cobra"
)

// runStatus prints the running stopwatch and interruption, if any.
func runStatus(cmd *cobra.Command, o *rootOptions) error {
	a, err := o.open(cmd)
	if err != nil {
		return err
	}
	return a.Status(cmd.Context(), o.output(cmd))
}
