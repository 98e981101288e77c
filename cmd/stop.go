package cmd

import (
	"github.com/spf13/cobra"
)

func newStopCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop [alias or description]",
		Short: "Stop the running stopwatch and commit it to the ledger",
		Long: `Stop the running stopwatch and commit it to the ledger. An open
interruption is committed first. The new record ID is printed.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			return a.Stop(cmd.Context(), recordInput(cmd, args), o.output(cmd))
		},
	}
	addRecordFlags(cmd, propertyFlags|aliasFlags|commitFlags|endFlag)
	return cmd
}

func newCancelCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Discard the open interruption, or the stopwatch if none, without committing",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			return a.Cancel(cmd.Context(), o.output(cmd))
		},
	}
}
