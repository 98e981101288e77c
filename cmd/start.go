package cmd

import (
	"github.com/spf13/cobra"
)

func newStartCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [alias or description]",
		Short: "Start a stopwatch to track time",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			return a.Start(cmd.Context(), recordInput(cmd, args), o.output(cmd))
		},
	}
	addRecordFlags(cmd, propertyFlags|aliasFlags|startFlag)
	return cmd
}

func newToggleCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sw [alias or description]",
		Short: "Start or stop the stopwatch depending on whether one is running",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			return a.Toggle(cmd.Context(), recordInput(cmd, args), o.output(cmd))
		},
	}
	addRecordFlags(cmd, propertyFlags|aliasFlags|commitFlags|startFlag|endFlag)
	return cmd
}
