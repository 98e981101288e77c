package cmd

import (
	"github.com/spf13/cobra"
)

func newInterruptCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "interrupt [alias or description]",
		Aliases: []string{"i"},
		Short:   "Temporarily interrupt the running stopwatch",
		Args:    usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			return a.Interrupt(cmd.Context(), recordInput(cmd, args), o.output(cmd))
		},
	}
	addRecordFlags(cmd, propertyFlags|aliasFlags)
	return cmd
}

func newResumeCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resume [alias or description]",
		Aliases: []string{"r"},
		Short:   "Commit the interruption and resume the stopwatch",
		Args:    usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			return a.Resume(cmd.Context(), recordInput(cmd, args), o.output(cmd))
		},
	}
	addRecordFlags(cmd, propertyFlags|aliasFlags|commitFlags)
	return cmd
}
