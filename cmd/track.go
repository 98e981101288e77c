package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Tiliavir/litt/internal/failure"
)

func newTrackCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track [alias or description]",
		Short: "Track a closed interval of time",
		Long: `Track a closed interval of time. At least one of --start-time and
--end-time is required; the other defaults to now. With --dryrun the record
is printed instead of committed.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			return a.Track(cmd.Context(), recordInput(cmd, args), o.output(cmd))
		},
	}
	addRecordFlags(cmd, propertyFlags|aliasFlags|commitFlags|startFlag|endFlag|dryRunFlag)
	return cmd
}

func newAmendCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "amend [alias or description]",
		Short: "Change fields of a committed record",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("id") {
				return failure.New(failure.InvalidArgument, "amend needs the --id of the record to change")
			}
			return a.Amend(cmd.Context(), recordInput(cmd, args), o.output(cmd))
		},
	}
	addRecordFlags(cmd, propertyFlags|aliasFlags|commitFlags|startFlag|endFlag|dryRunFlag)
	return cmd
}
