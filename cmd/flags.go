package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Tiliavir/litt/internal/ledger"
)

// recordFlags selects which record flags a command accepts.
type recordFlags uint8

const (
	propertyFlags recordFlags = 1 << iota
	aliasFlags
	commitFlags
	startFlag
	endFlag
	dryRunFlag
)

func addRecordFlags(cmd *cobra.Command, set recordFlags) {
	f := cmd.Flags()
	if set&propertyFlags != 0 {
		f.StringP("description", "d", "", "Short description of the work done")
		f.StringP("detail", "D", "", "Detailed description of the work done")
		f.StringArrayP("tag", "t", nil, "Tag for the record; repeat for more tags")
		f.StringP("structured-data", "S", "", "Arbitrary data stored base64 encoded with the record")
	}
	if set&aliasFlags != 0 {
		f.StringP("alias", "a", "", "Alias key whose defaults fill in the record")
	}
	if set&commitFlags != 0 {
		f.StringP("id", "i", "", "Identifier for the committed record (generated when empty)")
		f.StringArrayP("untag", "u", nil, "Tag to remove from the record; repeat for more")
	}
	if set&startFlag != 0 {
		f.StringP("start-time", "s", "", "Timespec for the start of the interval")
	}
	if set&endFlag != 0 {
		f.StringP("end-time", "e", "", "Timespec for the end of the interval")
	}
	if set&dryRunFlag != 0 {
		f.Bool("dryrun", false, "Print the record that would be committed instead of committing it")
	}
}

// recordInput collects the flags the user actually set. args holds at most
// the positional quick text.
func recordInput(cmd *cobra.Command, args []string) ledger.Input {
	in := ledger.Input{
		Alias:          optionalString(cmd, "alias"),
		Description:    optionalString(cmd, "description"),
		Detail:         optionalString(cmd, "detail"),
		StructuredData: optionalString(cmd, "structured-data"),
		StartTime:      optionalString(cmd, "start-time"),
		EndTime:        optionalString(cmd, "end-time"),
		Tags:           stringArray(cmd, "tag"),
		Untag:          stringArray(cmd, "untag"),
	}
	if len(args) > 0 {
		q := args[0]
		in.QuickText = &q
	}
	if id := optionalString(cmd, "id"); id != nil {
		in.ID = *id
	}
	if f := cmd.Flags().Lookup("dryrun"); f != nil {
		in.DryRun, _ = cmd.Flags().GetBool("dryrun")
	}
	return in
}

// optionalString returns nil unless the flag was given, so an explicit empty
// value stays distinguishable from an absent one.
func optionalString(cmd *cobra.Command, name string) *string {
	f := cmd.Flags().Lookup(name)
	if f == nil || !f.Changed {
		return nil
	}
	v := f.Value.String()
	return &v
}

func stringArray(cmd *cobra.Command, name string) []string {
	if cmd.Flags().Lookup(name) == nil {
		return nil
	}
	v, _ := cmd.Flags().GetStringArray(name)
	return v
}
