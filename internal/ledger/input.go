package ledger

// Input carries the fields a caller supplied for one operation. Pointer
// fields are nil when the caller did not supply them; a non-nil pointer to an
// empty string is an explicit value.
type Input struct {
	// QuickText is the positional argument: an alias key if one matches,
	// otherwise the description.
	QuickText *string
	Alias     *string

	Description    *string
	Detail         *string
	StructuredData *string
	Tags           []string
	Untag          []string

	// ID names the record to write (stop, resume, track) or to amend.
	// Empty means generate one.
	ID string

	StartTime *string
	EndTime   *string

	DryRun bool
}

// AliasInput is the set of defaults stored under an alias key.
type AliasInput struct {
	Description    *string
	Detail         *string
	StructuredData *string
	Tags           []string
}

func (a AliasInput) empty() bool {
	return a.Description == nil && a.Detail == nil && a.StructuredData == nil && len(a.Tags) == 0
}
