package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/litt/internal/app"
	"github.com/Tiliavir/litt/internal/query"
)

type listOptions struct {
	ids                []string
	filters            []string
	sortBy             string
	outfile            string
	csv                bool
	withStructuredData bool
	withoutDetail      bool
}

func newListCmd(o *rootOptions) *cobra.Command {
	lo := &listOptions{}
	cmd := &cobra.Command{
		Use:   "ls [id]",
		Short: "List and filter ledger records",
		Long: `List and filter ledger records. Filters are JSON objects, e.g.

  tt ls -f '{"Tags": ["client"], "StartTime": [{"Timespec": "monday", "Condition": ">="}]}'

Fields inside one filter are alternatives; repeated filters must all match.
With --csv the records are exported as a timesheet with one column per tag.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, o, lo, args)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&lo.ids, "id", "i", nil, "Record ID to show; repeat for more")
	f.StringArrayVarP(&lo.filters, "filter", "f", nil, "JSON filter object; repeat to combine")
	f.StringVarP(&lo.sortBy, "sort-by", "s", query.DefaultSortKey, fmt.Sprintf("Sort key, one of %v", query.SortKeys))
	f.StringVarP(&lo.outfile, "outfile", "o", "", "Write the output to this file instead of stdout")
	f.BoolVarP(&lo.csv, "csv", "c", false, "Export as CSV suitable for a timesheet")
	f.BoolVarP(&lo.withStructuredData, "with-structured-data", "w", false, "Include structured data")
	f.BoolVarP(&lo.withoutDetail, "without-detail", "D", false, "Leave out the detail text")
	return cmd
}

func runList(cmd *cobra.Command, o *rootOptions, lo *listOptions, args []string) error {
	req := app.ListRequest{
		Options: query.Options{
			IDs:                append(append([]string{}, args...), lo.ids...),
			SortBy:             lo.sortBy,
			WithStructuredData: lo.withStructuredData,
			WithoutDetail:      lo.withoutDetail,
		},
		CSV: lo.csv,
	}
	for _, raw := range lo.filters {
		sieve, err := query.ParseSieve([]byte(raw))
		if err != nil {
			return err
		}
		req.Sieves = append(req.Sieves, sieve)
	}

	a, err := o.open(cmd)
	if err != nil {
		return err
	}

	out := o.output(cmd)
	if lo.outfile == "" {
		return a.List(cmd.Context(), req, out)
	}
	var buf bytes.Buffer
	out.W = &buf
	if err := a.List(cmd.Context(), req, out); err != nil {
		return err
	}
	return os.WriteFile(lo.outfile, buf.Bytes(), 0o644)
}
