package query

import (
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/Tiliavir/litt/internal/model"
	"github.com/Tiliavir/litt/internal/timecalc"
)

// ExportOptions shapes the tabular export.
type ExportOptions struct {
	WithStructuredData bool
	WithoutDetail      bool
	// Location renders timestamps; nil means time.Local.
	Location *time.Location
}

// TagMark is written into a tag column for rows carrying that tag.
const TagMark = "x"

// Table flattens entries into a header and rows. Durations are decimal hours;
// Duration has the interruptions subtracted, each resolved against all (the
// full record set, not only the listed entries). Tags carried by every row are
// left out; each remaining tag becomes a column marked with TagMark.
func Table(entries []Entry, all map[string]model.Record, opts ExportOptions) ([]string, [][]string) {
	counts := map[string]int{}
	for _, e := range entries {
		for _, tag := range uniq(e.Record.Tags) {
			counts[tag]++
		}
	}
	var tagColumns []string
	for tag, n := range counts {
		if n != len(entries) {
			tagColumns = append(tagColumns, tag)
		}
	}
	sort.Strings(tagColumns)

	header := []string{"RecordId", "StartTime", "EndTime", "CommitTime", "Duration", "InterruptionDuration", "Description"}
	if !opts.WithoutDetail {
		header = append(header, "Detail")
	}
	if opts.WithStructuredData {
		header = append(header, "StructuredData")
	}
	header = append(header, tagColumns...)

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		r := e.Record
		interruption := InterruptionDuration(r, all)
		row := []string{
			e.ID,
			timecalc.FormatISO(r.StartTime, opts.Location),
			formatOptionalTime(r.EndTime, opts.Location),
			formatOptionalTime(r.CommitTime, opts.Location),
			formatHours(timecalc.Hours(r.Duration() - interruption)),
			formatHours(timecalc.Hours(interruption)),
			deref(r.Description),
		}
		if !opts.WithoutDetail {
			row = append(row, deref(r.Detail))
		}
		if opts.WithStructuredData {
			row = append(row, formatData(r.StructuredData))
		}
		has := map[string]bool{}
		for _, tag := range r.Tags {
			has[tag] = true
		}
		for _, tag := range tagColumns {
			if has[tag] {
				row = append(row, TagMark)
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return header, rows
}

// WriteCSV writes Table(entries, all, opts) as CSV.
func WriteCSV(w io.Writer, entries []Entry, all map[string]model.Record, opts ExportOptions) error {
	header, rows := Table(entries, all, opts)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing csv rows: %w", err)
	}
	return nil
}

// InterruptionDuration sums the durations of the interruptions r references.
// References that do not resolve in all count as zero.
func InterruptionDuration(r model.Record, all map[string]model.Record) time.Duration {
	var total time.Duration
	for _, ref := range r.Interruptions {
		if intr, ok := all[ref.ID]; ok {
			total += intr.Duration()
		}
	}
	return total
}

func uniq(tags []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func formatOptionalTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return timecalc.FormatISO(*t, loc)
}

// formatData renders structured data the way the ledger stores it, as base64.
func formatData(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
