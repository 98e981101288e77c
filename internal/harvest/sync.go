package harvest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Tiliavir/litt/internal/ledger"
	"github.com/Tiliavir/litt/internal/model"
	"github.com/Tiliavir/litt/internal/query"
	"github.com/Tiliavir/litt/internal/tagset"
	"github.com/Tiliavir/litt/internal/timecalc"
)

// Tag prefixes that route a record to Harvest and mark it as synced.
const (
	ProjectTagPrefix = "HarvestProject:"
	TaskTagPrefix    = "HarvestTask:"
	EntryTagPrefix   = "HarvestEntryId:"
)

// EntryCreator creates Harvest time entries. *Client implements it.
type EntryCreator interface {
	CreateTimeEntry(ctx context.Context, entry TimeEntry) (int64, error)
}

// SyncResult holds counters for a sync run and the images of the records it
// tagged.
type SyncResult struct {
	Synced        int
	AlreadySynced int
	Skipped       int
	Errors        int
	Images        model.Images[model.Record]
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	// DryRun reports what would be sent without calling the API.
	DryRun bool
	// Location determines the spent date; nil means time.Local.
	Location *time.Location
	// Out receives one progress line per record; nil discards them.
	Out io.Writer
}

// Sync sends every record without a HarvestEntryId tag to c. The record's
// best matching alias supplies the project and task tags, and its tags are
// merged into the record. Records that got an entry are tagged with its id.
// A nil c behaves like a dry run.
func Sync(ctx context.Context, doc *model.Ledger, c EntryCreator, opts SyncOptions) (SyncResult, error) {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	result := SyncResult{
		Images: model.Images[model.Record]{
			OldImage: map[string]*model.Record{},
			NewImage: map[string]*model.Record{},
		},
	}

	ids := make([]string, 0, len(doc.Records))
	for id := range doc.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rec := doc.Records[id]
		if _, ok := tagset.HasPrefix(rec.Tags, EntryTagPrefix); ok {
			result.AlreadySynced++
			continue
		}

		entry, tags, ok := MapRecord(rec, doc, opts.Location)
		if !ok {
			fmt.Fprintf(out, "  – Skipped:  %s (missing Harvest tags)\n", id)
			result.Skipped++
			continue
		}
		if opts.DryRun || c == nil {
			fmt.Fprintf(out, "  ~ Would sync: %s (%.2fh on %s)\n", id, entry.Hours, entry.SpentDate)
			result.Synced++
			continue
		}

		entryID, err := c.CreateTimeEntry(ctx, entry)
		if err != nil {
			fmt.Fprintf(out, "  ! Error syncing %s: %v\n", id, err)
			result.Errors++
			continue
		}

		old := rec.Clone()
		updated := rec.Clone()
		updated.Tags = tagset.Union(tags, []string{EntryTagPrefix + strconv.FormatInt(entryID, 10)})
		doc.Records[id] = updated
		result.Images.OldImage[id] = &old
		result.Images.NewImage[id] = &updated

		fmt.Fprintf(out, "  ✓ Synced:   %s (%.2fh, entry %d)\n", id, entry.Hours, entryID)
		result.Synced++
	}
	return result, nil
}

// MapRecord builds the time entry for rec and returns the record's tags
// merged with those of its matching alias. ok is false when no alias names
// both a project and a task.
func MapRecord(rec model.Record, doc *model.Ledger, loc *time.Location) (TimeEntry, []string, bool) {
	_, alias, ok := ledger.MatchAlias(doc.Aliases, rec.Tags)
	if !ok {
		return TimeEntry{}, rec.Tags, false
	}
	tags := tagset.Union(rec.Tags, alias.Tags)

	project, okProject := tagValue(alias.Tags, ProjectTagPrefix)
	task, okTask := tagValue(alias.Tags, TaskTagPrefix)
	if !okProject || !okTask {
		return TimeEntry{}, tags, false
	}

	if loc == nil {
		loc = time.Local
	}
	worked := rec.Duration() - query.InterruptionDuration(rec, doc.Records)
	return TimeEntry{
		ProjectID: project,
		TaskID:    task,
		SpentDate: rec.StartTime.In(loc).Format("2006-01-02"),
		Hours:     timecalc.Hours(worked),
		Notes:     notes(rec),
	}, tags, true
}

// tagValue returns the value after prefix, as an int64 when it is numeric.
func tagValue(tags []string, prefix string) (any, bool) {
	tag, ok := tagset.HasPrefix(tags, prefix)
	if !ok {
		return nil, false
	}
	v := strings.TrimPrefix(tag, prefix)
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, true
	}
	return v, true
}

func notes(rec model.Record) string {
	var s string
	if rec.Description != nil {
		s = *rec.Description
	}
	if rec.Detail != nil && *rec.Detail != "" {
		s += "\n\n" + *rec.Detail
	}
	return s
}
