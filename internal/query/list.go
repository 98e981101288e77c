package query

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/Tiliavir/litt/internal/failure"
	"github.com/Tiliavir/litt/internal/model"
	"github.com/Tiliavir/litt/internal/tagset"
)

// TimeParser resolves the timespecs used in sieves.
type TimeParser interface {
	Parse(spec string) (time.Time, error)
}

// SortKeys lists the accepted sort keys.
var SortKeys = []string{"CommitTime", "StartTime", "EndTime", "Description", "ID", "Detail", "Tags", "StructuredData", "Interruptions"}

// DefaultSortKey is used when Options.SortBy is empty.
const DefaultSortKey = "CommitTime"

// Options selects and shapes the listed records.
type Options struct {
	// IDs looks records up directly; unknown IDs are skipped and sieves are
	// not applied.
	IDs    []string
	Sieves []Sieve
	SortBy string

	WithStructuredData bool
	WithoutDetail      bool
}

// Entry is a record together with its ID.
type Entry struct {
	ID     string       `json:"key"`
	Record model.Record `json:"value"`
}

// List selects, strips and sorts records from doc.
func List(doc *model.Ledger, opts Options, times TimeParser) ([]Entry, error) {
	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = DefaultSortKey
	}
	if !validSortKey(sortBy) {
		return nil, failure.New(failure.InvalidSortKey, "sort key must be one of: %s", strings.Join(SortKeys, ", "))
	}

	var entries []Entry
	if len(opts.IDs) > 0 {
		seen := map[string]bool{}
		for _, id := range opts.IDs {
			rec, ok := doc.Records[id]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			entries = append(entries, Entry{ID: id, Record: rec.Clone()})
		}
	} else {
		var err error
		entries, err = Filter(doc.Records, opts.Sieves, times)
		if err != nil {
			return nil, err
		}
		// Records asked for by ID keep their structured data.
		if !opts.WithStructuredData {
			for i := range entries {
				entries[i].Record.StructuredData = nil
			}
		}
	}

	for i := range entries {
		if opts.WithoutDetail {
			entries[i].Record.Detail = nil
		}
	}

	if err := Sort(entries, sortBy); err != nil {
		return nil, err
	}
	return entries, nil
}

// Filter returns the records passing every sieve, ordered by ID.
func Filter(records map[string]model.Record, sieves []Sieve, times TimeParser) ([]Entry, error) {
	resolved := make([]resolvedSieve, 0, len(sieves))
	for _, s := range sieves {
		r, err := s.resolve(times)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, r)
	}

	var out []Entry
	for id, rec := range records {
		keep := true
		for _, s := range resolved {
			if !s.match(rec) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, Entry{ID: id, Record: rec.Clone()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Sort orders entries by key. Every entry must carry a value for key,
// otherwise failure.InvalidSortKey is returned.
func Sort(entries []Entry, key string) error {
	if !validSortKey(key) {
		return failure.New(failure.InvalidSortKey, "sort key must be one of: %s", strings.Join(SortKeys, ", "))
	}
	for _, e := range entries {
		if _, ok := sortValue(e, key); !ok {
			return failure.New(failure.InvalidSortKey, "record %q has no %s to sort by", e.ID, key)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, _ := sortValue(entries[i], key)
		b, _ := sortValue(entries[j], key)
		if a.less(b) {
			return true
		}
		if b.less(a) {
			return false
		}
		return entries[i].ID < entries[j].ID
	})
	return nil
}

func validSortKey(key string) bool {
	for _, k := range SortKeys {
		if k == key {
			return true
		}
	}
	return false
}

// sortable holds a time, a string or a list of strings.
type sortable struct {
	t    time.Time
	s    string
	list []string
}

func (a sortable) less(b sortable) bool {
	if !a.t.Equal(b.t) {
		return a.t.Before(b.t)
	}
	if a.s != b.s {
		return a.s < b.s
	}
	return slices.Compare(a.list, b.list) < 0
}

func sortValue(e Entry, key string) (sortable, bool) {
	r := e.Record
	switch key {
	case "ID":
		return sortable{s: e.ID}, true
	case "StartTime":
		return sortable{t: r.StartTime}, true
	case "EndTime":
		if r.EndTime == nil {
			return sortable{}, false
		}
		return sortable{t: *r.EndTime}, true
	case "CommitTime":
		if r.CommitTime == nil {
			return sortable{}, false
		}
		return sortable{t: *r.CommitTime}, true
	case "Description":
		if r.Description == nil {
			return sortable{}, false
		}
		return sortable{s: *r.Description}, true
	case "Detail":
		if r.Detail == nil {
			return sortable{}, false
		}
		return sortable{s: *r.Detail}, true
	case "Tags":
		return sortable{list: tagset.Normalize(r.Tags)}, true
	case "StructuredData":
		if r.StructuredData == nil {
			return sortable{}, false
		}
		return sortable{s: string(r.StructuredData)}, true
	case "Interruptions":
		if r.Interruptions == nil {
			return sortable{}, false
		}
		refs := make([]string, len(r.Interruptions))
		for i, ref := range r.Interruptions {
			refs[i] = ref.ID
		}
		return sortable{list: refs}, true
	}
	return sortable{}, false
}
