// Package tagset implements the set operations the ledger applies to tag lists.
// Results are sorted and free of duplicates.
package tagset

import (
	"slices"
	"sort"
	"strings"
)

// Normalize removes duplicates and sorts. It always returns a non-nil slice.
func Normalize(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Union returns every tag present in any of the lists.
func Union(lists ...[]string) []string {
	var all []string
	for _, l := range lists {
		all = append(all, l...)
	}
	return Normalize(all)
}

// Subtract returns tags with every member of remove taken out.
func Subtract(tags, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, t := range remove {
		drop[t] = struct{}{}
	}
	kept := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := drop[t]; !ok {
			kept = append(kept, t)
		}
	}
	return Normalize(kept)
}

// Intersect returns the tags present in both a and b.
func Intersect(a, b []string) []string {
	in := make(map[string]struct{}, len(b))
	for _, t := range b {
		in[t] = struct{}{}
	}
	var out []string
	for _, t := range a {
		if _, ok := in[t]; ok {
			out = append(out, t)
		}
	}
	return Normalize(out)
}

// Equal reports whether a and b hold the same tags in the same order.
func Equal(a, b []string) bool {
	return slices.Equal(a, b)
}

// HasPrefix returns the first tag starting with prefix.
func HasPrefix(tags []string, prefix string) (string, bool) {
	for _, t := range tags {
		if strings.HasPrefix(t, prefix) {
			return t, true
		}
	}
	return "", false
}
