// Package query filters, sorts and projects ledger records for listing and
// tabular export.
package query

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/Tiliavir/litt/internal/failure"
	"github.com/Tiliavir/litt/internal/model"
	"github.com/Tiliavir/litt/internal/tagset"
)

// Operator is a timestamp comparison.
type Operator string

const (
	Less         Operator = "<"
	LessEqual    Operator = "<="
	Greater      Operator = ">"
	GreaterEqual Operator = ">="
	Equal        Operator = "=="
	NotEqual     Operator = "!="
)

// ParseOperator accepts exactly one of < <= > >= == !=.
func ParseOperator(s string) (Operator, error) {
	switch op := Operator(s); op {
	case Less, LessEqual, Greater, GreaterEqual, Equal, NotEqual:
		return op, nil
	}
	return "", failure.New(failure.InvalidFilter, "unsupported condition %q, want one of < <= > >= == !=", s)
}

// Compare evaluates "a op b".
func (o Operator) Compare(a, b time.Time) bool {
	switch o {
	case Less:
		return a.Before(b)
	case LessEqual:
		return !a.After(b)
	case Greater:
		return a.After(b)
	case GreaterEqual:
		return !a.Before(b)
	case Equal:
		return a.Equal(b)
	case NotEqual:
		return !a.Equal(b)
	}
	return false
}

// TimeCondition compares a record timestamp with a timespec.
type TimeCondition struct {
	Timespec  string   `json:"Timespec"`
	Condition Operator `json:"Condition"`
}

// Sieve is one filter specification. A record passes the sieve when any of
// the configured fields matches.
type Sieve struct {
	Tags        []string
	StartTime   []TimeCondition
	EndTime     []TimeCondition
	Description []*regexp.Regexp
	Detail      []*regexp.Regexp

	fields map[string]bool
}

// ParseSieve decodes a JSON sieve such as
//
//	{"Tags": ["x"], "StartTime": [{"Timespec": "yesterday", "Condition": ">="}], "Description": ["^fix"]}
func ParseSieve(data []byte) (Sieve, error) {
	var s Sieve
	if err := json.Unmarshal(data, &s); err != nil {
		if failure.KindOf(err) == failure.InvalidFilter {
			return Sieve{}, err
		}
		return Sieve{}, failure.Wrap(failure.InvalidFilter, err, "invalid filter %s", data)
	}
	return s, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Sieve) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return failure.Wrap(failure.InvalidFilter, err, "filter must be a JSON object")
	}
	out := Sieve{fields: map[string]bool{}}
	for field, value := range raw {
		var err error
		switch field {
		case "Tags":
			err = json.Unmarshal(value, &out.Tags)
			if out.Tags == nil {
				out.Tags = []string{}
			}
		case "StartTime":
			out.StartTime, err = decodeConditions(value)
		case "EndTime":
			out.EndTime, err = decodeConditions(value)
		case "Description":
			out.Description, err = decodePatterns(value)
		case "Detail":
			out.Detail, err = decodePatterns(value)
		default:
			return failure.New(failure.InvalidFilter, "unknown filter field %q", field)
		}
		if err != nil {
			return failure.Wrap(failure.InvalidFilter, err, "invalid %s filter", field)
		}
		out.fields[field] = true
	}
	*s = out
	return nil
}

func decodeConditions(data []byte) ([]TimeCondition, error) {
	var conds []TimeCondition
	if err := json.Unmarshal(data, &conds); err != nil {
		return nil, err
	}
	for _, c := range conds {
		if _, err := ParseOperator(string(c.Condition)); err != nil {
			return nil, err
		}
	}
	return conds, nil
}

func decodePatterns(data []byte) ([]*regexp.Regexp, error) {
	var patterns []string
	if err := json.Unmarshal(data, &patterns); err != nil {
		return nil, err
	}
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Has reports whether the sieve constrains field.
func (s Sieve) Has(field string) bool {
	return s.fields[field]
}

// resolvedSieve is a sieve whose timespecs have been turned into instants.
type resolvedSieve struct {
	Sieve
	start []resolvedCondition
	end   []resolvedCondition
}

type resolvedCondition struct {
	at time.Time
	op Operator
}

func (s Sieve) resolve(times TimeParser) (resolvedSieve, error) {
	r := resolvedSieve{Sieve: s}
	var err error
	if r.start, err = resolveConditions(s.StartTime, times); err != nil {
		return r, err
	}
	if r.end, err = resolveConditions(s.EndTime, times); err != nil {
		return r, err
	}
	return r, nil
}

func resolveConditions(conds []TimeCondition, times TimeParser) ([]resolvedCondition, error) {
	out := make([]resolvedCondition, 0, len(conds))
	for _, c := range conds {
		at, err := times.Parse(c.Timespec)
		if err != nil {
			return nil, err
		}
		out = append(out, resolvedCondition{at: at, op: c.Condition})
	}
	return out, nil
}

func (s resolvedSieve) match(rec model.Record) bool {
	if s.Has("Tags") && matchTags(rec.Tags, s.Tags) {
		return true
	}
	if s.Has("StartTime") && matchTime(rec.StartTime, s.start) {
		return true
	}
	if s.Has("EndTime") && rec.EndTime != nil && matchTime(*rec.EndTime, s.end) {
		return true
	}
	if s.Has("Description") && matchPatterns(rec.Description, s.Description) {
		return true
	}
	if s.Has("Detail") && matchPatterns(rec.Detail, s.Detail) {
		return true
	}
	return false
}

// matchTags matches on equal lists or any shared tag.
func matchTags(tags, want []string) bool {
	if rec := tagset.Normalize(tags); tagset.Equal(rec, tagset.Normalize(want)) {
		return true
	}
	return len(tagset.Intersect(tags, want)) > 0
}

func matchTime(ts time.Time, conds []resolvedCondition) bool {
	for _, c := range conds {
		if c.op.Compare(ts, c.at) {
			return true
		}
	}
	return false
}

func matchPatterns(value *string, patterns []*regexp.Regexp) bool {
	if value == nil {
		return false
	}
	for _, re := range patterns {
		if re.MatchString(*value) {
			return true
		}
	}
	return false
}
