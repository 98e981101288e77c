package model

import "time"

// Record is a tracked interval of time. An open stopwatch or interruption is a
// Record with a nil EndTime and CommitTime.
type Record struct {
	StartTime      time.Time         `json:"StartTime"`
	EndTime        *time.Time        `json:"EndTime"`
	CommitTime     *time.Time        `json:"CommitTime"`
	Tags           []string          `json:"Tags"`
	Description    *string           `json:"Description,omitempty"`
	Detail         *string           `json:"Detail,omitempty"`
	StructuredData []byte            `json:"StructuredData,omitempty"`
	Interruptions  []InterruptionRef `json:"Interruptions,omitempty"`
}

// InterruptionRef points at a committed interruption record.
type InterruptionRef struct {
	ID string `json:"Id"`
}

// Alias holds named defaults applied to new records.
type Alias struct {
	Description    *string  `json:"Description,omitempty"`
	Detail         *string  `json:"Detail,omitempty"`
	StructuredData []byte   `json:"StructuredData,omitempty"`
	Tags           []string `json:"Tags,omitempty"`
}

// Ledger is the whole persisted document.
type Ledger struct {
	Stopwatch    *Record           `json:"Stopwatch"`
	Interruption *Record           `json:"Interruption"`
	Aliases      map[string]Alias  `json:"Aliases"`
	Records      map[string]Record `json:"Records"`
}

// NewLedger returns an empty ledger with initialised maps.
func NewLedger() *Ledger {
	return &Ledger{
		Aliases: map[string]Alias{},
		Records: map[string]Record{},
	}
}

// Images is the before/after pair handed to the commit hooks. A nil map value
// means the key did not exist on that side.
type Images[T any] struct {
	OldImage map[string]*T `json:"OldImage"`
	NewImage map[string]*T `json:"NewImage"`
}

// Duration returns EndTime - StartTime, or zero for an open record.
func (r Record) Duration() time.Duration {
	if r.EndTime == nil {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	if r.EndTime != nil {
		t := *r.EndTime
		out.EndTime = &t
	}
	if r.CommitTime != nil {
		t := *r.CommitTime
		out.CommitTime = &t
	}
	if r.Description != nil {
		s := *r.Description
		out.Description = &s
	}
	if r.Detail != nil {
		s := *r.Detail
		out.Detail = &s
	}
	if r.Tags != nil {
		out.Tags = append([]string{}, r.Tags...)
	}
	if r.StructuredData != nil {
		out.StructuredData = append([]byte{}, r.StructuredData...)
	}
	if r.Interruptions != nil {
		out.Interruptions = append([]InterruptionRef{}, r.Interruptions...)
	}
	return out
}
