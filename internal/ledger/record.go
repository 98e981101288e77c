package ledger

import (
	"time"

	"github.com/Tiliavir/litt/internal/model"
	"github.com/Tiliavir/litt/internal/tagset"
)

// Build creates a record from a resolved input, stamping start, end and commit
// time with now.
func Build(in Input, now time.Time) model.Record {
	end, commit := now, now
	rec := model.Record{
		StartTime:  now,
		EndTime:    &end,
		CommitTime: &commit,
		Tags:       tagset.Normalize(in.Tags),
	}
	if in.Description != nil {
		v := *in.Description
		rec.Description = &v
	}
	if in.Detail != nil {
		v := *in.Detail
		rec.Detail = &v
	}
	if in.StructuredData != nil {
		rec.StructuredData = []byte(*in.StructuredData)
	}
	return rec
}

// Merge overlays a resolved input onto old. The old start time is kept, end and
// commit time become now, unsupplied fields keep their old value, tags are the
// union of both minus in.Untag.
func Merge(old model.Record, in Input, now time.Time) model.Record {
	built := Build(in, now)
	out := old.Clone()
	out.EndTime = built.EndTime
	out.CommitTime = built.CommitTime
	if built.Description != nil {
		out.Description = built.Description
	}
	if built.Detail != nil {
		out.Detail = built.Detail
	}
	if built.StructuredData != nil {
		out.StructuredData = built.StructuredData
	}
	out.Tags = tagset.Subtract(tagset.Union(old.Tags, built.Tags), in.Untag)
	return out
}
