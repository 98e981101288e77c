// Package render presents command results as human text, JSON or YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/litt/internal/failure"
	"github.com/Tiliavir/litt/internal/model"
	"github.com/Tiliavir/litt/internal/query"
	"github.com/Tiliavir/litt/internal/timecalc"
)

// Renderer writes results in one output format.
type Renderer struct {
	Format string
	// Location for human timestamps; nil means time.Local.
	Location *time.Location
	// Now measures the elapsed time of open records; nil means time.Now.
	Now func() time.Time
}

// New returns a Renderer for format.
func New(format string) Renderer {
	return Renderer{Format: format}
}

// ID writes a committed record ID.
func (r Renderer) ID(w io.Writer, id string) error {
	if r.Format == model.FormatHuman {
		_, err := fmt.Fprintf(w, "Committed Record ID: %s\n", id)
		return err
	}
	return r.structured(w, id)
}

// Config writes the configuration document.
func (r Renderer) Config(w io.Writer, cfg model.Config) error {
	if r.Format == model.FormatHuman {
		_, err := fmt.Fprintf(w, "OutputFormat: %s\n", cfg.OutputFormat)
		return err
	}
	return r.structured(w, cfg)
}

// Aliases writes alias definitions ordered by key.
func (r Renderer) Aliases(w io.Writer, aliases map[string]model.Alias) error {
	if r.Format != model.FormatHuman {
		if aliases == nil {
			aliases = map[string]model.Alias{}
		}
		return r.structured(w, aliases)
	}
	var b strings.Builder
	for _, key := range sortedKeys(aliases) {
		alias := aliases[key]
		fmt.Fprintf(&b, "Alias %q\n", key)
		if alias.Description != nil {
			fmt.Fprintf(&b, "    Description: %s\n", *alias.Description)
		}
		if alias.Tags != nil {
			fmt.Fprintf(&b, "    Tags: %s\n", strings.Join(alias.Tags, ","))
		}
		if alias.Detail != nil {
			fmt.Fprintf(&b, "    Details:\n        %s\n", *alias.Detail)
		}
		if alias.StructuredData != nil {
			fmt.Fprintf(&b, "    StructuredData:\n        %s\n", alias.StructuredData)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Record writes a single record, open or closed.
func (r Renderer) Record(w io.Writer, rec model.Record) error {
	if r.Format == model.FormatHuman {
		_, err := io.WriteString(w, r.humanRecord(rec)+"\n")
		return err
	}
	return r.structured(w, rec)
}

// Records writes listed entries. Structured formats emit an object keyed by
// record ID.
func (r Renderer) Records(w io.Writer, entries []query.Entry) error {
	if r.Format != model.FormatHuman {
		byID := make(map[string]model.Record, len(entries))
		for _, e := range entries {
			byID[e.ID] = e.Record
		}
		return r.structured(w, byID)
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "Record %q\n", e.ID)
		b.WriteString(r.humanRecord(e.Record))
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (r Renderer) humanRecord(rec model.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Record started at: %s\n", timecalc.FormatISO(rec.StartTime, r.Location))
	if rec.EndTime == nil {
		b.WriteString("Recording is still ongoing.\n")
		fmt.Fprintf(&b, "Elapsed wall-clock time: %s\n", timecalc.FormatDuration(r.now().Sub(rec.StartTime)))
	} else {
		fmt.Fprintf(&b, "Record ended at: %s\n", timecalc.FormatISO(*rec.EndTime, r.Location))
		fmt.Fprintf(&b, "Elapsed wall-clock time: %s\n", timecalc.FormatDuration(rec.Duration()))
	}
	if rec.Description != nil {
		fmt.Fprintf(&b, "Description: %s\n", *rec.Description)
	}
	fmt.Fprintf(&b, "Tags: %s\n", strings.Join(rec.Tags, ","))
	if rec.Detail != nil {
		fmt.Fprintf(&b, "Details:\n    %s\n", *rec.Detail)
	}
	if rec.StructuredData != nil {
		fmt.Fprintf(&b, "StructuredData:\n    %s\n", rec.StructuredData)
	}
	return b.String()
}

func (r Renderer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// structured writes v as JSON or YAML with object keys sorted.
func (r Renderer) structured(w io.Writer, v any) error {
	generic, err := toGeneric(v)
	if err != nil {
		return err
	}
	var out []byte
	switch r.Format {
	case model.FormatJSON:
		out, err = json.MarshalIndent(generic, "", "    ")
	case model.FormatJSONCompact:
		out, err = json.Marshal(generic)
	case model.FormatYAML:
		out, err = yaml.Marshal(generic)
		out = []byte(strings.TrimRight(string(out), "\n"))
	default:
		return failure.New(failure.InvalidConfig, "unknown output format %q", r.Format)
	}
	if err != nil {
		return fmt.Errorf("encoding %s output: %w", r.Format, err)
	}
	_, err = fmt.Fprintf(w, "%s\n", out)
	return err
}

// toGeneric round-trips v through JSON so maps replace structs and keys sort
// the same way in every format.
func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding output: %w", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("encoding output: %w", err)
	}
	return generic, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
