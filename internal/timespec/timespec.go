// Package timespec turns user supplied time specifications ("now", "-15m",
// "2 hours ago", "2026-02-27 09:00", "yesterday at 5pm") into instants.
package timespec

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/Tiliavir/litt/internal/failure"
)

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04 -0700",
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

var clockLayouts = []string{"15:04:05", "15:04"}

// maxUnixSeconds keeps numeric timespecs within about 3000 years of 1970.
const maxUnixSeconds = 1e11

var agoPattern = regexp.MustCompile(`^(\d+)\s*(second|sec|minute|min|hour|hr|day|week)s?\s+ago$`)

// Parser resolves timespecs relative to a clock. Times without an explicit
// offset are interpreted in Location.
type Parser struct {
	Location *time.Location
	Now      func() time.Time

	natural *when.Parser
}

// New returns a parser. A nil loc means time.Local and a nil now means time.Now.
func New(loc *time.Location, now func() time.Time) *Parser {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{Location: loc, Now: now, natural: w}
}

// Parse resolves spec. It fails with failure.UnparseableTimespec.
func (p *Parser) Parse(spec string) (time.Time, error) {
	s := strings.TrimSpace(spec)
	if s == "" {
		return time.Time{}, failure.New(failure.UnparseableTimespec, "unable to parse your timespec %q", spec)
	}
	now := p.Now().In(p.Location)
	lower := strings.ToLower(s)

	if lower == "now" {
		return now, nil
	}
	if zone, ok := strings.CutPrefix(s, "now "); ok {
		loc, err := time.LoadLocation(strings.TrimSpace(zone))
		if err != nil {
			return time.Time{}, failure.Wrap(failure.UnparseableTimespec, err, "unable to parse your timespec %q", spec)
		}
		return now.In(loc), nil
	}

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(secs) || math.Abs(secs) > maxUnixSeconds {
			return time.Time{}, failure.New(failure.UnparseableTimespec, "timespec %q is not a usable unix time", spec)
		}
		whole := int64(secs)
		return time.Unix(whole, int64((secs-float64(whole))*1e9)).In(p.Location), nil
	}

	if s[0] == '-' || s[0] == '+' {
		if d, err := time.ParseDuration(s); err == nil {
			return now.Add(d), nil
		}
	}

	if m := agoPattern.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.Add(-time.Duration(n) * unit(m[2])), nil
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, p.Location); err == nil {
			return t, nil
		}
	}
	for _, layout := range clockLayouts {
		if t, err := time.ParseInLocation(layout, s, p.Location); err == nil {
			return time.Date(now.Year(), now.Month(), now.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, p.Location), nil
		}
	}

	r, err := p.natural.Parse(s, now)
	if err != nil {
		return time.Time{}, failure.Wrap(failure.UnparseableTimespec, err, "unable to parse your timespec %q", spec)
	}
	// when matches phrases anywhere in the text; only a match of the whole
	// timespec counts.
	if r == nil || r.Index != 0 || len(r.Text) != len(s) {
		return time.Time{}, failure.New(failure.UnparseableTimespec, "unable to parse your timespec %q", spec)
	}
	return r.Time, nil
}

func unit(name string) time.Duration {
	switch name {
	case "second", "sec":
		return time.Second
	case "minute", "min":
		return time.Minute
	case "hour", "hr":
		return time.Hour
	case "day":
		return 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}
