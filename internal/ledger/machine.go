// Package ledger implements the stopwatch / interruption / record state machine.
//
// A Machine operates on one loaded ledger document. Every operation validates
// first and mutates the document only once nothing can fail any more, so a
// failed operation leaves the document untouched.
package ledger

import (
	"log/slog"
	"time"

	"github.com/Tiliavir/litt/internal/failure"
	"github.com/Tiliavir/litt/internal/model"
	"github.com/Tiliavir/litt/internal/timecalc"
	"github.com/Tiliavir/litt/internal/timespec"
)

// State is the stopwatch state of a ledger.
type State int

const (
	Idle State = iota
	Running
	Interrupted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Interrupted:
		return "interrupted"
	default:
		return "idle"
	}
}

// TimeParser resolves user timespecs.
type TimeParser interface {
	Parse(spec string) (time.Time, error)
}

// Commit is the outcome of an operation that writes to Records.
type Commit struct {
	ID     string
	Record model.Record
	Images model.Images[model.Record]
}

// Machine applies operations to a ledger document.
type Machine struct {
	doc    *model.Ledger
	now    func() time.Time
	times  TimeParser
	newID  func(time.Time, func(string) bool) string
	logger *slog.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithTimeParser replaces the default timespec parser.
func WithTimeParser(p TimeParser) Option {
	return func(m *Machine) { m.times = p }
}

// WithIDGenerator replaces timecalc.GenerateID.
func WithIDGenerator(gen func(time.Time, func(string) bool) string) Option {
	return func(m *Machine) { m.newID = gen }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// New returns a Machine operating on doc.
func New(doc *model.Ledger, opts ...Option) *Machine {
	if doc.Records == nil {
		doc.Records = map[string]model.Record{}
	}
	if doc.Aliases == nil {
		doc.Aliases = map[string]model.Alias{}
	}
	m := &Machine{
		doc:    doc,
		now:    time.Now,
		newID:  timecalc.GenerateID,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.times == nil {
		m.times = timespec.New(nil, m.now)
	}
	return m
}

// Ledger returns the document the machine operates on.
func (m *Machine) Ledger() *model.Ledger {
	return m.doc
}

// TimeParser returns the parser used for timespecs.
func (m *Machine) TimeParser() TimeParser {
	return m.times
}

// State reports the current stopwatch state.
func (m *Machine) State() State {
	switch {
	case m.doc.Stopwatch == nil:
		return Idle
	case m.doc.Interruption == nil:
		return Running
	default:
		return Interrupted
	}
}

// Start opens the stopwatch.
func (m *Machine) Start(in Input) error {
	if m.doc.Stopwatch != nil {
		return failure.New(failure.StopwatchAlreadyRunning, "stopwatch currently running, ignoring current request")
	}
	rec, err := m.open(in)
	if err != nil {
		return err
	}
	rec.Interruptions = []model.InterruptionRef{}
	m.doc.Stopwatch = &rec
	m.logger.Debug("stopwatch started", "start", rec.StartTime)
	return nil
}

// Stop closes the stopwatch into Records. An open interruption is closed at
// the same instant and referenced from the stopwatch record. An explicit
// in.ID replaces any record stored under it.
func (m *Machine) Stop(in Input) (Commit, error) {
	if m.doc.Stopwatch == nil {
		return Commit{}, failure.New(failure.NoStopwatchRunning, "stopwatch not currently running, ignoring current request")
	}
	now := m.now()
	in = Resolve(in, m.doc.Aliases)

	rec := Merge(*m.doc.Stopwatch, in, now)
	if err := m.applyEnd(&rec, in.EndTime); err != nil {
		return Commit{}, err
	}

	var pending *model.Record
	var pendingID string
	if m.doc.Interruption != nil {
		intr := Merge(*m.doc.Interruption, Input{}, now)
		end := *rec.EndTime
		intr.EndTime = &end
		if end.Before(intr.StartTime) {
			return Commit{}, failure.New(failure.NonPositiveInterval, "the end time precedes the start of the open interruption")
		}
		pending = &intr
		pendingID = m.newID(now, m.taken)
		rec.Interruptions = append(rec.Interruptions, model.InterruptionRef{ID: pendingID})
	}

	id := in.ID
	if id == "" {
		id = m.newID(now, func(c string) bool { return m.taken(c) || c == pendingID })
	}

	commit := m.commit(id, rec)
	if pending != nil {
		commit.Images.NewImage[pendingID] = pending
		m.doc.Records[pendingID] = *pending
		m.doc.Interruption = nil
	}
	m.doc.Stopwatch = nil
	m.logger.Debug("stopwatch stopped", "id", id, "duration", rec.Duration())
	return commit, nil
}

// Toggle starts the stopwatch when idle and stops it otherwise. The commit is
// nil when a stopwatch was started.
func (m *Machine) Toggle(in Input) (*Commit, error) {
	if m.doc.Stopwatch == nil {
		return nil, m.Start(in)
	}
	c, err := m.Stop(in)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Interrupt opens an interruption, or starts the stopwatch when idle.
func (m *Machine) Interrupt(in Input) error {
	if m.doc.Stopwatch == nil {
		return m.Start(in)
	}
	if m.doc.Interruption != nil {
		return failure.New(failure.InterruptionAlreadyOpen, "unable to interrupt task, as an existing interruption is in progress")
	}
	rec, err := m.open(in)
	if err != nil {
		return err
	}
	m.doc.Interruption = &rec
	m.logger.Debug("interruption opened", "start", rec.StartTime)
	return nil
}

// Resume closes the open interruption into Records and references it from the
// stopwatch.
func (m *Machine) Resume(in Input) (Commit, error) {
	if m.doc.Stopwatch == nil {
		return Commit{}, failure.New(failure.ResumeWithoutStopwatch, "unable to resume from interruption with no stopwatch running")
	}
	if m.doc.Interruption == nil {
		return Commit{}, failure.New(failure.NoOpenInterruption, "unable to resume without an open interruption")
	}
	now := m.now()
	in = Resolve(in, m.doc.Aliases)

	rec := Merge(*m.doc.Interruption, in, now)
	if err := m.applyEnd(&rec, in.EndTime); err != nil {
		return Commit{}, err
	}
	id := in.ID
	if id == "" {
		id = m.newID(now, m.taken)
	}

	commit := m.commit(id, rec)
	m.doc.Interruption = nil
	m.doc.Stopwatch.Interruptions = append(m.doc.Stopwatch.Interruptions, model.InterruptionRef{ID: id})
	m.logger.Debug("interruption resumed", "id", id, "duration", rec.Duration())
	return commit, nil
}

// Cancel discards the open interruption, or the stopwatch when there is none.
// It returns what was discarded, nil when the ledger was idle.
func (m *Machine) Cancel() *model.Record {
	if m.doc.Interruption != nil {
		discarded := m.doc.Interruption
		m.doc.Interruption = nil
		m.logger.Debug("interruption cancelled")
		return discarded
	}
	discarded := m.doc.Stopwatch
	m.doc.Stopwatch = nil
	if discarded != nil {
		m.logger.Debug("stopwatch cancelled")
	}
	return discarded
}

// Track writes a fixed interval straight into Records. A missing endpoint
// defaults to now in UTC. With in.DryRun the record is computed and returned
// together with a failure.DryRun error, and nothing is written.
func (m *Machine) Track(in Input) (Commit, error) {
	if in.StartTime == nil && in.EndTime == nil {
		return Commit{}, failure.New(failure.MissingInterval, "at least one of start and end of a finite interval must be specified")
	}
	now := m.now()
	startSpec, endSpec := "now UTC", "now UTC"
	if in.StartTime != nil {
		startSpec = *in.StartTime
	}
	if in.EndTime != nil {
		endSpec = *in.EndTime
	}
	start, err := m.times.Parse(startSpec)
	if err != nil {
		return Commit{}, err
	}
	end, err := m.times.Parse(endSpec)
	if err != nil {
		return Commit{}, err
	}
	if !end.After(start) {
		return Commit{}, failure.New(failure.NonPositiveInterval, "for finite-interval tracking, the end time must be strictly after the start time")
	}

	in = Resolve(in, m.doc.Aliases)
	rec := Build(in, now)
	rec.StartTime = start
	rec.EndTime = &end

	id := in.ID
	if id == "" {
		id = m.newID(now, m.taken)
	}
	if in.DryRun {
		return Commit{ID: id, Record: rec}, failure.New(failure.DryRun, "dry run, record not committed")
	}
	return m.commit(id, rec), nil
}

// Amend merges in onto the record in.ID, keeping its start and end time unless
// new ones are given.
func (m *Machine) Amend(in Input) (Commit, error) {
	old, ok := m.doc.Records[in.ID]
	if in.ID == "" || !ok {
		return Commit{}, failure.New(failure.RecordNotFound, "record %q does not exist", in.ID)
	}
	now := m.now()
	in = Resolve(in, m.doc.Aliases)

	rec := Merge(old, in, now)
	rec.StartTime = old.StartTime
	rec.EndTime = old.EndTime
	if in.StartTime != nil {
		start, err := m.times.Parse(*in.StartTime)
		if err != nil {
			return Commit{}, err
		}
		rec.StartTime = start
	}
	if in.EndTime != nil {
		end, err := m.times.Parse(*in.EndTime)
		if err != nil {
			return Commit{}, err
		}
		rec.EndTime = &end
	}
	if rec.EndTime != nil && rec.EndTime.Before(rec.StartTime) {
		return Commit{}, failure.New(failure.NonPositiveInterval, "the end time must not precede the start time")
	}
	if in.DryRun {
		return Commit{ID: in.ID, Record: rec}, failure.New(failure.DryRun, "dry run, record not committed")
	}
	return m.commit(in.ID, rec), nil
}

// open builds a not yet closed record, honouring an explicit start time.
func (m *Machine) open(in Input) (model.Record, error) {
	in = Resolve(in, m.doc.Aliases)
	rec := Build(in, m.now())
	if in.StartTime != nil {
		start, err := m.times.Parse(*in.StartTime)
		if err != nil {
			return model.Record{}, err
		}
		rec.StartTime = start
	}
	rec.EndTime = nil
	rec.CommitTime = nil
	return rec, nil
}

// applyEnd replaces the end time with the parsed spec, if any, and rejects
// intervals that end before they start.
func (m *Machine) applyEnd(rec *model.Record, spec *string) error {
	if spec != nil {
		end, err := m.times.Parse(*spec)
		if err != nil {
			return err
		}
		rec.EndTime = &end
	}
	if rec.EndTime.Before(rec.StartTime) {
		return failure.New(failure.NonPositiveInterval, "the end time must not precede the start time")
	}
	return nil
}

// commit stores rec under id and returns the image pair. A record already
// stored under id is replaced and becomes the old image.
func (m *Machine) commit(id string, rec model.Record) Commit {
	images := model.Images[model.Record]{NewImage: map[string]*model.Record{}}
	if old, ok := m.doc.Records[id]; ok {
		images.OldImage = map[string]*model.Record{id: &old}
	}
	stored := rec
	images.NewImage[id] = &stored
	m.doc.Records[id] = rec
	return Commit{ID: id, Record: rec, Images: images}
}

func (m *Machine) taken(id string) bool {
	_, ok := m.doc.Records[id]
	return ok
}
