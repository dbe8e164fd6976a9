package epg

import (
	"fmt"
	"strings"
	"time"
)

type SourceReport struct {
	Name       string
	Location   string
	Channels   int
	Programmes int
	Err        error
}

func (s SourceReport) OK() bool {
	return s.Err == nil
}

type SkippedRecord struct {
	Source string
	Kind   string
	ID     string
	Err    error
}

// Report describes what a run used and what it had to leave out.
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Sources    []SourceReport
	Skipped    []SkippedRecord
	Channels   int
	Programmes int
}

func (r *Report) skip(source, kind, id string, err error) {
	r.Skipped = append(r.Skipped, SkippedRecord{Source: source, Kind: kind, ID: id, Err: err})
}

func (r *Report) UsableSources() int {
	count := 0
	for _, s := range r.Sources {
		if s.OK() {
			count++
		}
	}
	return count
}

func (r *Report) FailedSources() []SourceReport {
	var failed []SourceReport
	for _, s := range r.Sources {
		if !s.OK() {
			failed = append(failed, s)
		}
	}
	return failed
}

func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary renders the skipped sources and records for people reading the
// run output.
func (r *Report) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "sources: %d used, %d failed; channels: %d; programmes: %d; skipped records: %d\n",
		r.UsableSources(), len(r.FailedSources()), r.Channels, r.Programmes, len(r.Skipped))

	for _, s := range r.FailedSources() {
		fmt.Fprintf(&b, "  source %s (%s): %v\n", s.Name, s.Location, s.Err)
	}
	for _, rec := range r.Skipped {
		fmt.Fprintf(&b, "  %s %q from %s: %v\n", rec.Kind, rec.ID, rec.Source, rec.Err)
	}

	return b.String()
}
