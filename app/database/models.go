package database

import (
	"time"
)

const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"

	SourceStatusOK     = "ok"
	SourceStatusFailed = "failed"
)

type Run struct {
	ID             string
	Trigger        string // startup, schedule, api or cli
	Status         string
	SourceCount    int
	ChannelCount   int
	ProgrammeCount int
	SkippedCount   int
	Error          string
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// Duration is zero while the run is still in progress.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

type RunSource struct {
	RunID          string
	Position       int
	Name           string
	Location       string
	Status         string
	ChannelCount   int
	ProgrammeCount int
	Error          string
}

type RunResult struct {
	Status         string
	ChannelCount   int
	ProgrammeCount int
	SkippedCount   int
	Error          string
}
