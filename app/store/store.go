// Package store holds the most recent merged guide for the HTTP API.
package store

import (
	"sync"
	"time"

	"github.com/lysyi3m/epg-comb/app/epg"
	"github.com/lysyi3m/epg-comb/app/xmltv"
)

// Snapshot is one successfully merged guide. It is never modified after
// being published.
type Snapshot struct {
	RunID      string
	XML        []byte
	Gzip       []byte
	Channels   int
	Programmes int
	Report     *epg.Report
	UpdatedAt  time.Time
}

type GuideStore struct {
	mu      sync.RWMutex
	current *Snapshot
	lastErr error
	lastRun time.Time
}

func NewGuideStore() *GuideStore {
	return &GuideStore{}
}

// Publish replaces the current guide with the encoded document.
func (s *GuideStore) Publish(runID string, data []byte, report *epg.Report) error {
	compressed, err := xmltv.Compress(data)
	if err != nil {
		return err
	}

	snapshot := &Snapshot{
		RunID:     runID,
		XML:       data,
		Gzip:      compressed,
		Report:    report,
		UpdatedAt: time.Now().UTC(),
	}
	if report != nil {
		snapshot.Channels = report.Channels
		snapshot.Programmes = report.Programmes
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = snapshot
	s.lastErr = nil
	s.lastRun = snapshot.UpdatedAt

	return nil
}

// Fail records a failed run. The previously published guide stays available.
func (s *GuideStore) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastErr = err
	s.lastRun = time.Now().UTC()
}

// Current returns nil until the first guide is published.
func (s *GuideStore) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// LastError is the error of the latest run, or nil when it succeeded.
func (s *GuideStore) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *GuideStore) LastRunAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}
