package epg

import (
	"errors"
	"testing"
	"time"

	"github.com/lysyi3m/epg-comb/app/xmltv"
)

func newTestMerger(location *time.Location) *ProgrammeMerger {
	return NewProgrammeMerger(NewNormalizer(location), NewSelector(DefaultLanguages))
}

func TestProgrammeMerger_GroupsByNormalizedIdentity(t *testing.T) {
	merger := newTestMerger(time.UTC)

	inputs := []xmltv.Programme{
		{
			Channel: "ch1", Start: "20251114060000 +0200", Stop: "20251114070000 +0200",
			Title: []xmltv.Text{{Lang: "en", Value: "News"}},
			Extra: []xmltv.Element{{Inner: "News"}},
		},
		{
			Channel: "ch2", Start: "20251114040000 +0000", Stop: "20251114050000 +0000",
			Title: []xmltv.Text{{Value: "Other channel"}},
		},
		{
			// Same instant written with another offset.
			Channel: "ch1", Start: "20251114040000 +0000", Stop: "20251114050000 +0000",
			Title:    []xmltv.Text{{Lang: "lt", Value: "Žinios"}, {Lang: "ru", Value: "Новости"}},
			SubTitle: []xmltv.Text{{Lang: "ru", Value: "Выпуск"}, {Lang: "en", Value: "Edition"}},
		},
	}

	for _, p := range inputs {
		if err := merger.Add(p); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}

	if merger.Added() != 3 {
		t.Errorf("Expected 3 accepted programmes, got %d", merger.Added())
	}

	merged := merger.Finalize()
	if len(merged) != 2 || merger.Len() != 2 {
		t.Fatalf("Expected 2 merged programmes, got %d", len(merged))
	}

	first := merged[0]
	if first.Channel != "ch1" || merged[1].Channel != "ch2" {
		t.Errorf("Expected first-seen group order, got %s, %s", first.Channel, merged[1].Channel)
	}
	if first.Start != "20251114040000 +0000" || first.Stop != "20251114050000 +0000" {
		t.Errorf("Expected normalized times, got %s - %s", first.Start, first.Stop)
	}
	if len(first.Title) != 1 || first.Title[0].Value != "Žinios" {
		t.Errorf("Expected single lt title, got %+v", first.Title)
	}
	if len(first.SubTitle) != 1 || first.SubTitle[0].Value != "Выпуск" {
		t.Errorf("Expected single ru sub-title, got %+v", first.SubTitle)
	}
	if len(first.Desc) != 0 {
		t.Errorf("Expected no desc when no source provides one, got %+v", first.Desc)
	}
	if len(first.Extra) != 1 {
		t.Errorf("Expected other children from the first programme, got %+v", first.Extra)
	}
}

func TestProgrammeMerger_DifferentWindowsStaySeparate(t *testing.T) {
	merger := newTestMerger(time.UTC)

	_ = merger.Add(xmltv.Programme{Channel: "ch1", Start: "20251114060000 +0000", Stop: "20251114070000 +0000"})
	_ = merger.Add(xmltv.Programme{Channel: "ch1", Start: "20251114060000 +0000", Stop: "20251114073000 +0000"})

	if got := len(merger.Finalize()); got != 2 {
		t.Errorf("Expected 2 programmes for different stop times, got %d", got)
	}
}

func TestProgrammeMerger_RejectsInvalid(t *testing.T) {
	merger := newTestMerger(time.UTC)

	tests := []struct {
		name      string
		programme xmltv.Programme
		expected  error
	}{
		{"missing channel", xmltv.Programme{Start: "20251114060000 +0000", Stop: "20251114070000 +0000"}, ErrMissingChannelID},
		{"bad start", xmltv.Programme{Channel: "ch1", Start: "tomorrow", Stop: "20251114070000 +0000"}, ErrMalformedTimestamp},
		{"bad stop", xmltv.Programme{Channel: "ch1", Start: "20251114060000 +0000", Stop: ""}, ErrMalformedTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := merger.Add(tt.programme)
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got: %v", tt.expected, err)
			}
		})
	}

	if merger.Len() != 0 || merger.Added() != 0 {
		t.Errorf("Expected rejected programmes to leave no trace, got %d groups", merger.Len())
	}
}
