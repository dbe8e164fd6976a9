package epg

import (
	"fmt"

	"github.com/lysyi3m/epg-comb/app/xmltv"
)

// programmeKey identifies one broadcast across sources.
type programmeKey struct {
	channel string
	start   string
	stop    string
}

// ProgrammeMerger groups broadcasts by channel and normalized time window and
// reconciles their text fields on Finalize.
type ProgrammeMerger struct {
	normalizer *Normalizer
	selector   *Selector
	groups     *orderedMap[programmeKey, []xmltv.Programme]
	added      int
}

func NewProgrammeMerger(normalizer *Normalizer, selector *Selector) *ProgrammeMerger {
	return &ProgrammeMerger{
		normalizer: normalizer,
		selector:   selector,
		groups:     newOrderedMap[programmeKey, []xmltv.Programme](),
	}
}

// Add appends p to the group for its identity. Programmes without a channel
// or with an unparseable start/stop are rejected and leave no trace.
func (m *ProgrammeMerger) Add(p xmltv.Programme) error {
	if p.Channel == "" {
		return ErrMissingChannelID
	}

	start, err := m.normalizer.Normalize(p.Start)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	stop, err := m.normalizer.Normalize(p.Stop)
	if err != nil {
		return fmt.Errorf("stop: %w", err)
	}

	p.Start = start
	p.Stop = stop

	key := programmeKey{channel: p.Channel, start: start, stop: stop}
	if group, ok := m.groups.get(key); ok {
		*group = append(*group, p)
	} else {
		m.groups.putIfAbsent(key, []xmltv.Programme{p})
	}
	m.added++

	return nil
}

// Finalize returns one programme per identity in first-seen order. Each
// carries the attributes of the first programme in its group and at most one
// title, sub-title and desc chosen across the whole group.
func (m *ProgrammeMerger) Finalize() []xmltv.Programme {
	merged := make([]xmltv.Programme, 0, m.groups.len())

	m.groups.each(func(key programmeKey, group []xmltv.Programme) {
		base := group[0]
		base.Start = key.start
		base.Stop = key.stop

		for _, kind := range xmltv.TextKinds {
			var candidates []xmltv.Text
			for i := range group {
				candidates = append(candidates, group[i].Texts(kind)...)
			}

			if chosen, ok := m.selector.Pick(candidates); ok {
				base.SetTexts(kind, []xmltv.Text{chosen})
			} else {
				base.SetTexts(kind, nil)
			}
		}

		merged = append(merged, base)
	})

	return merged
}

// Len is the number of distinct broadcasts collected so far.
func (m *ProgrammeMerger) Len() int {
	return m.groups.len()
}

// Added is the number of programmes accepted, duplicates included.
func (m *ProgrammeMerger) Added() int {
	return m.added
}
