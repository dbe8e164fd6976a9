package epg

import (
	"github.com/lysyi3m/epg-comb/app/xmltv"
)

// ChannelSet keeps the first definition of every channel id.
type ChannelSet struct {
	channels *orderedMap[string, xmltv.Channel]
}

func NewChannelSet() *ChannelSet {
	return &ChannelSet{channels: newOrderedMap[string, xmltv.Channel]()}
}

// Add records ch unless its id was seen before. It reports whether ch was kept.
func (s *ChannelSet) Add(ch xmltv.Channel) (bool, error) {
	if ch.ID == "" {
		return false, ErrMissingChannelID
	}
	return s.channels.putIfAbsent(ch.ID, ch), nil
}

// All returns the kept channels in first-seen order.
func (s *ChannelSet) All() []xmltv.Channel {
	all := make([]xmltv.Channel, 0, s.channels.len())
	s.channels.each(func(_ string, ch xmltv.Channel) {
		all = append(all, ch)
	})
	return all
}

func (s *ChannelSet) Len() int {
	return s.channels.len()
}
