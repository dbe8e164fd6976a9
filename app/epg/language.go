package epg

import (
	"strings"

	"github.com/lysyi3m/epg-comb/app/xmltv"
)

// DefaultLanguages is the preference order used when none is configured.
var DefaultLanguages = []string{"lt", "ru", "en"}

// Selector picks one text variant by language preference.
type Selector struct {
	priority []string
}

func NewSelector(priority []string) *Selector {
	tags := make([]string, 0, len(priority))
	for _, tag := range priority {
		tags = append(tags, strings.ToLower(tag))
	}
	return &Selector{priority: tags}
}

// Pick returns the first variant whose language is highest in the priority
// list. Without any match it falls back to the first variant given. The
// boolean is false only for an empty input.
func (s *Selector) Pick(variants []xmltv.Text) (xmltv.Text, bool) {
	if len(variants) == 0 {
		return xmltv.Text{}, false
	}

	groups := make(map[string]int, len(variants))
	for i, v := range variants {
		lang := strings.ToLower(v.Lang)
		if _, ok := groups[lang]; !ok {
			groups[lang] = i
		}
	}

	for _, tag := range s.priority {
		if i, ok := groups[tag]; ok {
			return variants[i], true
		}
	}

	return variants[0], true
}
