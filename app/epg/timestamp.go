package epg

import (
	"fmt"
	"time"

	"github.com/lysyi3m/epg-comb/app/xmltv"
)

const dateTimeLayout = "20060102150405"

// Normalizer rewrites XMLTV timestamps into one target time zone.
type Normalizer struct {
	location *time.Location
}

func NewNormalizer(location *time.Location) *Normalizer {
	if location == nil {
		location = time.UTC
	}
	return &Normalizer{location: location}
}

// Normalize converts raw ("YYYYMMDDhhmmss", optionally followed by a space
// and ±hhmm) to the target zone, keeping the same layout. The offset written
// is the zone's offset at that instant, so DST is reflected per date.
func (n *Normalizer) Normalize(raw string) (string, error) {
	t, err := ParseTimestamp(raw)
	if err != nil {
		return "", err
	}
	return t.In(n.location).Format(xmltv.TimeLayout), nil
}

// ParseTimestamp reads an XMLTV timestamp. A missing offset means UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	if len(raw) < len(dateTimeLayout) || !allDigits(raw[:len(dateTimeLayout)]) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
	}

	t, err := time.ParseInLocation(dateTimeLayout, raw[:len(dateTimeLayout)], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, raw, err)
	}

	rest := raw[len(dateTimeLayout):]
	if rest == "" {
		return t, nil
	}
	if rest[0] == ' ' {
		rest = rest[1:]
	}

	offset, ok := parseOffset(rest)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q: bad UTC offset", ErrMalformedTimestamp, raw)
	}

	// The clock reading is in the source offset; shift it back to UTC.
	return t.Add(-time.Duration(offset) * time.Second), nil
}

// parseOffset reads ±hhmm and returns the offset in seconds east of UTC.
func parseOffset(s string) (int, bool) {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') || !allDigits(s[1:]) {
		return 0, false
	}

	hours := int(s[1]-'0')*10 + int(s[2]-'0')
	minutes := int(s[3]-'0')*10 + int(s[4]-'0')
	if hours > 23 || minutes > 59 {
		return 0, false
	}

	offset := hours*3600 + minutes*60
	if s[0] == '-' {
		offset = -offset
	}
	return offset, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
