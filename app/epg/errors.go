package epg

import "errors"

// Per-source and per-record failures are contained by Engine.Run and only
// show up in the Report. ErrNoUsableSources is the one error Run returns.
var (
	ErrFetch              = errors.New("fetch failed")
	ErrDecode             = errors.New("decode failed")
	ErrParse              = errors.New("parse failed")
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrMissingChannelID   = errors.New("missing channel id")
	ErrNoUsableSources    = errors.New("no usable sources")
)
