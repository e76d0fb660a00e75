// Package dateutil converts between the three shapes of a stored wall-clock
// datetime: the storage shape ("YYYY-MM-DDTHH:mm:ss", naive local time), the
// input shape ("YYYY-MM-DDTHH:mm") and display output.
//
// None of these functions ever run a string through a timezone-aware parser.
// The storage layer records naive local time, and parsing a "Z"-suffixed or
// offset-less string with time.Parse in a non-UTC host zone would silently
// shift the displayed hour by the host's UTC offset. Every function here works
// on the raw numeric components instead.
package dateutil

import (
	"strconv"
	"strings"
	"time"
)

const (
	inputLen    = len("2006-01-02T15:04")
	dateOnlyLen = len("2006-01-02")
)

// DefaultDisplayLayout is the layout used when ToDisplayFormat is given none.
const DefaultDisplayLayout = "2006/01/02 15:04"

// ToInputFormat normalizes a raw stored datetime to "YYYY-MM-DDTHH:mm".
// Sub-second precision and a trailing "Z" marker are stripped, a space
// separator is normalized to "T", and the result is truncated to minutes.
// Empty input yields an empty string. Applying it twice is a no-op.
func ToInputFormat(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.TrimSuffix(strings.TrimSpace(raw), "Z")
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	s = strings.Replace(s, " ", "T", 1)
	if len(s) > inputLen {
		s = s[:inputLen]
	}
	return s
}

// ToDateOnly normalizes a raw stored datetime to "YYYY-MM-DD".
func ToDateOnly(raw string) string {
	s := ToInputFormat(raw)
	if len(s) > dateOnlyLen {
		s = s[:dateOnlyLen]
	}
	return s
}

// ToDisplayFormat renders a raw stored datetime using layout, defaulting to
// DefaultDisplayLayout. The time.Time is reconstructed from the individual
// numeric components so the rendered wall-clock time matches storage exactly
// regardless of the host timezone. Unparseable input is returned as normalized
// by ToInputFormat rather than dropped.
func ToDisplayFormat(raw, layout string) string {
	s := ToInputFormat(raw)
	if s == "" {
		return ""
	}
	if layout == "" {
		layout = DefaultDisplayLayout
	}
	t, ok := components(s)
	if !ok {
		return s
	}
	return t.Format(layout)
}

// FromInputFormat expands an input-shape value to the storage shape by padding
// seconds (":00") when absent. Values already carrying seconds pass through
// unchanged. No timezone conversion happens in either direction.
func FromInputFormat(value string) string {
	if value == "" {
		return ""
	}
	if len(value) == inputLen {
		return value + ":00"
	}
	return value
}

// NowAsInput returns the current local wall-clock time, shifted by offsetDays
// whole days, in the input shape.
func NowAsInput(offsetDays int) string {
	return time.Now().AddDate(0, 0, offsetDays).Format("2006-01-02T15:04")
}

// components rebuilds a local time.Time from the numeric fields of an
// input-shape string. It does not consult any parser that applies zones.
func components(s string) (time.Time, bool) {
	if len(s) < dateOnlyLen {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(s[0:4])
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(s[5:7])
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(s[8:10])
	if err != nil {
		return time.Time{}, false
	}
	hour, minute := 0, 0
	if len(s) >= inputLen {
		if hour, err = strconv.Atoi(s[11:13]); err != nil {
			return time.Time{}, false
		}
		if minute, err = strconv.Atoi(s[14:16]); err != nil {
			return time.Time{}, false
		}
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local), true
}
