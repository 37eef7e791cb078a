package ics

import (
	"regexp"
	"strings"
	"time"
)

var (
	dateRE     = regexp.MustCompile(`^\d{8}$`)
	dateTimeRE = regexp.MustCompile(`^\d{8}T\d{6}Z?$`)
)

const (
	layoutDate     = "20060102"
	layoutUTC      = "20060102T150405Z"
	layoutFloating = "20060102T150405"

	isoDate     = "2006-01-02"
	isoFloating = "2006-01-02T15:04:05"
)

// DecodedTime is the tagged result of decoding a DATE or DATE-TIME property
// value. OK is false when the value matched no supported shape; callers
// treat that uniformly as "absent" regardless of cause.
type DecodedTime struct {
	// Time is the sortable instant. All-day values anchor at 00:00 UTC so
	// that sort order is stable across time zones.
	Time time.Time
	// ISO is the normalized ISO-8601 string: YYYY-MM-DD for DATE values,
	// otherwise a date-time carrying an offset or UTC designator when the
	// source value did.
	ISO    string
	AllDay bool
	OK     bool
}

// DecodeDateTime decodes an iCalendar DATE or DATE-TIME value given its
// property parameters.
//
// Supported shapes:
//
//   - YYYYMMDD            -> all-day date
//   - YYYYMMDDTHHMMSSZ    -> UTC instant
//   - YYYYMMDDTHHMMSS     -> floating local time; a TZID parameter is
//     attached best-effort, and a failed zone lookup keeps the value
//     floating rather than erroring
//
// Any other shape decodes to the zero DecodedTime. The function never
// returns an error: feeds routinely contain extensions and partial data.
func DecodeDateTime(value string, params map[string]string) DecodedTime {
	value = strings.TrimSpace(value)

	if dateRE.MatchString(value) {
		t, err := time.ParseInLocation(layoutDate, value, time.UTC)
		if err != nil {
			return DecodedTime{}
		}
		return DecodedTime{Time: t, ISO: t.Format(isoDate), AllDay: true, OK: true}
	}

	if !dateTimeRE.MatchString(value) {
		return DecodedTime{}
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse(layoutUTC, value)
		if err != nil {
			return DecodedTime{}
		}
		return DecodedTime{Time: t, ISO: t.Format(time.RFC3339), OK: true}
	}

	if tzid := params["TZID"]; tzid != "" {
		if loc, lerr := time.LoadLocation(tzid); lerr == nil {
			t, err := time.ParseInLocation(layoutFloating, value, loc)
			if err != nil {
				return DecodedTime{}
			}
			return DecodedTime{Time: t, ISO: t.Format("2006-01-02T15:04:05-07:00"), OK: true}
		}
	}

	// Floating time: no zone, no offset in the ISO string. UTC is only the
	// internal anchor for the sortable instant.
	t, err := time.ParseInLocation(layoutFloating, value, time.UTC)
	if err != nil {
		return DecodedTime{}
	}
	return DecodedTime{Time: t, ISO: t.Format(isoFloating), OK: true}
}
