package ics

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FilterOptions controls temporal filtering and sorting. After and Before
// are UTC-normalized instants; nil disables the respective bound. Limit <= 0
// means unbounded. Now is the clock used for the is_ongoing annotation; the
// zero value resolves to the current UTC instant.
type FilterOptions struct {
	After  *time.Time
	Before *time.Time
	Limit  int
	Now    time.Time
}

// FilterEvents applies range filtering with overlap semantics, annotates
// ongoing events, sorts ascending by start instant and truncates to the
// limit.
//
// An event whose start cannot be resolved is dropped entirely. An event
// whose end cannot be resolved falls back to its start instant; inverted
// ranges are accepted as-is. The overlap test is range-inclusive: an event
// is kept unless it ends before After or starts after Before, so an event
// spanning a boundary survives. The sort is stable, preserving encounter
// order for equal starts, and the result is a pure function of the inputs.
func FilterEvents(events []Event, opts FilterOptions) []Event {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	type annotated struct {
		start time.Time
		event Event
	}
	kept := make([]annotated, 0, len(events))

	for _, e := range events {
		start, ok := normalizeInstant(e.Start)
		if !ok {
			continue
		}
		end, ok := normalizeInstant(e.End)
		if !ok {
			end = start
		}

		if opts.After != nil && end.Before(*opts.After) {
			continue
		}
		if opts.Before != nil && start.After(*opts.Before) {
			continue
		}

		e.IsOngoing = !now.Before(start) && !now.After(end)
		kept = append(kept, annotated{start: start, event: e})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].start.Before(kept[j].start)
	})

	out := make([]Event, 0, len(kept))
	for _, a := range kept {
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
		out = append(out, a.event)
	}
	return out
}

// normalizeInstant turns a stored ISO string into a comparable absolute
// instant. A 10-character value is a calendar date anchored at UTC midnight;
// anything else is parsed as a date-time and assumed UTC when it carries no
// offset.
func normalizeInstant(iso string) (time.Time, bool) {
	if iso == "" {
		return time.Time{}, false
	}
	if len(iso) == len(isoDate) {
		t, err := time.ParseInLocation(isoDate, iso, time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, iso); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(isoFloating, iso, time.UTC); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ParseFilterInstant parses an --after/--before value. The literal "now"
// resolves to the given clock; values lacking an explicit offset are assumed
// UTC.
func ParseFilterInstant(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "now") {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range []string{isoFloating, "2006-01-02T15:04", isoDate} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized instant %q", value)
}
