package ics

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func utc(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestFilterEventsOverlapInclusion(t *testing.T) {
	events := []Event{
		{Summary: "spanning", Start: "2024-01-10", End: "2024-01-20"},
		{Summary: "ended before", Start: "2024-01-12", End: "2024-01-14"},
	}
	after := utc(2024, 1, 15, 0, 0)

	got := FilterEvents(events, FilterOptions{After: &after, Now: after})
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Summary != "spanning" {
		t.Errorf("expected the spanning event to survive, got %q", got[0].Summary)
	}
	if !got[0].IsOngoing {
		t.Error("expected the spanning event to be ongoing at now=2024-01-15")
	}
}

func TestFilterEventsBeforeBound(t *testing.T) {
	events := []Event{
		{Summary: "early", Start: "2024-01-10T09:00:00Z"},
		{Summary: "late", Start: "2024-02-10T09:00:00Z"},
	}
	before := utc(2024, 1, 31, 0, 0)

	got := FilterEvents(events, FilterOptions{Before: &before, Now: before})
	if len(got) != 1 || got[0].Summary != "early" {
		t.Fatalf("expected only the early event, got %+v", got)
	}
}

func TestFilterEventsDropsUnresolvableStart(t *testing.T) {
	events := []Event{
		{Summary: "no start"},
		{Summary: "bad start", Start: "soon"},
		{Summary: "good", Start: "2024-01-10T09:00:00Z"},
	}
	got := FilterEvents(events, FilterOptions{Now: utc(2024, 1, 1, 0, 0)})
	if len(got) != 1 || got[0].Summary != "good" {
		t.Fatalf("expected only the resolvable event, got %+v", got)
	}
}

func TestFilterEventsEndFallsBackToStart(t *testing.T) {
	after := utc(2024, 1, 10, 10, 0)
	events := []Event{
		{Summary: "no end", Start: "2024-01-10T09:00:00Z"},
	}
	// With end falling back to start, the event ends before `after` and is
	// dropped.
	if got := FilterEvents(events, FilterOptions{After: &after, Now: after}); len(got) != 0 {
		t.Fatalf("expected event dropped via start fallback, got %+v", got)
	}
}

func TestFilterEventsInvertedRangeDoesNotCrash(t *testing.T) {
	events := []Event{
		{Summary: "inverted", Start: "2024-01-10T09:00:00Z", End: "2024-01-09T09:00:00Z"},
	}
	got := FilterEvents(events, FilterOptions{Now: utc(2024, 1, 1, 0, 0)})
	if len(got) != 1 {
		t.Fatalf("inverted range must pass through unchanged, got %+v", got)
	}
}

func TestFilterEventsSortAndLimit(t *testing.T) {
	events := []Event{
		{Summary: "third", Start: "2024-01-03"},
		{Summary: "first", Start: "2024-01-01"},
		{Summary: "fifth", Start: "2024-01-05"},
		{Summary: "second", Start: "2024-01-02"},
		{Summary: "fourth", Start: "2024-01-04"},
	}
	got := FilterEvents(events, FilterOptions{Limit: 2, Now: utc(2024, 1, 1, 0, 0)})
	if len(got) != 2 {
		t.Fatalf("expected limit=2 to return 2 events, got %d", len(got))
	}
	if got[0].Summary != "first" || got[1].Summary != "second" {
		t.Errorf("expected the two earliest events, got %q then %q", got[0].Summary, got[1].Summary)
	}
}

func TestFilterEventsStableForEqualStarts(t *testing.T) {
	events := []Event{
		{Summary: "a", Start: "2024-01-01T09:00:00Z"},
		{Summary: "b", Start: "2024-01-01T09:00:00Z"},
		{Summary: "c", Start: "2024-01-01T09:00:00Z"},
	}
	got := FilterEvents(events, FilterOptions{Now: utc(2024, 1, 1, 0, 0)})
	for i, want := range []string{"a", "b", "c"} {
		if got[i].Summary != want {
			t.Fatalf("encounter order not preserved: %+v", got)
		}
	}
}

func TestFilterEventsAllDaySortsAtUTCMidnight(t *testing.T) {
	events := []Event{
		{Summary: "timed just after midnight", Start: "2024-01-02T00:30:00Z"},
		{Summary: "all day", Start: "2024-01-02", AllDay: true},
	}
	got := FilterEvents(events, FilterOptions{Now: utc(2024, 1, 1, 0, 0)})
	if len(got) != 2 || got[0].Summary != "all day" {
		t.Fatalf("expected the all-day event first (UTC midnight anchor), got %+v", got)
	}
}

func TestFilterEventsMixedOffsetsCompareAbsolutely(t *testing.T) {
	events := []Event{
		{Summary: "zoned earlier", Start: "2024-01-02T08:00:00+02:00"}, // 06:00Z
		{Summary: "utc later", Start: "2024-01-02T07:00:00Z"},
	}
	got := FilterEvents(events, FilterOptions{Now: utc(2024, 1, 1, 0, 0)})
	if got[0].Summary != "zoned earlier" {
		t.Fatalf("expected absolute-instant ordering, got %+v", got)
	}
}

func TestFilterEventsIsPure(t *testing.T) {
	events := []Event{
		{Summary: "b", Start: "2024-01-02"},
		{Summary: "a", Start: "2024-01-01", End: "2024-01-03"},
	}
	opts := FilterOptions{Now: utc(2024, 1, 2, 12, 0)}

	first := FilterEvents(events, opts)
	second := FilterEvents(events, opts)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("identical inputs produced different outputs:\n%s", diff)
	}
	// Input order must be untouched.
	if events[0].Summary != "b" || events[0].IsOngoing {
		t.Errorf("input slice was mutated: %+v", events)
	}
}

func TestParseFilterInstant(t *testing.T) {
	now := utc(2024, 5, 1, 12, 0)

	got, err := ParseFilterInstant("now", now)
	if err != nil || !got.Equal(now) {
		t.Errorf("expected 'now' to resolve to the injected clock, got %v (%v)", got, err)
	}

	got, err = ParseFilterInstant("2024-01-15T09:00:00", now)
	if err != nil || !got.Equal(utc(2024, 1, 15, 9, 0)) {
		t.Errorf("offset-less value must be assumed UTC, got %v (%v)", got, err)
	}

	got, err = ParseFilterInstant("2024-01-15T09:00:00+02:00", now)
	if err != nil || !got.Equal(utc(2024, 1, 15, 7, 0)) {
		t.Errorf("explicit offset must be honored, got %v (%v)", got, err)
	}

	if _, err := ParseFilterInstant("yesterday", now); err == nil {
		t.Error("expected error for unrecognized instant")
	}
}
