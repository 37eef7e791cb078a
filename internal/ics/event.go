package ics

// Event is the normalized representation of a single VEVENT block.
//
// Optional text fields use the empty string as "absent". Start and End hold
// ISO-8601 strings as produced by DecodeDateTime: a date-only YYYY-MM-DD
// value for all-day events, otherwise a date-time with an offset or UTC
// designator when the source value carried one.
type Event struct {
	Summary     string
	Description string
	Location    string
	Status      string
	UID         string
	Organizer   string

	// Start is empty only when no DTSTART was present or its value did not
	// decode. Events without a resolvable start are excluded from temporal
	// filtering and sorting.
	Start string
	// End falls back to Start at filter time when absent or undecodable.
	End string

	// AllDay is true iff DTSTART was encoded as a DATE (no time component).
	// DTEND never touches this flag.
	AllDay bool

	// Attendees preserves ATTENDEE encounter order. Entries are formatted
	// "<CN> <value>" when a CN parameter was present, else the raw value.
	Attendees []string

	// IsOngoing is derived during filtering: true iff the current instant
	// falls within [start, end].
	IsOngoing bool
}
