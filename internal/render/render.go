// Package render formats filtered events as structured JSON or
// human-readable text.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"icsread/internal/ics"
)

// NoMatches is printed in text mode when the filtered sequence is empty.
const NoMatches = "No matching events."

// jsonEvent mirrors ics.Event with explicit nulls for absent optional
// fields, plus the locale-rendered display strings.
type jsonEvent struct {
	Summary     *string  `json:"summary"`
	Start       *string  `json:"start"`
	End         *string  `json:"end"`
	AllDay      bool     `json:"all_day"`
	Location    *string  `json:"location"`
	Description *string  `json:"description"`
	Status      *string  `json:"status"`
	UID         *string  `json:"uid"`
	Organizer   *string  `json:"organizer"`
	Attendees   []string `json:"attendees"`
	IsOngoing   bool     `json:"is_ongoing"`
	StartLocal  *string  `json:"start_local"`
	EndLocal    *string  `json:"end_local"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// JSON renders events as an indented JSON array. An empty input renders the
// empty list, not null.
func JSON(events []ics.Event, loc *time.Location) (string, error) {
	out := make([]jsonEvent, 0, len(events))
	for _, e := range events {
		attendees := e.Attendees
		if attendees == nil {
			attendees = []string{}
		}
		out = append(out, jsonEvent{
			Summary:     optional(e.Summary),
			Start:       optional(e.Start),
			End:         optional(e.End),
			AllDay:      e.AllDay,
			Location:    optional(e.Location),
			Description: optional(e.Description),
			Status:      optional(e.Status),
			UID:         optional(e.UID),
			Organizer:   optional(e.Organizer),
			Attendees:   attendees,
			IsOngoing:   e.IsOngoing,
			StartLocal:  optional(LocalDateTime(e.Start, e.AllDay, loc)),
			EndLocal:    optional(LocalDateTime(e.End, e.AllDay, loc)),
		})
	}
	// A plain Marshal would escape the angle brackets of "<CN> <value>"
	// attendee entries as <; emit them literally.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Text renders events as numbered human-readable blocks. Conditional lines
// (location, status, organizer, attendees) appear only when present.
func Text(events []ics.Event, loc *time.Location) string {
	if len(events) == 0 {
		return NoMatches
	}

	var b strings.Builder
	for i, e := range events {
		title := e.Summary
		if title == "" {
			title = "(no title)"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)
		fmt.Fprintf(&b, "   start: %s\n", LocalDateTime(e.Start, e.AllDay, loc))
		fmt.Fprintf(&b, "   end: %s\n", LocalDateTime(e.End, e.AllDay, loc))
		fmt.Fprintf(&b, "   all_day: %t\n", e.AllDay)
		if e.Location != "" {
			fmt.Fprintf(&b, "   location: %s\n", e.Location)
		}
		if e.Status != "" {
			fmt.Fprintf(&b, "   status: %s\n", e.Status)
		}
		if e.Organizer != "" {
			fmt.Fprintf(&b, "   organizer: %s\n", e.Organizer)
		}
		if len(e.Attendees) > 0 {
			fmt.Fprintf(&b, "   attendees: %s\n", strings.Join(e.Attendees, ", "))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// LocalDateTime renders a stored ISO value in the given zone as
// "Mon 2 Jan 2006 15:04". A date-only value of an all-day event renders
// "Mon 2 Jan 2006 (all day)". Unparsable values echo back verbatim so
// display never loses data.
func LocalDateTime(iso string, allDay bool, loc *time.Location) string {
	if iso == "" {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}

	if len(iso) == len("2006-01-02") {
		d, err := time.ParseInLocation("2006-01-02", iso, loc)
		if err != nil {
			return iso
		}
		if allDay {
			return d.Format("Mon 2 Jan 2006") + " (all day)"
		}
		return d.Format("Mon 2 Jan 2006 15:04")
	}

	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		// Floating values carry no offset; anchor them to the display zone.
		t, err = time.ParseInLocation("2006-01-02T15:04:05", iso, loc)
		if err != nil {
			return iso
		}
	}
	return t.In(loc).Format("Mon 2 Jan 2006 15:04")
}
