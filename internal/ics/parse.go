package ics

const (
	beginEvent = "BEGIN:VEVENT"
	endEvent   = "END:VEVENT"
)

// ParseEvents parses an ICS payload into normalized events.
//
// Parsing is maximally permissive: lines outside an open VEVENT, lines
// without a property separator, unrecognized property names and undecodable
// date values are all skipped rather than reported. An END:VEVENT with no
// open record is a no-op.
func ParseEvents(body string) []Event {
	events := make([]Event, 0)
	var current *Event

	for _, line := range UnfoldLines(body) {
		switch line {
		case beginEvent:
			current = &Event{Attendees: []string{}}
			continue
		case endEvent:
			if current != nil {
				events = append(events, *current)
			}
			current = nil
			continue
		}

		if current == nil {
			continue
		}
		name, params, raw, ok := parseProperty(line)
		if !ok {
			continue
		}
		value := UnescapeText(raw)

		switch name {
		case "SUMMARY":
			current.Summary = value
		case "DESCRIPTION":
			current.Description = value
		case "LOCATION":
			current.Location = value
		case "STATUS":
			current.Status = value
		case "UID":
			current.UID = value
		case "ORGANIZER":
			current.Organizer = value
		case "ATTENDEE":
			if cn := params["CN"]; cn != "" {
				value = cn + " <" + value + ">"
			}
			current.Attendees = append(current.Attendees, value)
		case "DTSTART":
			d := DecodeDateTime(value, params)
			current.Start = d.ISO
			current.AllDay = d.AllDay
		case "DTEND":
			d := DecodeDateTime(value, params)
			current.End = d.ISO
		}
	}

	return events
}
