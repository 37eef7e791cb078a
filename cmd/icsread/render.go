package main

import (
	"time"

	"icsread/internal/ics"
	"icsread/internal/render"
)

// renderOutput formats the filtered events in the selected output mode,
// using the process-local zone for display strings.
func renderOutput(events []ics.Event, format string) (string, error) {
	if format == "json" {
		return render.JSON(events, time.Local)
	}
	return render.Text(events, time.Local), nil
}
