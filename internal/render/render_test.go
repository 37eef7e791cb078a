package render

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icsread/internal/ics"
)

func TestTextEmpty(t *testing.T) {
	if got := Text(nil, time.UTC); got != "No matching events." {
		t.Errorf("expected the no-matches literal, got %q", got)
	}
}

func TestTextBlocks(t *testing.T) {
	events := []ics.Event{
		{
			Summary:   "Team sync",
			Start:     "2024-01-15T09:00:00Z",
			End:       "2024-01-15T10:00:00Z",
			Location:  "Room 4",
			Status:    "CONFIRMED",
			Organizer: "mailto:ada@example.com",
			Attendees: []string{"Grace Hopper <mailto:grace@example.com>", "mailto:anon@example.com"},
		},
		{
			Start:  "2024-03-01",
			End:    "2024-03-03",
			AllDay: true,
		},
	}

	got := Text(events, time.UTC)
	lines := strings.Split(got, "\n")

	assert.Equal(t, "1. Team sync", lines[0])
	assert.Equal(t, "   start: Mon 15 Jan 2024 09:00", lines[1])
	assert.Equal(t, "   end: Mon 15 Jan 2024 10:00", lines[2])
	assert.Equal(t, "   all_day: false", lines[3])
	assert.Equal(t, "   location: Room 4", lines[4])
	assert.Equal(t, "   status: CONFIRMED", lines[5])
	assert.Equal(t, "   organizer: mailto:ada@example.com", lines[6])
	assert.Equal(t, "   attendees: Grace Hopper <mailto:grace@example.com>, mailto:anon@example.com", lines[7])

	assert.Equal(t, "2. (no title)", lines[8])
	assert.Equal(t, "   start: Fri 1 Mar 2024 (all day)", lines[9])
	assert.Equal(t, "   end: Sun 3 Mar 2024 (all day)", lines[10])
	assert.Equal(t, "   all_day: true", lines[11])
	// No conditional lines for the bare event.
	assert.Len(t, lines, 12)
}

func TestJSONEmptyList(t *testing.T) {
	got, err := JSON(nil, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestJSONFields(t *testing.T) {
	events := []ics.Event{
		{
			Summary:   "Team sync",
			Start:     "2024-01-15T09:00:00Z",
			End:       "2024-01-15T10:00:00Z",
			IsOngoing: true,
		},
	}

	out, err := JSON(events, time.UTC)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 1)

	obj := decoded[0]
	for _, field := range []string{
		"summary", "start", "end", "all_day", "location", "description",
		"status", "uid", "organizer", "attendees", "is_ongoing",
		"start_local", "end_local",
	} {
		_, present := obj[field]
		assert.True(t, present, "missing field %q", field)
	}

	assert.Equal(t, "Team sync", obj["summary"])
	assert.Equal(t, true, obj["is_ongoing"])
	assert.Nil(t, obj["location"], "absent optional fields must encode as null")
	assert.Equal(t, []any{}, obj["attendees"], "attendees must encode as an empty list, not null")
	assert.Equal(t, "Mon 15 Jan 2024 09:00", obj["start_local"])
}

func TestJSONKeepsAngleBracketsLiteral(t *testing.T) {
	events := []ics.Event{
		{
			Summary:   "Team sync",
			Start:     "2024-01-15T09:00:00Z",
			Attendees: []string{"Grace Hopper <mailto:grace@example.com>"},
		},
	}

	out, err := JSON(events, time.UTC)
	require.NoError(t, err)

	assert.Contains(t, out, "Grace Hopper <mailto:grace@example.com>")
	assert.NotContains(t, out, `\u003c`)
	assert.NotContains(t, out, `\u003e`)
}

func TestLocalDateTime(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skip("no time zone database available")
	}

	// UTC instants convert into the display zone.
	got := LocalDateTime("2024-01-15T09:00:00Z", false, paris)
	assert.Equal(t, "Mon 15 Jan 2024 10:00", got)

	// Floating values anchor directly in the display zone.
	got = LocalDateTime("2024-01-15T09:00:00", false, paris)
	assert.Equal(t, "Mon 15 Jan 2024 09:00", got)

	// All-day dates render without a clock time.
	got = LocalDateTime("2024-01-15", true, paris)
	assert.Equal(t, "Mon 15 Jan 2024 (all day)", got)

	// Unparsable values echo back verbatim.
	assert.Equal(t, "garbage", LocalDateTime("garbage", false, paris))
	assert.Equal(t, "", LocalDateTime("", false, paris))
}
