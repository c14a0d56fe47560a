package icsparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BasicEvent(t *testing.T) {
	data := []byte("BEGIN:VCALENDAR\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:event-1\r\n" +
		"SUMMARY:Team Sync\r\n" +
		"LOCATION:Room 4\r\n" +
		"DTSTART:20260801T090000Z\r\n" +
		"DTEND:20260801T093000Z\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n")

	events, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "event-1", ev.UID)
	assert.Equal(t, "Team Sync", ev.Summary)
	assert.Equal(t, "Room 4", ev.Location)
	assert.Equal(t, "CONFIRMED", ev.Status)
	assert.False(t, ev.StartIsDate)
	assert.Equal(t, time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC), ev.Start)
	assert.True(t, ev.HasEnd)
	assert.Equal(t, time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC), ev.End)
}

func TestParse_UnfoldsContinuationLines(t *testing.T) {
	data := []byte("BEGIN:VEVENT\r\n" +
		"UID:event-2\r\n" +
		"SUMMARY:A very long meeting title that wraps across\r\n" +
		" a continuation line\r\n" +
		"DTSTART:20260801T090000Z\r\n" +
		"END:VEVENT\r\n")

	events, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "A very long meeting title that wraps acrossa continuation line", events[0].Summary)
}

func TestParse_AllDayEventUsesValueDate(t *testing.T) {
	data := []byte("BEGIN:VEVENT\r\n" +
		"UID:event-3\r\n" +
		"SUMMARY:Company Holiday\r\n" +
		"DTSTART;VALUE=DATE:20260804\r\n" +
		"END:VEVENT\r\n")

	events, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, events, 1)
	ev := events[0]
	assert.True(t, ev.StartIsDate)
	assert.Equal(t, time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC), ev.Start)
}

func TestParse_FloatingTimeWithTZID(t *testing.T) {
	data := []byte("BEGIN:VEVENT\r\n" +
		"UID:event-4\r\n" +
		"DTSTART;TZID=America/New_York:20260801T090000\r\n" +
		"END:VEVENT\r\n")

	events, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "America/New_York", events[0].TZID)
	assert.False(t, events[0].Start.IsZero())
}

func TestParse_DurationInsteadOfDtend(t *testing.T) {
	data := []byte("BEGIN:VEVENT\r\n" +
		"UID:event-5\r\n" +
		"DTSTART:20260801T090000Z\r\n" +
		"DURATION:PT1H30M\r\n" +
		"END:VEVENT\r\n")

	events, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, events, 1)
	ev := events[0]
	assert.True(t, ev.HasDuration)
	assert.Equal(t, int64(5400), ev.DurationSecs)
	assert.False(t, ev.HasEnd)
}

func TestParse_RecurringEventWithExdate(t *testing.T) {
	data := []byte("BEGIN:VEVENT\r\n" +
		"UID:event-6\r\n" +
		"DTSTART:20260803T090000Z\r\n" +
		"RRULE:FREQ=WEEKLY;BYDAY=MO\r\n" +
		"EXDATE:20260810T090000Z\r\n" +
		"END:VEVENT\r\n")

	events, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO", ev.RRule)
	require.Len(t, ev.ExDates, 1)
	assert.Equal(t, time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC), ev.ExDates[0])
}

func TestParse_UnescapesSummaryText(t *testing.T) {
	data := []byte("BEGIN:VEVENT\r\n" +
		"UID:event-7\r\n" +
		"SUMMARY:Budget\\, Q3\\; Review\\nFollow-up\r\n" +
		"DTSTART:20260801T090000Z\r\n" +
		"END:VEVENT\r\n")

	events, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Budget, Q3; Review\nFollow-up", events[0].Summary)
}

func TestParse_SkipsUnterminatedVeventBlock(t *testing.T) {
	data := []byte("BEGIN:VEVENT\r\n" +
		"UID:orphan\r\n" +
		"DTSTART:20260801T090000Z\r\n")

	events, err := Parse(data)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParse_MultipleEventsInOneFeed(t *testing.T) {
	data := []byte("BEGIN:VEVENT\r\nUID:e1\r\nDTSTART:20260801T090000Z\r\nEND:VEVENT\r\n" +
		"BEGIN:VEVENT\r\nUID:e2\r\nDTSTART:20260802T090000Z\r\nEND:VEVENT\r\n")

	events, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0].UID)
	assert.Equal(t, "e2", events[1].UID)
}
