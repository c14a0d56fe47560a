// Package calendarevent defines the normalized Event record produced by
// the refresh pipeline (spec §3) and the small set of pure helpers used to
// classify it (focus time, lunch, hidden, actionable all-day).
package calendarevent

import (
	"strings"
	"time"
)

// Event is a normalized calendar occurrence. Start is always UTC.
type Event struct {
	MeetingID       string    `json:"meeting_id"`
	Subject         string    `json:"subject"`
	Start           time.Time `json:"start"`
	DurationSeconds int64     `json:"duration_seconds"`
	Location        string    `json:"location,omitempty"`
	IsOnlineMeeting bool      `json:"is_online_meeting"`
	RawSource       string    `json:"raw_source,omitempty"`
	IsAllDay        bool      `json:"is_all_day,omitempty"`
	Cancelled       bool      `json:"cancelled,omitempty"`
}

// DefaultDurationSeconds is used when neither an explicit end nor duration
// is available on the source record.
const DefaultDurationSeconds = 3600

// End returns the derived end instant: start + duration.
func (e Event) End() time.Time {
	return e.Start.Add(time.Duration(e.DurationSeconds) * time.Second)
}

// FocusTimeKeywords is the single keyword set shared by the prioritizer and
// the morning-summary analyzer (spec §9 open question, resolved: unified).
var FocusTimeKeywords = []string{
	"focus time",
	"focus",
	"deep work",
	"thinking time",
	"planning time",
}

// IsFocusTime reports whether the event's subject matches a focus-time
// keyword via case-insensitive substring match.
func (e Event) IsFocusTime() bool {
	return containsAny(e.Subject, FocusTimeKeywords)
}

// HiddenPatterns are subject substrings that cause an event to be dropped
// entirely from the morning summary (spec §4.11 step 4).
var HiddenPatterns = []string{
	"busy", "free", "phantom", "hidden", "private", "personal",
	"birthday", "holiday", "vacation", "out of office",
}

// IsHidden reports whether the event should be dropped from the morning
// summary.
func (e Event) IsHidden() bool {
	return containsAny(e.Subject, HiddenPatterns)
}

// NonActionableAllDayPatterns are all-day subject substrings that don't
// count as "actionable" for meeting-equivalent purposes (spec §4.11 step 5).
var NonActionableAllDayPatterns = []string{
	"birthday", "holiday", "vacation", "day off", "public holiday",
	"national holiday", "anniversary",
}

// IsActionableAllDay reports whether an all-day event counts toward
// meeting_equivalents (0.5 weight) in the morning summary.
func (e Event) IsActionableAllDay() bool {
	return !containsAny(e.Subject, NonActionableAllDayPatterns)
}

// IsLunch classifies a short subject containing "lunch" as the LUNCH
// category for the prioritizer's time-grouping tie-break (spec §4.5 step 5).
func (e Event) IsLunch() bool {
	subject := strings.ToLower(e.Subject)
	return strings.Contains(subject, "lunch") && len(e.Subject) <= 10
}

func containsAny(subject string, patterns []string) bool {
	lower := strings.ToLower(subject)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// MeetingID synthesizes a stable id from the source name and start instant
// when the originating ICS record has no UID (spec §3).
func SynthesizeMeetingID(source string, start time.Time) string {
	return source + "|" + start.UTC().Format(time.RFC3339)
}
