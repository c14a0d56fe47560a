// Package speech renders the plain-English duration and time phrases used
// across the Alexa handlers (spec §4.7-§4.10).
package speech

import (
	"fmt"
	"strings"
	"time"
)

// DurationSpoken renders secondsUntil as an English phrase:
// "in the past" when negative, "in N seconds" under a minute, "in N
// minute(s)" under an hour, else "in H hour(s)[ and M minute(s)]".
func DurationSpoken(secondsUntil int64) string {
	if secondsUntil < 0 {
		return "in the past"
	}
	if secondsUntil < 60 {
		return fmt.Sprintf("in %d second%s", secondsUntil, plural(secondsUntil))
	}
	if secondsUntil < 3600 {
		minutes := secondsUntil / 60
		return fmt.Sprintf("in %d minute%s", minutes, plural(minutes))
	}

	hours := secondsUntil / 3600
	minutes := (secondsUntil % 3600) / 60
	if minutes == 0 {
		return fmt.Sprintf("in %d hour%s", hours, plural(hours))
	}
	return fmt.Sprintf("in %d hour%s and %d minute%s", hours, plural(hours), minutes, plural(minutes))
}

func plural(n int64) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// LocalClockTime renders t in loc as a lower-cased 12-hour clock string,
// e.g. "5:30 pm".
func LocalClockTime(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	formatted := local.Format("3:04 pm")
	return strings.ToLower(formatted)
}

// NextMeetingSpeech renders the "Your next meeting is ..." line (spec §4.7).
func NextMeetingSpeech(subject string, secondsUntil int64) string {
	return fmt.Sprintf("Your next meeting is %s %s.", subject, DurationSpoken(secondsUntil))
}
