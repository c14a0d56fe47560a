package morningsummary

import (
	"fmt"
	"strings"

	"github.com/bencan1a/calendarlite/internal/calendarevent"
)

// generateSpeech implements spec §4.11 step 12 / the original's
// _generate_speech_text, producing the evening-delivery narration.
func generateSpeech(insights []MeetingInsight, actionableAllDay []calendarevent.Event, density Density, earlyStart bool, freeBlocks []FreeBlock, backToBack int, equivalents float64, hasAnyEvents bool) string {
	return buildSpeech(insights, subjectsOf(actionableAllDay), density, earlyStart, freeBlocks, backToBack, equivalents, hasAnyEvents)
}

func subjectsOf(events []calendarevent.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Subject
	}
	return out
}

func buildSpeech(insights []MeetingInsight, allDaySubjects []string, density Density, earlyStart bool, freeBlocks []FreeBlock, backToBack int, equivalents float64, hasAnyEvents bool) string {
	if len(insights) == 0 && len(allDaySubjects) == 0 && !hasAnyEvents {
		return "Good evening. You have a completely free morning tomorrow until noon. " +
			"This is a great opportunity for deep work or personal time."
	}

	parts := []string{"Good evening."}

	if earlyStart && len(insights) > 0 {
		earliest := insights[0]
		for _, m := range insights[1:] {
			if m.Start.Before(earliest.Start) {
				earliest = m
			}
		}
		spoken := spokenClockTime(earliest.Start.Hour(), earliest.Start.Minute())
		if earliest.Start.Hour() < veryEarlyThresholdHour ||
			(earliest.Start.Hour() == veryEarlyThresholdHour && earliest.Start.Minute() < veryEarlyThresholdMinute) {
			parts = append(parts, fmt.Sprintf("You start very early tomorrow at %s.", spoken))
		} else {
			parts = append(parts, fmt.Sprintf("You start early tomorrow at %s.", spoken))
		}
	}

	if len(insights) > 0 || equivalents > 0 || hasAnyEvents {
		parts = append(parts, fmt.Sprintf("You have %s before noon tomorrow.", meetingCountPhrase(len(insights), equivalents)))
		switch density {
		case DensityBusy:
			parts = append(parts, "It's a busy morning, but you've got this.")
		case DensityLight:
			parts = append(parts, "It's a light morning schedule.")
		}
	}

	var longest *FreeBlock
	for i := range freeBlocks {
		if longest == nil || freeBlocks[i].DurationMinutes > longest.DurationMinutes {
			longest = &freeBlocks[i]
		}
	}

	if backToBack == 1 {
		parts = append(parts, "You have one back-to-back meeting transition.")
	} else if backToBack > 1 {
		parts = append(parts, fmt.Sprintf("You have %d back-to-back meeting transitions.", backToBack))
	}

	if longest != nil && longest.IsSignificant() {
		parts = append(parts, fmt.Sprintf("You have a %s window starting at %s.", spokenDuration(longest.DurationMinutes), spokenClockTime(longest.Start.Hour(), longest.Start.Minute())))
	}

	if len(insights) > 0 && !earlyStart {
		first := insights[0]
		if first.Start.Hour() >= morningStartHour {
			parts = append(parts, fmt.Sprintf("Your first meeting is %s at %s.", shortSubject(first.Subject), spokenClockTime(first.Start.Hour(), first.Start.Minute())))
		}
	}

	switch {
	case len(allDaySubjects) == 1:
		parts = append(parts, fmt.Sprintf("You also have %s all day.", allDaySubjects[0]))
	case len(allDaySubjects) >= 2 && len(allDaySubjects) <= 3:
		parts = append(parts, fmt.Sprintf("You also have %s all day.", strings.Join(allDaySubjects, ", ")))
	case len(allDaySubjects) > 3:
		parts = append(parts, "You also have several all-day items.")
	}

	return strings.Join(parts, " ")
}

func meetingCountPhrase(meetingCount int, equivalents float64) string {
	if equivalents != float64(meetingCount) {
		if equivalents == float64(int(equivalents)) {
			return fmt.Sprintf("%d meeting equivalents", int(equivalents))
		}
		return fmt.Sprintf("%.1f meeting equivalents", equivalents)
	}
	switch meetingCount {
	case 1:
		return "1 meeting"
	case 0:
		return "0 meeting equivalents"
	default:
		return fmt.Sprintf("%d meetings", meetingCount)
	}
}

func shortSubject(subject string) string {
	words := strings.Fields(subject)
	if len(words) <= 6 {
		return subject
	}
	return strings.Join(words[:6], " ")
}

// spokenDuration matches FreeBlock.get_spoken_duration's phrasing.
func spokenDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d-minute", minutes)
	}
	if minutes == 60 {
		return "one-hour"
	}
	hours := minutes / 60
	rem := minutes % 60
	if rem == 0 {
		return fmt.Sprintf("%d-hour", hours)
	}
	return fmt.Sprintf("%d-hour %d-minute", hours, rem)
}

// spokenClockTime matches get_spoken_start_time's phrasing (noon/AM/PM
// with word-form half-hours).
func spokenClockTime(hour, minute int) string {
	switch minute {
	case 0:
		if hour == 12 {
			return "noon"
		}
		if hour > 12 {
			return fmt.Sprintf("%d PM", hour-12)
		}
		if hour == 0 {
			return "12 AM"
		}
		return fmt.Sprintf("%d AM", hour)
	case 30:
		if hour == 12 {
			return "twelve thirty PM"
		}
		if hour > 12 {
			return fmt.Sprintf("%d thirty PM", hour-12)
		}
		return fmt.Sprintf("%d thirty AM", hour)
	default:
		if hour == 12 {
			return fmt.Sprintf("twelve %02d PM", minute)
		}
		if hour > 12 {
			return fmt.Sprintf("%d %02d PM", hour-12, minute)
		}
		return fmt.Sprintf("%d %02d AM", hour, minute)
	}
}
