package morningsummary

import (
	"sort"
	"time"

	"github.com/bencan1a/calendarlite/internal/calendarevent"
)

// Generate implements spec §4.11 steps 1-12 over the full event set. now is
// the wall clock used both for "tomorrow" resolution and for each
// insight's time-until-minutes.
func Generate(events []calendarevent.Event, req Request, now time.Time) Result {
	maxEvents := req.MaxEvents
	if maxEvents <= 0 || maxEvents > MaxEventsLimit {
		maxEvents = MaxEventsLimit
	}
	if len(events) > maxEvents {
		events = events[:maxEvents]
	}

	loc := resolveZone(req.Timezone)
	targetDate := resolveTargetDate(req.Date, now, loc)
	timeframeStart := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), morningStartHour, 0, 0, 0, loc)
	timeframeEnd := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), morningEndHour, 0, 0, 0, loc)

	filtered := filterMorningEvents(events, timeframeStart, timeframeEnd)

	var allDay, timed []calendarevent.Event
	for _, ev := range filtered {
		if ev.IsAllDay {
			allDay = append(allDay, ev)
		} else {
			timed = append(timed, ev)
		}
	}

	var actionableAllDay []calendarevent.Event
	equivalents := 0.0
	for _, ev := range allDay {
		if !ev.IsActionableAllDay() {
			continue
		}
		actionableAllDay = append(actionableAllDay, ev)
		equivalents += 0.5
	}
	for _, ev := range timed {
		if !ev.IsFocusTime() {
			equivalents += 1.0
		}
	}

	density := classifyDensity(equivalents)
	earlyStart := detectEarlyStart(timed, timeframeStart)
	freeBlocks := analyzeFreeBlocks(timed, timeframeStart, timeframeEnd)
	backToBack := countBackToBack(timed)
	insights := buildInsights(timed, now)

	result := Result{
		TimeframeStart:          timeframeStart,
		TimeframeEnd:            timeframeEnd,
		TotalMeetingsEquivalent: equivalents,
		EarlyStartFlag:          earlyStart,
		Density:                 density,
		MeetingInsights:         insights,
		FreeBlocks:              freeBlocks,
		BackToBackCount:         backToBack,
	}
	result.WakeUpRecommendation = wakeUpRecommendation(result)
	result.SpeechText = generateSpeech(insights, actionableAllDay, density, earlyStart, freeBlocks, backToBack, equivalents, len(filtered) > 0)
	return result
}

func resolveZone(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	if loc, err := time.LoadLocation(tz); err == nil {
		return loc
	}
	return time.UTC
}

// resolveTargetDate implements spec §4.11 step 2: explicit date if given,
// else tomorrow in loc.
func resolveTargetDate(date string, now time.Time, loc *time.Location) time.Time {
	if date != "" {
		if t, err := time.ParseInLocation("2006-01-02", date, loc); err == nil {
			return t
		}
	}
	tomorrow := now.In(loc).AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, loc)
}

// filterMorningEvents implements spec §4.11 step 4: drop cancelled, drop
// hidden, keep events overlapping [timeframeStart, timeframeEnd).
func filterMorningEvents(events []calendarevent.Event, start, end time.Time) []calendarevent.Event {
	var out []calendarevent.Event
	for _, ev := range events {
		if ev.Cancelled {
			continue
		}
		if ev.IsHidden() {
			continue
		}
		if ev.Start.Before(end) && ev.End().After(start) {
			out = append(out, ev)
		}
	}
	return out
}

func classifyDensity(equivalents float64) Density {
	if equivalents <= 2 {
		return DensityLight
	}
	if equivalents <= 4 {
		return DensityModerate
	}
	return DensityBusy
}

func detectEarlyStart(timed []calendarevent.Event, timeframeStart time.Time) bool {
	threshold := time.Date(timeframeStart.Year(), timeframeStart.Month(), timeframeStart.Day(), earlyStartThresholdHour, 0, 0, 0, timeframeStart.Location())
	for _, ev := range timed {
		if ev.Start.Before(threshold) {
			return true
		}
	}
	return false
}

// analyzeFreeBlocks implements spec §4.11 step 9.
func analyzeFreeBlocks(timed []calendarevent.Event, start, end time.Time) []FreeBlock {
	if len(timed) == 0 {
		return []FreeBlock{{
			Start:             start,
			End:               end,
			DurationMinutes:   int(end.Sub(start).Minutes()),
			RecommendedAction: "deep work or personal time",
		}}
	}

	sorted := append([]calendarevent.Event(nil), timed...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var blocks []FreeBlock
	current := start
	for _, ev := range sorted {
		if !ev.Start.After(current) {
			if ev.End().After(current) {
				current = ev.End()
			}
			continue
		}

		gapMinutes := int(ev.Start.Sub(current).Minutes())
		if gapMinutes >= minFreeBlockMinutes {
			blocks = append(blocks, FreeBlock{
				Start:             current,
				End:               ev.Start,
				DurationMinutes:   gapMinutes,
				RecommendedAction: recommendedActionFor(gapMinutes),
			})
		}
		current = ev.End()
	}

	if current.Before(end) {
		gapMinutes := int(end.Sub(current).Minutes())
		if gapMinutes >= minFreeBlockMinutes {
			blocks = append(blocks, FreeBlock{
				Start:             current,
				End:               end,
				DurationMinutes:   gapMinutes,
				RecommendedAction: "wrap-up or preparation for afternoon",
			})
		}
	}
	return blocks
}

func recommendedActionFor(gapMinutes int) string {
	if gapMinutes < significantFreeBlockMinutes {
		return ""
	}
	switch {
	case gapMinutes >= 120:
		return "deep work session"
	case gapMinutes >= 90:
		return "focused project work"
	default:
		return "planning or preparation"
	}
}

func countBackToBack(timed []calendarevent.Event) int {
	if len(timed) < 2 {
		return 0
	}
	sorted := append([]calendarevent.Event(nil), timed...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	count := 0
	for i := 0; i < len(sorted)-1; i++ {
		gap := sorted[i+1].Start.Sub(sorted[i].End()).Minutes()
		if gap < backToBackGapMinutes {
			count++
		}
	}
	return count
}

func buildInsights(timed []calendarevent.Event, now time.Time) []MeetingInsight {
	var insights []MeetingInsight
	for _, ev := range timed {
		if ev.IsFocusTime() {
			continue
		}
		insight := MeetingInsight{
			MeetingID: ev.MeetingID,
			Subject:   ev.Subject,
			Start:     ev.Start,
			End:       ev.End(),
		}
		if ev.Start.After(now) {
			minutes := int(ev.Start.Sub(now).Minutes())
			insight.TimeUntilMinutes = &minutes
		}
		insights = append(insights, insight)
	}
	sort.Slice(insights, func(i, j int) bool { return insights[i].Start.Before(insights[j].Start) })
	return insights
}

// wakeUpRecommendation implements the "max(earliest - 90min, 06:00 local)"
// rule from spec §4.11.
func wakeUpRecommendation(r Result) *time.Time {
	if !r.EarlyStartFlag || len(r.MeetingInsights) == 0 {
		return nil
	}
	earliest := r.MeetingInsights[0]
	for _, m := range r.MeetingInsights[1:] {
		if m.Start.Before(earliest.Start) {
			earliest = m
		}
	}

	candidate := earliest.Start.Add(-wakeUpBufferMinutes * time.Minute)
	minWake := time.Date(earliest.Start.Year(), earliest.Start.Month(), earliest.Start.Day(), minWakeUpHour, 0, 0, 0, earliest.Start.Location())
	if candidate.Before(minWake) {
		candidate = minWake
	}
	return &candidate
}
