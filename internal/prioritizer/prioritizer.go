// Package prioritizer selects the "next meeting" from a window, applying
// the past/focus-time/skip filters and the business-over-lunch
// time-grouping tie-break from spec §4.5. Ported from the original
// Python EventPrioritizer (original_source/calendarbot_lite/event_prioritizer.py)
// into the idiomatic Go shape: a stateless function plus a small
// injected-dependency interface for the skip check.
package prioritizer

import (
	"time"

	"github.com/bencan1a/calendarlite/internal/calendarevent"
)

// TimeGroupingThreshold is the window within which concurrent candidates
// are compared for the business-over-lunch tie-break.
const TimeGroupingThreshold = 30 * time.Minute

// SkipChecker reports whether a meeting id is currently skipped.
type SkipChecker interface {
	IsSkipped(id string) bool
}

// Candidate pairs a qualifying event with the seconds until it starts.
type Candidate struct {
	Event        calendarevent.Event
	SecondsUntil int64
}

// FindNext returns the next qualifying event from events (assumed sorted
// ascending by Start), or nil if none qualify.
func FindNext(events []calendarevent.Event, now time.Time, skips SkipChecker) *Candidate {
	var candidates []Candidate

	for _, ev := range events {
		secondsUntil := int64((ev.Start.Sub(now)) / time.Second)
		if secondsUntil < 0 {
			continue
		}
		if ev.IsFocusTime() {
			continue
		}
		if skips != nil && skips.IsSkipped(ev.MeetingID) {
			continue
		}

		candidates = append(candidates, Candidate{Event: ev, SecondsUntil: secondsUntil})

		if len(candidates) >= 2 {
			if picked := applyTieBreak(candidates, secondsUntil); picked != nil {
				return picked
			}
		}
	}

	if len(candidates) > 0 {
		return &candidates[0]
	}
	return nil
}

// applyTieBreak groups the just-appended candidate with any prior
// candidates that started within TimeGroupingThreshold of it, and prefers
// the earliest BUSINESS candidate over any LUNCH candidate in that group.
// A group with no BUSINESS candidate yields the first qualifying candidate.
func applyTieBreak(candidates []Candidate, currentSecondsUntil int64) *Candidate {
	last := candidates[len(candidates)-1]
	group := []Candidate{last}

	thresholdSeconds := int64(TimeGroupingThreshold / time.Second)
	for _, c := range candidates[:len(candidates)-1] {
		diff := currentSecondsUntil - c.SecondsUntil
		if diff < 0 {
			diff = -diff
		}
		if diff <= thresholdSeconds {
			group = append(group, c)
		}
	}

	if len(group) <= 1 {
		return nil
	}

	var business []Candidate
	for _, c := range group {
		if !c.Event.IsLunch() {
			business = append(business, c)
		}
	}

	if len(business) > 0 {
		earliest := business[0]
		for _, c := range business[1:] {
			if c.SecondsUntil < earliest.SecondsUntil {
				earliest = c
			}
		}
		return &earliest
	}

	first := candidates[0]
	return &first
}
