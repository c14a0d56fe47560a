// Package rrule is the RRULE Expander (spec §6): a recurring VEVENT plus a
// horizon in, a list of concrete occurrence start instants out. Like
// icsparse, this covers the subset of RFC 5545 recurrence the source feeds
// in practice use (DAILY/WEEKLY/MONTHLY/YEARLY with INTERVAL, COUNT,
// UNTIL, and BYDAY for weekly) rather than the full grammar, since no
// third-party expander is available in this module's dependency set.
package rrule

import (
	"strconv"
	"strings"
	"time"
)

// Frequency is the RRULE FREQ value.
type Frequency int

const (
	FreqUnknown Frequency = iota
	FreqDaily
	FreqWeekly
	FreqMonthly
	FreqYearly
)

// Rule is a parsed RRULE.
type Rule struct {
	Freq     Frequency
	Interval int
	Count    int       // 0 means unbounded
	Until    time.Time // zero means unbounded
	ByDay    []time.Weekday
}

var weekdayCodes = map[string]time.Weekday{
	"SU": time.Sunday, "MO": time.Monday, "TU": time.Tuesday, "WE": time.Wednesday,
	"TH": time.Thursday, "FR": time.Friday, "SA": time.Saturday,
}

// Parse turns a raw RRULE value ("FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE") into
// a Rule. Unrecognized parts are ignored rather than erroring, consistent
// with icsparse's skip-the-bad-part approach.
func Parse(value string) Rule {
	r := Rule{Interval: 1}
	for _, part := range strings.Split(value, ";") {
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		key := strings.ToUpper(part[:eq])
		val := part[eq+1:]
		switch key {
		case "FREQ":
			switch strings.ToUpper(val) {
			case "DAILY":
				r.Freq = FreqDaily
			case "WEEKLY":
				r.Freq = FreqWeekly
			case "MONTHLY":
				r.Freq = FreqMonthly
			case "YEARLY":
				r.Freq = FreqYearly
			}
		case "INTERVAL":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				r.Interval = n
			}
		case "COUNT":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				r.Count = n
			}
		case "UNTIL":
			if t, ok := parseUntil(val); ok {
				r.Until = t
			}
		case "BYDAY":
			for _, code := range strings.Split(val, ",") {
				code = strings.TrimSpace(strings.ToUpper(code))
				// Strip any leading ordinal (e.g. "2MO") — not needed for
				// the weekly-recurrence case the feeds actually use.
				for len(code) > 2 && (code[0] >= '0' && code[0] <= '9' || code[0] == '-' || code[0] == '+') {
					code = code[1:]
				}
				if wd, ok := weekdayCodes[code]; ok {
					r.ByDay = append(r.ByDay, wd)
				}
			}
		}
	}
	return r
}

func parseUntil(val string) (time.Time, bool) {
	if strings.HasSuffix(val, "Z") {
		if t, err := time.Parse("20060102T150405Z", val); err == nil {
			return t.UTC(), true
		}
	}
	if t, err := time.Parse("20060102T150405", val); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("20060102", val); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// Expand returns the occurrence start instants for rule anchored at
// dtstart, bounded by [dtstart, horizon], skipping any instant present in
// exdates. The caller is responsible for attaching duration/subject/etc to
// each returned instant.
func Expand(rule Rule, dtstart time.Time, horizon time.Time, exdates []time.Time) []time.Time {
	if rule.Freq == FreqUnknown {
		if !dtstart.After(horizon) {
			return []time.Time{dtstart}
		}
		return nil
	}

	excluded := make(map[int64]bool, len(exdates))
	for _, d := range exdates {
		excluded[d.UTC().Unix()] = true
	}

	// Monday of dtstart's week: with BYDAY the walk steps one day at a time,
	// so INTERVAL is applied by counting whole weeks from here.
	weekStart := dtstart.AddDate(0, 0, -((int(dtstart.Weekday()) + 6) % 7))

	var out []time.Time
	matched := 0
	steps := 0
	const maxSteps = 5000 // backstop against a pathological rule never terminating

	for cur := dtstart; !cur.After(horizon) && steps < maxSteps; cur, steps = advance(cur, rule), steps+1 {
		if !rule.Until.IsZero() && cur.After(rule.Until) {
			break
		}
		if rule.Freq == FreqWeekly && len(rule.ByDay) > 0 {
			if !matchesWeekday(cur, rule.ByDay) {
				continue
			}
			if weeks := int(cur.Sub(weekStart).Round(24*time.Hour)/(24*time.Hour)) / 7; weeks%rule.Interval != 0 {
				continue
			}
		}

		matched++
		if rule.Count > 0 && matched > rule.Count {
			break
		}
		if !excluded[cur.UTC().Unix()] {
			out = append(out, cur)
		}
	}
	return out
}

func matchesWeekday(t time.Time, days []time.Weekday) bool {
	for _, d := range days {
		if t.Weekday() == d {
			return true
		}
	}
	return false
}

func advance(t time.Time, rule Rule) time.Time {
	switch rule.Freq {
	case FreqDaily:
		return t.AddDate(0, 0, rule.Interval)
	case FreqWeekly:
		if len(rule.ByDay) > 0 {
			return t.AddDate(0, 0, 1)
		}
		return t.AddDate(0, 0, 7*rule.Interval)
	case FreqMonthly:
		return t.AddDate(0, rule.Interval, 0)
	case FreqYearly:
		return t.AddDate(rule.Interval, 0, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}
