// Package icsparse is the ICS Parser (spec §6): raw bytes in, a flat list
// of VEVENT records out. It is deliberately minimal — line unfolding,
// property/parameter splitting, and the handful of properties the refresh
// pipeline actually consumes (UID, SUMMARY, DTSTART, DTEND, DURATION,
// LOCATION, STATUS, RRULE, RECURRENCE-ID, EXDATE) — rather than a full
// RFC 5545 grammar, since no such third-party Go library is available in
// this module's dependency set. Structured the way the teacher's
// control_plane readers walk a byte stream into typed records.
package icsparse

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RawEvent is one VEVENT block, largely unparsed beyond the fields the
// rrule expander and normalizer need.
type RawEvent struct {
	UID           string
	Summary       string
	Location      string
	Start         time.Time
	StartIsDate   bool // DATE value (all-day) rather than DATE-TIME
	End           time.Time
	HasEnd        bool
	DurationSecs  int64
	HasDuration   bool
	Status        string // CONFIRMED, TENTATIVE, CANCELLED
	RRule         string // raw RRULE value, empty if non-recurring
	RecurrenceID  string // set on an overridden occurrence
	ExDates       []time.Time
	TZID          string
}

// Parse walks data line-by-line (after unfolding) and returns one RawEvent
// per VEVENT block. Malformed blocks are skipped rather than aborting the
// whole feed, since one bad event shouldn't take down the others.
func Parse(data []byte) ([]RawEvent, error) {
	lines, err := unfold(data)
	if err != nil {
		return nil, err
	}

	var events []RawEvent
	var cur *RawEvent
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "BEGIN:VEVENT":
			cur = &RawEvent{Status: "CONFIRMED"}
		case trimmed == "END:VEVENT":
			if cur != nil {
				events = append(events, *cur)
				cur = nil
			}
		case cur != nil && trimmed != "":
			applyProperty(cur, trimmed)
		}
	}
	return events, nil
}

// unfold reverses RFC 5545 line folding (a leading space or tab on a
// continuation line) and returns the logical lines.
func unfold(data []byte) ([]string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var logical []string
	for scanner.Scan() {
		raw := strings.TrimRight(scanner.Text(), "\r")
		if (strings.HasPrefix(raw, " ") || strings.HasPrefix(raw, "\t")) && len(logical) > 0 {
			logical[len(logical)-1] += raw[1:]
			continue
		}
		logical = append(logical, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("icsparse: scan: %w", err)
	}
	return logical, nil
}

// applyProperty parses one "NAME;PARAM=VAL:VALUE" line and folds it into ev.
func applyProperty(ev *RawEvent, line string) {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return
	}
	nameAndParams := line[:colon]
	value := line[colon+1:]

	parts := strings.Split(nameAndParams, ";")
	name := strings.ToUpper(parts[0])
	params := map[string]string{}
	for _, p := range parts[1:] {
		if eq := strings.IndexByte(p, '='); eq >= 0 {
			params[strings.ToUpper(p[:eq])] = p[eq+1:]
		}
	}

	switch name {
	case "UID":
		ev.UID = value
	case "SUMMARY":
		ev.Summary = unescapeText(value)
	case "LOCATION":
		ev.Location = unescapeText(value)
	case "STATUS":
		ev.Status = strings.ToUpper(value)
	case "RRULE":
		ev.RRule = value
	case "RECURRENCE-ID":
		ev.RecurrenceID = value
	case "DTSTART":
		t, isDate, tzid, ok := parseDateTime(value, params)
		if ok {
			ev.Start, ev.StartIsDate, ev.TZID = t, isDate, tzid
		}
	case "DTEND":
		t, _, _, ok := parseDateTime(value, params)
		if ok {
			ev.End, ev.HasEnd = t, true
		}
	case "DURATION":
		if d, ok := parseISODuration(value); ok {
			ev.DurationSecs, ev.HasDuration = d, true
		}
	case "EXDATE":
		for _, v := range strings.Split(value, ",") {
			if t, _, _, ok := parseDateTime(v, params); ok {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}
}

// parseDateTime handles the VALUE=DATE and floating/UTC/zoned DATE-TIME
// forms that occur in practice: "20250131", "20250131T090000Z",
// "20250131T090000" (+ TZID param, treated as UTC when the zone can't be
// resolved locally).
func parseDateTime(value string, params map[string]string) (t time.Time, isDate bool, tzid string, ok bool) {
	value = strings.TrimSpace(value)
	if params["VALUE"] == "DATE" || len(value) == 8 {
		parsed, err := time.Parse("20060102", value)
		if err != nil {
			return time.Time{}, false, "", false
		}
		return parsed.UTC(), true, "", true
	}

	if strings.HasSuffix(value, "Z") {
		parsed, err := time.Parse("20060102T150405Z", value)
		if err != nil {
			return time.Time{}, false, "", false
		}
		return parsed.UTC(), false, "", true
	}

	tzid = params["TZID"]
	loc := time.UTC
	if tzid != "" {
		if l, err := time.LoadLocation(tzid); err == nil {
			loc = l
		}
	}
	parsed, err := time.ParseInLocation("20060102T150405", value, loc)
	if err != nil {
		return time.Time{}, false, "", false
	}
	return parsed.UTC(), false, tzid, true
}

// parseISODuration parses a subset of ISO-8601 durations as used in
// DURATION properties: P[n]D[T[n]H[n]M[n]S] or PT[n]H[n]M[n]S.
func parseISODuration(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" || value[0] != 'P' {
		return 0, false
	}
	neg := false
	rest := value[1:]
	if strings.HasPrefix(value, "-P") {
		neg = true
		rest = value[2:]
	}

	var total int64
	inTime := false
	numBuf := strings.Builder{}
	flush := func(unitSeconds int64) {
		if numBuf.Len() == 0 {
			return
		}
		n, err := strconv.ParseInt(numBuf.String(), 10, 64)
		if err == nil {
			total += n * unitSeconds
		}
		numBuf.Reset()
	}

	for _, r := range rest {
		switch {
		case r == 'T':
			inTime = true
		case r >= '0' && r <= '9':
			numBuf.WriteRune(r)
		case r == 'D':
			flush(86400)
		case r == 'H' && inTime:
			flush(3600)
		case r == 'M' && inTime:
			flush(60)
		case r == 'S' && inTime:
			flush(1)
		case r == 'W':
			flush(7 * 86400)
		}
	}
	if neg {
		total = -total
	}
	return total, true
}

// unescapeText reverses the RFC 5545 TEXT escaping (\n, \,, \;, \\).
func unescapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n', 'N':
				b.WriteByte('\n')
				i++
				continue
			case ',', ';', '\\':
				b.WriteByte(s[i+1])
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
