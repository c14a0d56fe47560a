package alexa

import (
	"net/http"
	"time"

	"github.com/bencan1a/calendarlite/internal/clock"
	"github.com/bencan1a/calendarlite/internal/logging"
	"github.com/bencan1a/calendarlite/internal/speech"
)

// doneForDayResult is the pure computation behind spec §4.9, reused by the
// Launch Summary handler.
type doneForDayResult struct {
	HasMeetingsToday      bool
	LastMeetingStart      time.Time
	LastMeetingEnd        time.Time
	LastMeetingEndIsZoned bool
	Zone                  *time.Location
	ZoneKnown             bool
}

type doneForDayResponse struct {
	HasMeetingsToday       bool   `json:"has_meetings_today"`
	LastMeetingStartISO    string `json:"last_meeting_start_iso,omitempty"`
	LastMeetingEndISO      string `json:"last_meeting_end_iso,omitempty"`
	LastMeetingEndLocalISO string `json:"last_meeting_end_local_iso,omitempty"`
	SpeechText             string `json:"speech_text"`
}

// DoneForDayHandler renders spec §4.9.
func DoneForDayHandler(base *Base, c clock.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !base.Authenticate(w, r) {
			return
		}
		now := c.Now()
		loc, zoneKnown := resolveZone(r.URL.Query().Get("tz"))
		result := computeDoneForDay(base, now, loc, zoneKnown)
		writeJSON(w, http.StatusOK, doneForDayResponseFrom(result, now))
	}
}

func doneForDayResponseFrom(result doneForDayResult, now time.Time) doneForDayResponse {
	resp := doneForDayResponse{HasMeetingsToday: result.HasMeetingsToday, SpeechText: doneForDaySpeech(result, now)}
	if result.HasMeetingsToday {
		resp.LastMeetingStartISO = result.LastMeetingStart.UTC().Format(time.RFC3339)
		resp.LastMeetingEndISO = result.LastMeetingEnd.UTC().Format(time.RFC3339)
		resp.LastMeetingEndLocalISO = result.LastMeetingEnd.In(result.Zone).Format(time.RFC3339)
	}
	return resp
}

// resolveZone parses an IANA zone name, falling back to UTC with a logged
// warning on an invalid value (spec §4.9 step preamble).
func resolveZone(tz string) (*time.Location, bool) {
	if tz == "" {
		return time.UTC, true
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		logging.For("alexa").Warn().Str("tz", tz).Err(err).Msg("invalid timezone; falling back to UTC")
		return time.UTC, false
	}
	return loc, true
}

// computeDoneForDay implements spec §4.9 steps 1-4 over the window's Events.
func computeDoneForDay(base *Base, now time.Time, loc *time.Location, zoneKnown bool) doneForDayResult {
	today := now.In(loc).Format("2006-01-02")

	result := doneForDayResult{Zone: loc, ZoneKnown: zoneKnown}
	for _, ev := range base.Snapshot().Events {
		if base.Skips != nil && base.Skips.IsSkipped(ev.MeetingID) {
			continue
		}
		local := ev.Start.In(loc)
		if local.Format("2006-01-02") != today {
			continue
		}

		end := ev.End()
		if !result.HasMeetingsToday || end.After(result.LastMeetingEnd) {
			result.HasMeetingsToday = true
			result.LastMeetingStart = ev.Start
			result.LastMeetingEnd = end
		}
	}
	return result
}

func doneForDaySpeech(result doneForDayResult, now time.Time) string {
	if !result.HasMeetingsToday {
		return "You have no meetings today. Enjoy your free day!"
	}
	if !now.Before(result.LastMeetingEnd) {
		return "You're all done for today!"
	}
	clockStr := speech.LocalClockTime(result.LastMeetingEnd, result.Zone)
	if !result.ZoneKnown {
		return "You'll be done at " + clockStr + " UTC."
	}
	return "You'll be done at " + clockStr + "."
}
