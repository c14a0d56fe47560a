package alexa

import (
	"net/http"
	"time"

	"github.com/bencan1a/calendarlite/internal/clock"
	"github.com/bencan1a/calendarlite/internal/speech"
)

type launchSummaryResponse struct {
	SpeechText       string             `json:"speech_text"`
	HasMeetingsToday bool               `json:"has_meetings_today"`
	NextMeeting      *meetingPayload    `json:"next_meeting,omitempty"`
	DoneForDay       doneForDayResponse `json:"done_for_day"`
}

// LaunchSummaryHandler renders spec §4.10, branching on whether any
// meetings remain today.
func LaunchSummaryHandler(base *Base, c clock.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !base.Authenticate(w, r) {
			return
		}
		now := c.Now()
		loc, zoneKnown := resolveZone(r.URL.Query().Get("tz"))
		dfd := computeDoneForDay(base, now, loc, zoneKnown)
		dfdResp := doneForDayResponseFrom(dfd, now)

		candidate := findNext(base, c)
		var nextPayload *meetingPayload
		if candidate != nil {
			nextPayload = toPayload(*candidate)
		}

		resp := launchSummaryResponse{
			HasMeetingsToday: dfd.HasMeetingsToday,
			NextMeeting:      nextPayload,
			DoneForDay:       dfdResp,
		}

		switch {
		case dfd.HasMeetingsToday && candidate != nil && candidate.Event.Start.In(loc).Format("2006-01-02") == now.In(loc).Format("2006-01-02"):
			resp.SpeechText = speech.NextMeetingSpeech(candidate.Event.Subject, candidate.SecondsUntil) + " " + dfdResp.SpeechText
		case dfd.HasMeetingsToday:
			resp.SpeechText = dfdResp.SpeechText
		default:
			resp.SpeechText = launchNoMeetingsTodaySpeech(base, now, loc)
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// launchNoMeetingsTodaySpeech implements the "no meetings today" branch of
// spec §4.10: find the first future event on a later local date.
func launchNoMeetingsTodaySpeech(base *Base, now time.Time, loc *time.Location) string {
	today := now.In(loc).Format("2006-01-02")

	for _, ev := range base.Snapshot().Events {
		if base.Skips != nil && base.Skips.IsSkipped(ev.MeetingID) {
			continue
		}
		local := ev.Start.In(loc)
		if local.Format("2006-01-02") <= today {
			continue
		}
		secondsUntil := int64(ev.Start.Sub(now) / time.Second)
		return "No meetings today, you're free until " + ev.Subject + " " + speech.DurationSpoken(secondsUntil) + "."
	}
	return "No meetings today. You have no upcoming meetings scheduled."
}
