package alexa

import (
	"net/http"
	"time"

	"github.com/bencan1a/calendarlite/internal/clock"
	"github.com/bencan1a/calendarlite/internal/prioritizer"
	"github.com/bencan1a/calendarlite/internal/speech"
)

type meetingPayload struct {
	MeetingID         string `json:"meeting_id"`
	Subject           string `json:"subject"`
	StartISO          string `json:"start_iso"`
	SecondsUntilStart int64  `json:"seconds_until_start"`
	SpeechText        string `json:"speech_text"`
	DurationSpoken    string `json:"duration_spoken"`
}

type nextMeetingResponse struct {
	Meeting *meetingPayload `json:"meeting"`
}

// NextMeetingHandler renders spec §4.7.
func NextMeetingHandler(base *Base, c clock.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !base.Authenticate(w, r) {
			return
		}
		candidate := findNext(base, c)
		if candidate == nil {
			writeJSON(w, http.StatusOK, nextMeetingResponse{})
			return
		}
		writeJSON(w, http.StatusOK, nextMeetingResponse{Meeting: toPayload(*candidate)})
	}
}

type timeUntilResponse struct {
	SecondsUntilStart int64  `json:"seconds_until_start"`
	DurationSpoken    string `json:"duration_spoken"`
	SpeechText        string `json:"speech_text"`
}

// TimeUntilHandler renders spec §4.8.
func TimeUntilHandler(base *Base, c clock.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !base.Authenticate(w, r) {
			return
		}
		candidate := findNext(base, c)
		if candidate == nil {
			writeJSON(w, http.StatusOK, timeUntilResponse{})
			return
		}
		writeJSON(w, http.StatusOK, timeUntilResponse{
			SecondsUntilStart: candidate.SecondsUntil,
			DurationSpoken:    speech.DurationSpoken(candidate.SecondsUntil),
			SpeechText:        speech.NextMeetingSpeech(candidate.Event.Subject, candidate.SecondsUntil),
		})
	}
}

// WhatsNextHandler is the unauthenticated twin of NextMeetingHandler used by
// `/api/whats-next` (spec §6; tie-break applies identically, per the
// resolved open question).
func WhatsNextHandler(base *Base, c clock.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		candidate := findNext(base, c)
		if candidate == nil {
			writeJSON(w, http.StatusOK, nextMeetingResponse{})
			return
		}
		writeJSON(w, http.StatusOK, nextMeetingResponse{Meeting: toPayload(*candidate)})
	}
}

func findNext(base *Base, c clock.Source) *prioritizer.Candidate {
	snap := base.Snapshot()
	return prioritizer.FindNext(snap.Events, c.Now(), base.Skips)
}

func toPayload(candidate prioritizer.Candidate) *meetingPayload {
	return &meetingPayload{
		MeetingID:         candidate.Event.MeetingID,
		Subject:           candidate.Event.Subject,
		StartISO:          candidate.Event.Start.UTC().Format(time.RFC3339),
		SecondsUntilStart: candidate.SecondsUntil,
		SpeechText:        speech.NextMeetingSpeech(candidate.Event.Subject, candidate.SecondsUntil),
		DurationSpoken:    speech.DurationSpoken(candidate.SecondsUntil),
	}
}
