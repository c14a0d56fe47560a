package alexa

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bencan1a/calendarlite/internal/clock"
	"github.com/bencan1a/calendarlite/internal/morningsummary"
)

type freeBlockPayload struct {
	StartISO          string `json:"start_iso"`
	EndISO            string `json:"end_iso"`
	DurationMinutes   int    `json:"duration_minutes"`
	RecommendedAction string `json:"recommended_action,omitempty"`
}

type meetingInsightPayload struct {
	MeetingID        string `json:"meeting_id"`
	Subject          string `json:"subject"`
	StartISO         string `json:"start_iso"`
	EndISO           string `json:"end_iso"`
	TimeUntilMinutes *int   `json:"time_until_minutes,omitempty"`
}

type morningSummaryResponse struct {
	TimeframeStartISO       string                  `json:"timeframe_start_iso"`
	TimeframeEndISO         string                  `json:"timeframe_end_iso"`
	TotalMeetingsEquivalent float64                 `json:"total_meetings_equivalent"`
	EarlyStartFlag          bool                    `json:"early_start_flag"`
	Density                 string                  `json:"density"`
	MeetingInsights         []meetingInsightPayload `json:"meeting_insights"`
	FreeBlocks              []freeBlockPayload      `json:"free_blocks"`
	BackToBackCount         int                     `json:"back_to_back_count"`
	WakeUpRecommendationISO string                  `json:"wake_up_recommendation_iso,omitempty"`
	SpeechText              string                  `json:"speech_text"`
}

// MorningSummaryHandler renders spec §4.11 over the query params
// `date`, `timezone`, `prefer_ssml`, `detail_level`, `max_events`.
func MorningSummaryHandler(base *Base, c clock.Source, cache *morningsummary.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !base.Authenticate(w, r) {
			return
		}

		q := r.URL.Query()
		req := morningsummary.Request{
			Date:        q.Get("date"),
			Timezone:    q.Get("timezone"),
			DetailLevel: q.Get("detail_level"),
			PreferSSML:  q.Get("prefer_ssml") == "true",
		}
		if raw := q.Get("max_events"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				req.MaxEvents = n
			}
		}

		events := base.Snapshot().AllEvents
		key := morningsummary.Key(events, req)

		ctx := r.Context()
		if cached, ok := cache.Get(ctx, key); ok {
			writeJSON(w, http.StatusOK, toMorningSummaryResponse(cached))
			return
		}

		result := morningsummary.Generate(events, req, c.Now())
		cache.Set(ctx, key, result)
		writeJSON(w, http.StatusOK, toMorningSummaryResponse(result))
	}
}

func toMorningSummaryResponse(result morningsummary.Result) morningSummaryResponse {
	resp := morningSummaryResponse{
		TimeframeStartISO:       result.TimeframeStart.UTC().Format(time.RFC3339),
		TimeframeEndISO:         result.TimeframeEnd.UTC().Format(time.RFC3339),
		TotalMeetingsEquivalent: result.TotalMeetingsEquivalent,
		EarlyStartFlag:          result.EarlyStartFlag,
		Density:                 string(result.Density),
		BackToBackCount:         result.BackToBackCount,
		SpeechText:              result.SpeechText,
	}
	if result.WakeUpRecommendation != nil {
		resp.WakeUpRecommendationISO = result.WakeUpRecommendation.UTC().Format(time.RFC3339)
	}
	for _, m := range result.MeetingInsights {
		resp.MeetingInsights = append(resp.MeetingInsights, meetingInsightPayload{
			MeetingID:        m.MeetingID,
			Subject:          m.Subject,
			StartISO:         m.Start.UTC().Format(time.RFC3339),
			EndISO:           m.End.UTC().Format(time.RFC3339),
			TimeUntilMinutes: m.TimeUntilMinutes,
		})
	}
	for _, b := range result.FreeBlocks {
		resp.FreeBlocks = append(resp.FreeBlocks, freeBlockPayload{
			StartISO:          b.Start.UTC().Format(time.RFC3339),
			EndISO:            b.End.UTC().Format(time.RFC3339),
			DurationMinutes:   b.DurationMinutes,
			RecommendedAction: b.RecommendedAction,
		})
	}
	return resp
}
