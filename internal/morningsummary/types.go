// Package morningsummary is the Morning Summary Analyzer (spec §4.11):
// given tomorrow's event set, it classifies schedule density, finds free
// blocks, flags an early start, counts back-to-back transitions, and
// renders an evening-delivery speech summary. Ported from the original
// Python MorningSummaryService (original_source/calendarbot_lite/morning_summary.py)
// into a stateless analyzer plus a small injected cache.
package morningsummary

import "time"

// Density classifies how packed the morning is.
type Density string

const (
	DensityLight    Density = "light"
	DensityModerate Density = "moderate"
	DensityBusy     Density = "busy"
)

// Request is the MorningSummaryRequest from spec §4.11.
type Request struct {
	Date        string // optional explicit date, "2006-01-02"; empty = tomorrow
	Timezone    string
	DetailLevel string
	PreferSSML  bool
	MaxEvents   int
}

// MaxEventsLimit is the hard clamp from spec §4.11 step 1.
const MaxEventsLimit = 50

// FreeBlock is one gap in the morning schedule.
type FreeBlock struct {
	Start             time.Time
	End               time.Time
	DurationMinutes   int
	RecommendedAction string
}

// IsSignificant reports a 45+ minute block.
func (f FreeBlock) IsSignificant() bool {
	return f.DurationMinutes >= significantFreeBlockMinutes
}

// MeetingInsight is one timed, non-focus-time event in the window.
type MeetingInsight struct {
	MeetingID        string
	Subject          string
	Start            time.Time
	End              time.Time
	TimeUntilMinutes *int
	IsOnline         bool
}

// Result is the full MorningSummaryResult from spec §4.11.
type Result struct {
	TimeframeStart          time.Time
	TimeframeEnd            time.Time
	TotalMeetingsEquivalent float64
	EarlyStartFlag          bool
	Density                 Density
	MeetingInsights         []MeetingInsight
	FreeBlocks              []FreeBlock
	BackToBackCount         int
	SpeechText              string
	WakeUpRecommendation    *time.Time
}

// LongestFreeBlock returns the largest block, or nil if there are none.
func (r Result) LongestFreeBlock() *FreeBlock {
	if len(r.FreeBlocks) == 0 {
		return nil
	}
	longest := r.FreeBlocks[0]
	for _, b := range r.FreeBlocks[1:] {
		if b.DurationMinutes > longest.DurationMinutes {
			longest = b
		}
	}
	return &longest
}

const (
	morningStartHour            = 6
	morningEndHour              = 12
	earlyStartThresholdHour     = 8
	veryEarlyThresholdHour      = 7
	veryEarlyThresholdMinute    = 30
	wakeUpBufferMinutes         = 90
	minWakeUpHour               = 6
	minFreeBlockMinutes         = 30
	significantFreeBlockMinutes = 45
	backToBackGapMinutes        = 15
)
