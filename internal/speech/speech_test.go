package speech

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationSpoken(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{-30, "in the past"},
		{1, "in 1 second"},
		{45, "in 45 seconds"},
		{60, "in 1 minute"},
		{1800, "in 30 minutes"},
		{3600, "in 1 hour"},
		{7200, "in 2 hours"},
		{5400, "in 1 hour and 30 minutes"},
		{9000, "in 2 hours and 30 minutes"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, DurationSpoken(tc.seconds), "seconds=%d", tc.seconds)
	}
}

func TestLocalClockTime(t *testing.T) {
	ts := time.Date(2026, 8, 1, 17, 30, 0, 0, time.UTC)
	assert.Equal(t, "5:30 pm", LocalClockTime(ts, time.UTC))
}

func TestLocalClockTime_SingleDigitMinutePadded(t *testing.T) {
	ts := time.Date(2026, 8, 1, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, "9:05 am", LocalClockTime(ts, time.UTC))
}

func TestNextMeetingSpeech(t *testing.T) {
	got := NextMeetingSpeech("Team Sync", 1800)
	assert.Equal(t, "Your next meeting is Team Sync in 30 minutes.", got)
}
