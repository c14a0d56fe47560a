package refresh

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bencan1a/calendarlite/internal/config"
	"github.com/bencan1a/calendarlite/internal/eventwindow"
	"github.com/bencan1a/calendarlite/internal/icsfetch"
)

type noSkips struct{}

func (noSkips) IsSkipped(string) bool { return false }

func fastFetcherConfig() icsfetch.Config {
	cfg := icsfetch.DefaultConfig()
	cfg.RequestTimeout = 2 * time.Second
	cfg.MaxRetries = 0
	return cfg
}

func icsFixture(now time.Time) string {
	future := now.Add(time.Hour).UTC().Format("20060102T150405Z")
	return "BEGIN:VCALENDAR\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:fixture-1\r\n" +
		"SUMMARY:Fixture Meeting\r\n" +
		"DTSTART:" + future + "\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"
}

func TestPipeline_RunOnce_SuccessPublishesWindow(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(icsFixture(now)))
	}))
	defer srv.Close()

	window := eventwindow.NewStore()
	health := NewState(clockAt(now))
	fetcher := icsfetch.New(fastFetcherConfig())
	p := New([]config.Source{{Name: "primary", URL: srv.URL}}, fetcher, window, noSkips{}, clockAt(now), health, 30, 10)

	p.RunOnce(context.Background())

	snap := window.Snapshot()
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "Fixture Meeting", snap.Events[0].Subject)
	assert.False(t, health.Snapshot().LastSuccess.IsZero())
}

func TestPipeline_RunOnce_PartialFailureStillPublishes(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(icsFixture(now)))
	}))
	defer ok.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer down.Close()

	window := eventwindow.NewStore()
	health := NewState(clockAt(now))
	fetcher := icsfetch.New(fastFetcherConfig())
	sources := []config.Source{{Name: "ok", URL: ok.URL}, {Name: "down", URL: down.URL}}
	p := New(sources, fetcher, window, noSkips{}, clockAt(now), health, 30, 10)

	p.RunOnce(context.Background())

	require.Len(t, window.Snapshot().Events, 1)
}

func TestPipeline_RunOnce_WholeCycleFailureLeavesWindowUntouched(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer down.Close()

	window := eventwindow.NewStore()
	window.Swap(&eventwindow.Window{Events: nil})
	health := NewState(clockAt(now))
	fetcher := icsfetch.New(fastFetcherConfig())
	p := New([]config.Source{{Name: "down", URL: down.URL}}, fetcher, window, noSkips{}, clockAt(now), health, 30, 10)

	p.RunOnce(context.Background())

	assert.True(t, health.Snapshot().LastSuccess.IsZero())
}

func TestPipeline_RunOnce_TruncatesToWindowSizeButKeepsAllEvents(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body string
		body += "BEGIN:VCALENDAR\r\n"
		for i := 0; i < 5; i++ {
			start := now.Add(time.Duration(i+1) * time.Hour).UTC().Format("20060102T150405Z")
			body += "BEGIN:VEVENT\r\nUID:e" + string(rune('0'+i)) + "\r\nDTSTART:" + start + "\r\nEND:VEVENT\r\n"
		}
		body += "END:VCALENDAR\r\n"
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	window := eventwindow.NewStore()
	health := NewState(clockAt(now))
	fetcher := icsfetch.New(fastFetcherConfig())
	p := New([]config.Source{{Name: "primary", URL: srv.URL}}, fetcher, window, noSkips{}, clockAt(now), health, 30, 2)

	p.RunOnce(context.Background())

	snap := window.Snapshot()
	assert.Len(t, snap.Events, 2)
	assert.Len(t, snap.AllEvents, 5)
}

type fixedClock struct{ at time.Time }

func (f fixedClock) Now() time.Time { return f.at }

func clockAt(t time.Time) fixedClock { return fixedClock{at: t} }
