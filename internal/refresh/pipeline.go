package refresh

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bencan1a/calendarlite/internal/calendarevent"
	"github.com/bencan1a/calendarlite/internal/clock"
	"github.com/bencan1a/calendarlite/internal/config"
	"github.com/bencan1a/calendarlite/internal/eventwindow"
	"github.com/bencan1a/calendarlite/internal/icsfetch"
	"github.com/bencan1a/calendarlite/internal/icsparse"
	"github.com/bencan1a/calendarlite/internal/logging"
	"github.com/bencan1a/calendarlite/internal/metrics"
	"github.com/bencan1a/calendarlite/internal/rrule"
	"github.com/bencan1a/calendarlite/internal/skipstore"
)

// maxConcurrentFetches bounds per-cycle fetch concurrency (spec §4.4 "bounded
// concurrency"), grounded on the teacher's errgroup.SetLimit usage pattern.
const maxConcurrentFetches = 4

// SkipChecker is the subset of skipstore.Store the pipeline needs.
type SkipChecker interface {
	IsSkipped(id string) bool
}

// Pipeline runs the fetch->parse->expand->normalize->filter->sort->swap
// cycle described in spec §4.4 and keeps Health/metrics in sync with it.
type Pipeline struct {
	sources     []config.Source
	fetcher     *icsfetch.Fetcher
	window      *eventwindow.Store
	skips       SkipChecker
	clock       clock.Source
	health      *State
	horizonDays int
	windowSize  int

	// cached conditional-request headers per source name, carried across
	// cycles so a 304 short-circuits parsing.
	etags         map[string]string
	lastModifieds map[string]string
}

// New constructs a Pipeline. sources, horizonDays, and windowSize come
// straight from the loaded Config.
func New(sources []config.Source, fetcher *icsfetch.Fetcher, window *eventwindow.Store, skips SkipChecker, c clock.Source, health *State, horizonDays, windowSize int) *Pipeline {
	return &Pipeline{
		sources:       sources,
		fetcher:       fetcher,
		window:        window,
		skips:         skips,
		clock:         c,
		health:        health,
		horizonDays:   horizonDays,
		windowSize:    windowSize,
		etags:         make(map[string]string),
		lastModifieds: make(map[string]string),
	}
}

// RunOnce executes exactly one refresh cycle (spec §4.4 steps 1-9). It
// never returns an error for a partial failure: individual source errors
// are logged and the cycle continues with whichever sources succeeded. A
// whole-cycle failure (zero sources reachable, window would otherwise be
// empty) leaves the published window untouched.
func (p *Pipeline) RunOnce(ctx context.Context) {
	log := logging.For("refresh")
	started := p.clock.Now()
	p.health.MarkAttempt()

	if len(p.sources) == 0 {
		log.Warn().Msg("no configured sources; skipping cycle")
		metrics.RefreshCyclesTotal.WithLabelValues("failed").Inc()
		return
	}

	results := p.fetchAll(ctx)

	var rawEvents []calendarevent.Event
	succeeded := 0
	for _, r := range results {
		if r.err != nil {
			log.Warn().Err(r.err).Str("source", r.name).Msg("source fetch failed; continuing with other sources")
			metrics.SourceFetchesTotal.WithLabelValues(r.name, "failed").Inc()
			continue
		}
		succeeded++
		if r.notModified {
			metrics.SourceFetchesTotal.WithLabelValues(r.name, "not_modified").Inc()
			continue
		}
		metrics.SourceFetchesTotal.WithLabelValues(r.name, "success").Inc()
		rawEvents = append(rawEvents, r.events...)
	}

	if succeeded == 0 {
		log.Error().Msg("refresh cycle failed: no source was reachable")
		metrics.RefreshCyclesTotal.WithLabelValues("failed").Inc()
		return
	}

	now := p.clock.Now()
	filtered := p.normalizeAndFilter(rawEvents, now)

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Start.Before(filtered[j].Start) })

	windowed := filtered
	if len(windowed) > p.windowSize {
		windowed = windowed[:p.windowSize]
	}

	p.window.Swap(&eventwindow.Window{Events: windowed, AllEvents: filtered, LastSuccess: now})
	p.health.MarkSuccess(len(windowed))

	metrics.EventsIngested.Set(float64(len(windowed)))
	metrics.RefreshDurationSeconds.Observe(p.clock.Now().Sub(started).Seconds())
	if succeeded < len(p.sources) {
		metrics.RefreshCyclesTotal.WithLabelValues("partial").Inc()
	} else {
		metrics.RefreshCyclesTotal.WithLabelValues("success").Inc()
	}

	log.Info().Int("event_count", len(filtered)).Int("sources_ok", succeeded).Int("sources_total", len(p.sources)).Msg("refresh cycle complete")
}

type sourceResult struct {
	name        string
	notModified bool
	events      []calendarevent.Event
	err         error
}

// fetchAll runs one fetch+parse+expand per source, bounded to
// maxConcurrentFetches concurrent in-flight requests.
func (p *Pipeline) fetchAll(ctx context.Context) []sourceResult {
	results := make([]sourceResult, len(p.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for i, src := range p.sources {
		i, src := i, src
		g.Go(func() error {
			results[i] = p.fetchOne(gctx, src)
			return nil
		})
	}
	_ = g.Wait() // fetchOne never returns an error to the group; failures live in sourceResult

	return results
}

func (p *Pipeline) fetchOne(ctx context.Context, src config.Source) sourceResult {
	fetchSrc := icsfetch.Source{
		Name:         src.Name,
		URL:          src.URL,
		ETag:         p.etags[src.Name],
		LastModified: p.lastModifieds[src.Name],
	}

	result := p.fetcher.Fetch(ctx, fetchSrc)
	if !result.Success {
		return sourceResult{name: src.Name, err: result.Err}
	}
	if result.ETag != "" {
		p.etags[src.Name] = result.ETag
	}
	if result.LastModified != "" {
		p.lastModifieds[src.Name] = result.LastModified
	}
	if len(result.Content) == 0 {
		return sourceResult{name: src.Name, notModified: true}
	}

	rawEvents, err := icsparse.Parse(result.Content)
	if err != nil {
		return sourceResult{name: src.Name, err: err}
	}

	horizon := p.clock.Now().AddDate(0, 0, p.horizonDays)
	events := expandSource(src.Name, rawEvents, horizon)
	return sourceResult{name: src.Name, events: events}
}

// expandSource turns parsed VEVENT records into normalized Events,
// expanding any RRULE occurrences within horizon.
func expandSource(sourceName string, raw []icsparse.RawEvent, horizon time.Time) []calendarevent.Event {
	var out []calendarevent.Event
	for _, re := range raw {
		if re.Status == "CANCELLED" {
			continue
		}
		if re.Start.IsZero() {
			continue
		}

		duration := deriveDuration(re)

		if re.RRule == "" {
			out = append(out, buildEvent(sourceName, re, re.Start, duration))
			continue
		}

		rule := rrule.Parse(re.RRule)
		for _, occStart := range rrule.Expand(rule, re.Start, horizon, re.ExDates) {
			out = append(out, buildEvent(sourceName, re, occStart, duration))
		}
	}
	return out
}

func deriveDuration(re icsparse.RawEvent) int64 {
	if re.HasEnd && re.End.After(re.Start) {
		return int64(re.End.Sub(re.Start).Seconds())
	}
	if re.HasDuration && re.DurationSecs > 0 {
		return re.DurationSecs
	}
	return calendarevent.DefaultDurationSeconds
}

func buildEvent(sourceName string, re icsparse.RawEvent, start time.Time, durationSeconds int64) calendarevent.Event {
	meetingID := re.UID
	if meetingID == "" {
		meetingID = calendarevent.SynthesizeMeetingID(sourceName, start)
	}
	return calendarevent.Event{
		MeetingID:       meetingID,
		Subject:         re.Summary,
		Start:           start.UTC(),
		DurationSeconds: durationSeconds,
		Location:        re.Location,
		RawSource:       sourceName,
		IsAllDay:        re.StartIsDate,
		Cancelled:       re.Status == "CANCELLED",
	}
}

// normalizeAndFilter drops past events and skipped events (spec §4.4 steps
// 4-5); sorting/truncation happens in RunOnce since they apply to the
// merged, cross-source set.
func (p *Pipeline) normalizeAndFilter(events []calendarevent.Event, now time.Time) []calendarevent.Event {
	out := make([]calendarevent.Event, 0, len(events))
	for _, ev := range events {
		if ev.Start.Before(now) {
			continue
		}
		if p.skips != nil && p.skips.IsSkipped(ev.MeetingID) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

var _ SkipChecker = (*skipstore.Store)(nil)
