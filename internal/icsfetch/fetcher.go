// Package icsfetch is the ICS Fetcher (spec §4.2): one HTTP GET per
// configured source with conditional headers, retries, exponential
// backoff, a per-source token bucket (golang.org/x/time/rate, grounded on
// control_plane/scheduler/limiter.go), and a per-source circuit breaker
// (circuit.go) so a persistently broken feed stops being hammered without
// affecting other sources.
package icsfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bencan1a/calendarlite/internal/apperrors"
)

// Source describes one configured ICS feed.
type Source struct {
	Name string
	URL  string
	// ETag/LastModified are the conditional-header hooks a caller can
	// thread through across cycles.
	ETag         string
	LastModified string
}

// Result is the Fetcher's return value (spec §4.2).
type Result struct {
	Success      bool
	StatusCode   int
	Content      []byte
	ETag         string
	LastModified string
	Err          error
}

// Config controls retry/backoff/rate-limit/circuit-breaker behavior.
type Config struct {
	RequestTimeout     time.Duration
	MaxRetries         int
	RetryBackoffFactor float64
	RateLimitPerSecond float64
	RateLimitBurst     int
	CircuitThreshold   int
	CircuitCooldown    time.Duration
}

// DefaultConfig matches spec §4.2's stated defaults.
func DefaultConfig() Config {
	return Config{
		RequestTimeout:     30 * time.Second,
		MaxRetries:         3,
		RetryBackoffFactor: 1.5,
		RateLimitPerSecond: 1.0,
		RateLimitBurst:     2,
		CircuitThreshold:   3,
		CircuitCooldown:    60 * time.Second,
	}
}

// Fetcher performs ICS GETs for a set of sources, each with its own rate
// limiter and circuit breaker.
type Fetcher struct {
	client *http.Client
	cfg    Config
	state  perSourceState
}

// perSourceState holds the lazily-created rate limiter and circuit breaker
// for each configured source name, guarded by its own mutex since Fetch is
// called concurrently across sources by the refresh pipeline's errgroup.
type perSourceState struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	circuits map[string]*Circuit
}

// New constructs a Fetcher with cfg, lazily creating a limiter and circuit
// per source name on first use.
func New(cfg Config) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: cfg.RequestTimeout},
		cfg:    cfg,
		state: perSourceState{
			limiters: make(map[string]*rate.Limiter),
			circuits: make(map[string]*Circuit),
		},
	}
}

func (f *Fetcher) limiterFor(name string) *rate.Limiter {
	f.state.mu.Lock()
	defer f.state.mu.Unlock()
	l, ok := f.state.limiters[name]
	if !ok {
		l = rate.NewLimiter(rate.Limit(f.cfg.RateLimitPerSecond), f.cfg.RateLimitBurst)
		f.state.limiters[name] = l
	}
	return l
}

func (f *Fetcher) circuitFor(name string) *Circuit {
	f.state.mu.Lock()
	defer f.state.mu.Unlock()
	c, ok := f.state.circuits[name]
	if !ok {
		c = NewCircuit(f.cfg.CircuitThreshold, f.cfg.CircuitCooldown)
		f.state.circuits[name] = c
	}
	return c
}

// Fetch performs the GET for src, retrying transient failures with
// exponential backoff, and honoring the source's circuit breaker.
func (f *Fetcher) Fetch(ctx context.Context, src Source) Result {
	circuit := f.circuitFor(src.Name)
	if !circuit.Allow() {
		return Result{Success: false, Err: apperrors.New("icsfetch.Fetch", apperrors.KindSourceFetch,
			fmt.Errorf("source %q circuit open", src.Name))}
	}

	limiter := f.limiterFor(src.Name)
	backoff := time.Second

	var lastErr error
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Result{Success: false, Err: ctx.Err()}
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * f.cfg.RetryBackoffFactor)
		}

		if err := limiter.Wait(ctx); err != nil {
			return Result{Success: false, Err: err}
		}

		result, retryable, err := f.doOnce(ctx, src)
		if err == nil {
			circuit.RecordSuccess()
			return result
		}

		lastErr = err
		if !retryable {
			circuit.RecordFailure()
			return Result{Success: false, StatusCode: result.StatusCode, Err: apperrors.New("icsfetch.Fetch", apperrors.KindSourceFetch, err)}
		}
	}

	circuit.RecordFailure()
	return Result{Success: false, Err: apperrors.New("icsfetch.Fetch", apperrors.KindSourceFetch, lastErr)}
}

// doOnce performs a single GET attempt, classifying the outcome per spec
// §4.2: network/DNS -> retryable, 4xx non-auth -> fail-fast, 5xx ->
// retryable, 304 -> success with empty content.
func (f *Fetcher) doOnce(ctx context.Context, src Source) (Result, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return Result{}, false, err
	}
	if src.ETag != "" {
		req.Header.Set("If-None-Match", src.ETag)
	}
	if src.LastModified != "" {
		req.Header.Set("If-Modified-Since", src.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return Result{Success: true, StatusCode: resp.StatusCode}, false, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{StatusCode: resp.StatusCode}, true, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Result{
			Success:      true,
			StatusCode:   resp.StatusCode,
			Content:      body,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}, false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Result{StatusCode: resp.StatusCode}, false, fmt.Errorf("auth failure: status %d", resp.StatusCode)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return Result{StatusCode: resp.StatusCode}, false, fmt.Errorf("client error: status %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return Result{StatusCode: resp.StatusCode}, true, fmt.Errorf("server error: status %d", resp.StatusCode)
	default:
		return Result{StatusCode: resp.StatusCode}, false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}
