package morningsummary

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bencan1a/calendarlite/internal/calendarevent"
)

func TestCache_SetThenGetRoundTrip(t *testing.T) {
	cache := NewCache(nil)
	ctx := context.Background()
	key := "some-key"

	_, ok := cache.Get(ctx, key)
	assert.False(t, ok)

	result := Result{Density: DensityModerate, TotalMeetingsEquivalent: 3}
	cache.Set(ctx, key, result)

	got, ok := cache.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, DensityModerate, got.Density)
	assert.Equal(t, 3.0, got.TotalMeetingsEquivalent)
}

func TestCache_ExpiredEntryIsEvictedOnRead(t *testing.T) {
	cache := NewCache(nil)
	ctx := context.Background()

	cache.mu.Lock()
	cache.memory["stale"] = cacheEntry{
		Result:   Result{Density: DensityBusy},
		StoredAt: time.Now().Add(-CacheTTL - time.Second),
	}
	cache.mu.Unlock()

	_, ok := cache.Get(ctx, "stale")
	assert.False(t, ok)

	cache.mu.Lock()
	_, stillPresent := cache.memory["stale"]
	cache.mu.Unlock()
	assert.False(t, stillPresent)
}

func TestCache_SetSweepsOtherExpiredEntries(t *testing.T) {
	cache := NewCache(nil)
	ctx := context.Background()

	cache.mu.Lock()
	cache.memory["old"] = cacheEntry{
		Result:   Result{Density: DensityLight},
		StoredAt: time.Now().Add(-CacheTTL - time.Minute),
	}
	cache.mu.Unlock()

	cache.Set(ctx, "fresh", Result{Density: DensityBusy})

	cache.mu.Lock()
	_, oldPresent := cache.memory["old"]
	_, freshPresent := cache.memory["fresh"]
	cache.mu.Unlock()

	assert.False(t, oldPresent)
	assert.True(t, freshPresent)
}

func TestKey_IsStableRegardlessOfEventOrder(t *testing.T) {
	req := Request{Date: "2026-08-10", Timezone: "UTC", DetailLevel: "full"}
	a := []calendarevent.Event{{MeetingID: "x"}, {MeetingID: "y"}}
	b := []calendarevent.Event{{MeetingID: "y"}, {MeetingID: "x"}}

	assert.Equal(t, Key(a, req), Key(b, req))
}

func TestKey_DiffersByRequestFields(t *testing.T) {
	events := []calendarevent.Event{{MeetingID: "x"}}
	a := Key(events, Request{Date: "2026-08-10", Timezone: "UTC"})
	b := Key(events, Request{Date: "2026-08-11", Timezone: "UTC"})

	assert.NotEqual(t, a, b)
}
