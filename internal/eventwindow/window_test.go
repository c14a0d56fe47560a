package eventwindow

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bencan1a/calendarlite/internal/calendarevent"
)

func TestStore_NewStoreStartsEmpty(t *testing.T) {
	s := NewStore()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Snapshot().Events)
}

func TestStore_SwapReplacesAtomically(t *testing.T) {
	s := NewStore()
	now := time.Now()

	w := &Window{
		Events:      []calendarevent.Event{{MeetingID: "a", Start: now}},
		AllEvents:   []calendarevent.Event{{MeetingID: "a", Start: now}, {MeetingID: "b", Start: now.Add(time.Hour)}},
		LastSuccess: now,
	}
	s.Swap(w)

	snap := s.Snapshot()
	require.Len(t, snap.Events, 1)
	require.Len(t, snap.AllEvents, 2)
	assert.Equal(t, 1, s.Len())
}

func TestStore_SnapshotDuringConcurrentSwapNeverObservesPartialState(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			events := make([]calendarevent.Event, n%5+1)
			s.Swap(&Window{Events: events, AllEvents: events})
		}(i)
	}

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap := s.Snapshot()
			assert.Equal(t, len(snap.Events), len(snap.AllEvents))
		}()
	}

	wg.Wait()
}
