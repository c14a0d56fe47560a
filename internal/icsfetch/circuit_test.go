package icsfetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuit_OpensAfterThresholdFailures(t *testing.T) {
	c := NewCircuit(3, time.Minute)
	assert.True(t, c.Allow())

	c.RecordFailure()
	c.RecordFailure()
	assert.Equal(t, CircuitClosed, c.State())
	assert.True(t, c.Allow())

	c.RecordFailure()
	assert.Equal(t, CircuitOpen, c.State())
	assert.False(t, c.Allow())
}

func TestCircuit_SuccessResetsFailureCount(t *testing.T) {
	c := NewCircuit(3, time.Minute)
	c.RecordFailure()
	c.RecordFailure()
	c.RecordSuccess()
	assert.Equal(t, CircuitClosed, c.State())

	c.RecordFailure()
	c.RecordFailure()
	assert.Equal(t, CircuitClosed, c.State())
	assert.True(t, c.Allow())
}

func TestCircuit_HalfOpenAfterCooldownThenClosesOnSuccess(t *testing.T) {
	c := NewCircuit(1, 10*time.Millisecond)
	c.RecordFailure()
	assert.Equal(t, CircuitOpen, c.State())
	assert.False(t, c.Allow())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, c.Allow())
	assert.Equal(t, CircuitHalfOpen, c.State())

	c.RecordSuccess()
	assert.Equal(t, CircuitClosed, c.State())
}

func TestCircuit_FailedHalfOpenProbeReopens(t *testing.T) {
	c := NewCircuit(1, 10*time.Millisecond)
	c.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	assert.True(t, c.Allow())
	assert.Equal(t, CircuitHalfOpen, c.State())

	c.RecordFailure()
	assert.Equal(t, CircuitOpen, c.State())
}

func TestNewCircuit_NonPositiveThresholdDefaultsToThree(t *testing.T) {
	c := NewCircuit(0, time.Minute)
	c.RecordFailure()
	c.RecordFailure()
	assert.Equal(t, CircuitClosed, c.State())
	c.RecordFailure()
	assert.Equal(t, CircuitOpen, c.State())
}
