package render

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManualGrowthCompletesInCeilTicks(t *testing.T) {
	const n, step = 205, 40
	c := New(step, 0, nil)
	c.Reset(n)
	require.Equal(t, step, c.Visible())

	ticks := 0
	for !c.Done() {
		c.Grow()
		ticks++
	}
	require.Equal(t, n, c.Visible())
	// ceil(205/40) == 6 slices; the first is free, five growth ticks.
	require.Equal(t, 5, ticks)
}

func TestResetClampsSmallInputs(t *testing.T) {
	c := New(40, 0, nil)
	c.Reset(7)
	require.Equal(t, 7, c.Visible())
	require.True(t, c.Done())

	c.Reset(0)
	require.Zero(t, c.Visible())
	require.True(t, c.Done())
}

func TestResetCancelsPendingContinuation(t *testing.T) {
	var grows atomic.Int32
	c := New(10, 5*time.Millisecond, func() { grows.Add(1) })
	c.Reset(1000)

	// Let a few ticks land, then switch inputs.
	time.Sleep(30 * time.Millisecond)
	c.Reset(20)

	// Only one growth loop may run: after the second Reset settles the
	// visible count stays exactly at 20 (10 initial + one grow step).
	deadline := time.After(2 * time.Second)
	for c.Visible() != 20 {
		select {
		case <-deadline:
			t.Fatalf("visible=%d, want 20", c.Visible())
		case <-time.After(5 * time.Millisecond):
		}
	}
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, 20, c.Visible(), "stale continuation must not keep growing")
}

func TestScheduledGrowthReachesTotal(t *testing.T) {
	done := make(chan struct{}, 1)
	var c *Chunker
	c = New(25, time.Millisecond, func() {
		if c.Done() {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	})
	c.Reset(120)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("growth never completed")
	}
	require.Equal(t, 120, c.Visible())
}

func TestStopHaltsGrowth(t *testing.T) {
	c := New(10, time.Millisecond, nil)
	c.Reset(1000)
	time.Sleep(10 * time.Millisecond)
	c.Stop()
	v := c.Visible()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, v, c.Visible())
}
