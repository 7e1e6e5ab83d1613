// Package render reveals a large list in bounded-size increments so a
// single paint never has to walk hundreds of rows at once.
package render

import (
	"sync"
	"time"
)

// DefaultStep is the initial and per-tick slice size.
const DefaultStep = 40

// DefaultInterval approximates one animation frame.
const DefaultInterval = 16 * time.Millisecond

// Chunker tracks how many items of the current input sequence are
// visible. Reset starts a new growth run and cancels any pending
// continuation from a previous run, so two growth loops can never race
// on the same visible count.
type Chunker struct {
	mu       sync.Mutex
	step     int
	interval time.Duration
	onGrow   func()

	gen     uint64
	total   int
	visible int
}

// New builds a chunker. interval <= 0 disables self-scheduling; the
// owner then drives growth by calling Grow on its own cadence (a TUI
// frame tick, for instance). onGrow fires after each scheduled growth
// step and may be nil.
func New(step int, interval time.Duration, onGrow func()) *Chunker {
	if step <= 0 {
		step = DefaultStep
	}
	return &Chunker{step: step, interval: interval, onGrow: onGrow}
}

// Reset points the chunker at a new input sequence of length total.
// The visible window shrinks back to the initial slice and, when
// self-scheduling is enabled, growth ticks resume from there.
func (c *Chunker) Reset(total int) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.total = total
	c.visible = min(c.step, total)
	pending := c.visible < c.total && c.interval > 0
	c.mu.Unlock()
	if pending {
		c.schedule(gen)
	}
}

// Visible returns the current visible count.
func (c *Chunker) Visible() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// Done reports whether the full sequence is visible.
func (c *Chunker) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible >= c.total
}

// Grow advances one step and reports whether more remain. Safe to call
// in manual mode only; scheduled mode grows on its own ticks.
func (c *Chunker) Grow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.growLocked()
}

func (c *Chunker) growLocked() bool {
	c.visible += c.step
	if c.visible > c.total {
		c.visible = c.total
	}
	return c.visible < c.total
}

// Stop cancels any pending continuation.
func (c *Chunker) Stop() {
	c.mu.Lock()
	c.gen++
	c.mu.Unlock()
}

func (c *Chunker) schedule(gen uint64) {
	time.AfterFunc(c.interval, func() {
		c.mu.Lock()
		if gen != c.gen {
			// A newer Reset took over; this continuation is stale.
			c.mu.Unlock()
			return
		}
		more := c.growLocked()
		c.mu.Unlock()
		if c.onGrow != nil {
			c.onGrow()
		}
		if more {
			c.schedule(gen)
		}
	})
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
