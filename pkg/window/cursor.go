// Package window implements the movable, resizable viewing window shared by
// the sensor and GPS review cursors.
package window

import "math"

// Policy carries the configured geometry for a cursor: the window length and
// the two step rates. ApplySizePolicy clamps a Policy against the loaded
// sequence and returns the effective values, so callers can persist what was
// actually applied.
type Policy struct {
	WindowSize   int
	ResizeStep   int
	NavigateStep int
}

// Cursor tracks a window (start index + length) over a loaded sequence and
// guards every move against the window invariant: 0 <= start,
// start+length <= size, length >= 1. A cursor starts empty; navigation on an
// empty cursor fails without changing state.
type Cursor struct {
	active bool
	size   int
	start  int
	length int

	resizeStep   int
	navigateStep int
	configured   Policy

	// endExclusive keeps the forward step from landing the window flush
	// against the end of the sequence (start+length+step < size instead of
	// <=). The GPS cursor carries this historical boundary condition; it also
	// switches seeking to the raw floor(f*size) form.
	endExclusive bool
}

// New creates an empty cursor with the given configured geometry.
func New(p Policy) *Cursor {
	c := &Cursor{configured: p}
	c.resizeStep = p.ResizeStep
	c.navigateStep = p.NavigateStep
	c.length = p.WindowSize
	return c
}

// SetEndExclusive switches the cursor to the exclusive forward bound and raw
// seek form.
func (c *Cursor) SetEndExclusive(v bool) { c.endExclusive = v }

// Active reports whether data is loaded behind the cursor.
func (c *Cursor) Active() bool { return c.active }

// Size returns the length of the underlying sequence.
func (c *Cursor) Size() int { return c.size }

// Start returns the window start index.
func (c *Cursor) Start() int { return c.start }

// Length returns the window length.
func (c *Cursor) Length() int { return c.length }

// End returns the exclusive end index of the window.
func (c *Cursor) End() int { return c.start + c.length }

// NavigateStep returns the effective navigation step.
func (c *Cursor) NavigateStep() int { return c.navigateStep }

// ResizeStep returns the effective resize step.
func (c *Cursor) ResizeStep() int { return c.resizeStep }

// Reset returns the cursor to the empty state. Called at the start of a new
// load.
func (c *Cursor) Reset() {
	c.active = false
	c.size = 0
	c.start = 0
	c.length = c.configured.WindowSize
	c.resizeStep = c.configured.ResizeStep
	c.navigateStep = c.configured.NavigateStep
}

// Activate transitions the cursor to the active state over a sequence of the
// given size, restoring and clamping the configured geometry. A size below 1
// leaves the cursor empty.
func (c *Cursor) Activate(size int) Policy {
	c.Reset()
	if size < 1 {
		return Policy{}
	}
	c.size = size
	c.active = true
	return c.ApplySizePolicy(c.configured)
}

// ApplySizePolicy installs the given geometry, clamped so the cursor stays
// representable on the loaded sequence: the window length never exceeds the
// data size, and either step rate larger than the data collapses to half of
// it. Returns the effective policy.
func (c *Cursor) ApplySizePolicy(p Policy) Policy {
	if p.WindowSize < 1 {
		p.WindowSize = 1
	}
	c.configured = p
	c.length = p.WindowSize
	c.resizeStep = p.ResizeStep
	c.navigateStep = p.NavigateStep

	if c.active {
		if c.size < c.length {
			c.length = c.size
		}
		if c.size < c.resizeStep {
			c.resizeStep = c.size / 2
		}
		if c.size < c.navigateStep {
			c.navigateStep = c.size / 2
		}
		if c.start+c.length > c.size {
			c.start = c.size - c.length
		}
	}

	return Policy{
		WindowSize:   c.length,
		ResizeStep:   c.resizeStep,
		NavigateStep: c.navigateStep,
	}
}

// forwardSlack is 1 for end-exclusive cursors, keeping start+length strictly
// below size after a forward step.
func (c *Cursor) forwardSlack() int {
	if c.endExclusive {
		return 1
	}
	return 0
}

// StepForward advances the window by the navigation step. Returns false when
// the move would run past the end of the sequence.
func (c *Cursor) StepForward() bool {
	if !c.active {
		return false
	}
	if c.start+c.length+c.navigateStep+c.forwardSlack() > c.size {
		return false
	}
	c.start += c.navigateStep
	return true
}

// StepBackward moves the window back by the navigation step. Returns false
// when the move would go below zero.
func (c *Cursor) StepBackward() bool {
	if !c.active {
		return false
	}
	if c.start-c.navigateStep < 0 {
		return false
	}
	c.start -= c.navigateStep
	return true
}

// Grow extends the window by the resize step if it still fits from the
// current start index.
func (c *Cursor) Grow() bool {
	if !c.active {
		return false
	}
	if c.start+c.length+c.resizeStep > c.size {
		return false
	}
	c.length += c.resizeStep
	return true
}

// Shrink reduces the window by the resize step, never below one element.
func (c *Cursor) Shrink() bool {
	if !c.active {
		return false
	}
	if c.length-c.resizeStep < 1 {
		return false
	}
	c.length -= c.resizeStep
	return true
}

// GotoFraction seeks to an absolute position expressed as a fraction of the
// sequence. Fractions outside [0,1] are a no-op. The inclusive form maps f
// over the navigable range (size-length); the end-exclusive form uses the raw
// floor(f*size) position, clamped so the window invariant holds.
func (c *Cursor) GotoFraction(f float64) bool {
	if !c.active || f < 0.0 || f > 1.0 {
		return false
	}
	if c.endExclusive {
		start := int(math.Floor(f * float64(c.size)))
		if start > c.size-c.length {
			start = c.size - c.length
		}
		c.start = start
		return true
	}
	c.start = int(math.Floor(f * float64(c.size-c.length)))
	return true
}
