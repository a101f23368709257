package window

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func activeCursor(t *testing.T, size int, p Policy) *Cursor {
	t.Helper()
	c := New(p)
	c.Activate(size)
	assert.True(t, c.Active())
	return c
}

func TestEmptyCursorNavigationFails(t *testing.T) {
	c := New(Policy{WindowSize: 10, ResizeStep: 2, NavigateStep: 2})

	assert.False(t, c.Active())
	assert.False(t, c.StepForward())
	assert.False(t, c.StepBackward())
	assert.False(t, c.Grow())
	assert.False(t, c.Shrink())
	assert.False(t, c.GotoFraction(0.5))
	assert.Equal(t, 0, c.Start())
}

func TestActivateEmptySequenceStaysEmpty(t *testing.T) {
	c := New(Policy{WindowSize: 10, ResizeStep: 2, NavigateStep: 2})
	c.Activate(0)
	assert.False(t, c.Active())
}

func TestStepForwardBackwardRestoresStart(t *testing.T) {
	c := activeCursor(t, 100, Policy{WindowSize: 20, ResizeStep: 5, NavigateStep: 5})

	start := c.Start()
	assert.True(t, c.StepForward())
	assert.Equal(t, start+5, c.Start())
	assert.True(t, c.StepBackward())
	assert.Equal(t, start, c.Start())
}

func TestGrowShrinkRestoresLength(t *testing.T) {
	c := activeCursor(t, 100, Policy{WindowSize: 20, ResizeStep: 5, NavigateStep: 5})

	length := c.Length()
	assert.True(t, c.Grow())
	assert.Equal(t, length+5, c.Length())
	assert.True(t, c.Shrink())
	assert.Equal(t, length, c.Length())
}

func TestStepForwardBoundaryInclusive(t *testing.T) {
	// Window may land flush against the end of the sequence.
	c := activeCursor(t, 30, Policy{WindowSize: 10, ResizeStep: 5, NavigateStep: 10})

	assert.True(t, c.StepForward())  // 10..20
	assert.True(t, c.StepForward())  // 20..30, flush with end
	assert.False(t, c.StepForward()) // would overrun
	assert.Equal(t, 20, c.Start())
}

func TestStepForwardBoundaryExclusive(t *testing.T) {
	// The end-exclusive cursor refuses the flush-with-end position.
	c := New(Policy{WindowSize: 10, ResizeStep: 5, NavigateStep: 10})
	c.SetEndExclusive(true)
	c.Activate(30)

	assert.True(t, c.StepForward())  // 10..20
	assert.False(t, c.StepForward()) // 20..30 would touch the end
	assert.Equal(t, 10, c.Start())
}

func TestStepBackwardStopsAtZero(t *testing.T) {
	c := activeCursor(t, 100, Policy{WindowSize: 20, ResizeStep: 5, NavigateStep: 30})

	assert.False(t, c.StepBackward())
	assert.Equal(t, 0, c.Start())
}

func TestShrinkKeepsAtLeastOneElement(t *testing.T) {
	c := activeCursor(t, 100, Policy{WindowSize: 5, ResizeStep: 5, NavigateStep: 5})

	assert.False(t, c.Shrink())
	assert.Equal(t, 5, c.Length())
}

func TestGrowStopsAtSequenceEnd(t *testing.T) {
	c := activeCursor(t, 25, Policy{WindowSize: 20, ResizeStep: 10, NavigateStep: 5})

	assert.False(t, c.Grow())
	assert.Equal(t, 20, c.Length())
}

func TestGotoFraction(t *testing.T) {
	c := activeCursor(t, 100, Policy{WindowSize: 20, ResizeStep: 5, NavigateStep: 5})

	assert.True(t, c.GotoFraction(0.0))
	assert.Equal(t, 0, c.Start())
	assert.True(t, c.GotoFraction(1.0))
	assert.Equal(t, 80, c.Start())
	assert.True(t, c.GotoFraction(0.5))
	assert.Equal(t, 40, c.Start())

	assert.False(t, c.GotoFraction(-0.1))
	assert.False(t, c.GotoFraction(1.1))
	assert.Equal(t, 40, c.Start())
}

func TestGotoFractionExclusiveClampsToInvariant(t *testing.T) {
	c := New(Policy{WindowSize: 10, ResizeStep: 2, NavigateStep: 2})
	c.SetEndExclusive(true)
	c.Activate(100)

	assert.True(t, c.GotoFraction(1.0))
	assert.LessOrEqual(t, c.Start()+c.Length(), c.Size())
	assert.Equal(t, 90, c.Start())

	assert.True(t, c.GotoFraction(0.5))
	assert.Equal(t, 50, c.Start())
}

func TestApplySizePolicyClampsToSmallData(t *testing.T) {
	c := New(Policy{WindowSize: 500, ResizeStep: 10, NavigateStep: 10})
	applied := c.Activate(8)

	assert.Equal(t, 8, c.Length())
	assert.Equal(t, 4, c.ResizeStep())
	assert.Equal(t, 4, c.NavigateStep())
	assert.Equal(t, Policy{WindowSize: 8, ResizeStep: 4, NavigateStep: 4}, applied)
}

func TestApplySizePolicyKeepsLargeDataUntouched(t *testing.T) {
	c := New(Policy{WindowSize: 500, ResizeStep: 10, NavigateStep: 10})
	applied := c.Activate(10000)

	assert.Equal(t, Policy{WindowSize: 500, ResizeStep: 10, NavigateStep: 10}, applied)
}

func TestApplySizePolicyPullsWindowBackIntoRange(t *testing.T) {
	c := activeCursor(t, 100, Policy{WindowSize: 10, ResizeStep: 5, NavigateStep: 10})
	assert.True(t, c.GotoFraction(1.0))
	assert.Equal(t, 90, c.Start())

	c.ApplySizePolicy(Policy{WindowSize: 40, ResizeStep: 5, NavigateStep: 10})
	assert.Equal(t, 60, c.Start())
	assert.Equal(t, 40, c.Length())
}

func TestInvariantHoldsUnderRandomNavigation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, exclusive := range []bool{false, true} {
		c := New(Policy{WindowSize: 17, ResizeStep: 3, NavigateStep: 4})
		c.SetEndExclusive(exclusive)
		c.Activate(93)

		for i := 0; i < 5000; i++ {
			switch rng.Intn(6) {
			case 0:
				c.StepForward()
			case 1:
				c.StepBackward()
			case 2:
				c.Grow()
			case 3:
				c.Shrink()
			case 4:
				c.GotoFraction(rng.Float64())
			case 5:
				c.GotoFraction(rng.Float64()*3 - 1)
			}

			assert.GreaterOrEqual(t, c.Start(), 0)
			assert.LessOrEqual(t, c.Start()+c.Length(), c.Size())
			assert.GreaterOrEqual(t, c.Length(), 1)
		}
	}
}
