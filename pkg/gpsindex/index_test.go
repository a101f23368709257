package gpsindex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/watchtrace/watchtrace/pkg/logx"
	"github.com/watchtrace/watchtrace/pkg/window"
)

func testIndex() *Index {
	return NewIndex(logx.NewLogger("error", "test"), window.Policy{
		WindowSize:   20,
		ResizeStep:   5,
		NavigateStep: 5,
	})
}

func f(v float64) *float64 { return &v }

func stampAt(i int) time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Second)
}

// feed pushes one record per coordinate pair, nil meaning no fix on that row.
func feed(x *Index, coords [][2]*float64) {
	x.LoadInit()
	for i, c := range coords {
		x.Extend(c[0], c[1], stampAt(i), true, i)
	}
	x.LoadEnd()
}

func TestExtendDistinctCoordinates(t *testing.T) {
	x := testIndex()
	feed(x, [][2]*float64{
		{f(10.0), f(20.0)},
		{f(10.1), f(20.0)},
		{f(10.2), f(20.0)},
	})

	assert.Equal(t, 3, x.Size())
	for i := 0; i < 3; i++ {
		assert.Equal(t, 1, x.Run(i).Count)
		assert.Equal(t, i, x.Run(i).FirstRow)
		assert.Equal(t, i, x.Run(i).LastRow)
	}
}

func TestExtendRepeatedCoordinates(t *testing.T) {
	x := testIndex()
	feed(x, [][2]*float64{
		{f(10.0), f(20.0)},
		{f(10.0), f(20.0)},
		{f(10.0), f(20.0)},
		{f(10.0), f(20.0)},
	})

	assert.Equal(t, 1, x.Size())
	run := x.Run(0)
	assert.Equal(t, 4, run.Count)
	assert.Equal(t, 0, run.FirstRow)
	assert.Equal(t, 3, run.LastRow)
	assert.Equal(t, stampAt(0), run.StartStamp)
	assert.Equal(t, stampAt(3), run.LastStamp)
}

func TestExtendRunBoundaries(t *testing.T) {
	x := testIndex()
	feed(x, [][2]*float64{
		{f(1.0), f(1.0)},
		{f(1.0), f(1.0)},
		{f(2.0), f(2.0)},
		{f(2.0), f(2.0)},
		{f(2.0), f(2.0)},
	})

	assert.Equal(t, 2, x.Size())

	first := x.Run(0)
	assert.Equal(t, 2, first.Count)
	assert.Equal(t, 0, first.FirstRow)
	assert.Equal(t, 1, first.LastRow)

	second := x.Run(1)
	assert.Equal(t, 3, second.Count)
	assert.Equal(t, 2, second.FirstRow)
	assert.Equal(t, 4, second.LastRow)
	assert.Equal(t, 2.0, second.Latitude)
	assert.Equal(t, 2.0, second.Longitude)
}

func TestExtendSkipsRowsWithoutFix(t *testing.T) {
	x := testIndex()
	feed(x, [][2]*float64{
		{f(1.0), f(1.0)},
		{nil, nil},
		{f(1.0), nil},
		{f(1.0), f(1.0)},
	})

	// Rows without both coordinates do not start or break a run.
	assert.Equal(t, 1, x.Size())
	assert.Equal(t, 2, x.Run(0).Count)
	assert.Equal(t, 3, x.Run(0).LastRow)
}

func TestReturnToEarlierCoordinateStartsNewRun(t *testing.T) {
	x := testIndex()
	feed(x, [][2]*float64{
		{f(1.0), f(1.0)},
		{f(2.0), f(2.0)},
		{f(1.0), f(1.0)},
	})

	assert.Equal(t, 3, x.Size())
}

func TestMarkWindow(t *testing.T) {
	x := testIndex()
	feed(x, [][2]*float64{
		{f(1.0), f(1.0)},
		{f(2.0), f(2.0)},
		{f(3.0), f(3.0)},
	})

	assert.False(t, x.Dirty())
	assert.True(t, x.MarkWindow(false))
	assert.True(t, x.Dirty())
	for i := 0; i < x.Size(); i++ {
		assert.False(t, x.Run(i).IsValid)
	}

	assert.True(t, x.MarkWindow(true))
	for i := 0; i < x.Size(); i++ {
		assert.True(t, x.Run(i).IsValid)
	}

	x.ClearDirty()
	assert.False(t, x.Dirty())
}

func TestMarkWindowEmptyIndex(t *testing.T) {
	x := testIndex()
	assert.False(t, x.MarkWindow(false))
	assert.False(t, x.Dirty())
}

func TestStampsBeforeLoad(t *testing.T) {
	x := testIndex()
	assert.Equal(t, "...", x.FirstStamp())
	assert.Equal(t, "...", x.CurrentStamp())
	assert.Equal(t, "...", x.LastStamp())
}

func TestStampsAfterLoad(t *testing.T) {
	x := testIndex()
	feed(x, [][2]*float64{
		{f(1.0), f(1.0)},
		{f(2.0), f(2.0)},
		{f(2.0), f(2.0)},
	})

	// Window covers all runs; the trailing edge is the last run.
	assert.Equal(t, "2024-03-01 12:00:01.000000", x.CurrentStamp())
	assert.Equal(t, "2024-03-01 12:00:02.000000", x.LastStamp())
}

func TestLoadInitDiscardsState(t *testing.T) {
	x := testIndex()
	feed(x, [][2]*float64{{f(1.0), f(1.0)}})
	x.MarkWindow(false)

	x.LoadInit()
	assert.Equal(t, 0, x.Size())
	assert.False(t, x.Dirty())
	assert.False(t, x.HasData())
	assert.False(t, x.Cursor().Active())
}
