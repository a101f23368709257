// Package gpsindex maintains the compacted GPS fix view of a sensor log: one
// run per maximal stretch of consecutive rows sharing a coordinate pair, each
// run keeping the row-index range it summarizes.
package gpsindex

import (
	"time"

	"github.com/watchtrace/watchtrace/pkg/logx"
	"github.com/watchtrace/watchtrace/pkg/mobiledata"
	"github.com/watchtrace/watchtrace/pkg/window"
)

// Run is a maximal run of consecutive records with identical coordinates.
// FirstRow/LastRow are inclusive back-references into the row store.
type Run struct {
	Longitude  float64
	Latitude   float64
	StartStamp time.Time
	LastStamp  time.Time
	Count      int
	IsValid    bool
	FirstRow   int
	LastRow    int
}

// Index owns the run sequence and the GPS review cursor over it.
type Index struct {
	logger *logx.Logger
	runs   []Run
	cursor *window.Cursor
	dirty  bool

	curLat     float64
	curLon     float64
	hasCurrent bool
}

// NewIndex creates an empty index with the given cursor geometry.
func NewIndex(logger *logx.Logger, p window.Policy) *Index {
	cursor := window.New(p)
	cursor.SetEndExclusive(true)
	return &Index{logger: logger, cursor: cursor}
}

// Cursor returns the GPS window cursor.
func (x *Index) Cursor() *window.Cursor { return x.cursor }

// Size returns the number of runs.
func (x *Index) Size() int { return len(x.runs) }

// HasData reports whether any run was built.
func (x *Index) HasData() bool { return len(x.runs) > 0 }

// Dirty reports whether validity edits are pending a merge.
func (x *Index) Dirty() bool { return x.dirty }

// ClearDirty is called by the merge engine once edits have been propagated.
func (x *Index) ClearDirty() { x.dirty = false }

// Runs returns the run sequence. The slice is owned by the index; callers
// must not mutate it.
func (x *Index) Runs() []Run { return x.runs }

// Run returns the run at the given position.
func (x *Index) Run(i int) Run { return x.runs[i] }

// LoadInit discards all runs at the start of a new load.
func (x *Index) LoadInit() {
	x.runs = nil
	x.dirty = false
	x.hasCurrent = false
	x.cursor.Reset()
}

// Extend feeds one record into run construction during load. A new run
// starts when both coordinates are present and differ from the current run;
// a repeat of the current coordinates grows the run. Records without a fix
// leave the runs untouched.
func (x *Index) Extend(lat, lon *float64, stamp time.Time, valid bool, row int) {
	if lat == nil || lon == nil {
		return
	}
	if !x.hasCurrent || *lat != x.curLat || *lon != x.curLon {
		x.runs = append(x.runs, Run{
			Longitude:  *lon,
			Latitude:   *lat,
			StartStamp: stamp,
			LastStamp:  stamp,
			Count:      1,
			IsValid:    valid,
			FirstRow:   row,
			LastRow:    row,
		})
		x.curLat = *lat
		x.curLon = *lon
		x.hasCurrent = true
		return
	}
	last := &x.runs[len(x.runs)-1]
	last.Count++
	last.LastStamp = stamp
	last.LastRow = row
}

// LoadEnd finalizes the index after load, activating the cursor over the run
// sequence.
func (x *Index) LoadEnd() window.Policy {
	applied := x.cursor.Activate(len(x.runs))
	x.logger.Debug("GPS index built", "runs", len(x.runs), "window", applied.WindowSize)
	return applied
}

// MarkWindow sets the validity flag on every run touched by the current GPS
// window and marks the index dirty. Marking an empty index is a no-op.
func (x *Index) MarkWindow(valid bool) bool {
	if !x.cursor.Active() || len(x.runs) == 0 {
		return false
	}
	end := x.cursor.End()
	if end > len(x.runs) {
		end = len(x.runs)
	}
	for i := x.cursor.Start(); i < end; i++ {
		x.runs[i].IsValid = valid
	}
	x.dirty = true
	x.logger.Debug("GPS window marked", "valid", valid, "from", x.cursor.Start(), "to", end-1)
	return true
}

// FirstStamp returns the stamp at the trailing edge of the first window
// position, or a placeholder when empty.
func (x *Index) FirstStamp() string {
	if !x.cursor.Active() {
		return "..."
	}
	return x.runs[x.cursor.Length()-1].StartStamp.Format(mobiledata.StampFormat)
}

// CurrentStamp returns the stamp at the trailing edge of the current window.
func (x *Index) CurrentStamp() string {
	if !x.cursor.Active() {
		return "..."
	}
	return x.runs[x.cursor.End()-1].StartStamp.Format(mobiledata.StampFormat)
}

// LastStamp returns the stamp of the final run.
func (x *Index) LastStamp() string {
	if !x.cursor.Active() {
		return "..."
	}
	return x.runs[len(x.runs)-1].LastStamp.Format(mobiledata.StampFormat)
}
