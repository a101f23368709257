// Package reconcile propagates validity edits made on the GPS run index back
// onto the individual row store records each run summarizes.
package reconcile

import (
	"fmt"

	"github.com/watchtrace/watchtrace/pkg/dataset"
	"github.com/watchtrace/watchtrace/pkg/gpsindex"
	"github.com/watchtrace/watchtrace/pkg/logx"
	"github.com/watchtrace/watchtrace/pkg/mobiledata"
)

// Engine reconciles GPS run edits with the row store before a save.
type Engine struct {
	logger *logx.Logger
}

// NewEngine creates a new merge engine.
func NewEngine(logger *logx.Logger) *Engine {
	return &Engine{logger: logger}
}

// Merge writes the validity flag of every GPS run into the records it
// covers. A clean index is a no-op reported through the progress callback.
// Returns whether anything was merged. After a merge the row store carries
// the pending changes (sensor dirty) and the index is clean; callers must
// run Merge before Store.Save or GPS edits are silently dropped.
func (e *Engine) Merge(store *dataset.Store, idx *gpsindex.Index, progress dataset.ProgressFunc) bool {
	if !idx.Dirty() {
		e.logger.Info("No changes to GPS validity, nothing to merge")
		if progress != nil {
			progress("No changes to GPS validity, nothing to merge.")
		}
		return false
	}

	total := store.Size()
	for _, run := range idx.Runs() {
		if progress != nil {
			progress(fmt.Sprintf("Merging GPS changes into sensor data...\nAt %.1f%% of data.\n%s",
				percentOf(run.FirstRow, total), run.StartStamp.Format(mobiledata.StampFormat)))
		}
		store.ApplyValidity(run.FirstRow, run.LastRow, run.IsValid)
	}

	idx.ClearDirty()
	e.logger.Info("GPS validity merged", "runs", idx.Size(), "rows", total)
	return true
}

func percentOf(i, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(int(1000*i/n)) / 10
}
