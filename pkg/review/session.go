// Package review ties the row store, the GPS run index and the merge engine
// together behind one session with an active review mode, the way the shell
// consumes them.
package review

import (
	"github.com/watchtrace/watchtrace/pkg/config"
	"github.com/watchtrace/watchtrace/pkg/dataset"
	"github.com/watchtrace/watchtrace/pkg/gpsindex"
	"github.com/watchtrace/watchtrace/pkg/logx"
	"github.com/watchtrace/watchtrace/pkg/reconcile"
)

// Mode selects which of the two parallel views navigation and edits act on.
type Mode string

const (
	ModeSensors Mode = "sensors"
	ModeGPS     Mode = "gps"
)

// Session owns the loaded dataset and dispatches operations to the cursor of
// the active mode. All operations are synchronous; callers must not start a
// second load/save while one is in flight.
type Session struct {
	logger *logx.Logger
	store  *dataset.Store
	index  *gpsindex.Index
	engine *reconcile.Engine
	mode   Mode
}

// NewSession creates a session with cursors configured from cfg.
func NewSession(cfg *config.Config, logger *logx.Logger) *Session {
	return &Session{
		logger: logger,
		store:  dataset.NewStore(logger, cfg.SensorPolicy()),
		index:  gpsindex.NewIndex(logger, cfg.GPSPolicy()),
		engine: reconcile.NewEngine(logger),
		mode:   ModeSensors,
	}
}

// Store returns the row store.
func (s *Session) Store() *dataset.Store { return s.store }

// Index returns the GPS run index.
func (s *Session) Index() *gpsindex.Index { return s.index }

// Mode returns the active review mode.
func (s *Session) Mode() Mode { return s.mode }

// SetMode switches the active review mode. Unknown modes are ignored.
func (s *Session) SetMode(mode Mode) {
	if mode == ModeSensors || mode == ModeGPS {
		s.mode = mode
	}
}

// ToggleMode flips between the sensor and GPS views.
func (s *Session) ToggleMode() {
	if s.mode == ModeSensors {
		s.mode = ModeGPS
	} else {
		s.mode = ModeSensors
	}
}

// HasData reports whether either view has data loaded.
func (s *Session) HasData() bool {
	return s.store.HasData() || s.index.HasData()
}

// Dirty reports whether unpersisted edits exist on either layer.
func (s *Session) Dirty() bool {
	return s.store.Dirty() || s.index.Dirty()
}

// StepForward advances the active cursor.
func (s *Session) StepForward() bool {
	if s.mode == ModeGPS {
		return s.index.Cursor().StepForward()
	}
	return s.store.Cursor().StepForward()
}

// StepBackward moves the active cursor back.
func (s *Session) StepBackward() bool {
	if s.mode == ModeGPS {
		return s.index.Cursor().StepBackward()
	}
	return s.store.Cursor().StepBackward()
}

// GrowWindow widens the active window.
func (s *Session) GrowWindow() bool {
	if s.mode == ModeGPS {
		return s.index.Cursor().Grow()
	}
	return s.store.Cursor().Grow()
}

// ShrinkWindow narrows the active window.
func (s *Session) ShrinkWindow() bool {
	if s.mode == ModeGPS {
		return s.index.Cursor().Shrink()
	}
	return s.store.Cursor().Shrink()
}

// GotoFraction seeks the active cursor to a fractional position.
func (s *Session) GotoFraction(f float64) bool {
	if s.mode == ModeGPS {
		return s.index.Cursor().GotoFraction(f)
	}
	return s.store.Cursor().GotoFraction(f)
}

// Annotate labels the current sensor window. Only available in sensors mode.
func (s *Session) Annotate(label string) bool {
	if s.mode != ModeSensors {
		return false
	}
	return s.store.Annotate(label)
}

// RemoveAnnotation clears labels on the current sensor window. Only
// available in sensors mode.
func (s *Session) RemoveAnnotation() bool {
	if s.mode != ModeSensors {
		return false
	}
	return s.store.RemoveAnnotation()
}

// AddNote attaches a note at the trailing edge of the current sensor window.
// Only available in sensors mode.
func (s *Session) AddNote(text string) bool {
	if s.mode != ModeSensors || !s.store.HasData() {
		return false
	}
	return s.store.AddNote(text)
}

// MarkWindowValid flags every GPS run in the current window valid. Only
// available in GPS mode.
func (s *Session) MarkWindowValid() bool {
	if s.mode != ModeGPS {
		return false
	}
	return s.index.MarkWindow(true)
}

// MarkWindowInvalid flags every GPS run in the current window invalid. Only
// available in GPS mode.
func (s *Session) MarkWindowInvalid() bool {
	if s.mode != ModeGPS {
		return false
	}
	return s.index.MarkWindow(false)
}

// FirstStamp returns the first-window stamp of the active view.
func (s *Session) FirstStamp() string {
	if s.mode == ModeGPS {
		return s.index.FirstStamp()
	}
	return s.store.FirstStamp()
}

// CurrentStamp returns the current-window stamp of the active view.
func (s *Session) CurrentStamp() string {
	if s.mode == ModeGPS {
		return s.index.CurrentStamp()
	}
	return s.store.CurrentStamp()
}

// LastStamp returns the final stamp of the active view.
func (s *Session) LastStamp() string {
	if s.mode == ModeGPS {
		return s.index.LastStamp()
	}
	return s.store.LastStamp()
}

// Fraction returns the current cursor position of the active view as a
// fraction of its navigable range, for the progress readout.
func (s *Session) Fraction() float64 {
	c := s.store.Cursor()
	if s.mode == ModeGPS {
		c = s.index.Cursor()
	}
	if !c.Active() || c.Size() <= c.Length() {
		return 0
	}
	return float64(c.Start()) / float64(c.Size()-c.Length())
}

// Load reads a data file into the session, rebuilding both views. The done
// callback runs once at the end of a successful load.
func (s *Session) Load(path string, progress dataset.ProgressFunc, done func()) error {
	if err := s.store.Load(path, s.index, progress); err != nil {
		return err
	}
	if done != nil {
		done()
	}
	return nil
}

// Save persists the session to a data file. Pending GPS edits are always
// merged into the row store first, so a save never silently drops them. The
// done callback runs once at the end, no-op saves included.
func (s *Session) Save(path string, progress dataset.ProgressFunc, done func()) error {
	s.engine.Merge(s.store, s.index, progress)
	err := s.store.Save(path, progress)
	if err == nil && done != nil {
		done()
	}
	return err
}

// ApplyConfig re-applies cursor geometry from cfg to both cursors, clamped
// against the loaded data, and writes the effective values back into the
// returned snapshot.
func (s *Session) ApplyConfig(cfg *config.Config) *config.Config {
	out := *cfg
	out.SetSensorPolicy(s.store.Cursor().ApplySizePolicy(cfg.SensorPolicy()))
	out.SetGPSPolicy(s.index.Cursor().ApplySizePolicy(cfg.GPSPolicy()))
	return &out
}
