package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchtrace/watchtrace/pkg/gpsindex"
	"github.com/watchtrace/watchtrace/pkg/logx"
	"github.com/watchtrace/watchtrace/pkg/window"
)

const basicFile = `stamp,yaw,latitude,longitude
dt,f,f,f
2024-03-01 12:00:00.000000,0.10,10.5,20.5
2024-03-01 12:00:01.000000,0.20,10.5,20.5
2024-03-01 12:00:02.000000,,10.6,20.5
2024-03-01 12:00:03.000000,0.40,10.6,20.5
2024-03-01 12:00:04.000000,0.50,10.7,20.5
`

const labeledFile = `stamp,yaw,latitude,longitude,user_activity_label,is_gps_valid
dt,f,f,f,s,s
2024-03-01 12:00:00.000000,0.10,10.5,20.5,Walk,1
2024-03-01 12:00:01.000000,0.20,10.5,20.5,Walk,0
2024-03-01 12:00:02.000000,0.30,10.6,20.5,Run,1
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testPolicy() window.Policy {
	return window.Policy{WindowSize: 3, ResizeStep: 1, NavigateStep: 1}
}

func newTestStore(t *testing.T, content string) (*Store, *gpsindex.Index) {
	t.Helper()
	logger := logx.NewLogger("error", "test")
	store := NewStore(logger, testPolicy())
	idx := gpsindex.NewIndex(logger, testPolicy())
	require.NoError(t, store.Load(writeFixture(t, content), idx, nil))
	return store, idx
}

func TestLoadAddsReservedFields(t *testing.T) {
	store, idx := newTestStore(t, basicFile)

	assert.Equal(t, 5, store.Size())
	assert.True(t, store.HasData())
	assert.False(t, store.Dirty())

	for _, field := range []string{FieldUserLabel, FieldActivityLabel, FieldGPSValid, FieldNotes} {
		assert.True(t, store.Schema().Has(field), field)
	}

	// No validity column in the file, so every row defaults to valid.
	for i := 0; i < store.Size(); i++ {
		assert.True(t, store.GPSValid(i))
	}

	// Three distinct coordinate pairs.
	assert.Equal(t, 3, idx.Size())
	assert.Equal(t, 2, idx.Run(0).Count)
	assert.Equal(t, 1, idx.Run(0).LastRow)
}

func TestLoadKeepsExistingReservedFields(t *testing.T) {
	store, _ := newTestStore(t, labeledFile)

	label, ok := store.Str(0, FieldUserLabel)
	assert.True(t, ok)
	assert.Equal(t, "Walk", label)

	assert.True(t, store.GPSValid(0))
	assert.False(t, store.GPSValid(1))
	assert.True(t, store.GPSValid(2))

	assert.Equal(t, []string{"Run", "Walk"}, store.Labels())
}

func TestLoadTypedValues(t *testing.T) {
	store, _ := newTestStore(t, basicFile)

	yaw, ok := store.Float(0, "yaw")
	assert.True(t, ok)
	assert.InDelta(t, 0.10, yaw, 1e-9)

	// Empty cell stays absent.
	assert.Nil(t, store.Value(2, "yaw"))

	want := time.Date(2024, 3, 1, 12, 0, 3, 0, time.UTC)
	assert.Equal(t, want, store.Stamp(3))
}

func TestLoadBadFileLeavesStoreEmpty(t *testing.T) {
	logger := logx.NewLogger("error", "test")
	store := NewStore(logger, testPolicy())
	idx := gpsindex.NewIndex(logger, testPolicy())

	bad := "stamp,yaw\ndt,f\n2024-03-01 12:00:00.000000,not-a-number\n"
	err := store.Load(writeFixture(t, bad), idx, nil)
	assert.Error(t, err)
	assert.False(t, store.HasData())
	assert.Equal(t, 0, store.Size())
	assert.Equal(t, 0, idx.Size())
}

func TestAnnotateWindow(t *testing.T) {
	store, _ := newTestStore(t, basicFile)

	assert.True(t, store.Annotate("Cook"))
	assert.True(t, store.Dirty())

	// Window is rows 0..2.
	for i := 0; i < 3; i++ {
		label, ok := store.Str(i, FieldUserLabel)
		assert.True(t, ok)
		assert.Equal(t, "Cook", label)
	}
	assert.Nil(t, store.Value(3, FieldUserLabel))
	assert.Contains(t, store.Labels(), "Cook")
}

func TestRemoveAnnotation(t *testing.T) {
	store, _ := newTestStore(t, basicFile)

	store.Annotate("Cook")
	assert.True(t, store.RemoveAnnotation())
	for i := 0; i < 3; i++ {
		assert.Nil(t, store.Value(i, FieldUserLabel))
	}
}

func TestAnnotateRangeBounds(t *testing.T) {
	store, _ := newTestStore(t, basicFile)

	assert.False(t, store.AnnotateRange(-1, 2, "X"))
	assert.False(t, store.AnnotateRange(0, 99, "X"))
	assert.False(t, store.AnnotateRange(3, 1, "X"))
	assert.False(t, store.Dirty())
}

func TestAddNote(t *testing.T) {
	store, _ := newTestStore(t, basicFile)

	assert.True(t, store.AddNote("left the phone at home"))
	note, ok := store.Str(2, FieldNotes)
	assert.True(t, ok)
	assert.Equal(t, "left the phone at home", note)
	assert.True(t, store.Dirty())

	// Empty text clears the note.
	assert.True(t, store.AddNote(""))
	assert.Nil(t, store.Value(2, FieldNotes))
}

func TestApplyValidityClampsRange(t *testing.T) {
	store, _ := newTestStore(t, basicFile)

	store.ApplyValidity(-3, 99, false)
	for i := 0; i < store.Size(); i++ {
		assert.False(t, store.GPSValid(i))
	}
	assert.True(t, store.Dirty())
}

func TestSaveCleanStoreIsNoOp(t *testing.T) {
	store, _ := newTestStore(t, basicFile)

	var msgs []string
	out := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, store.Save(out, func(m string) { msgs = append(msgs, m) }))

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "nothing to save")
}

func TestSaveRoundTrip(t *testing.T) {
	store, idx := newTestStore(t, basicFile)

	store.Annotate("Cook")
	store.AddNote("checking in")
	store.ApplyValidity(3, 4, false)

	out := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, store.Save(out, nil))
	assert.False(t, store.Dirty())

	logger := logx.NewLogger("error", "test")
	reloaded := NewStore(logger, testPolicy())
	require.NoError(t, reloaded.Load(out, idx, nil))

	assert.Equal(t, 5, reloaded.Size())
	label, _ := reloaded.Str(0, FieldUserLabel)
	assert.Equal(t, "Cook", label)
	note, _ := reloaded.Str(2, FieldNotes)
	assert.Equal(t, "checking in", note)
	assert.Nil(t, reloaded.Value(2, "yaw"))
	assert.True(t, reloaded.GPSValid(2))
	assert.False(t, reloaded.GPSValid(3))
	assert.False(t, reloaded.GPSValid(4))
	assert.Equal(t, store.Stamp(4), reloaded.Stamp(4))
}

func TestStampReadouts(t *testing.T) {
	store, _ := newTestStore(t, basicFile)

	assert.Equal(t, "2024-03-01 12:00:02.000000", store.FirstStamp())
	assert.Equal(t, "2024-03-01 12:00:02.000000", store.CurrentStamp())
	assert.Equal(t, "2024-03-01 12:00:04.000000", store.LastStamp())

	store.Cursor().StepForward()
	assert.Equal(t, "2024-03-01 12:00:03.000000", store.CurrentStamp())
}

func TestStampReadoutsEmptyStore(t *testing.T) {
	store := NewStore(logx.NewLogger("error", "test"), testPolicy())
	assert.Equal(t, "...", store.FirstStamp())
	assert.Equal(t, "...", store.CurrentStamp())
	assert.Equal(t, "...", store.LastStamp())
}

func TestWindowFloats(t *testing.T) {
	store, _ := newTestStore(t, basicFile)

	xs, ys := store.WindowFloats("yaw")
	// Row 2 has no yaw value and is skipped.
	assert.Equal(t, []float64{0, 1}, xs)
	assert.InDelta(t, 0.10, ys[0], 1e-9)
	assert.InDelta(t, 0.20, ys[1], 1e-9)

	xs, ys = store.WindowFloats("no_such_field")
	assert.Nil(t, xs)
	assert.Nil(t, ys)
}

func TestLoadProgress(t *testing.T) {
	logger := logx.NewLogger("error", "test")
	fresh := NewStore(logger, testPolicy())
	idx := gpsindex.NewIndex(logger, testPolicy())

	var msgs []string
	require.NoError(t, fresh.Load(writeFixture(t, basicFile), idx, func(m string) { msgs = append(msgs, m) }))

	// Five rows, progress every thousand: only the first row reports.
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Loading file...")
	assert.Contains(t, msgs[0], "0 rows loaded")
}
