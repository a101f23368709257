// Package dataset owns the loaded sensor log: the full per-record sequence,
// the sensor review cursor over it, and the annotation and note edits applied
// through that cursor.
package dataset

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/watchtrace/watchtrace/pkg/gpsindex"
	"github.com/watchtrace/watchtrace/pkg/logx"
	"github.com/watchtrace/watchtrace/pkg/mobiledata"
	"github.com/watchtrace/watchtrace/pkg/window"
)

// Reserved field names recognized when present in a data file schema.
const (
	FieldStamp         = "stamp"
	FieldLatitude      = "latitude"
	FieldLongitude     = "longitude"
	FieldGPSValid      = "is_gps_valid"
	FieldActivityLabel = "activity_label"
	FieldUserLabel     = "user_activity_label"
	FieldNotes         = "notes"
	FieldBattery       = "battery_state"
)

// GPS validity is serialized as a string flag.
const (
	gpsValidTrue  = "1"
	gpsValidFalse = "0"
)

// DefaultGPSValid is assumed for rows in files without a validity column.
const DefaultGPSValid = true

const (
	loadProgressEvery = 1000
	saveProgressEvery = 500
)

// EncodeGPSValid returns the serialized form of a validity flag.
func EncodeGPSValid(valid bool) string {
	if valid {
		return gpsValidTrue
	}
	return gpsValidFalse
}

// DecodeGPSValid parses a serialized validity flag. Anything but an explicit
// '0' counts as valid.
func DecodeGPSValid(v interface{}) bool {
	s, ok := v.(string)
	if !ok {
		return DefaultGPSValid
	}
	return s != gpsValidFalse
}

// ProgressFunc receives human-readable status updates during long
// operations.
type ProgressFunc func(msg string)

// Record is one sampled instant, values aligned with the store schema.
type Record []interface{}

// Store is the row store: the in-memory ordered record sequence plus the
// sensor window cursor.
type Store struct {
	logger  *logx.Logger
	schema  *mobiledata.Schema
	records []Record
	cursor  *window.Cursor
	labels  map[string]struct{}
	dirty   bool

	// Reserved-column positions, resolved once per load. -1 when the column
	// does not apply (it is always added for the label/notes/validity set).
	iStamp int
	iLat   int
	iLon   int
	iValid int
	iLabel int
	iNotes int

	// Presence of the optional columns in the source file, before defaults
	// were filled in.
	hadUserLabel     bool
	hadActivityLabel bool
	hadGPSValid      bool
	hadNotes         bool
}

// NewStore creates an empty store with the given sensor cursor geometry.
func NewStore(logger *logx.Logger, p window.Policy) *Store {
	return &Store{
		logger: logger,
		cursor: window.New(p),
		labels: make(map[string]struct{}),
		iStamp: -1, iLat: -1, iLon: -1, iValid: -1, iLabel: -1, iNotes: -1,
	}
}

// Cursor returns the sensor window cursor.
func (s *Store) Cursor() *window.Cursor { return s.cursor }

// Size returns the number of loaded records.
func (s *Store) Size() int { return len(s.records) }

// HasData reports whether a file is loaded.
func (s *Store) HasData() bool { return s.cursor.Active() }

// Dirty reports whether in-memory edits are pending a save.
func (s *Store) Dirty() bool { return s.dirty }

// Schema returns the store schema, nil before the first load.
func (s *Store) Schema() *mobiledata.Schema { return s.schema }

// Labels returns the known annotation label values, sorted.
func (s *Store) Labels() []string {
	out := make([]string, 0, len(s.labels))
	for l := range s.labels {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func (s *Store) reset() {
	s.records = nil
	s.schema = nil
	s.labels = make(map[string]struct{})
	s.dirty = false
	s.cursor.Reset()
	s.iStamp, s.iLat, s.iLon, s.iValid, s.iLabel, s.iNotes = -1, -1, -1, -1, -1, -1
	s.hadUserLabel, s.hadActivityLabel, s.hadGPSValid, s.hadNotes = false, false, false, false
}

// Load clears the store and reads the given data file, feeding GPS run
// construction as rows arrive. Reserved columns missing from the source
// schema are added with defaults. On any parse error the store is left
// empty.
func (s *Store) Load(path string, idx *gpsindex.Index, progress ProgressFunc) error {
	s.reset()
	idx.LoadInit()

	r, err := mobiledata.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	srcLen := r.Schema().Len()
	schema := r.Schema().Clone()
	s.hadUserLabel = schema.Has(FieldUserLabel)
	s.hadActivityLabel = schema.Has(FieldActivityLabel)
	s.hadGPSValid = schema.Has(FieldGPSValid)
	s.hadNotes = schema.Has(FieldNotes)
	schema.Add(FieldUserLabel, mobiledata.TypeString)
	schema.Add(FieldActivityLabel, mobiledata.TypeString)
	schema.Add(FieldGPSValid, mobiledata.TypeString)
	schema.Add(FieldNotes, mobiledata.TypeString)

	s.schema = schema
	s.iStamp = schema.Index(FieldStamp)
	s.iLat = schema.Index(FieldLatitude)
	s.iLon = schema.Index(FieldLongitude)
	s.iValid = schema.Index(FieldGPSValid)
	s.iLabel = schema.Index(FieldUserLabel)
	s.iNotes = schema.Index(FieldNotes)

	count := 0
	for {
		vals, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.reset()
			idx.LoadInit()
			return fmt.Errorf("failed to load %s: %w", path, err)
		}

		rec := make(Record, schema.Len())
		copy(rec, vals[:srcLen])
		if !s.hadGPSValid {
			rec[s.iValid] = EncodeGPSValid(DefaultGPSValid)
		}

		if count%loadProgressEvery == 0 && progress != nil {
			progress(fmt.Sprintf("Loading file...\n%d rows loaded\nAt stamp: %s", count, s.stampString(rec)))
		}

		if label, ok := rec[s.iLabel].(string); ok {
			s.labels[label] = struct{}{}
		}

		s.records = append(s.records, rec)

		idx.Extend(floatPtr(rec[s.iLat]), floatPtr(rec[s.iLon]), s.stampOf(rec), DecodeGPSValid(rec[s.iValid]), count)
		count++
	}

	if len(s.records) == 0 {
		s.logger.Warn("Loaded file contains no data rows", "path", path)
		return nil
	}

	idx.LoadEnd()
	applied := s.cursor.Activate(len(s.records))
	s.dirty = false
	s.logger.Info("Data file loaded",
		"path", path,
		"rows", len(s.records),
		"gps_runs", idx.Size(),
		"labels", len(s.labels),
		"window", applied.WindowSize)
	return nil
}

// Save serializes every record in original field order. A clean store is a
// no-op that never touches the destination.
func (s *Store) Save(path string, progress ProgressFunc) error {
	if !s.dirty {
		s.logger.Info("No changes to the data, nothing to save")
		if progress != nil {
			progress("No changes to the data, nothing to save.")
		}
		return nil
	}

	w, err := mobiledata.Create(path, s.schema)
	if err != nil {
		return err
	}

	for i, rec := range s.records {
		if i%saveProgressEvery == 0 && progress != nil {
			progress(fmt.Sprintf("Saving to data file...\nAt %.1f%% of the data...", percentOf(i, len(s.records))))
		}
		if err := w.Write(rec); err != nil {
			w.Close()
			return fmt.Errorf("failed to save %s: %w", path, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	s.dirty = false
	s.logger.Info("Data file saved", "path", path, "rows", len(s.records))
	return nil
}

// Annotate sets the activity label on every record in the current window and
// records the label among the known values.
func (s *Store) Annotate(label string) bool {
	if !s.cursor.Active() {
		return false
	}
	return s.AnnotateRange(s.cursor.Start(), s.cursor.End()-1, label)
}

// AnnotateRange sets the activity label on an explicit inclusive row range.
func (s *Store) AnnotateRange(first, last int, label string) bool {
	if first < 0 || last >= len(s.records) || first > last {
		return false
	}
	for i := first; i <= last; i++ {
		s.records[i][s.iLabel] = label
	}
	s.labels[label] = struct{}{}
	s.dirty = true
	return true
}

// RemoveAnnotation clears the activity label on every record in the current
// window.
func (s *Store) RemoveAnnotation() bool {
	if !s.cursor.Active() {
		return false
	}
	return s.RemoveAnnotationRange(s.cursor.Start(), s.cursor.End()-1)
}

// RemoveAnnotationRange clears the activity label on an explicit inclusive
// row range.
func (s *Store) RemoveAnnotationRange(first, last int) bool {
	if first < 0 || last >= len(s.records) || first > last {
		return false
	}
	for i := first; i <= last; i++ {
		s.records[i][s.iLabel] = nil
	}
	s.dirty = true
	return true
}

// AddNote attaches a note to the last record of the current window. Empty
// text stores an absent value.
func (s *Store) AddNote(text string) bool {
	if !s.cursor.Active() {
		return false
	}
	i := s.cursor.End() - 1
	if text == "" {
		s.records[i][s.iNotes] = nil
	} else {
		s.records[i][s.iNotes] = text
	}
	s.dirty = true
	return true
}

// ApplyValidity writes a GPS validity flag onto an inclusive row range.
// Invoked by the merge engine when reconciling GPS run edits.
func (s *Store) ApplyValidity(first, last int, valid bool) {
	if first < 0 {
		first = 0
	}
	if last >= len(s.records) {
		last = len(s.records) - 1
	}
	for i := first; i <= last; i++ {
		s.records[i][s.iValid] = EncodeGPSValid(valid)
	}
	s.dirty = true
}

// GPSValid reports the validity flag of a single record.
func (s *Store) GPSValid(i int) bool {
	return DecodeGPSValid(s.records[i][s.iValid])
}

// Value returns the raw value of a field on a record, nil when absent or
// unknown.
func (s *Store) Value(i int, field string) interface{} {
	idx := s.schema.Index(field)
	if idx < 0 || i < 0 || i >= len(s.records) {
		return nil
	}
	return s.records[i][idx]
}

// Float returns a float field of a record.
func (s *Store) Float(i int, field string) (float64, bool) {
	v, ok := s.Value(i, field).(float64)
	return v, ok
}

// Str returns a string field of a record.
func (s *Store) Str(i int, field string) (string, bool) {
	v, ok := s.Value(i, field).(string)
	return v, ok
}

// Stamp returns the timestamp of a record, the zero time when absent.
func (s *Store) Stamp(i int) time.Time {
	if i < 0 || i >= len(s.records) {
		return time.Time{}
	}
	return s.stampOf(s.records[i])
}

// FirstStamp returns the stamp at the trailing edge of the first window
// position, or a placeholder when no data is loaded.
func (s *Store) FirstStamp() string {
	if !s.cursor.Active() {
		return "..."
	}
	return s.stampString(s.records[s.cursor.Length()-1])
}

// CurrentStamp returns the stamp at the trailing edge of the current window.
func (s *Store) CurrentStamp() string {
	if !s.cursor.Active() {
		return "..."
	}
	return s.stampString(s.records[s.cursor.End()-1])
}

// LastStamp returns the stamp of the final record.
func (s *Store) LastStamp() string {
	if !s.cursor.Active() {
		return "..."
	}
	return s.stampString(s.records[len(s.records)-1])
}

// WindowFloats returns x (row offset within the window) and y series for a
// float field over the current window, skipping absent values.
func (s *Store) WindowFloats(field string) (xs, ys []float64) {
	if !s.cursor.Active() {
		return nil, nil
	}
	idx := s.schema.Index(field)
	if idx < 0 {
		return nil, nil
	}
	for off, i := 0, s.cursor.Start(); i < s.cursor.End(); off, i = off+1, i+1 {
		if v, ok := s.records[i][idx].(float64); ok {
			xs = append(xs, float64(off))
			ys = append(ys, v)
		}
	}
	return xs, ys
}

func (s *Store) stampOf(rec Record) time.Time {
	if s.iStamp < 0 {
		return time.Time{}
	}
	if t, ok := rec[s.iStamp].(time.Time); ok {
		return t
	}
	return time.Time{}
}

func (s *Store) stampString(rec Record) string {
	t := s.stampOf(rec)
	if t.IsZero() {
		return "..."
	}
	return t.Format(mobiledata.StampFormat)
}

func floatPtr(v interface{}) *float64 {
	if f, ok := v.(float64); ok {
		return &f
	}
	return nil
}

func percentOf(i, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(int(1000*i/n)) / 10
}
