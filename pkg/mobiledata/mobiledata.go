// Package mobiledata reads and writes the mobile sensor log format: a CSV
// file whose first two rows declare the ordered field names and their types
// (f=float, s=string, dt=datetime). Every data row carries one value per
// field; an empty cell is an absent value.
package mobiledata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// StampFormat is the on-disk datetime layout, sub-second precision included.
const StampFormat = "2006-01-02 15:04:05.000000"

// stampParseFormat tolerates shorter fractional parts on read.
const stampParseFormat = "2006-01-02 15:04:05"

// FieldType identifies the declared type of a column.
type FieldType string

const (
	TypeFloat    FieldType = "f"
	TypeString   FieldType = "s"
	TypeDatetime FieldType = "dt"
)

// normalizeType maps accepted header tags onto canonical field types.
func normalizeType(tag string) (FieldType, bool) {
	switch tag {
	case "f", "float":
		return TypeFloat, true
	case "s", "str", "string":
		return TypeString, true
	case "dt", "datetime":
		return TypeDatetime, true
	}
	return "", false
}

// Schema is the ordered field name/type declaration of a data file.
type Schema struct {
	names []string
	types []FieldType
	index map[string]int
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{index: make(map[string]int)}
}

// Add appends a field to the schema. Adding an existing name is a no-op.
func (s *Schema) Add(name string, t FieldType) {
	if _, ok := s.index[name]; ok {
		return
	}
	s.index[name] = len(s.names)
	s.names = append(s.names, name)
	s.types = append(s.types, t)
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.names) }

// Names returns the field names in file order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Has reports whether the schema declares the given field.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Index returns the column position of a field, or -1.
func (s *Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Type returns the declared type of a field.
func (s *Schema) Type(name string) (FieldType, bool) {
	i, ok := s.index[name]
	if !ok {
		return "", false
	}
	return s.types[i], true
}

// Clone returns an independent copy of the schema.
func (s *Schema) Clone() *Schema {
	out := NewSchema()
	for i, name := range s.names {
		out.Add(name, s.types[i])
	}
	return out
}

// Reader reads typed rows from a data file.
type Reader struct {
	f      *os.File
	csv    *csv.Reader
	schema *Schema
	row    int
}

// Open opens a data file and reads its two header rows. A malformed or
// missing header is a schema error and fails the open.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	names, err := cr.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read field name header: %w", err)
	}
	tags, err := cr.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read field type header: %w", err)
	}
	if len(names) != len(tags) {
		f.Close()
		return nil, fmt.Errorf("header mismatch: %d field names but %d types", len(names), len(tags))
	}

	schema := NewSchema()
	for i, name := range names {
		t, ok := normalizeType(tags[i])
		if !ok {
			f.Close()
			return nil, fmt.Errorf("unknown field type %q for field %q", tags[i], name)
		}
		schema.Add(name, t)
	}

	return &Reader{f: f, csv: cr, schema: schema, row: 0}, nil
}

// Schema returns the schema declared by the file headers.
func (r *Reader) Schema() *Schema { return r.schema }

// Read returns the next row as typed values in schema order: float64, string
// or time.Time, with nil for absent cells. io.EOF signals the end of data.
func (r *Reader) Read() ([]interface{}, error) {
	cells, err := r.csv.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read row %d: %w", r.row, err)
	}
	if len(cells) != r.schema.Len() {
		return nil, fmt.Errorf("row %d has %d values, schema has %d fields", r.row, len(cells), r.schema.Len())
	}

	vals := make([]interface{}, len(cells))
	for i, cell := range cells {
		if cell == "" {
			continue
		}
		switch r.schema.types[i] {
		case TypeFloat:
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d field %q: invalid float %q", r.row, r.schema.names[i], cell)
			}
			vals[i] = v
		case TypeDatetime:
			v, err := time.Parse(stampParseFormat, cell)
			if err != nil {
				return nil, fmt.Errorf("row %d field %q: invalid datetime %q", r.row, r.schema.names[i], cell)
			}
			vals[i] = v
		default:
			vals[i] = cell
		}
	}
	r.row++
	return vals, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error { return r.f.Close() }

// Writer writes typed rows to a data file.
type Writer struct {
	f      *os.File
	csv    *csv.Writer
	schema *Schema
}

// Create creates a data file and writes the two header rows for the given
// schema.
func Create(path string, schema *Schema) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create data file: %w", err)
	}

	cw := csv.NewWriter(f)
	tags := make([]string, schema.Len())
	for i := range schema.types {
		tags[i] = string(schema.types[i])
	}
	if err := cw.Write(schema.names); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write field name header: %w", err)
	}
	if err := cw.Write(tags); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write field type header: %w", err)
	}

	return &Writer{f: f, csv: cw, schema: schema}, nil
}

// Write appends one row of typed values in schema order. Nil values are
// written as empty cells.
func (w *Writer) Write(vals []interface{}) error {
	if len(vals) != w.schema.Len() {
		return fmt.Errorf("row has %d values, schema has %d fields", len(vals), w.schema.Len())
	}
	cells := make([]string, len(vals))
	for i, v := range vals {
		switch val := v.(type) {
		case nil:
			cells[i] = ""
		case float64:
			cells[i] = strconv.FormatFloat(val, 'f', -1, 64)
		case time.Time:
			cells[i] = val.Format(StampFormat)
		case string:
			cells[i] = val
		default:
			return fmt.Errorf("field %q: unsupported value type %T", w.schema.names[i], v)
		}
	}
	if err := w.csv.Write(cells); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	return nil
}

// Close flushes buffered rows and closes the file.
func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.f.Close()
		return fmt.Errorf("failed to flush data file: %w", err)
	}
	return w.f.Close()
}
