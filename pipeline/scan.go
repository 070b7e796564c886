package pipeline

import (
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/maixuanbach/dbcsv/catalog"
	"github.com/maixuanbach/dbcsv/celltype"
	"github.com/maixuanbach/dbcsv/dbcsverr"
)

// Scan is the leaf pipeline stage from spec.md §4.3: it opens a table's
// CSV file, validates the header against the declared schema, and yields
// typed rows in batches, silently dropping any row that fails to convert
// or whose arity is wrong.
type Scan struct {
	file       *os.File
	reader     *csv.Reader
	converters []celltype.Converter
	batchSize  int

	buf     []Row
	bufPos  int
	done    bool
	dropped int
}

// NewScan opens path, validates its header against schema, and returns a
// ready-to-pull Scan. Opening and header validation happen here, at
// construction (spec.md §4.8 step 3: "the iterator is lazy... except
// opening the file and reading the header").
func NewScan(path string, schema catalog.Schema, batchSize int) (*Scan, error) {
	if batchSize <= 0 {
		batchSize = 1024
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, dbcsverr.Wrap(dbcsverr.DataAccessError, "table not found", err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // arity is checked by hand below, per row

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, dbcsverr.Wrap(dbcsverr.DataAccessError, "header mismatch", err)
	}
	if err := validateHeader(header, schema); err != nil {
		f.Close()
		return nil, err
	}

	converters := make([]celltype.Converter, len(schema))
	for i, col := range schema {
		converters[i] = celltype.ConverterFor(col.Type)
	}

	return &Scan{
		file:       f,
		reader:     r,
		converters: converters,
		batchSize:  batchSize,
	}, nil
}

func validateHeader(header []string, schema catalog.Schema) error {
	if len(header) != len(schema) {
		return dbcsverr.Newf(dbcsverr.DataAccessError, "header mismatch: expected %d columns, got %d", len(schema), len(header))
	}
	for i, col := range schema {
		if !strings.EqualFold(strings.TrimSpace(header[i]), col.Name) {
			return dbcsverr.Newf(dbcsverr.DataAccessError, "header mismatch: column %d is %q, expected %q", i, header[i], col.Name)
		}
	}
	return nil
}

// Next returns the next typed row, silently skipping malformed rows
// (spec.md §4.3 point 4) until one converts cleanly or the file is
// exhausted.
func (s *Scan) Next() (Row, bool, error) {
	for {
		if s.bufPos >= len(s.buf) {
			if s.done {
				return nil, false, nil
			}
			if err := s.fill(); err != nil {
				return nil, false, err
			}
			if len(s.buf) == 0 {
				return nil, false, nil
			}
		}
		row := s.buf[s.bufPos]
		s.bufPos++
		if row != nil {
			return row, true, nil
		}
		// nil marks a dropped row; keep pulling from the buffer.
	}
}

// fill reads up to batchSize raw records and converts each into a Row,
// storing a nil entry (and bumping the drop counter) for rows that fail
// conversion or have the wrong arity (spec.md §4.3 points 4–5).
func (s *Scan) fill() error {
	s.buf = s.buf[:0]
	s.bufPos = 0

	for i := 0; i < s.batchSize; i++ {
		record, err := s.reader.Read()
		if errors.Is(err, io.EOF) {
			s.done = true
			break
		}
		if err != nil {
			s.done = true
			return dbcsverr.Wrap(dbcsverr.DataAccessError, "read row", err)
		}

		row, ok := s.convertRow(record)
		if !ok {
			s.dropped++
			s.buf = append(s.buf, nil)
			continue
		}
		s.buf = append(s.buf, row)
	}

	if s.done {
		s.closeFile()
	}
	return nil
}

func (s *Scan) convertRow(record []string) (Row, bool) {
	if len(record) != len(s.converters) {
		return nil, false
	}
	row := make(Row, len(record))
	for i, cell := range record {
		v, err := s.converters[i](cell)
		if err != nil {
			return nil, false
		}
		row[i] = v
	}
	return row, true
}

func (s *Scan) closeFile() {
	if s.file == nil {
		return
	}
	if err := s.file.Close(); err != nil {
		slog.Warn("scan: close table file", "error", err)
	}
	s.file = nil
	slog.Debug("scan: closed", "dropped_rows", s.dropped)
}

// Close releases the underlying file handle. It is a no-op if already
// closed (spec.md §4.3 point 6).
func (s *Scan) Close() error {
	s.closeFile()
	return nil
}

// DroppedRows reports how many rows this Scan has silently skipped so
// far, exposed for logging only (spec.md §9's ambiguity note: "expose a
// counter of dropped rows via logging; do not change the streaming
// protocol").
func (s *Scan) DroppedRows() int { return s.dropped }

var _ Iterator = (*Scan)(nil)
