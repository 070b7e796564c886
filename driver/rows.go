package driver

import (
	sqldriver "database/sql/driver"
	"encoding/json"
	"io"

	"github.com/maixuanbach/dbcsv/dbcsverr"
)

// Rows incrementally decodes an NDJSON response body batch-by-batch
// (spec.md §6), buffering at most one batch at a time — mirroring the
// server's own batch bound — and flattening it into successive Next
// calls. This is the client-side half of spec.md §1's "presents a
// standard cursor-style database interface", built only as deep as
// consuming the wire protocol requires; *sql.Rows on top of this
// supplies fetchone/many/all semantics.
type Rows struct {
	body    io.ReadCloser
	dec     *json.Decoder
	columns []string
	batch   [][]interface{}
	pos     int
	done    bool
}

func newRows(body io.ReadCloser) *Rows {
	return &Rows{body: body, dec: json.NewDecoder(body)}
}

// Columns implements database/sql/driver.Rows. dbcsv's NDJSON protocol
// does not carry column names on the wire (spec.md §6: batches are plain
// arrays), so Columns returns empty-string placeholders sized to the
// first row seen.
func (r *Rows) Columns() []string {
	if r.columns != nil {
		return r.columns
	}
	if err := r.fill(); err != nil || len(r.batch) == 0 {
		return nil
	}
	r.columns = make([]string, len(r.batch[0]))
	for i := range r.columns {
		r.columns[i] = ""
	}
	return r.columns
}

// Close implements database/sql/driver.Rows.
func (r *Rows) Close() error {
	if !r.done {
		discard(r.body)
		r.done = true
		return nil
	}
	return r.body.Close()
}

// Next implements database/sql/driver.Rows, decoding additional batches
// from the NDJSON stream as the current one is exhausted.
func (r *Rows) Next(dest []sqldriver.Value) error {
	if r.pos >= len(r.batch) {
		if err := r.fill(); err != nil {
			return err
		}
		if len(r.batch) == 0 {
			return io.EOF
		}
	}

	row := r.batch[r.pos]
	r.pos++
	for i := range dest {
		if i < len(row) {
			dest[i] = row[i]
		} else {
			dest[i] = nil
		}
	}
	return nil
}

// fill decodes the next NDJSON line (one batch) into r.batch, resetting
// r.pos. A clean end-of-stream leaves r.batch empty.
func (r *Rows) fill() error {
	r.pos = 0
	r.batch = nil

	var batch [][]interface{}
	if err := r.dec.Decode(&batch); err != nil {
		if err == io.EOF {
			r.done = true
			return nil
		}
		return dbcsverr.Wrap(dbcsverr.DataAccessError, "failed to decode query response", err)
	}
	r.batch = batch
	return nil
}

var _ sqldriver.Rows = (*Rows)(nil)
