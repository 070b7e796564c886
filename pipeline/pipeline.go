// Package pipeline implements the pull-based Scan → Filter → Project
// iterator stages from spec.md §4.3–§4.5.
//
// Grounded on the teacher's one-struct-per-stage shape (each database
// backend in the teacher's database/ tree owns its own connection and
// state; here each stage owns its own child and state) and on spec.md §9's
// "generator-style state machines: each stage holds a child handle and its
// own state; next is a function returning either a row or end-of-sequence."
package pipeline

import "github.com/maixuanbach/dbcsv/celltype"

// Row is an ordered sequence of cells, one per output column.
type Row []celltype.Value

// Iterator is the pull-based interface every pipeline stage implements.
// Next returns (row, true, nil) while rows remain, (nil, false, nil) at
// end of sequence, or (nil, false, err) on failure. Close releases any
// held resource (e.g. the Scan's file handle) and is idempotent.
type Iterator interface {
	Next() (Row, bool, error)
	Close() error
}
