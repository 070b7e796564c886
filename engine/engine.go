// Package engine implements the query engine facade from spec.md §4.8: it
// ties the catalog, validator, and planner together behind a single
// Execute call, classifying errors the way the teacher's database/
// package classifies adapter errors before they reach the CLI layer.
package engine

import (
	"context"

	"github.com/maixuanbach/dbcsv/catalog"
	"github.com/maixuanbach/dbcsv/dbcsverr"
	"github.com/maixuanbach/dbcsv/pipeline"
	"github.com/maixuanbach/dbcsv/planner"
	"github.com/maixuanbach/dbcsv/validator"
)

// Engine executes validated SQL against a filesystem-backed catalog.
type Engine struct {
	Catalog       *catalog.Catalog
	DataRoot      string
	ScanBatchSize int
}

// New returns an Engine reading tables under dataRoot, batching Scan reads
// by scanBatchSize rows (see pipeline.NewScan for the zero-value default).
func New(cat *catalog.Catalog, dataRoot string, scanBatchSize int) *Engine {
	return &Engine{Catalog: cat, DataRoot: dataRoot, ScanBatchSize: scanBatchSize}
}

// Execute validates and plans sql against db, returning the top iterator
// of the assembled pipeline and the resolved output column names (the
// HTTP layer only logs them; they are never part of the wire protocol).
// ctx is accepted for symmetry with the HTTP layer's
// cancellation plumbing (spec.md §5); no step here is itself
// context-aware, since Scan's only blocking operation, file I/O, is
// unconditionally synchronous in the teacher's own pipeline.
func (e *Engine) Execute(ctx context.Context, sql, db string) (pipeline.Iterator, []string, error) {
	if !e.Catalog.HasDatabase(db) {
		return nil, nil, dbcsverr.Newf(dbcsverr.ValidationError, "unknown database: %s", db)
	}

	v := validator.New(e.Catalog, db)
	desc, err := v.Validate(sql)
	if err != nil {
		return nil, nil, err
	}

	schema, err := e.Catalog.SchemaOf(db, desc.Table)
	if err != nil {
		return nil, nil, err
	}

	table, _ := e.Catalog.TableName(db, desc.Table)
	path := planner.TablePath(e.DataRoot, db, table)

	return planner.Build(desc, schema, path, e.ScanBatchSize)
}
