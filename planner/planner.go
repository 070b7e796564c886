// Package planner implements the plan builder from spec.md §4.7: given a
// validated plan.Descriptor and the table's schema, it assembles
// Scan → optional Filter → Project into a single pull-based iterator.
//
// Kept separate from package plan so that plan (Descriptor, Predicate,
// Eval) stays free of a dependency on package pipeline, which in turn
// depends on plan to evaluate predicates — planner is the one package
// that depends on both.
package planner

import (
	"path/filepath"

	"github.com/maixuanbach/dbcsv/catalog"
	"github.com/maixuanbach/dbcsv/dbcsverr"
	"github.com/maixuanbach/dbcsv/pipeline"
	"github.com/maixuanbach/dbcsv/plan"
)

// Build assembles Scan → optional Filter → Project from a Descriptor, per
// spec.md §4.7. tablePath is the CSV file backing desc.Table; batchSize is
// the Scan's batch size. It returns the top iterator and the resolved
// output column names (for callers, such as the HTTP layer, that want to
// log them — they are not part of the wire protocol).
func Build(desc *plan.Descriptor, schema catalog.Schema, tablePath string, batchSize int) (pipeline.Iterator, []string, error) {
	scan, err := pipeline.NewScan(tablePath, schema, batchSize)
	if err != nil {
		return nil, nil, err
	}

	var top pipeline.Iterator = scan
	if desc.Predicate != nil {
		top = pipeline.NewFilter(top, desc.Predicate, schema.Names())
	}

	indices, outNames, err := projectionIndices(desc.Projection, schema)
	if err != nil {
		scan.Close()
		return nil, nil, err
	}
	top = pipeline.NewProject(top, indices)

	return top, outNames, nil
}

// projectionIndices translates a Descriptor's projection list into scan
// column indices, per spec.md §4.7: ["*"] maps to the full schema order;
// a named list maps each name to its schema position, preserving
// duplicates (spec.md §9).
func projectionIndices(projection []string, schema catalog.Schema) ([]int, []string, error) {
	if len(projection) == 1 && projection[0] == "*" {
		indices := make([]int, len(schema))
		names := make([]string, len(schema))
		for i, col := range schema {
			indices[i] = i
			names[i] = col.Name
		}
		return indices, names, nil
	}

	indices := make([]int, len(projection))
	names := make([]string, len(projection))
	for i, name := range projection {
		idx := schema.IndexOf(name)
		if idx < 0 {
			return nil, nil, dbcsverr.Newf(dbcsverr.ValidationError, "unknown column: %s", name)
		}
		indices[i] = idx
		names[i] = name
	}
	return indices, names, nil
}

// TablePath returns the filesystem path for a table's CSV file, per
// spec.md §6's layout: <data-root>/<db>/<table>.csv.
func TablePath(dataRoot, db, table string) string {
	return filepath.Join(dataRoot, db, table+".csv")
}
