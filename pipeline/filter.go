package pipeline

import "github.com/maixuanbach/dbcsv/plan"

// Filter is the pipeline stage from spec.md §4.4: it wraps a child
// iterator and yields only the rows for which a compiled predicate
// evaluates true. A nil predicate makes Filter a passthrough.
type Filter struct {
	child   Iterator
	pred    *plan.Predicate
	columns []string
}

// NewFilter wraps child, yielding only rows matching pred. columns is the
// scan's column-name order; it is stored but Next does not consult it,
// because a Predicate's free variables are row-position indices (spec.md
// §3 invariant).
func NewFilter(child Iterator, pred *plan.Predicate, columns []string) *Filter {
	return &Filter{child: child, pred: pred, columns: columns}
}

func (f *Filter) Next() (Row, bool, error) {
	for {
		row, ok, err := f.child.Next()
		if err != nil || !ok {
			return nil, ok, err
		}
		if f.pred == nil || plan.Eval(f.pred, plan.Row(row)) {
			return row, true, nil
		}
	}
}

func (f *Filter) Close() error { return f.child.Close() }

var _ Iterator = (*Filter)(nil)
