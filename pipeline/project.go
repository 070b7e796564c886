package pipeline

import "github.com/maixuanbach/dbcsv/celltype"

// Project is the pipeline stage from spec.md §4.5: it yields a new row
// whose i-th element is child_row[indices[i]]. An index of -1 yields
// NULL, reserved for defensive coding; the validator never emits -1 for
// accepted queries.
type Project struct {
	child   Iterator
	indices []int
}

// NewProject wraps child, projecting each row onto indices.
func NewProject(child Iterator, indices []int) *Project {
	return &Project{child: child, indices: indices}
}

func (p *Project) Next() (Row, bool, error) {
	row, ok, err := p.child.Next()
	if err != nil || !ok {
		return nil, ok, err
	}
	out := make(Row, len(p.indices))
	for i, idx := range p.indices {
		if idx < 0 || idx >= len(row) {
			out[i] = celltype.Null()
			continue
		}
		out[i] = row[idx]
	}
	return out, true, nil
}

func (p *Project) Close() error { return p.child.Close() }

var _ Iterator = (*Project)(nil)
