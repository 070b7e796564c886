// Package plan implements the compiled predicate tree and the plan
// descriptor from spec.md §4.6 (predicate compilation) and §9
// ("Predicate closures"): instead of first-class closures, a tagged
// variant tree evaluated by a single dispatcher. The plan builder that
// assembles pipeline stages lives in package planner.
package plan

import (
	"time"

	"github.com/maixuanbach/dbcsv/celltype"
)

// Row is one converted row, indexed by scan column position. It has the
// same underlying representation as pipeline.Row; the plan package does
// not import pipeline to avoid a dependency cycle (pipeline imports plan
// to evaluate predicates).
type Row []celltype.Value

// PredKind tags a Predicate node's variant, per spec.md §9's "tagged tree
// (variants: And, Or, Not (future), CmpColCol, CmpColLit, CmpLitLit,
// Const)".
type PredKind int

const (
	PredConst PredKind = iota
	PredAnd
	PredOr
	PredCmpColCol
	PredCmpColLit
	PredCmpLitLit
)

// CmpOp is one of the six comparison operators spec.md §4.6 accepts.
type CmpOp int

const (
	OpEQ CmpOp = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
)

// Predicate is a compiled WHERE clause: a tagged variant tree whose free
// variables (ColIndex/ColIndex2) are row-position indices, never column
// names (spec.md §3 invariant). It carries no parser state and performs no
// parsing at evaluation time (spec.md §4.6).
type Predicate struct {
	Kind PredKind

	// PredConst
	Value bool

	// PredAnd / PredOr
	Left, Right *Predicate

	// PredCmpColCol
	ColIndex, ColIndex2 int
	// comparisons are numeric unless both columns are STRINGLIKE, see Class
	Class celltype.Class

	// PredCmpColLit
	Lit celltype.Value

	// PredCmpLitLit
	A, B celltype.Value

	Op CmpOp
}

// Eval evaluates a compiled predicate against row, dispatching on Kind —
// spec.md §9's "single execute(plan) → iterator dispatcher" pattern,
// applied to predicate evaluation instead of plan-node execution.
func Eval(p *Predicate, row Row) bool {
	if p == nil {
		return true
	}
	switch p.Kind {
	case PredConst:
		return p.Value
	case PredAnd:
		return Eval(p.Left, row) && Eval(p.Right, row)
	case PredOr:
		return Eval(p.Left, row) || Eval(p.Right, row)
	case PredCmpColCol:
		return compare(row[p.ColIndex], row[p.ColIndex2], p.Class, p.Op)
	case PredCmpColLit:
		return compare(row[p.ColIndex], p.Lit, p.Class, p.Op)
	case PredCmpLitLit:
		return compare(p.A, p.B, p.Class, p.Op)
	default:
		return false
	}
}

func compare(a, b celltype.Value, class celltype.Class, op CmpOp) bool {
	var cmp int
	switch class {
	case celltype.ClassStringlike:
		cmp = compareStrings(a.Str, b.Str)
	case celltype.ClassQuoted:
		if a.Family == celltype.FamilyTemporal && b.Family == celltype.FamilyTemporal {
			cmp = compareTimes(a.Time, b.Time)
		} else {
			cmp = compareStrings(a.Str, b.Str)
		}
	default: // ClassNumeric
		cmp = compareFloats(a.AsFloat64(), b.AsFloat64())
	}
	return applyOp(cmp, op)
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func applyOp(cmp int, op CmpOp) bool {
	switch op {
	case OpEQ:
		return cmp == 0
	case OpNE:
		return cmp != 0
	case OpLT:
		return cmp < 0
	case OpLE:
		return cmp <= 0
	case OpGT:
		return cmp > 0
	case OpGE:
		return cmp >= 0
	default:
		return false
	}
}
