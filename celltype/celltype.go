// Package celltype implements the declared-type registry from spec.md
// §4.1: mapping a declared column type name to a string-to-value converter
// and to one of the comparability classes used by the predicate compiler.
//
// Grounded on the teacher's normalize-then-compare idiom (sqldef's
// schema/normalize.go upper-cases and canonicalizes type names before
// comparison); here that becomes Normalize, the single place family
// membership is decided (spec.md §9, "Type equality via multi-name
// groups").
package celltype

import (
	"strconv"
	"strings"
	"time"

	"github.com/maixuanbach/dbcsv/dbcsverr"
)

// Family is a declared-type family: STRING, INTEGER, FLOAT, BOOLEAN,
// TEMPORAL, or NULL (spec.md §3).
type Family int

const (
	FamilyUnknown Family = iota
	FamilyString
	FamilyInteger
	FamilyFloat
	FamilyBoolean
	FamilyTemporal
	FamilyNull
)

func (f Family) String() string {
	switch f {
	case FamilyString:
		return "STRING"
	case FamilyInteger:
		return "INTEGER"
	case FamilyFloat:
		return "FLOAT"
	case FamilyBoolean:
		return "BOOLEAN"
	case FamilyTemporal:
		return "TEMPORAL"
	case FamilyNull:
		return "NULL"
	default:
		return "UNKNOWN"
	}
}

// Class is a comparability class: two operands may be compared only if
// they share a Class (spec.md §3), with the exceptions spec.md §4.6 spells
// out for boolean literals.
type Class int

const (
	ClassUnknown Class = iota
	// ClassNumeric is INTEGER ∪ FLOAT ∪ BOOLEAN.
	ClassNumeric
	// ClassStringlike is STRING.
	ClassStringlike
	// ClassQuoted is STRING ∪ TEMPORAL.
	ClassQuoted
)

var aliases = map[string]Family{
	"VARCHAR": FamilyString,
	"TEXT":    FamilyString,
	"CHAR":    FamilyString,

	"INTEGER":  FamilyInteger,
	"INT":      FamilyInteger,
	"BIGINT":   FamilyInteger,
	"SMALLINT": FamilyInteger,
	"TINYINT":  FamilyInteger,

	"FLOAT":   FamilyFloat,
	"DOUBLE":  FamilyFloat,
	"DECIMAL": FamilyFloat,
	"DEC":     FamilyFloat,

	"BOOLEAN": FamilyBoolean,
	"BOOL":    FamilyBoolean,

	"DATE":      FamilyTemporal,
	"DATETIME":  FamilyTemporal,
	"TIMESTAMP": FamilyTemporal,

	"NULL": FamilyNull,
}

// Normalize maps a declared type spelling to its Family, case-insensitively.
// This is the only place the alias table above is consulted.
func Normalize(name string) (Family, bool) {
	f, ok := aliases[strings.ToUpper(strings.TrimSpace(name))]
	return f, ok
}

// InClass reports whether a value of Family f may participate in
// comparisons of the given class. STRING is both STRINGLIKE and QUOTED,
// so a family does not map to a single class.
func InClass(f Family, c Class) bool {
	switch c {
	case ClassNumeric:
		return f == FamilyInteger || f == FamilyFloat || f == FamilyBoolean
	case ClassStringlike:
		return f == FamilyString
	case ClassQuoted:
		return f == FamilyString || f == FamilyTemporal
	default:
		return false
	}
}

// Value is a converted cell: exactly one of the fields below is
// meaningful, selected by Family.
type Value struct {
	Family Family
	Int    int64
	Float  float64
	Bool   bool
	Str    string
	Time   time.Time
}

// Null returns the NULL cell value.
func Null() Value { return Value{Family: FamilyNull} }

// IsNull reports whether v is the NULL cell value.
func (v Value) IsNull() bool { return v.Family == FamilyNull }

// AsFloat64 returns v's value coerced to float64 for NUMERIC-class
// comparisons (TRUE ≡ 1.0, FALSE ≡ 0.0 per spec.md §9).
func (v Value) AsFloat64() float64 {
	switch v.Family {
	case FamilyInteger:
		return float64(v.Int)
	case FamilyFloat:
		return v.Float
	case FamilyBoolean:
		if v.Bool {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// Wire returns v in the representation the NDJSON wire protocol uses for
// one cell (spec.md §4.9/§6): NULL becomes JSON null, TEMPORAL becomes its
// ISO date string, everything else becomes its native JSON scalar.
func (v Value) Wire() interface{} {
	switch v.Family {
	case FamilyNull:
		return nil
	case FamilyString:
		return v.Str
	case FamilyInteger:
		return v.Int
	case FamilyFloat:
		return v.Float
	case FamilyBoolean:
		return v.Bool
	case FamilyTemporal:
		return v.Time.Format(dateLayout)
	default:
		return nil
	}
}

const dateLayout = "2006-01-02"

// Convert parses the raw CSV/literal text text into a Value of the given
// declared Family, per the semantics table in spec.md §4.1.
func Convert(text string, f Family) (Value, error) {
	switch f {
	case FamilyString:
		return Value{Family: FamilyString, Str: text}, nil
	case FamilyInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return Value{}, dbcsverr.Wrap(dbcsverr.DataAccessError, "invalid integer: "+text, err)
		}
		return Value{Family: FamilyInteger, Int: n}, nil
	case FamilyFloat:
		n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return Value{}, dbcsverr.Wrap(dbcsverr.DataAccessError, "invalid float: "+text, err)
		}
		return Value{Family: FamilyFloat, Float: n}, nil
	case FamilyBoolean:
		switch text {
		case "TRUE":
			return Value{Family: FamilyBoolean, Bool: true}, nil
		case "FALSE":
			return Value{Family: FamilyBoolean, Bool: false}, nil
		default:
			return Value{}, dbcsverr.New(dbcsverr.DataAccessError, "invalid boolean: "+text)
		}
	case FamilyTemporal:
		t, err := time.Parse(dateLayout, strings.TrimSpace(text))
		if err != nil {
			return Value{}, dbcsverr.Wrap(dbcsverr.DataAccessError, "invalid date: "+text, err)
		}
		return Value{Family: FamilyTemporal, Time: t}, nil
	case FamilyNull:
		if strings.EqualFold(strings.TrimSpace(text), "null") {
			return Null(), nil
		}
		return Value{}, dbcsverr.New(dbcsverr.DataAccessError, "expected null literal: "+text)
	default:
		return Value{}, dbcsverr.New(dbcsverr.DataAccessError, "unknown type")
	}
}

// StripQuotes returns a SQL string literal's text, stripping one
// surrounding pair of single quotes if present (spec.md §4.1: "strip one
// pair of surrounding single quotes if present when parsing a literal, not
// when reading CSV cells").
func StripQuotes(text string) string {
	if len(text) >= 2 && text[0] == '\'' && text[len(text)-1] == '\'' {
		return text[1 : len(text)-1]
	}
	return text
}

// Converter converts one column's raw CSV text into a typed Value.
type Converter func(text string) (Value, error)

// ConverterFor returns the Converter for a single declared Family.
func ConverterFor(f Family) Converter {
	return func(text string) (Value, error) {
		return Convert(text, f)
	}
}
