// Package validator implements the SQL validator from spec.md §4.6: it
// parses a SQL string with an external parser (grounded on
// github.com/freeeve/machparse, the pack's dialect-agnostic SQL parser,
// here restricted to the MySQL-shaped subset spec.md accepts), enforces
// the supported grammar subset, type-checks against a table schema, and
// emits a compiled plan.Predicate plus a plan.Descriptor.
//
// Grounded on the teacher's own parser-wrapping idiom: database/mysql/
// parser.go wraps an external parser package behind a small local type
// (MysqlParser) with a single Parse method; Validator here plays the same
// role, wrapping machparse.Parse behind Validate.
package validator

import (
	"os"
	"strings"

	"github.com/freeeve/machparse"
	"github.com/freeeve/machparse/ast"
	"github.com/freeeve/machparse/token"
	"github.com/k0kubun/pp/v3"

	"github.com/maixuanbach/dbcsv/catalog"
	"github.com/maixuanbach/dbcsv/celltype"
	"github.com/maixuanbach/dbcsv/dbcsverr"
	"github.com/maixuanbach/dbcsv/plan"
)

// Validator type-checks a parsed SELECT against a single database's
// catalog. db is the database name the request targets; an optional
// `db.` qualifier on the table or projection must equal it (spec.md
// §4.6).
type Validator struct {
	Catalog *catalog.Catalog
	DB      string
}

// New returns a Validator scoped to db within cat.
func New(cat *catalog.Catalog, db string) *Validator {
	return &Validator{Catalog: cat, DB: db}
}

// Validate parses sql and compiles it into a plan.Descriptor. Any
// rejection (syntax error, unsupported construct, unknown name, type
// mismatch) is returned as a *dbcsverr.Error of Kind ValidationError.
func (v *Validator) Validate(sql string) (*plan.Descriptor, error) {
	stmt, err := machparse.Parse(sql)
	if err != nil {
		return nil, dbcsverr.Wrap(dbcsverr.ValidationError, "syntax", err)
	}
	if os.Getenv("DBCSV_DEBUG_AST") != "" {
		pp.Println(stmt)
	}

	sel, ok := stmt.(*ast.SelectStmt)
	if !ok {
		return nil, dbcsverr.New(dbcsverr.ValidationError, "only SELECT statements are supported")
	}
	if sel.Limit != nil {
		return nil, dbcsverr.New(dbcsverr.ValidationError, "unsupported clause: LIMIT")
	}
	if sel.GroupBy != nil || sel.Having != nil || sel.OrderBy != nil {
		return nil, dbcsverr.New(dbcsverr.ValidationError, "unsupported clause: GROUP BY/HAVING/ORDER BY")
	}

	table, err := v.validateFrom(sel.From)
	if err != nil {
		return nil, err
	}

	schema, err := v.Catalog.SchemaOf(v.DB, table)
	if err != nil {
		return nil, err
	}

	projection, err := v.validateProjection(sql, sel.Columns, table, schema)
	if err != nil {
		return nil, err
	}

	pred, err := v.compileWhere(sel.Where, schema)
	if err != nil {
		return nil, err
	}

	return &plan.Descriptor{
		DB:         v.DB,
		Table:      table,
		Projection: projection,
		Predicate:  pred,
	}, nil
}

// validateFrom enforces "exactly one table in FROM, no alias, optional
// db. qualifier must equal the requested database" (spec.md §4.6).
func (v *Validator) validateFrom(from ast.TableExpr) (string, error) {
	switch t := from.(type) {
	case *ast.TableName:
		if t.Schema() != "" && !strings.EqualFold(t.Schema(), v.DB) {
			return "", dbcsverr.Newf(dbcsverr.ValidationError, "invalid database qualifier: %s", t.Schema())
		}
		return t.Name(), nil
	case *ast.AliasedTableExpr:
		if t.Alias != "" {
			return "", dbcsverr.New(dbcsverr.ValidationError, "aliases not supported")
		}
		return v.validateFrom(t.Expr)
	default:
		return "", dbcsverr.New(dbcsverr.ValidationError, "unsupported FROM clause")
	}
}

// validateProjection enforces the projection grammar from spec.md §4.6:
// each item is *, col, table.col, or db.table.col; aliases, nested
// expressions, function calls, arithmetic, and catalog qualifiers beyond
// db.table.col are rejected. table.* and db.table.* desugar to *. sql is
// the original query text: machparse's ast.StarExpr keeps only the
// innermost (table) qualifier and silently discards any database-level
// part (parser/expression.go's parseIdentifierOrFunc collapses
// "db.table.*" to TableName:"table"), so a db-qualified star is
// recovered here from sql by the node's own source positions rather than
// from the AST node itself.
func (v *Validator) validateProjection(sql string, columns []ast.SelectExpr, table string, schema catalog.Schema) ([]string, error) {
	names := make([]string, 0, len(columns))
	for _, col := range columns {
		switch c := col.(type) {
		case *ast.StarExpr:
			if c.HasQualifier {
				segments := starQualifierSegments(sql, c)
				switch len(segments) {
				case 1:
					if !strings.EqualFold(segments[0], table) {
						return nil, dbcsverr.Newf(dbcsverr.ValidationError, "invalid table qualifier: %s", segments[0])
					}
				case 2:
					if !strings.EqualFold(segments[0], v.DB) {
						return nil, dbcsverr.Newf(dbcsverr.ValidationError, "invalid database qualifier: %s", segments[0])
					}
					if !strings.EqualFold(segments[1], table) {
						return nil, dbcsverr.Newf(dbcsverr.ValidationError, "invalid table qualifier: %s", segments[1])
					}
				default:
					return nil, dbcsverr.New(dbcsverr.ValidationError, "unsupported star qualifier")
				}
			}
			return []string{"*"}, nil
		case *ast.AliasedExpr:
			if c.Alias != "" {
				return nil, dbcsverr.New(dbcsverr.ValidationError, "aliases not supported")
			}
			colName, ok := c.Expr.(*ast.ColName)
			if !ok {
				return nil, dbcsverr.New(dbcsverr.ValidationError, "expressions in projections are not supported")
			}
			name, err := v.validateColRef(colName, table)
			if err != nil {
				return nil, err
			}
			if schema.IndexOf(name) < 0 {
				return nil, dbcsverr.Newf(dbcsverr.ValidationError, "unknown column: %s", name)
			}
			names = append(names, name)
		default:
			return nil, dbcsverr.New(dbcsverr.ValidationError, "unsupported projection item")
		}
	}
	if len(names) == 0 {
		return nil, dbcsverr.New(dbcsverr.ValidationError, "empty projection")
	}
	return names, nil
}

// starQualifierSegments recovers the dot-separated qualifier segments
// preceding a qualified star (e.g. ["db", "table"] for "db.table.*",
// ["table"] for "table.*") directly from sql, using the node's own
// StartPos/EndPos byte offsets. c.TableName alone cannot distinguish
// "table.*" from "db.table.*", since machparse keeps only the last
// segment before the star.
func starQualifierSegments(sql string, c *ast.StarExpr) []string {
	start, end := c.StartPos.Offset, c.EndPos.Offset
	if start < 0 || end < start || end >= len(sql) {
		return nil
	}
	text := sql[start : end+1]
	text = strings.TrimSuffix(strings.TrimSpace(text), "*")
	text = strings.TrimSuffix(strings.TrimSpace(text), ".")
	if text == "" {
		return nil
	}
	parts := strings.Split(text, ".")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// validateColRef enforces that a column reference's qualifiers (if any)
// name the current table and database, rejecting any other catalog
// qualifier (spec.md §4.6, scenario 7).
func (v *Validator) validateColRef(c *ast.ColName, table string) (string, error) {
	if sch := c.Schema(); sch != "" && !strings.EqualFold(sch, v.DB) {
		return "", dbcsverr.Newf(dbcsverr.ValidationError, "invalid database qualifier: %s", sch)
	}
	if tbl := c.Table(); tbl != "" && !strings.EqualFold(tbl, table) {
		return "", dbcsverr.Newf(dbcsverr.ValidationError, "invalid table qualifier: %s", tbl)
	}
	return c.Name(), nil
}

// compileWhere compiles an optional WHERE clause into a *plan.Predicate,
// applying constant folding per spec.md §4.6: a subtree with no column
// reference is evaluated now rather than compiled.
func (v *Validator) compileWhere(where ast.Expr, schema catalog.Schema) (*plan.Predicate, error) {
	if where == nil {
		return nil, nil
	}

	c := &compiler{schema: schema}
	pred, err := c.compile(where)
	if err != nil {
		return nil, err
	}

	if pred.Kind == plan.PredConst && pred.Value {
		return nil, nil // folds to true: no Filter stage needed
	}
	return pred, nil
}

type compiler struct {
	schema catalog.Schema
}

func (c *compiler) compile(e ast.Expr) (*plan.Predicate, error) {
	switch n := e.(type) {
	case *ast.ParenExpr:
		return c.compile(n.Expr)
	case *ast.BinaryExpr:
		return c.compileBinary(n)
	case *ast.Literal:
		if n.Type == ast.LiteralBool {
			return &plan.Predicate{Kind: plan.PredConst, Value: n.Value == "TRUE" || n.Value == "true"}, nil
		}
		return nil, dbcsverr.New(dbcsverr.ValidationError, "unsupported predicate: bare non-boolean literal")
	case *ast.IsExpr:
		return nil, dbcsverr.New(dbcsverr.ValidationError, "unsupported predicate: IS NULL")
	default:
		return nil, dbcsverr.New(dbcsverr.ValidationError, "unsupported predicate")
	}
}

func (c *compiler) compileBinary(n *ast.BinaryExpr) (*plan.Predicate, error) {
	switch n.Op {
	case token.AND:
		left, err := c.compile(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.compile(n.Right)
		if err != nil {
			return nil, err
		}
		return foldAnd(left, right), nil
	case token.OR:
		left, err := c.compile(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.compile(n.Right)
		if err != nil {
			return nil, err
		}
		return foldOr(left, right), nil
	case token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE:
		return c.compileComparison(n)
	default:
		return nil, dbcsverr.New(dbcsverr.ValidationError, "unsupported operator")
	}
}

func foldAnd(left, right *plan.Predicate) *plan.Predicate {
	if left.Kind == plan.PredConst {
		if !left.Value {
			return left
		}
		return right
	}
	if right.Kind == plan.PredConst {
		if !right.Value {
			return right
		}
		return left
	}
	return &plan.Predicate{Kind: plan.PredAnd, Left: left, Right: right}
}

func foldOr(left, right *plan.Predicate) *plan.Predicate {
	if left.Kind == plan.PredConst {
		if left.Value {
			return left
		}
		return right
	}
	if right.Kind == plan.PredConst {
		if right.Value {
			return right
		}
		return left
	}
	return &plan.Predicate{Kind: plan.PredOr, Left: left, Right: right}
}

func cmpOpOf(t token.Token) plan.CmpOp {
	switch t {
	case token.EQ:
		return plan.OpEQ
	case token.NEQ:
		return plan.OpNE
	case token.LT:
		return plan.OpLT
	case token.LTE:
		return plan.OpLE
	case token.GT:
		return plan.OpGT
	default:
		return plan.OpGE
	}
}

// operand classifies one side of a comparison: either a column (by its
// schema index and Family) or a literal (already converted to a
// celltype.Value).
type operand struct {
	isColumn bool
	colIndex int
	family   celltype.Family
	lit      celltype.Value
}

func (c *compiler) operandOf(e ast.Expr) (operand, error) {
	switch n := e.(type) {
	case *ast.ColName:
		if n.Table() != "" || n.Schema() != "" {
			return operand{}, dbcsverr.New(dbcsverr.ValidationError, "qualified columns are not supported in WHERE")
		}
		name := n.Name()
		idx := c.schema.IndexOf(name)
		if idx < 0 {
			return operand{}, dbcsverr.Newf(dbcsverr.ValidationError, "unknown column: %s", name)
		}
		return operand{isColumn: true, colIndex: idx, family: c.schema[idx].Type}, nil
	case *ast.Literal:
		return c.literalOperand(n)
	default:
		return operand{}, dbcsverr.New(dbcsverr.ValidationError, "unsupported operand")
	}
}

func (c *compiler) literalOperand(n *ast.Literal) (operand, error) {
	switch n.Type {
	case ast.LiteralInt:
		v, err := celltype.Convert(n.Value, celltype.FamilyInteger)
		if err != nil {
			return operand{}, dbcsverr.Wrap(dbcsverr.ValidationError, "invalid integer literal", err)
		}
		return operand{family: celltype.FamilyInteger, lit: v}, nil
	case ast.LiteralFloat:
		v, err := celltype.Convert(n.Value, celltype.FamilyFloat)
		if err != nil {
			return operand{}, dbcsverr.Wrap(dbcsverr.ValidationError, "invalid float literal", err)
		}
		return operand{family: celltype.FamilyFloat, lit: v}, nil
	case ast.LiteralString:
		text := celltype.StripQuotes(n.Value)
		return operand{family: celltype.FamilyString, lit: celltype.Value{Family: celltype.FamilyString, Str: text}}, nil
	case ast.LiteralBool:
		b := n.Value == "TRUE" || n.Value == "true"
		return operand{family: celltype.FamilyBoolean, lit: celltype.Value{Family: celltype.FamilyBoolean, Bool: b}}, nil
	default:
		return operand{}, dbcsverr.New(dbcsverr.ValidationError, "unsupported literal")
	}
}

// compileComparison implements the mixed-type comparison table from
// spec.md §4.6.
func (c *compiler) compileComparison(n *ast.BinaryExpr) (*plan.Predicate, error) {
	left, err := c.operandOf(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.operandOf(n.Right)
	if err != nil {
		return nil, err
	}
	op := cmpOpOf(n.Op)

	switch {
	case left.isColumn && right.isColumn:
		return c.compileColCol(left, right, op)
	case left.isColumn && !right.isColumn:
		return c.compileColLit(left, right, op)
	case !left.isColumn && right.isColumn:
		return c.compileColLit(right, left, flip(op))
	default:
		return c.compileLitLit(left, right, op)
	}
}

func flip(op plan.CmpOp) plan.CmpOp {
	switch op {
	case plan.OpLT:
		return plan.OpGT
	case plan.OpLE:
		return plan.OpGE
	case plan.OpGT:
		return plan.OpLT
	case plan.OpGE:
		return plan.OpLE
	default:
		return op
	}
}

func (c *compiler) compileColCol(left, right operand, op plan.CmpOp) (*plan.Predicate, error) {
	switch {
	case celltype.InClass(left.family, celltype.ClassNumeric) && celltype.InClass(right.family, celltype.ClassNumeric):
		return &plan.Predicate{Kind: plan.PredCmpColCol, ColIndex: left.colIndex, ColIndex2: right.colIndex, Class: celltype.ClassNumeric, Op: op}, nil
	case celltype.InClass(left.family, celltype.ClassStringlike) && celltype.InClass(right.family, celltype.ClassStringlike):
		return &plan.Predicate{Kind: plan.PredCmpColCol, ColIndex: left.colIndex, ColIndex2: right.colIndex, Class: celltype.ClassStringlike, Op: op}, nil
	default:
		return nil, dbcsverr.New(dbcsverr.ValidationError, "type mismatch: columns are not comparable")
	}
}

// compileColLit compiles a column-vs-literal (or boolean-literal-vs-column)
// comparison, per spec.md §4.6's table.
func (c *compiler) compileColLit(col, lit operand, op plan.CmpOp) (*plan.Predicate, error) {
	switch {
	case celltype.InClass(col.family, celltype.ClassNumeric) && (lit.family == celltype.FamilyInteger || lit.family == celltype.FamilyFloat):
		return &plan.Predicate{Kind: plan.PredCmpColLit, ColIndex: col.colIndex, Lit: lit.lit, Class: celltype.ClassNumeric, Op: op}, nil
	case celltype.InClass(col.family, celltype.ClassQuoted) && (lit.family == celltype.FamilyInteger || lit.family == celltype.FamilyFloat):
		return nil, dbcsverr.New(dbcsverr.ValidationError, "type mismatch: quoted column compared to numeric literal")
	case celltype.InClass(col.family, celltype.ClassQuoted) && lit.family == celltype.FamilyString:
		converted, err := celltype.Convert(lit.lit.Str, col.family)
		if err != nil {
			return nil, dbcsverr.Wrap(dbcsverr.ValidationError, "invalid literal for column type", err)
		}
		class := celltype.ClassStringlike
		if col.family == celltype.FamilyTemporal {
			class = celltype.ClassQuoted
		}
		return &plan.Predicate{Kind: plan.PredCmpColLit, ColIndex: col.colIndex, Lit: converted, Class: class, Op: op}, nil
	case lit.family == celltype.FamilyBoolean:
		if !celltype.InClass(col.family, celltype.ClassNumeric) {
			return nil, dbcsverr.New(dbcsverr.ValidationError, "type mismatch: boolean literal compared to quoted column")
		}
		return &plan.Predicate{Kind: plan.PredCmpColLit, ColIndex: col.colIndex, Lit: lit.lit, Class: celltype.ClassNumeric, Op: op}, nil
	default:
		return nil, dbcsverr.New(dbcsverr.ValidationError, "type mismatch")
	}
}

func (c *compiler) compileLitLit(a, b operand, op plan.CmpOp) (*plan.Predicate, error) {
	aNumeric := a.family == celltype.FamilyInteger || a.family == celltype.FamilyFloat || a.family == celltype.FamilyBoolean
	bNumeric := b.family == celltype.FamilyInteger || b.family == celltype.FamilyFloat || b.family == celltype.FamilyBoolean
	if aNumeric && bNumeric {
		result := plan.Eval(&plan.Predicate{Kind: plan.PredCmpLitLit, A: a.lit, B: b.lit, Class: celltype.ClassNumeric, Op: op}, nil)
		return &plan.Predicate{Kind: plan.PredConst, Value: result}, nil
	}
	if a.family == celltype.FamilyString && b.family == celltype.FamilyString {
		result := plan.Eval(&plan.Predicate{Kind: plan.PredCmpLitLit, A: a.lit, B: b.lit, Class: celltype.ClassStringlike, Op: op}, nil)
		return &plan.Predicate{Kind: plan.PredConst, Value: result}, nil
	}
	return nil, dbcsverr.New(dbcsverr.ValidationError, "type mismatch: literals are not comparable")
}
