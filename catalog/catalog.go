// Package catalog implements the in-memory metadata catalog from
// spec.md §4.2: a read-only map of database name to table name to ordered
// column schema, populated once at startup.
//
// Grounded on the teacher's abstraction-layer idiom (database/database.go's
// Database interface wrapping several concrete backends behind one shape)
// generalized from "live SQL connections to several engines" to "one
// read-only snapshot of a filesystem tree," and on database/file/file.go's
// "pseudo database that reads files instead of a live connection" for the
// concrete Loader in loader.go.
package catalog

import (
	"sort"
	"strings"

	"github.com/maixuanbach/dbcsv/celltype"
	"github.com/maixuanbach/dbcsv/dbcsverr"
	"github.com/maixuanbach/dbcsv/util"
)

// Column is one entry of a table schema: a declared name and type family.
type Column struct {
	Name string
	Type celltype.Family
}

// Schema is a table's ordered column list. Order is authoritative (spec.md
// §3) and must match the CSV header positionally, case-insensitively.
type Schema []Column

// Names returns the schema's column names in order.
func (s Schema) Names() []string {
	return util.TransformSlice(s, func(c Column) string { return c.Name })
}

// IndexOf returns the position of name in the schema (case-sensitive, as
// spec.md §4.6 specifies for named-projection resolution), or -1.
func (s Schema) IndexOf(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

type table struct {
	name   string
	schema Schema
}

type database struct {
	name   string
	tables map[string]table // keyed by lower-cased table name
}

// Catalog is the read-only database-name → table-name → schema map.
// Construction happens once at process start; there are no mutation
// methods (spec.md §3, "Database catalog... treated as immutable").
type Catalog struct {
	databases map[string]database // keyed by lower-cased db name
}

// New builds a Catalog from the given database/table/schema triples. It is
// the seam a Loader (loader.go) targets; tests build Catalogs directly with
// New rather than touching the filesystem.
func New(dbs map[string]map[string]Schema) *Catalog {
	c := &Catalog{databases: make(map[string]database, len(dbs))}
	for dbName, tables := range dbs {
		d := database{name: dbName, tables: make(map[string]table, len(tables))}
		for tableName, schema := range tables {
			d.tables[strings.ToLower(tableName)] = table{name: tableName, schema: schema}
		}
		c.databases[strings.ToLower(dbName)] = d
	}
	return c
}

// HasDatabase reports whether db is a known database name, case-insensitively.
func (c *Catalog) HasDatabase(db string) bool {
	_, ok := c.databases[strings.ToLower(db)]
	return ok
}

// ListDatabases returns every known database name, sorted for determinism.
func (c *Catalog) ListDatabases() []string {
	names := make([]string, 0, len(c.databases))
	for _, d := range c.databases {
		names = append(names, d.name)
	}
	sort.Strings(names)
	return names
}

// SchemaOf returns the ordered column schema for db.table, case-insensitive
// on both names. A missing table (or database) fails with NoSuchTable,
// surfaced as dbcsverr.ValidationError per spec.md §4.2.
func (c *Catalog) SchemaOf(db, tableName string) (Schema, error) {
	d, ok := c.databases[strings.ToLower(db)]
	if !ok {
		return nil, dbcsverr.Newf(dbcsverr.ValidationError, "unknown database: %s", db)
	}
	t, ok := d.tables[strings.ToLower(tableName)]
	if !ok {
		return nil, dbcsverr.Newf(dbcsverr.ValidationError, "no such table: %s.%s", db, tableName)
	}
	return t.schema, nil
}

// ListTables returns every table name declared in db, in canonical
// (as-declared) spelling, sorted for determinism. Iteration order over
// the underlying map is made deterministic via util.CanonicalMapIter,
// the same sorted-key-iteration idiom the teacher used for generating
// stable DDL output.
func (c *Catalog) ListTables(db string) ([]string, error) {
	d, ok := c.databases[strings.ToLower(db)]
	if !ok {
		return nil, dbcsverr.Newf(dbcsverr.ValidationError, "unknown database: %s", db)
	}
	names := make([]string, 0, len(d.tables))
	for _, t := range util.CanonicalMapIter(d.tables) {
		names = append(names, t.name)
	}
	return names, nil
}

// TableName returns the canonical (as-declared) spelling of a table name
// within db, resolved case-insensitively, for use building the Scan's CSV
// path.
func (c *Catalog) TableName(db, tableName string) (string, bool) {
	d, ok := c.databases[strings.ToLower(db)]
	if !ok {
		return "", false
	}
	t, ok := d.tables[strings.ToLower(tableName)]
	if !ok {
		return "", false
	}
	return t.name, true
}
