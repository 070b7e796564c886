package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maixuanbach/dbcsv/celltype"
	"github.com/maixuanbach/dbcsv/dbcsverr"
)

// Loader discovers databases and per-table schemas. Per spec.md §1, this
// is "filesystem discovery of databases... specified only by interface":
// the core query path depends only on a *Catalog, never on how one was
// built, and a Loader's work happens once at process startup, never on
// the request path.
type Loader interface {
	Load(ctx context.Context) (*Catalog, error)
}

// tableSchemaFile is the on-disk sidecar spec.md §6 implies but does not
// name: a CSV header alone carries column names, never declared types, so
// each table needs a small companion file naming them. This mirrors the
// teacher's own split between DDL text (schema) and data (the live
// connection) by keeping the declared schema in its own file next to the
// CSV it describes.
type tableSchemaFile struct {
	Columns []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"columns"`
}

// FilesystemLoader discovers databases under a data root directory per
// spec.md §6's filesystem layout: <data-root>/<db>/ is a database,
// <data-root>/<db>/<table>.csv holds its rows, and
// <data-root>/<db>/<table>.schema.json declares its column order and
// types. Grounded on database/file/file.go's "pseudo database that reads
// a filesystem artifact instead of a live connection" shape.
type FilesystemLoader struct {
	DataRoot string
}

// NewFilesystemLoader returns a Loader rooted at dataRoot.
func NewFilesystemLoader(dataRoot string) *FilesystemLoader {
	return &FilesystemLoader{DataRoot: dataRoot}
}

// Load walks DataRoot and builds a Catalog. It is intentionally simple and
// synchronous: this runs once, at process startup, not per request.
func (l *FilesystemLoader) Load(ctx context.Context) (*Catalog, error) {
	entries, err := os.ReadDir(l.DataRoot)
	if err != nil {
		return nil, dbcsverr.Wrap(dbcsverr.DataAccessError, "read data root", err)
	}

	dbs := make(map[string]map[string]Schema)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		dbName := e.Name()
		dbDir := filepath.Join(l.DataRoot, dbName)
		tables, err := l.loadDatabase(dbDir)
		if err != nil {
			return nil, dbcsverr.Wrap(dbcsverr.DataAccessError, fmt.Sprintf("load database %q", dbName), err)
		}
		dbs[dbName] = tables
	}
	return New(dbs), nil
}

func (l *FilesystemLoader) loadDatabase(dbDir string) (map[string]Schema, error) {
	entries, err := os.ReadDir(dbDir)
	if err != nil {
		return nil, err
	}

	tables := make(map[string]Schema)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		tableName := strings.TrimSuffix(e.Name(), ".csv")
		schema, err := l.loadSchema(filepath.Join(dbDir, tableName+".schema.json"))
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", tableName, err)
		}
		tables[tableName] = schema
	}
	return tables, nil
}

func (l *FilesystemLoader) loadSchema(path string) (Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file tableSchemaFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	schema := make(Schema, 0, len(file.Columns))
	for _, col := range file.Columns {
		family, ok := celltype.Normalize(col.Type)
		if !ok {
			return nil, fmt.Errorf("column %q: unknown type %q", col.Name, col.Type)
		}
		schema = append(schema, Column{Name: col.Name, Type: family})
	}
	return schema, nil
}
