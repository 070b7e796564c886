package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maixuanbach/dbcsv/celltype"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFilesystemLoaderLoad(t *testing.T) {
	root := t.TempDir()
	dbDir := filepath.Join(root, "shop")
	require.NoError(t, os.MkdirAll(dbDir, 0o755))

	writeFile(t, filepath.Join(dbDir, "orders.csv"), "id,total\n1,9.99\n")
	writeFile(t, filepath.Join(dbDir, "orders.schema.json"), `{
		"columns": [
			{"name": "id", "type": "INTEGER"},
			{"name": "total", "type": "FLOAT"}
		]
	}`)

	loader := NewFilesystemLoader(root)
	cat, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.True(t, cat.HasDatabase("shop"))
	schema, err := cat.SchemaOf("shop", "orders")
	require.NoError(t, err)
	require.Equal(t, Schema{
		{Name: "id", Type: celltype.FamilyInteger},
		{Name: "total", Type: celltype.FamilyFloat},
	}, schema)
}

func TestFilesystemLoaderUnknownType(t *testing.T) {
	root := t.TempDir()
	dbDir := filepath.Join(root, "shop")
	require.NoError(t, os.MkdirAll(dbDir, 0o755))

	writeFile(t, filepath.Join(dbDir, "orders.csv"), "id\n1\n")
	writeFile(t, filepath.Join(dbDir, "orders.schema.json"), `{
		"columns": [{"name": "id", "type": "JSONB"}]
	}`)

	loader := NewFilesystemLoader(root)
	_, err := loader.Load(context.Background())
	require.Error(t, err)
}
