package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maixuanbach/dbcsv/catalog"
	"github.com/maixuanbach/dbcsv/celltype"
	"github.com/maixuanbach/dbcsv/dbcsverr"
)

func setupEngine(t *testing.T) *Engine {
	t.Helper()
	root := t.TempDir()
	dbDir := filepath.Join(root, "shop")
	require.NoError(t, os.MkdirAll(dbDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dbDir, "orders.csv"), []byte("id,total\n1,9.99\n2,4.50\n3,100.00\n"), 0o644))

	cat := catalog.New(map[string]map[string]catalog.Schema{
		"shop": {
			"orders": catalog.Schema{
				{Name: "id", Type: celltype.FamilyInteger},
				{Name: "total", Type: celltype.FamilyFloat},
			},
		},
	})
	return New(cat, root, 0)
}

func TestExecuteSelectStar(t *testing.T) {
	e := setupEngine(t)
	it, names, err := e.Execute(context.Background(), "SELECT * FROM orders", "shop")
	require.NoError(t, err)
	defer it.Close()
	assert.Equal(t, []string{"id", "total"}, names)

	count := 0
	for {
		_, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 3, count)
}

func TestExecuteWithWhere(t *testing.T) {
	e := setupEngine(t)
	it, _, err := e.Execute(context.Background(), "SELECT id FROM orders WHERE total > 10", "shop")
	require.NoError(t, err)
	defer it.Close()

	var ids []int64
	for {
		row, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		ids = append(ids, row[0].Int)
	}
	assert.Equal(t, []int64{3}, ids)
}

func TestExecuteUnknownDatabase(t *testing.T) {
	e := setupEngine(t)
	_, _, err := e.Execute(context.Background(), "SELECT * FROM orders", "nope")
	require.Error(t, err)
	kind, ok := dbcsverr.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, dbcsverr.ValidationError, kind)
}

func TestExecuteInvalidSQL(t *testing.T) {
	e := setupEngine(t)
	_, _, err := e.Execute(context.Background(), "SELEC * FROM orders", "shop")
	assert.Error(t, err)
}

func TestExecuteUnknownTable(t *testing.T) {
	e := setupEngine(t)
	_, _, err := e.Execute(context.Background(), "SELECT * FROM missing", "shop")
	assert.Error(t, err)
}
