package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONAccountStoreLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"username": "alice", "hashed_password": "secret"},
		{"username": "bob", "hashed_password": "hunter2"}
	]`), 0o644))

	store, err := NewJSONAccountStore(path)
	require.NoError(t, err)

	acct, ok := store.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "secret", acct.HashedPassword)

	_, ok = store.Lookup("nope")
	assert.False(t, ok)
}

func TestJSONAccountStoreMissingFile(t *testing.T) {
	_, err := NewJSONAccountStore(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestJSONAccountStoreMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := NewJSONAccountStore(path)
	assert.Error(t, err)
}
