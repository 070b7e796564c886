package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maixuanbach/dbcsv/auth"
	"github.com/maixuanbach/dbcsv/catalog"
	"github.com/maixuanbach/dbcsv/celltype"
	"github.com/maixuanbach/dbcsv/engine"
)

type mapStore map[string]auth.Account

func (m mapStore) Lookup(username string) (auth.Account, bool) {
	a, ok := m[username]
	return a, ok
}

func setupHandler(t *testing.T) (*Handler, *auth.Auth) {
	t.Helper()
	root := t.TempDir()
	dbDir := filepath.Join(root, "shop")
	require.NoError(t, os.MkdirAll(dbDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dbDir, "orders.csv"), []byte("id,total\n1,9.99\n2,4.50\n"), 0o644))

	cat := catalog.New(map[string]map[string]catalog.Schema{
		"shop": {
			"orders": catalog.Schema{
				{Name: "id", Type: celltype.FamilyInteger},
				{Name: "total", Type: celltype.FamilyFloat},
			},
		},
	})
	eng := engine.New(cat, root, 0)
	a := auth.New(mapStore{"alice": {Username: "alice", HashedPassword: "secret"}}, []byte("test-key"), time.Hour)
	return New(eng, a, 0), a
}

func TestHandleConnectSuccess(t *testing.T) {
	h, _ := setupHandler(t)
	body, _ := json.Marshal(connectRequest{Username: "alice", Password: "secret", Database: "shop"})
	req := httptest.NewRequest(http.MethodPost, "/auth/connect", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Mux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
}

func TestHandleConnectRejectsBadCredentials(t *testing.T) {
	h, _ := setupHandler(t)
	body, _ := json.Marshal(connectRequest{Username: "alice", Password: "wrong", Database: "shop"})
	req := httptest.NewRequest(http.MethodPost, "/auth/connect", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Mux().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleConnectRejectsMalformedBody(t *testing.T) {
	h, _ := setupHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/connect", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()

	h.Mux().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleConnectRejectsUnknownDatabase(t *testing.T) {
	h, _ := setupHandler(t)
	body, _ := json.Marshal(connectRequest{Username: "alice", Password: "secret", Database: "nope"})
	req := httptest.NewRequest(http.MethodPost, "/auth/connect", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Mux().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQueryRejectsMissingToken(t *testing.T) {
	h, _ := setupHandler(t)
	body, _ := json.Marshal(queryRequest{Database: "shop", SQL: "SELECT * FROM orders"})
	req := httptest.NewRequest(http.MethodPost, "/query/sql", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Mux().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleQueryStreamsNDJSON(t *testing.T) {
	h, a := setupHandler(t)
	token, err := a.Issue(auth.Credentials{Username: "alice", Password: "secret"}, "shop")
	require.NoError(t, err)

	body, _ := json.Marshal(queryRequest{Database: "shop", SQL: "SELECT * FROM orders"})
	req := httptest.NewRequest(http.MethodPost, "/query/sql", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	h.Mux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

	var rows [][]interface{}
	dec := json.NewDecoder(rec.Body)
	for {
		var batch [][]interface{}
		if err := dec.Decode(&batch); err != nil {
			break
		}
		rows = append(rows, batch...)
	}
	assert.Len(t, rows, 2)
}

func TestHandleQueryRejectsInvalidSQL(t *testing.T) {
	h, a := setupHandler(t)
	token, err := a.Issue(auth.Credentials{Username: "alice", Password: "secret"}, "shop")
	require.NoError(t, err)

	body, _ := json.Marshal(queryRequest{Database: "shop", SQL: "DELETE FROM orders"})
	req := httptest.NewRequest(http.MethodPost, "/query/sql", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	h.Mux().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRefreshIssuesNewToken(t *testing.T) {
	h, a := setupHandler(t)
	token, err := a.Issue(auth.Credentials{Username: "alice", Password: "secret"}, "shop")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	h.Mux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
}

func TestHandleRefreshRejectsMissingToken(t *testing.T) {
	h, _ := setupHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	rec := httptest.NewRecorder()

	h.Mux().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleRefreshRejectsExpiredToken(t *testing.T) {
	h, a := setupHandler(t)
	a.AccessTTL = -time.Hour
	token, err := a.Issue(auth.Credentials{Username: "alice", Password: "secret"}, "shop")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	h.Mux().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
