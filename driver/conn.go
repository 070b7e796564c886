package driver

import (
	"bytes"
	"context"
	sqldriver "database/sql/driver"
	"encoding/json"
	"io"
	"net/http"

	"github.com/maixuanbach/dbcsv/dbcsverr"
)

// Conn is one authenticated connection to a dbcsvd server.
type Conn struct {
	connector *Connector
	token     string
}

type queryRequest struct {
	Database string `json:"db"`
	SQL      string `json:"sql"`
}

// QueryContext implements database/sql/driver.QueryerContext: it posts
// the query to /query/sql and wraps the NDJSON response body in a *Rows,
// reconnecting once via /auth/refresh if the server reports the token
// expired (spec.md §6's session model).
func (c *Conn) QueryContext(ctx context.Context, query string, args []sqldriver.NamedValue) (sqldriver.Rows, error) {
	if len(args) != 0 {
		return nil, dbcsverr.New(dbcsverr.ValidationError, "parameterized queries are not supported")
	}

	resp, err := c.doQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
		resp, err = c.doQuery(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var er errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		if er.Detail == "" {
			er.Detail = resp.Status
		}
		kind := dbcsverr.ValidationError
		if resp.StatusCode == http.StatusInternalServerError {
			kind = dbcsverr.DataAccessError
		}
		return nil, dbcsverr.New(kind, er.Detail)
	}

	return newRows(resp.Body), nil
}

func (c *Conn) doQuery(ctx context.Context, sql string) (*http.Response, error) {
	body, err := json.Marshal(queryRequest{Database: c.connector.dsn.DB, SQL: sql})
	if err != nil {
		return nil, dbcsverr.Wrap(dbcsverr.ProtocolError, "failed to encode query request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.connector.dsn.baseURL()+"/query/sql", bytes.NewReader(body))
	if err != nil {
		return nil, dbcsverr.Wrap(dbcsverr.ProtocolError, "failed to build query request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.connector.httpClient.Do(req)
	if err != nil {
		return nil, dbcsverr.Wrap(dbcsverr.DataAccessError, "query request failed", err)
	}
	return resp, nil
}

func (c *Conn) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.connector.dsn.baseURL()+"/auth/refresh", bytes.NewReader([]byte("{}")))
	if err != nil {
		return dbcsverr.Wrap(dbcsverr.ProtocolError, "failed to build refresh request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.connector.httpClient.Do(req)
	if err != nil {
		return dbcsverr.Wrap(dbcsverr.DataAccessError, "refresh request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return authErrorFrom(resp)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return dbcsverr.Wrap(dbcsverr.ProtocolError, "failed to decode refresh response", err)
	}
	c.token = tr.Token
	return nil
}

// Prepare implements database/sql/driver.Conn. Parameterized statements
// are not supported (spec.md §1's core scope has no bind parameters), so
// Prepare wraps the query text and defers validation to the server on
// Query.
func (c *Conn) Prepare(query string) (sqldriver.Stmt, error) {
	return &Stmt{conn: c, query: query}, nil
}

// Close implements database/sql/driver.Conn. There is no server-side
// session to tear down (spec.md §5: each HTTP request is independent),
// so Close only discards the local token.
func (c *Conn) Close() error {
	c.token = ""
	return nil
}

// Begin implements database/sql/driver.Conn; dbcsv is read-only
// (spec.md §1 Non-goals: "No writes"), so transactions are not supported.
func (c *Conn) Begin() (sqldriver.Tx, error) {
	return nil, dbcsverr.New(dbcsverr.ValidationError, "transactions are not supported")
}

var (
	_ sqldriver.Conn          = (*Conn)(nil)
	_ sqldriver.QueryerContext = (*Conn)(nil)
)

// Stmt adapts database/sql's prepare/query split onto dbcsv's single
// stateless /query/sql endpoint: Prepare does no server round trip, and
// each Query call re-sends the full SQL text.
type Stmt struct {
	conn  *Conn
	query string
}

func (s *Stmt) Close() error  { return nil }
func (s *Stmt) NumInput() int { return 0 }

func (s *Stmt) Exec(args []sqldriver.Value) (sqldriver.Result, error) {
	return nil, dbcsverr.New(dbcsverr.ValidationError, "write statements are not supported")
}

func (s *Stmt) Query(args []sqldriver.Value) (sqldriver.Rows, error) {
	if len(args) != 0 {
		return nil, dbcsverr.New(dbcsverr.ValidationError, "parameterized queries are not supported")
	}
	return s.conn.QueryContext(context.Background(), s.query, nil)
}

var _ sqldriver.Stmt = (*Stmt)(nil)

// discard drains and closes body; used when a caller abandons a Rows
// before reaching EOF.
func discard(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
