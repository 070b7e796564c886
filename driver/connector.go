package driver

import (
	"bytes"
	"context"
	sqldriver "database/sql/driver"
	"encoding/json"
	"net/http"

	"github.com/maixuanbach/dbcsv/dbcsverr"
)

// Connector is a fixed dbcsv connection configuration, analogous to
// lib-pq's Connector: it can produce any number of equivalent Conns via
// database/sql.OpenDB.
type Connector struct {
	dsn        dsn
	username   string
	password   string
	httpClient *http.Client
}

// NewConnector parses raw as a DSN (spec.md §6) and pairs it with
// username/password, which are presented to /auth/connect on first use —
// never embedded in the DSN itself.
func NewConnector(raw, username, password string) (*Connector, error) {
	d, err := parseDSN(raw)
	if err != nil {
		return nil, err
	}
	return &Connector{dsn: d, username: username, password: password, httpClient: http.DefaultClient}, nil
}

// Driver implements database/sql/driver.Connector.
func (c *Connector) Driver() sqldriver.Driver { return &Driver{} }

type connectRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Connect performs POST /auth/connect and returns a *Conn holding the
// resulting bearer token.
func (c *Connector) Connect(ctx context.Context) (sqldriver.Conn, error) {
	body, err := json.Marshal(connectRequest{Username: c.username, Password: c.password, Database: c.dsn.DB})
	if err != nil {
		return nil, dbcsverr.Wrap(dbcsverr.ProtocolError, "failed to encode connect request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.dsn.baseURL()+"/auth/connect", bytes.NewReader(body))
	if err != nil {
		return nil, dbcsverr.Wrap(dbcsverr.ProtocolError, "failed to build connect request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, dbcsverr.Wrap(dbcsverr.DataAccessError, "connect request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, authErrorFrom(resp)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, dbcsverr.Wrap(dbcsverr.ProtocolError, "failed to decode connect response", err)
	}

	return &Conn{connector: c, token: tr.Token}, nil
}

func authErrorFrom(resp *http.Response) error {
	var er errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&er)
	if er.Detail == "" {
		er.Detail = resp.Status
	}
	return dbcsverr.New(dbcsverr.AuthError, er.Detail)
}

var _ sqldriver.Connector = (*Connector)(nil)
