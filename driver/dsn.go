// Package driver implements the client half of the wire protocol from
// spec.md §6: a database/sql/driver.Driver that speaks to a dbcsvd server
// over HTTP/NDJSON. Grounded structurally on lib-pq's Driver/Connector/
// Conn/Rows split (conn.go, connector.go, rows.go), though the transport
// underneath is this repo's own HTTP+NDJSON protocol rather than the
// Postgres wire protocol.
package driver

import (
	"net/url"

	"github.com/maixuanbach/dbcsv/dbcsverr"
)

// dsn is a parsed data source name, per spec.md §6's DSN form:
// http[s]://host[:port]/<db>, with no query string, fragment, or
// embedded userinfo — credentials are supplied separately via
// NewConnector, not through the DSN string (see SPEC_FULL.md §6).
type dsn struct {
	Scheme string
	Host   string
	DB     string
}

// parseDSN parses raw per spec.md §6, mirroring lib-pq's url.go use of
// net/url.Parse, but rejecting the components the Postgres URL form
// allows and this protocol does not.
func parseDSN(raw string) (dsn, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return dsn{}, dbcsverr.Wrap(dbcsverr.ValidationError, "invalid DSN", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return dsn{}, dbcsverr.Newf(dbcsverr.ValidationError, "invalid DSN scheme: %s", u.Scheme)
	}
	if u.User != nil {
		return dsn{}, dbcsverr.New(dbcsverr.ValidationError, "DSN must not embed credentials")
	}
	if u.RawQuery != "" {
		return dsn{}, dbcsverr.New(dbcsverr.ValidationError, "DSN must not include a query string")
	}
	if u.Fragment != "" {
		return dsn{}, dbcsverr.New(dbcsverr.ValidationError, "DSN must not include a fragment")
	}

	db := u.Path
	for len(db) > 0 && db[0] == '/' {
		db = db[1:]
	}
	if db == "" {
		return dsn{}, dbcsverr.New(dbcsverr.ValidationError, "DSN must name a database path")
	}

	return dsn{Scheme: u.Scheme, Host: u.Host, DB: db}, nil
}

func (d dsn) baseURL() string {
	return d.Scheme + "://" + d.Host
}
