package driver

import (
	"context"
	"database/sql"
	sqldriver "database/sql/driver"
)

// Driver is the database/sql/driver.Driver registered under "dbcsv". It
// only satisfies the legacy Open path (no credentials); callers that need
// to supply a username/password should build a *Connector with
// NewConnector and pass it to sql.OpenDB, per spec.md §6's note that
// credentials never travel inside the DSN string.
type Driver struct{}

func init() {
	sql.Register("dbcsv", &Driver{})
}

// Open implements database/sql/driver.Driver. It builds an unauthenticated
// Connector; Connect will fail until credentials are supplied some other
// way, so callers wanting authentication should prefer sql.OpenDB with
// NewConnector instead of sql.Open.
func (d *Driver) Open(name string) (sqldriver.Conn, error) {
	c, err := NewConnector(name, "", "")
	if err != nil {
		return nil, err
	}
	return c.Connect(context.Background())
}
