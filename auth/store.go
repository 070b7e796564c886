package auth

import (
	"encoding/json"
	"os"

	"github.com/maixuanbach/dbcsv/dbcsverr"
)

// JSONAccountStore loads accounts.json (spec.md §6) once at startup into
// an in-memory map. It is the only AccountStore this repo ships; the
// interface exists so alternate loaders can be substituted without
// touching Auth.
type JSONAccountStore struct {
	accounts map[string]Account
}

// NewJSONAccountStore reads and parses the accounts.json file at path.
func NewJSONAccountStore(path string) (*JSONAccountStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dbcsverr.Wrap(dbcsverr.DataAccessError, "failed to read accounts file", err)
	}

	var list []Account
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, dbcsverr.Wrap(dbcsverr.DataAccessError, "failed to parse accounts file", err)
	}

	accounts := make(map[string]Account, len(list))
	for _, a := range list {
		accounts[a.Username] = a
	}
	return &JSONAccountStore{accounts: accounts}, nil
}

// Lookup implements AccountStore.
func (s *JSONAccountStore) Lookup(username string) (Account, bool) {
	a, ok := s.accounts[username]
	return a, ok
}

var _ AccountStore = (*JSONAccountStore)(nil)
