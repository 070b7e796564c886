// Package auth implements the bearer-token authentication surface from
// spec.md §4.10: account lookup by plain-equality password comparison,
// and JWT issuance/verification carrying only a subject and expiration.
//
// JWT usage is grounded on the ecosystem convention the pack's
// Rrens-text-to-sql manifest pulls in (github.com/golang-jwt/jwt/v5);
// no in-pack repo ships a working HTTP auth layer to imitate directly, so
// the shape here follows golang-jwt/jwt/v5's own documented
// NewWithClaims/ParseWithClaims idiom.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/maixuanbach/dbcsv/dbcsverr"
)

// Account is one entry of accounts.json (spec.md §6). The field is named
// HashedPassword for on-disk compatibility with spec.md's layout, but
// Issue compares it to the supplied password by plain equality — spec.md
// §6 is explicit this is not a hash comparison.
type Account struct {
	Username       string `json:"username"`
	HashedPassword string `json:"hashed_password"`
}

// AccountStore resolves a username to its stored Account. Loading
// accounts is out of core scope per spec.md §1; the interface exists so
// Auth does not depend on any one loading mechanism.
type AccountStore interface {
	Lookup(username string) (Account, bool)
}

// Credentials is the username/password pair presented to Issue.
type Credentials struct {
	Username string
	Password string
}

// Principal identifies the authenticated subject of a verified token.
type Principal struct {
	Username string
}

// Auth issues and verifies bearer tokens per spec.md §4.10.
type Auth struct {
	Accounts   AccountStore
	SigningKey []byte
	AccessTTL  time.Duration
}

// New returns an Auth backed by accounts, signing tokens with key and
// setting each token's expiration accessTTL past issuance.
func New(accounts AccountStore, key []byte, accessTTL time.Duration) *Auth {
	return &Auth{Accounts: accounts, SigningKey: key, AccessTTL: accessTTL}
}

// Issue authenticates creds against the account store and, on success,
// returns a signed token carrying only subject and expiration (spec.md
// §4.10: "Token carries subject and expiration only"). db is accepted for
// symmetry with the /auth/connect request shape but is not encoded into
// the token — database access is re-validated by the engine on every
// query, not cached in the token.
func (a *Auth) Issue(creds Credentials, db string) (string, error) {
	acct, ok := a.Accounts.Lookup(creds.Username)
	if !ok || acct.HashedPassword != creds.Password {
		return "", dbcsverr.New(dbcsverr.AuthError, "invalid credentials")
	}
	return a.sign(acct.Username)
}

// Refresh re-issues a token for principal with a new expiration.
func (a *Auth) Refresh(principal Principal) (string, error) {
	return a.sign(principal.Username)
}

func (a *Auth) sign(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(a.AccessTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.SigningKey)
	if err != nil {
		return "", dbcsverr.Wrap(dbcsverr.AuthError, "failed to sign token", err)
	}
	return signed, nil
}

// PrincipalOf verifies tokenString's signature and expiration, returning
// the Principal it identifies. Any failure (malformed token, bad
// signature, expiry) is a dbcsverr.AuthError.
func (a *Auth) PrincipalOf(tokenString string) (Principal, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dbcsverr.New(dbcsverr.AuthError, "unexpected signing method")
		}
		return a.SigningKey, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, dbcsverr.Wrap(dbcsverr.AuthError, "invalid or expired token", err)
	}
	return Principal{Username: claims.Subject}, nil
}
