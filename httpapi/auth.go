package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/maixuanbach/dbcsv/auth"
	"github.com/maixuanbach/dbcsv/dbcsverr"
)

// authenticate extracts and verifies the bearer token from r's
// Authorization header (spec.md §4.9 step 1).
func (h *Handler) authenticate(r *http.Request) (auth.Principal, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return auth.Principal{}, dbcsverr.New(dbcsverr.AuthError, "missing bearer token")
	}
	token := strings.TrimPrefix(header, prefix)
	return h.Auth.PrincipalOf(token)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
