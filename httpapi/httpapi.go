// Package httpapi implements the HTTP surface from spec.md §4.9 and §6:
// POST /auth/connect, POST /auth/refresh, and POST /query/sql, wired with
// Go 1.22's net/http.ServeMux method-pattern routing — see SPEC_FULL.md's
// rationale for not pulling in an external router for three routes.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/maixuanbach/dbcsv/auth"
	"github.com/maixuanbach/dbcsv/dbcsverr"
	"github.com/maixuanbach/dbcsv/engine"
)

// Handler serves the dbcsvd HTTP surface (spec.md §4.9).
type Handler struct {
	Engine          *engine.Engine
	Auth            *auth.Auth
	NDJSONBatchSize int
}

// New returns a Handler wired to eng and a, batching NDJSON output rows
// by ndjsonBatchSize (spec.md §6: "batches of up to 1024 rows").
func New(eng *engine.Engine, a *auth.Auth, ndjsonBatchSize int) *Handler {
	if ndjsonBatchSize <= 0 {
		ndjsonBatchSize = 1024
	}
	return &Handler{Engine: eng, Auth: a, NDJSONBatchSize: ndjsonBatchSize}
}

// Mux builds the routed net/http.ServeMux for this Handler.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/connect", h.handleConnect)
	mux.HandleFunc("POST /auth/refresh", h.handleRefresh)
	mux.HandleFunc("POST /query/sql", h.handleQuery)
	return mux
}

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

func (h *Handler) handleConnect(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if !h.Engine.Catalog.HasDatabase(req.Database) {
		slog.Warn("connect rejected: unknown database", "request_id", requestID, "database", req.Database)
		writeError(w, http.StatusBadRequest, "unknown database")
		return
	}

	token, err := h.Auth.Issue(auth.Credentials{Username: req.Username, Password: req.Password}, req.Database)
	if err != nil {
		slog.Warn("connect failed", "request_id", requestID, "username", req.Username, "error", err)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	principal, err := h.authenticate(r)
	if err != nil {
		slog.Warn("refresh failed", "request_id", requestID, "error", err)
		writeError(w, http.StatusForbidden, "invalid or expired token")
		return
	}

	token, err := h.Auth.Refresh(principal)
	if err != nil {
		writeError(w, http.StatusForbidden, "invalid or expired token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

type queryRequest struct {
	Database string `json:"db"`
	SQL      string `json:"sql"`
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	logger := slog.With("request_id", requestID)

	principal, err := h.authenticate(r)
	if err != nil {
		logger.Warn("query rejected: auth", "error", err)
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	iter, columns, err := h.Engine.Execute(r.Context(), req.SQL, req.Database)
	if err != nil {
		logger.Info("query rejected", "user", principal.Username, "error", err)
		status := http.StatusBadRequest
		if kind, ok := dbcsverr.KindOf(err); ok && kind == dbcsverr.DataAccessError {
			status = http.StatusInternalServerError
		}
		writeError(w, status, err.Error())
		return
	}
	defer iter.Close()

	logger.Info("query accepted", "user", principal.Username, "database", req.Database, "columns", strings.Join(columns, ","))

	h.streamNDJSON(w, r, logger, iter)
}
