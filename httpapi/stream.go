package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/maixuanbach/dbcsv/dbcsverr"
	"github.com/maixuanbach/dbcsv/pipeline"
)

// streamNDJSON writes iter's rows as NDJSON batches (spec.md §6): each
// line is a JSON array of up to h.NDJSONBatchSize row-arrays, with the
// final partial batch flushed at end-of-stream. Headers are written
// before the first byte of the body, so any error encountered after that
// point can only stop the stream — there is no way to surface it as an
// HTTP status.
func (h *Handler) streamNDJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, iter pipeline.Iterator) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	batch := make([][]interface{}, 0, h.NDJSONBatchSize)
	flushBatch := func() bool {
		if len(batch) == 0 {
			return true
		}
		if err := enc.Encode(batch); err != nil {
			logger.Warn("query stream write failed", "error", err)
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		batch = batch[:0]
		return true
	}

	for {
		select {
		case <-r.Context().Done():
			logger.Info("query stream cancelled")
			return
		default:
		}

		row, ok, err := iter.Next()
		if err != nil {
			if kind, isErr := dbcsverr.KindOf(err); isErr && kind == dbcsverr.DataAccessError {
				logger.Warn("query stream failed mid-stream", "error", err)
			} else {
				logger.Error("query stream failed mid-stream", "error", err)
			}
			return
		}
		if !ok {
			flushBatch()
			return
		}

		wireRow := make([]interface{}, len(row))
		for i, cell := range row {
			wireRow[i] = cell.Wire()
		}
		batch = append(batch, wireRow)

		if len(batch) >= h.NDJSONBatchSize {
			if !flushBatch() {
				return
			}
		}
	}
}
