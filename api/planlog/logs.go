package planlog

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/kilianp07/rakeplan/core/planlog"
)

// QueryFunc retrieves plan log records.
type QueryFunc func(ctx context.Context, q planlog.Query) ([]planlog.Record, error)

// NewLogHandler returns an HTTP handler exposing plan runs via GET /api/planlog.
func NewLogHandler(query QueryFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := planlog.Query{}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		q.RakeID = r.URL.Query().Get("rake_id")
		records, err := query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []planlog.Record{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
