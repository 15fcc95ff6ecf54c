package http

import (
	"encoding/json"
	"net/http"

	"github.com/mindline-health/psychrec/internal/audit"
)

func ListAuditHandler(trail *audit.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := trail.List(r.Context(), audit.Filter{
			Type:   queryTrim(r, "type"),
			Key:    queryTrim(r, "key"),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 100),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(events)
	}
}
