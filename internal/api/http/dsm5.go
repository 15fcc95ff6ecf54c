package http

import (
	"encoding/json"
	"net/http"

	"github.com/mindline-health/psychrec/internal/dsm5"
)

// DSM5Handler serves the diagnostic hierarchy. With ?code= it resolves a
// single symptom code instead of returning the whole tree.
func DSM5Handler(catalog *dsm5.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if code := queryTrim(r, "code"); code != "" {
			ref, ok := catalog.Lookup(code)
			if !ok {
				http.Error(w, "unknown symptom code", http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(struct {
				Category     string       `json:"category"`
				Disorder     string       `json:"disorder"`
				SymptomGroup string       `json:"symptom_group,omitempty"`
				Symptom      dsm5.Symptom `json:"symptom"`
			}{ref.Category, ref.Disorder, ref.SymptomGroup, ref.Symptom})
			return
		}
		_ = json.NewEncoder(w).Encode(catalog.Categories())
	}
}
