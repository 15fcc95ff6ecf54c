package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindline-health/psychrec/internal/audit"
	"github.com/mindline-health/psychrec/internal/export"
	"github.com/mindline-health/psychrec/internal/rbac"
)

// ExportPatientHandler streams a patient's full chart bundle as JSON.
// CSV export writes a directory of files and stays a CLI concern.
func ExportPatientHandler(ex *export.Exporter, trail *audit.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID := chi.URLParam(r, "patientID")
		b, err := ex.Collect(r.Context(), patientID)
		if err != nil {
			writePatientError(w, err)
			return
		}
		_ = trail.Append(r.Context(), audit.Event{
			Actor: rbac.SubjectFromContext(r.Context()),
			Type:  audit.TypeExportRun,
			Key:   patientID,
		})
		w.Header().Set("Content-Type", "application/json")
		if err := b.WriteJSON(w); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
