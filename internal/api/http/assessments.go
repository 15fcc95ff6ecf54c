package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindline-health/psychrec/internal/assessment"
	"github.com/mindline-health/psychrec/internal/audit"
	"github.com/mindline-health/psychrec/internal/rbac"
	"github.com/mindline-health/psychrec/internal/scale"
)

// writeScoringError maps the typed scoring failures onto HTTP. Incomplete
// or invalid responses are the caller's fault (422); a misconfigured scale
// is ours (500).
func writeScoringError(w http.ResponseWriter, err error) bool {
	var se *scale.ScoringError
	if !errors.As(err, &se) {
		return false
	}
	status := http.StatusUnprocessableEntity
	if se.Kind == scale.KindMisconfiguredScale {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":    se.Error(),
		"kind":     string(se.Kind),
		"scale":    se.Scale,
		"question": se.Question,
	})
	return true
}

func writeAssessmentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assessment.ErrNotFound):
		http.Error(w, "assessment not found", http.StatusNotFound)
	case errors.Is(err, assessment.ErrCompleted):
		http.Error(w, "assessment already completed", http.StatusConflict)
	case errors.Is(err, assessment.ErrUnknownScale):
		http.Error(w, "unknown scale", http.StatusBadRequest)
	case errors.Is(err, assessment.ErrUnknownPatient):
		http.Error(w, "unknown patient", http.StatusNotFound)
	default:
		if writeScoringError(w, err) {
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func StartAssessmentHandler(store assessment.Store, trail *audit.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PatientID string `json:"patient_id"`
			ScaleName string `json:"scale_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.PatientID == "" || req.ScaleName == "" {
			http.Error(w, "patient_id and scale_name required", http.StatusBadRequest)
			return
		}
		actor := rbac.SubjectFromContext(r.Context())
		a, err := store.Start(r.Context(), req.PatientID, req.ScaleName, actor)
		if err != nil {
			writeAssessmentError(w, err)
			return
		}
		_ = trail.Append(r.Context(), audit.Event{
			Actor: actor,
			Type:  audit.TypeAssessmentStarted,
			Key:   a.ID,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(a)
	}
}

func SaveAssessmentResponsesHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "assessmentID")
		var resp map[int]int
		if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a, err := store.SaveResponses(r.Context(), id, resp)
		if err != nil {
			writeAssessmentError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a)
	}
}

func SubmitAssessmentHandler(store assessment.Store, trail *audit.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "assessmentID")
		a, err := store.Submit(r.Context(), id)
		if err != nil {
			writeAssessmentError(w, err)
			return
		}
		data, _ := json.Marshal(map[string]any{"scale": a.ScaleName, "score": a.Score, "severity": a.Severity})
		_ = trail.Append(r.Context(), audit.Event{
			Actor:    rbac.SubjectFromContext(r.Context()),
			Type:     audit.TypeAssessmentCompleted,
			Key:      a.ID,
			DataJSON: string(data),
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a)
	}
}

func GetAssessmentHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := store.Get(r.Context(), chi.URLParam(r, "assessmentID"))
		if err != nil {
			writeAssessmentError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a)
	}
}

func ListAssessmentsHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context(), assessment.ListOpts{
			PatientID: queryTrim(r, "patient_id"),
			ScaleName: queryTrim(r, "scale"),
			Status:    queryTrim(r, "status"),
			Limit:     parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:    parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

func DeleteAssessmentHandler(store assessment.Store, trail *audit.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "assessmentID")
		if err := store.Delete(r.Context(), id); err != nil {
			writeAssessmentError(w, err)
			return
		}
		_ = trail.Append(r.Context(), audit.Event{
			Actor: rbac.SubjectFromContext(r.Context()),
			Type:  audit.TypeAssessmentDeleted,
			Key:   id,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}
