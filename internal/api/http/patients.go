package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mindline-health/psychrec/internal/audit"
	"github.com/mindline-health/psychrec/internal/patient"
	"github.com/mindline-health/psychrec/internal/rbac"
)

func writePatientError(w http.ResponseWriter, err error) {
	if errors.Is(err, patient.ErrNotFound) {
		http.Error(w, "patient not found", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func CreatePatientHandler(store patient.Store, trail *audit.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p patient.Patient
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := p.Validate(time.Now()); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		created, err := store.Create(r.Context(), p)
		if err != nil {
			writePatientError(w, err)
			return
		}
		_ = trail.Append(r.Context(), audit.Event{
			Actor: rbac.SubjectFromContext(r.Context()),
			Type:  audit.TypePatientCreated,
			Key:   created.ID,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(created)
	}
}

func GetPatientHandler(store patient.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.Get(r.Context(), chi.URLParam(r, "patientID"))
		if err != nil {
			writePatientError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(p)
	}
}

func UpdatePatientHandler(store patient.Store, trail *audit.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p patient.Patient
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		p.ID = chi.URLParam(r, "patientID")
		if err := p.Validate(time.Now()); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		updated, err := store.Update(r.Context(), p)
		if err != nil {
			writePatientError(w, err)
			return
		}
		_ = trail.Append(r.Context(), audit.Event{
			Actor: rbac.SubjectFromContext(r.Context()),
			Type:  audit.TypePatientUpdated,
			Key:   updated.ID,
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(updated)
	}
}

func ListPatientsHandler(store patient.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context(), patient.ListOpts{
			Q:      queryTrim(r, "q"),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

func AddMedicationHandler(store patient.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m patient.Medication
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		m.PatientID = chi.URLParam(r, "patientID")
		if m.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		created, err := store.AddMedication(r.Context(), m)
		if err != nil {
			writePatientError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(created)
	}
}

func ListMedicationsHandler(store patient.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListMedications(r.Context(), chi.URLParam(r, "patientID"))
		if err != nil {
			writePatientError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

func AddSubstanceUseHandler(store patient.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s patient.SubstanceUse
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		s.PatientID = chi.URLParam(r, "patientID")
		if s.SubstanceType == "" {
			http.Error(w, "substance_type required", http.StatusBadRequest)
			return
		}
		created, err := store.AddSubstanceUse(r.Context(), s)
		if err != nil {
			writePatientError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(created)
	}
}

func ListSubstanceUseHandler(store patient.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListSubstanceUse(r.Context(), chi.URLParam(r, "patientID"))
		if err != nil {
			writePatientError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

func AddLabResultHandler(store patient.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var l patient.LabResult
		if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		l.PatientID = chi.URLParam(r, "patientID")
		if l.TestName == "" {
			http.Error(w, "test_name required", http.StatusBadRequest)
			return
		}
		created, err := store.AddLabResult(r.Context(), l)
		if err != nil {
			writePatientError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(created)
	}
}

func ListLabResultsHandler(store patient.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListLabResults(r.Context(), chi.URLParam(r, "patientID"))
		if err != nil {
			writePatientError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

func AddSymptomAssessmentHandler(store patient.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sa patient.SymptomAssessment
		if err := json.NewDecoder(r.Body).Decode(&sa); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		sa.PatientID = chi.URLParam(r, "patientID")
		if err := sa.Validate(time.Now()); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		created, err := store.AddSymptomAssessment(r.Context(), sa)
		if err != nil {
			writePatientError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(created)
	}
}

func ListSymptomAssessmentsHandler(store patient.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListSymptomAssessments(r.Context(), chi.URLParam(r, "patientID"))
		if err != nil {
			writePatientError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}
