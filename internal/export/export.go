// Package export materialises one patient's complete chart as a bundle for
// downstream analysis pipelines, either as a single hierarchical JSON
// document or as one CSV file per table.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mindline-health/psychrec/internal/assessment"
	"github.com/mindline-health/psychrec/internal/patient"
)

type Bundle struct {
	Patient            patient.Patient             `json:"patient"`
	Medications        []patient.Medication        `json:"medications"`
	SubstanceUse       []patient.SubstanceUse      `json:"substance_use"`
	LabResults         []patient.LabResult         `json:"lab_results"`
	SymptomAssessments []patient.SymptomAssessment `json:"symptom_assessments"`
	Assessments        []assessment.Assessment     `json:"assessments"`
}

type Exporter struct {
	Patients    patient.Store
	Assessments assessment.Store
}

// Collect gathers the full bundle for one patient. Only completed
// assessments are included; abandoned ones carry no result.
func (e *Exporter) Collect(ctx context.Context, patientID string) (Bundle, error) {
	p, err := e.Patients.Get(ctx, patientID)
	if err != nil {
		return Bundle{}, err
	}
	meds, err := e.Patients.ListMedications(ctx, patientID)
	if err != nil {
		return Bundle{}, err
	}
	subs, err := e.Patients.ListSubstanceUse(ctx, patientID)
	if err != nil {
		return Bundle{}, err
	}
	labs, err := e.Patients.ListLabResults(ctx, patientID)
	if err != nil {
		return Bundle{}, err
	}
	symptoms, err := e.Patients.ListSymptomAssessments(ctx, patientID)
	if err != nil {
		return Bundle{}, err
	}
	asmts, err := e.Assessments.List(ctx, assessment.ListOpts{
		PatientID: patientID,
		Status:    string(assessment.StatusCompleted),
	})
	if err != nil {
		return Bundle{}, err
	}
	return Bundle{
		Patient:            p,
		Medications:        meds,
		SubstanceUse:       subs,
		LabResults:         labs,
		SymptomAssessments: symptoms,
		Assessments:        asmts,
	}, nil
}

// WriteJSON writes the bundle as one indented JSON document.
func (b Bundle) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// WriteCSV writes one CSV file per table into dir, creating it if needed.
// Empty tables produce no file.
func (b Bundle) WriteCSV(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	p := b.Patient
	if err := writeCSVFile(filepath.Join(dir, "patient.csv"),
		[]string{"id", "first_name", "last_name", "date_of_birth", "sex", "phone", "email",
			"marital_status", "employment_status", "insurance"},
		[][]string{{p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Sex, p.Phone, p.Email,
			p.MaritalStatus, p.EmploymentStatus, p.Insurance}}); err != nil {
		return err
	}

	if len(b.Medications) > 0 {
		rows := make([][]string, 0, len(b.Medications))
		for _, m := range b.Medications {
			rows = append(rows, []string{m.ID, m.Name, m.MedicationClass,
				strconv.FormatFloat(m.DoseAmount, 'g', -1, 64), m.DoseUnit, m.Frequency,
				m.Route, m.StartDate, m.EndDate, strconv.FormatBool(m.IsCurrent), m.Prescriber})
		}
		if err := writeCSVFile(filepath.Join(dir, "medications.csv"),
			[]string{"id", "name", "class", "dose_amount", "dose_unit", "frequency", "route",
				"start_date", "end_date", "is_current", "prescriber"}, rows); err != nil {
			return err
		}
	}

	if len(b.SubstanceUse) > 0 {
		rows := make([][]string, 0, len(b.SubstanceUse))
		for _, u := range b.SubstanceUse {
			rows = append(rows, []string{u.ID, u.SubstanceType, u.UsagePattern, u.Frequency,
				u.Amount, u.Route, strconv.Itoa(u.AgeOfFirstUse), u.LastUseDate,
				u.CurrentStatus, strconv.Itoa(u.SeverityScore), strconv.Itoa(u.CravingScore)})
		}
		if err := writeCSVFile(filepath.Join(dir, "substance_use.csv"),
			[]string{"id", "substance_type", "usage_pattern", "frequency", "amount", "route",
				"age_of_first_use", "last_use_date", "current_status", "severity_score",
				"craving_score"}, rows); err != nil {
			return err
		}
	}

	if len(b.LabResults) > 0 {
		rows := make([][]string, 0, len(b.LabResults))
		for _, l := range b.LabResults {
			rows = append(rows, []string{l.ID, l.TestName, l.Value, l.Unit, l.ReferenceRange,
				l.Flag, l.CollectedAt})
		}
		if err := writeCSVFile(filepath.Join(dir, "lab_results.csv"),
			[]string{"id", "test_name", "value", "unit", "reference_range", "flag",
				"collected_at"}, rows); err != nil {
			return err
		}
	}

	if len(b.SymptomAssessments) > 0 {
		rows := make([][]string, 0, len(b.SymptomAssessments))
		for _, s := range b.SymptomAssessments {
			rows = append(rows, []string{s.ID, s.AssessmentDate, s.AssessmentType, s.Assessor,
				s.Category, s.Disorder, s.SymptomGroup, s.SymptomCode, s.SymptomName,
				strconv.FormatBool(s.IsPresent), s.Severity, strconv.Itoa(s.SeverityScore),
				s.Frequency, s.Duration, strconv.Itoa(s.DurationWeeks), s.OnsetDate,
				s.ImpactLevel, strconv.FormatBool(s.FunctionalImpairment),
				strconv.FormatBool(s.TreatmentTarget)})
		}
		if err := writeCSVFile(filepath.Join(dir, "symptom_assessments.csv"),
			[]string{"id", "assessment_date", "assessment_type", "assessor", "category",
				"disorder", "symptom_group", "symptom_code", "symptom_name", "is_present",
				"severity", "severity_score", "frequency", "duration", "duration_weeks",
				"onset_date", "impact_level", "functional_impairment", "treatment_target"},
			rows); err != nil {
			return err
		}
	}

	if len(b.Assessments) > 0 {
		rows := make([][]string, 0, len(b.Assessments))
		for _, a := range b.Assessments {
			resp, _ := json.Marshal(a.Responses)
			rows = append(rows, []string{a.ID, a.ScaleName, a.AdministeredBy,
				strconv.Itoa(a.Score), a.Severity, string(resp),
				strconv.FormatInt(a.CompletedAt, 10)})
		}
		if err := writeCSVFile(filepath.Join(dir, "assessments.csv"),
			[]string{"id", "scale_name", "administered_by", "score", "severity",
				"responses", "completed_at"}, rows); err != nil {
			return err
		}
	}
	return nil
}

func writeCSVFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if len(row) != len(header) {
			return fmt.Errorf("export: row width %d != header width %d in %s", len(row), len(header), filepath.Base(path))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
