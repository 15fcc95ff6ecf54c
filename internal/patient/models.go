package patient

import (
	"fmt"
	"strings"
	"time"
)

// Patient holds demographics and intake information for one chart.
type Patient struct {
	ID            string `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	MiddleName    string `json:"middle_name,omitempty"`
	PreferredName string `json:"preferred_name,omitempty"`
	DateOfBirth   string `json:"date_of_birth,omitempty"` // YYYY-MM-DD
	Sex           string `json:"sex,omitempty"`
	GenderIdentity string `json:"gender_identity,omitempty"`

	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`

	EmergencyName         string `json:"emergency_name,omitempty"`
	EmergencyPhone        string `json:"emergency_phone,omitempty"`
	EmergencyRelationship string `json:"emergency_relationship,omitempty"`

	MaritalStatus    string `json:"marital_status,omitempty"`
	LivingSituation  string `json:"living_situation,omitempty"`
	EducationLevel   string `json:"education_level,omitempty"`
	EmploymentStatus string `json:"employment_status,omitempty"`
	Insurance        string `json:"insurance,omitempty"`
	ReferredBy       string `json:"referred_by,omitempty"`
	Notes            string `json:"notes,omitempty"`

	CreatedAt int64 `json:"created_at,omitempty"`
	UpdatedAt int64 `json:"updated_at,omitempty"`
}

// FullName joins the name parts, skipping empties.
func (p Patient) FullName() string {
	parts := []string{}
	for _, s := range []string{p.FirstName, p.MiddleName, p.LastName} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Age returns the patient's age at now, or -1 if the birth date is absent
// or unparseable.
func (p Patient) Age(now time.Time) int {
	if p.DateOfBirth == "" {
		return -1
	}
	dob, err := time.Parse("2006-01-02", p.DateOfBirth)
	if err != nil {
		return -1
	}
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// Validate applies the intake rules: names required, birth date well formed
// and not in the future, contact fields plausible.
func (p Patient) Validate(now time.Time) error {
	if strings.TrimSpace(p.FirstName) == "" {
		return fmt.Errorf("patient: first name is required")
	}
	if strings.TrimSpace(p.LastName) == "" {
		return fmt.Errorf("patient: last name is required")
	}
	if p.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", p.DateOfBirth)
		if err != nil {
			return fmt.Errorf("patient: date_of_birth must be YYYY-MM-DD")
		}
		if dob.After(now) {
			return fmt.Errorf("patient: date_of_birth cannot be in the future")
		}
	}
	if p.Email != "" && (!strings.Contains(p.Email, "@") || !strings.Contains(p.Email, ".")) {
		return fmt.Errorf("patient: invalid email format")
	}
	for _, ph := range []string{p.Phone, p.EmergencyPhone} {
		if ph == "" {
			continue
		}
		digits := 0
		for _, r := range ph {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits < 10 {
			return fmt.Errorf("patient: phone number must have at least 10 digits")
		}
	}
	return nil
}

// Medication is one current or historical prescription line.
type Medication struct {
	ID              string  `json:"id"`
	PatientID       string  `json:"patient_id"`
	Name            string  `json:"name"`
	MedicationClass string  `json:"medication_class,omitempty"`
	DoseAmount      float64 `json:"dose_amount,omitempty"`
	DoseUnit        string  `json:"dose_unit,omitempty"`
	Frequency       string  `json:"frequency,omitempty"` // BID, TID, QHS, ...
	Route           string  `json:"route,omitempty"`     // PO, IM, ...
	StartDate       string  `json:"start_date,omitempty"`
	EndDate         string  `json:"end_date,omitempty"`
	IsCurrent       bool    `json:"is_current"`
	Effectiveness   int     `json:"effectiveness,omitempty"` // 0-100
	Adherence       int     `json:"adherence,omitempty"`     // 0-100
	Prescriber      string  `json:"prescriber,omitempty"`
	Notes           string  `json:"notes,omitempty"`
	CreatedAt       int64   `json:"created_at,omitempty"`
}

// DoseDisplay formats amount and unit for rendering.
func (m Medication) DoseDisplay() string {
	if m.DoseAmount > 0 && m.DoseUnit != "" {
		return fmt.Sprintf("%g %s", m.DoseAmount, m.DoseUnit)
	}
	return "dose not specified"
}

// SubstanceUse is one substance-use history entry.
type SubstanceUse struct {
	ID            string `json:"id"`
	PatientID     string `json:"patient_id"`
	SubstanceType string `json:"substance_type"`
	UsagePattern  string `json:"usage_pattern,omitempty"`
	Frequency     string `json:"frequency,omitempty"`
	Amount        string `json:"amount,omitempty"`
	Route         string `json:"route,omitempty"`
	AgeOfFirstUse int    `json:"age_of_first_use,omitempty"`
	LastUseDate   string `json:"last_use_date,omitempty"`
	CurrentStatus string `json:"current_status,omitempty"` // Active Use, In Remission, ...
	SeverityScore int    `json:"severity_score,omitempty"` // 0-10 clinician rating
	CravingScore  int    `json:"craving_score,omitempty"`  // 0-10 self-reported
	Notes         string `json:"notes,omitempty"`
	CreatedAt     int64  `json:"created_at,omitempty"`
}

// SymptomAssessment is one DSM-5 symptom rating on the chart: where the
// symptom sits in the category > disorder > symptom-group hierarchy, whether
// it is present, and how it affects functioning.
type SymptomAssessment struct {
	ID             string `json:"id"`
	PatientID      string `json:"patient_id"`
	AssessmentDate string `json:"assessment_date,omitempty"` // YYYY-MM-DD
	AssessmentType string `json:"assessment_type,omitempty"` // Initial, Follow-up, Crisis
	Assessor       string `json:"assessor,omitempty"`

	Category     string `json:"category"` // e.g. Mood Disorders
	Disorder     string `json:"disorder"` // e.g. Major Depressive Disorder
	SymptomGroup string `json:"symptom_group,omitempty"`
	SymptomCode  string `json:"symptom_code,omitempty"` // e.g. A1
	SymptomName  string `json:"symptom_name"`

	IsPresent     bool   `json:"is_present"`
	Severity      string `json:"severity,omitempty"`       // Minimal..Extreme
	SeverityScore int    `json:"severity_score,omitempty"` // 0-10 clinician rating
	Frequency     string `json:"frequency,omitempty"`
	Duration      string `json:"duration,omitempty"`
	DurationWeeks int    `json:"duration_weeks,omitempty"`
	OnsetDate     string `json:"onset_date,omitempty"`
	ImpactLevel   string `json:"impact_level,omitempty"`

	FunctionalImpairment bool   `json:"functional_impairment"`
	TreatmentTarget      bool   `json:"treatment_target"`
	Notes                string `json:"notes,omitempty"`
	CreatedAt            int64  `json:"created_at,omitempty"`
}

// HierarchyPath renders the full position in the DSM-5 tree.
func (s SymptomAssessment) HierarchyPath() string {
	parts := []string{s.Category, s.Disorder}
	if s.SymptomGroup != "" {
		parts = append(parts, s.SymptomGroup)
	}
	parts = append(parts, s.SymptomName)
	return strings.Join(parts, " > ")
}

// DisplayName prefixes the criterion code when one is recorded.
func (s SymptomAssessment) DisplayName() string {
	if s.SymptomCode != "" {
		return s.SymptomCode + ": " + s.SymptomName
	}
	return s.SymptomName
}

// SeverityDescription falls back from the text rating to the 0-10 score.
func (s SymptomAssessment) SeverityDescription() string {
	if s.Severity != "" {
		return s.Severity
	}
	switch {
	case s.SeverityScore <= 0:
		return "Not rated"
	case s.SeverityScore <= 2:
		return "Minimal"
	case s.SeverityScore <= 4:
		return "Mild"
	case s.SeverityScore <= 6:
		return "Moderate"
	case s.SeverityScore <= 8:
		return "Severe"
	default:
		return "Extreme"
	}
}

// RequiresAttention flags symptoms that warrant immediate clinical review.
func (s SymptomAssessment) RequiresAttention() bool {
	if !s.IsPresent {
		return false
	}
	return s.Severity == "Severe" || s.Severity == "Extreme" ||
		s.SeverityScore >= 7 || s.FunctionalImpairment
}

// Validate applies the documentation rules: the hierarchy placement is
// required, dates must be well formed and not in the future.
func (s SymptomAssessment) Validate(now time.Time) error {
	if strings.TrimSpace(s.Category) == "" {
		return fmt.Errorf("symptom assessment: category is required")
	}
	if strings.TrimSpace(s.Disorder) == "" {
		return fmt.Errorf("symptom assessment: disorder is required")
	}
	if strings.TrimSpace(s.SymptomName) == "" {
		return fmt.Errorf("symptom assessment: symptom_name is required")
	}
	if s.SeverityScore < 0 || s.SeverityScore > 10 {
		return fmt.Errorf("symptom assessment: severity_score must be 0-10")
	}
	if s.DurationWeeks < 0 {
		return fmt.Errorf("symptom assessment: duration_weeks cannot be negative")
	}
	for _, d := range []string{s.AssessmentDate, s.OnsetDate} {
		if d == "" {
			continue
		}
		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			return fmt.Errorf("symptom assessment: dates must be YYYY-MM-DD")
		}
		if day.After(now) {
			return fmt.Errorf("symptom assessment: dates cannot be in the future")
		}
	}
	return nil
}

// LabResult is one lab value on the chart.
type LabResult struct {
	ID             string `json:"id"`
	PatientID      string `json:"patient_id"`
	TestName       string `json:"test_name"`
	Value          string `json:"value,omitempty"`
	Unit           string `json:"unit,omitempty"`
	ReferenceRange string `json:"reference_range,omitempty"`
	Flag           string `json:"flag,omitempty"` // H, L, critical
	CollectedAt    string `json:"collected_at,omitempty"`
	CreatedAt      int64  `json:"created_at,omitempty"`
}
