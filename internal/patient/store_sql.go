package patient

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("patient not found")

type ListOpts struct {
	Q      string // substring match on first/last/preferred name
	Limit  int
	Offset int
}

type Store interface {
	Create(ctx context.Context, p Patient) (Patient, error)
	Get(ctx context.Context, id string) (Patient, error)
	Update(ctx context.Context, p Patient) (Patient, error)
	List(ctx context.Context, opts ListOpts) ([]Patient, error)

	AddMedication(ctx context.Context, m Medication) (Medication, error)
	ListMedications(ctx context.Context, patientID string) ([]Medication, error)
	AddSubstanceUse(ctx context.Context, s SubstanceUse) (SubstanceUse, error)
	ListSubstanceUse(ctx context.Context, patientID string) ([]SubstanceUse, error)
	AddLabResult(ctx context.Context, l LabResult) (LabResult, error)
	ListLabResults(ctx context.Context, patientID string) ([]LabResult, error)
	AddSymptomAssessment(ctx context.Context, s SymptomAssessment) (SymptomAssessment, error)
	ListSymptomAssessments(ctx context.Context, patientID string) ([]SymptomAssessment, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const patientCols = `id,first_name,last_name,middle_name,preferred_name,date_of_birth,sex,
gender_identity,phone,email,address,emergency_name,emergency_phone,emergency_relationship,
marital_status,living_situation,education_level,employment_status,insurance,referred_by,notes,
created_at,updated_at`

func (s *SQLStore) Create(ctx context.Context, p Patient) (Patient, error) {
	if err := p.Validate(time.Now()); err != nil {
		return Patient{}, err
	}
	p.ID = uuid.NewString()
	now := time.Now().Unix()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx, `INSERT INTO patients (`+patientCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`,
		p.ID, p.FirstName, p.LastName, p.MiddleName, p.PreferredName, p.DateOfBirth, p.Sex,
		p.GenderIdentity, p.Phone, p.Email, p.Address, p.EmergencyName, p.EmergencyPhone,
		p.EmergencyRelationship, p.MaritalStatus, p.LivingSituation, p.EducationLevel,
		p.EmploymentStatus, p.Insurance, p.ReferredBy, p.Notes, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return Patient{}, err
	}
	return p, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Patient, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+patientCols+` FROM patients WHERE id=$1`, id)
	return scanPatient(row)
}

func (s *SQLStore) Update(ctx context.Context, p Patient) (Patient, error) {
	if err := p.Validate(time.Now()); err != nil {
		return Patient{}, err
	}
	p.UpdatedAt = time.Now().Unix()
	res, err := s.db.ExecContext(ctx, `UPDATE patients SET
		first_name=$1,last_name=$2,middle_name=$3,preferred_name=$4,date_of_birth=$5,sex=$6,
		gender_identity=$7,phone=$8,email=$9,address=$10,emergency_name=$11,emergency_phone=$12,
		emergency_relationship=$13,marital_status=$14,living_situation=$15,education_level=$16,
		employment_status=$17,insurance=$18,referred_by=$19,notes=$20,updated_at=$21
		WHERE id=$22`,
		p.FirstName, p.LastName, p.MiddleName, p.PreferredName, p.DateOfBirth, p.Sex,
		p.GenderIdentity, p.Phone, p.Email, p.Address, p.EmergencyName, p.EmergencyPhone,
		p.EmergencyRelationship, p.MaritalStatus, p.LivingSituation, p.EducationLevel,
		p.EmploymentStatus, p.Insurance, p.ReferredBy, p.Notes, p.UpdatedAt, p.ID)
	if err != nil {
		return Patient{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Patient{}, ErrNotFound
	}
	return s.Get(ctx, p.ID)
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Patient, error) {
	if opts.Limit <= 0 || opts.Limit > 200 {
		opts.Limit = 50
	}
	q := `SELECT ` + patientCols + ` FROM patients`
	args := []any{}
	if opts.Q != "" {
		q += ` WHERE lower(first_name || ' ' || last_name || ' ' || preferred_name) LIKE $1`
		args = append(args, "%"+strings.ToLower(opts.Q)+"%")
	}
	q += ` ORDER BY last_name, first_name LIMIT ` + strconv.Itoa(opts.Limit) + ` OFFSET ` + strconv.Itoa(opts.Offset)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanPatient(r rowScanner) (Patient, error) {
	var p Patient
	err := r.Scan(&p.ID, &p.FirstName, &p.LastName, &p.MiddleName, &p.PreferredName,
		&p.DateOfBirth, &p.Sex, &p.GenderIdentity, &p.Phone, &p.Email, &p.Address,
		&p.EmergencyName, &p.EmergencyPhone, &p.EmergencyRelationship, &p.MaritalStatus,
		&p.LivingSituation, &p.EducationLevel, &p.EmploymentStatus, &p.Insurance,
		&p.ReferredBy, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Patient{}, ErrNotFound
	}
	return p, err
}

func (s *SQLStore) AddMedication(ctx context.Context, m Medication) (Medication, error) {
	if m.Name == "" {
		return Medication{}, errors.New("medication name required")
	}
	if err := s.ensurePatient(ctx, m.PatientID); err != nil {
		return Medication{}, err
	}
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO medications
		(id,patient_id,name,medication_class,dose_amount,dose_unit,frequency,route,
		 start_date,end_date,is_current,effectiveness,adherence,prescriber,notes,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		m.ID, m.PatientID, m.Name, m.MedicationClass, m.DoseAmount, m.DoseUnit, m.Frequency,
		m.Route, m.StartDate, m.EndDate, m.IsCurrent, m.Effectiveness, m.Adherence,
		m.Prescriber, m.Notes, m.CreatedAt)
	if err != nil {
		return Medication{}, err
	}
	return m, nil
}

func (s *SQLStore) ListMedications(ctx context.Context, patientID string) ([]Medication, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,patient_id,name,medication_class,dose_amount,
		dose_unit,frequency,route,start_date,end_date,is_current,effectiveness,adherence,
		prescriber,notes,created_at FROM medications WHERE patient_id=$1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Medication{}
	for rows.Next() {
		var m Medication
		if err := rows.Scan(&m.ID, &m.PatientID, &m.Name, &m.MedicationClass, &m.DoseAmount,
			&m.DoseUnit, &m.Frequency, &m.Route, &m.StartDate, &m.EndDate, &m.IsCurrent,
			&m.Effectiveness, &m.Adherence, &m.Prescriber, &m.Notes, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddSubstanceUse(ctx context.Context, u SubstanceUse) (SubstanceUse, error) {
	if u.SubstanceType == "" {
		return SubstanceUse{}, errors.New("substance_type required")
	}
	if err := s.ensurePatient(ctx, u.PatientID); err != nil {
		return SubstanceUse{}, err
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO substance_use
		(id,patient_id,substance_type,usage_pattern,frequency,amount,route,age_of_first_use,
		 last_use_date,current_status,severity_score,craving_score,notes,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		u.ID, u.PatientID, u.SubstanceType, u.UsagePattern, u.Frequency, u.Amount, u.Route,
		u.AgeOfFirstUse, u.LastUseDate, u.CurrentStatus, u.SeverityScore, u.CravingScore,
		u.Notes, u.CreatedAt)
	if err != nil {
		return SubstanceUse{}, err
	}
	return u, nil
}

func (s *SQLStore) ListSubstanceUse(ctx context.Context, patientID string) ([]SubstanceUse, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,patient_id,substance_type,usage_pattern,
		frequency,amount,route,age_of_first_use,last_use_date,current_status,severity_score,
		craving_score,notes,created_at FROM substance_use WHERE patient_id=$1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SubstanceUse{}
	for rows.Next() {
		var u SubstanceUse
		if err := rows.Scan(&u.ID, &u.PatientID, &u.SubstanceType, &u.UsagePattern, &u.Frequency,
			&u.Amount, &u.Route, &u.AgeOfFirstUse, &u.LastUseDate, &u.CurrentStatus,
			&u.SeverityScore, &u.CravingScore, &u.Notes, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddLabResult(ctx context.Context, l LabResult) (LabResult, error) {
	if l.TestName == "" {
		return LabResult{}, errors.New("test_name required")
	}
	if err := s.ensurePatient(ctx, l.PatientID); err != nil {
		return LabResult{}, err
	}
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO lab_results
		(id,patient_id,test_name,value,unit,reference_range,flag,collected_at,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		l.ID, l.PatientID, l.TestName, l.Value, l.Unit, l.ReferenceRange, l.Flag,
		l.CollectedAt, l.CreatedAt)
	if err != nil {
		return LabResult{}, err
	}
	return l, nil
}

func (s *SQLStore) ListLabResults(ctx context.Context, patientID string) ([]LabResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,patient_id,test_name,value,unit,
		reference_range,flag,collected_at,created_at FROM lab_results
		WHERE patient_id=$1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LabResult{}
	for rows.Next() {
		var l LabResult
		if err := rows.Scan(&l.ID, &l.PatientID, &l.TestName, &l.Value, &l.Unit,
			&l.ReferenceRange, &l.Flag, &l.CollectedAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLStore) ensurePatient(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM patients WHERE id=$1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *SQLStore) AddSymptomAssessment(ctx context.Context, sa SymptomAssessment) (SymptomAssessment, error) {
	if err := sa.Validate(time.Now()); err != nil {
		return SymptomAssessment{}, err
	}
	if err := s.ensurePatient(ctx, sa.PatientID); err != nil {
		return SymptomAssessment{}, err
	}
	sa.ID = uuid.NewString()
	sa.CreatedAt = time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO symptom_assessments
		(id,patient_id,assessment_date,assessment_type,assessor,category,disorder,
		 symptom_group,symptom_code,symptom_name,is_present,severity,severity_score,
		 frequency,duration,duration_weeks,onset_date,impact_level,functional_impairment,
		 treatment_target,notes,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		sa.ID, sa.PatientID, sa.AssessmentDate, sa.AssessmentType, sa.Assessor, sa.Category,
		sa.Disorder, sa.SymptomGroup, sa.SymptomCode, sa.SymptomName, sa.IsPresent, sa.Severity,
		sa.SeverityScore, sa.Frequency, sa.Duration, sa.DurationWeeks, sa.OnsetDate,
		sa.ImpactLevel, sa.FunctionalImpairment, sa.TreatmentTarget, sa.Notes, sa.CreatedAt)
	if err != nil {
		return SymptomAssessment{}, err
	}
	return sa, nil
}

func (s *SQLStore) ListSymptomAssessments(ctx context.Context, patientID string) ([]SymptomAssessment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,patient_id,assessment_date,assessment_type,
		assessor,category,disorder,symptom_group,symptom_code,symptom_name,is_present,severity,
		severity_score,frequency,duration,duration_weeks,onset_date,impact_level,
		functional_impairment,treatment_target,notes,created_at FROM symptom_assessments
		WHERE patient_id=$1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SymptomAssessment{}
	for rows.Next() {
		var sa SymptomAssessment
		if err := rows.Scan(&sa.ID, &sa.PatientID, &sa.AssessmentDate, &sa.AssessmentType,
			&sa.Assessor, &sa.Category, &sa.Disorder, &sa.SymptomGroup, &sa.SymptomCode,
			&sa.SymptomName, &sa.IsPresent, &sa.Severity, &sa.SeverityScore, &sa.Frequency,
			&sa.Duration, &sa.DurationWeeks, &sa.OnsetDate, &sa.ImpactLevel,
			&sa.FunctionalImpairment, &sa.TreatmentTarget, &sa.Notes, &sa.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sa)
	}
	return out, rows.Err()
}
