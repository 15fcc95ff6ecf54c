package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mindline-health/psychrec/internal/scale"
)

type SQLStore struct {
	db      *sql.DB
	catalog *scale.Catalog
}

func NewSQLStore(db *sql.DB, catalog *scale.Catalog) *SQLStore {
	return &SQLStore{db: db, catalog: catalog}
}

func (s *SQLStore) Start(ctx context.Context, patientID, scaleName, administeredBy string) (Assessment, error) {
	def, ok := s.catalog.Get(scaleName)
	if !ok {
		return Assessment{}, ErrUnknownScale
	}
	// ensure patient exists
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM patients WHERE id=$1`, patientID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Assessment{}, ErrUnknownPatient
		}
		return Assessment{}, err
	}
	a := Assessment{
		ID:             uuid.NewString(),
		PatientID:      patientID,
		ScaleName:      def.Name,
		AdministeredBy: administeredBy,
		Status:         StatusInProgress,
		Responses:      map[int]int{},
		StartedAt:      time.Now().Unix(),
	}
	rj, _ := json.Marshal(a.Responses)
	_, err := s.db.ExecContext(ctx, `INSERT INTO assessments
		(id,patient_id,scale_name,administered_by,status,score,severity,interpretation,responses_json,started_at,completed_at)
		VALUES ($1,$2,$3,$4,$5,0,'','',$6,$7,0)`,
		a.ID, a.PatientID, a.ScaleName, a.AdministeredBy, a.Status, string(rj), a.StartedAt)
	if err != nil {
		return Assessment{}, err
	}
	return a, nil
}

// SaveResponses merges inside one transaction so concurrent saves to the
// same assessment cannot lose each other's answers.
func (s *SQLStore) SaveResponses(ctx context.Context, id string, resp map[int]int) (Assessment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Assessment{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var status, rjson string
	err = tx.QueryRowContext(ctx, `SELECT status, responses_json FROM assessments WHERE id=$1`, id).
		Scan(&status, &rjson)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return Assessment{}, err
	}
	if err != nil {
		return Assessment{}, err
	}
	if Status(status) == StatusCompleted {
		err = ErrCompleted
		return Assessment{}, err
	}

	raw := map[string]int{}
	if e := json.Unmarshal([]byte(rjson), &raw); e != nil {
		raw = map[string]int{}
	}
	merged := decodeResponses(raw)
	for k, v := range resp {
		merged[k] = v
	}
	buf, _ := json.Marshal(encodeResponses(merged))
	if _, err = tx.ExecContext(ctx, `UPDATE assessments SET responses_json=$1 WHERE id=$2`, string(buf), id); err != nil {
		return Assessment{}, err
	}
	if err = tx.Commit(); err != nil {
		return Assessment{}, err
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) Submit(ctx context.Context, id string) (Assessment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return Assessment{}, err
	}
	if a.Status == StatusCompleted {
		return a, nil
	}
	def, ok := s.catalog.Get(a.ScaleName)
	if !ok {
		return Assessment{}, ErrUnknownScale
	}
	res, err := scale.Score(def, scale.Response{Selected: a.Responses})
	if err != nil {
		// an incomplete or invalid response surfaces to the caller untouched
		return Assessment{}, err
	}
	completedAt := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `UPDATE assessments
		SET status=$1, score=$2, severity=$3, interpretation=$4, completed_at=$5 WHERE id=$6`,
		StatusCompleted, res.Total, res.Severity, res.Band.Interpretation, completedAt, id)
	if err != nil {
		return Assessment{}, err
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) Get(ctx context.Context, id string) (Assessment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,patient_id,scale_name,administered_by,status,
		score,severity,interpretation,responses_json,started_at,completed_at
		FROM assessments WHERE id=$1`, id)
	return scanAssessment(row)
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Assessment, error) {
	if opts.Limit <= 0 || opts.Limit > 200 {
		opts.Limit = 50
	}
	q := `SELECT id,patient_id,scale_name,administered_by,status,score,severity,interpretation,
		responses_json,started_at,completed_at FROM assessments WHERE 1=1`
	args := []any{}
	n := 0
	add := func(cond string, v any) {
		n++
		q += ` AND ` + cond + `$` + strconv.Itoa(n)
		args = append(args, v)
	}
	if opts.PatientID != "" {
		add(`patient_id=`, opts.PatientID)
	}
	if opts.ScaleName != "" {
		add(`scale_name=`, opts.ScaleName)
	}
	if opts.Status != "" {
		add(`status=`, opts.Status)
	}
	q += ` ORDER BY started_at DESC LIMIT ` + strconv.Itoa(opts.Limit) + ` OFFSET ` + strconv.Itoa(opts.Offset)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if a.Status == StatusCompleted {
		return ErrCompleted
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM assessments WHERE id=$1`, id)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanAssessment(r rowScanner) (Assessment, error) {
	var a Assessment
	var rjson string
	err := r.Scan(&a.ID, &a.PatientID, &a.ScaleName, &a.AdministeredBy, &a.Status,
		&a.Score, &a.Severity, &a.Interpretation, &rjson, &a.StartedAt, &a.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Assessment{}, ErrNotFound
	}
	if err != nil {
		return Assessment{}, err
	}
	raw := map[string]int{}
	if err := json.Unmarshal([]byte(rjson), &raw); err != nil {
		raw = map[string]int{}
	}
	a.Responses = decodeResponses(raw)
	return a, nil
}

// JSON object keys are strings; responses are keyed by question index.

func encodeResponses(m map[int]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[strconv.Itoa(k)] = v
	}
	return out
}

func decodeResponses(m map[string]int) map[int]int {
	out := make(map[int]int, len(m))
	for k, v := range m {
		i, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[i] = v
	}
	return out
}
