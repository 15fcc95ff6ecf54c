// Package audit records an append-only trail of clinical events for
// compliance review. Entries are never updated or deleted.
package audit

import (
	"context"
	"database/sql"
	"strconv"
	"time"
)

const (
	TypePatientCreated      = "PatientCreated"
	TypePatientUpdated      = "PatientUpdated"
	TypeAssessmentStarted   = "AssessmentStarted"
	TypeAssessmentCompleted = "AssessmentCompleted"
	TypeAssessmentDeleted   = "AssessmentDeleted"
	TypeExportRun           = "ExportRun"
)

type Event struct {
	Seq       int64  `json:"seq"`
	Actor     string `json:"actor"`
	Type      string `json:"type"`
	Key       string `json:"key"` // natural key: patient or assessment ID
	DataJSON  string `json:"data,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

type Filter struct {
	Type   string
	Key    string
	Limit  int
	Offset int
}

type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Append(ctx context.Context, e Event) error {
	if e.DataJSON == "" {
		e.DataJSON = "{}"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (actor, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.Actor, e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Event, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	q := `SELECT seq, actor, typ, key, data, created_at FROM audit_log WHERE 1=1`
	args := []any{}
	n := 0
	if f.Type != "" {
		n++
		q += ` AND typ=$` + strconv.Itoa(n)
		args = append(args, f.Type)
	}
	if f.Key != "" {
		n++
		q += ` AND key=$` + strconv.Itoa(n)
		args = append(args, f.Key)
	}
	q += ` ORDER BY seq DESC LIMIT ` + strconv.Itoa(f.Limit) + ` OFFSET ` + strconv.Itoa(f.Offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.Actor, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
