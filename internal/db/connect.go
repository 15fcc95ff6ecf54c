package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:psychrec.db?mode=rwc"
		}
		if strings.Contains(dsn, "?") {
			dsn += "&"
		} else {
			dsn += "?"
		}
		// transactions take the write lock up front so read-merge-write
		// sequences serialize instead of deadlocking on lock upgrade
		dsn += "_txlock=immediate&_pragma=busy_timeout(5000)"
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/psychrec?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS patients (
  id TEXT PRIMARY KEY,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  middle_name TEXT NOT NULL DEFAULT '',
  preferred_name TEXT NOT NULL DEFAULT '',
  date_of_birth TEXT NOT NULL DEFAULT '',
  sex TEXT NOT NULL DEFAULT '',
  gender_identity TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  emergency_name TEXT NOT NULL DEFAULT '',
  emergency_phone TEXT NOT NULL DEFAULT '',
  emergency_relationship TEXT NOT NULL DEFAULT '',
  marital_status TEXT NOT NULL DEFAULT '',
  living_situation TEXT NOT NULL DEFAULT '',
  education_level TEXT NOT NULL DEFAULT '',
  employment_status TEXT NOT NULL DEFAULT '',
  insurance TEXT NOT NULL DEFAULT '',
  referred_by TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS medications (
  id TEXT PRIMARY KEY,
  patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  medication_class TEXT NOT NULL DEFAULT '',
  dose_amount REAL NOT NULL DEFAULT 0,
  dose_unit TEXT NOT NULL DEFAULT '',
  frequency TEXT NOT NULL DEFAULT '',
  route TEXT NOT NULL DEFAULT '',
  start_date TEXT NOT NULL DEFAULT '',
  end_date TEXT NOT NULL DEFAULT '',
  is_current INTEGER NOT NULL DEFAULT 1,
  effectiveness INTEGER NOT NULL DEFAULT 0,
  adherence INTEGER NOT NULL DEFAULT 0,
  prescriber TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS substance_use (
  id TEXT PRIMARY KEY,
  patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
  substance_type TEXT NOT NULL,
  usage_pattern TEXT NOT NULL DEFAULT '',
  frequency TEXT NOT NULL DEFAULT '',
  amount TEXT NOT NULL DEFAULT '',
  route TEXT NOT NULL DEFAULT '',
  age_of_first_use INTEGER NOT NULL DEFAULT 0,
  last_use_date TEXT NOT NULL DEFAULT '',
  current_status TEXT NOT NULL DEFAULT '',
  severity_score INTEGER NOT NULL DEFAULT 0,
  craving_score INTEGER NOT NULL DEFAULT 0,
  notes TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS lab_results (
  id TEXT PRIMARY KEY,
  patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
  test_name TEXT NOT NULL,
  value TEXT NOT NULL DEFAULT '',
  unit TEXT NOT NULL DEFAULT '',
  reference_range TEXT NOT NULL DEFAULT '',
  flag TEXT NOT NULL DEFAULT '',
  collected_at TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS symptom_assessments (
  id TEXT PRIMARY KEY,
  patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
  assessment_date TEXT NOT NULL DEFAULT '',
  assessment_type TEXT NOT NULL DEFAULT '',
  assessor TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL,
  disorder TEXT NOT NULL,
  symptom_group TEXT NOT NULL DEFAULT '',
  symptom_code TEXT NOT NULL DEFAULT '',
  symptom_name TEXT NOT NULL,
  is_present INTEGER NOT NULL DEFAULT 0,
  severity TEXT NOT NULL DEFAULT '',
  severity_score INTEGER NOT NULL DEFAULT 0,
  frequency TEXT NOT NULL DEFAULT '',
  duration TEXT NOT NULL DEFAULT '',
  duration_weeks INTEGER NOT NULL DEFAULT 0,
  onset_date TEXT NOT NULL DEFAULT '',
  impact_level TEXT NOT NULL DEFAULT '',
  functional_impairment INTEGER NOT NULL DEFAULT 0,
  treatment_target INTEGER NOT NULL DEFAULT 0,
  notes TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS assessments (
  id TEXT PRIMARY KEY,
  patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
  scale_name TEXT NOT NULL,
  administered_by TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  score INTEGER NOT NULL DEFAULT 0,
  severity TEXT NOT NULL DEFAULT '',
  interpretation TEXT NOT NULL DEFAULT '',
  responses_json TEXT NOT NULL,
  started_at INTEGER NOT NULL,
  completed_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  display_name TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT, -- BIGSERIAL in Postgres
  actor TEXT NOT NULL DEFAULT '',
  typ TEXT NOT NULL,                        -- e.g., AssessmentCompleted
  key TEXT NOT NULL,                        -- natural key: patient or assessment ID
  data TEXT NOT NULL,                       -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS patients (
  id TEXT PRIMARY KEY,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  middle_name TEXT NOT NULL DEFAULT '',
  preferred_name TEXT NOT NULL DEFAULT '',
  date_of_birth TEXT NOT NULL DEFAULT '',
  sex TEXT NOT NULL DEFAULT '',
  gender_identity TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  emergency_name TEXT NOT NULL DEFAULT '',
  emergency_phone TEXT NOT NULL DEFAULT '',
  emergency_relationship TEXT NOT NULL DEFAULT '',
  marital_status TEXT NOT NULL DEFAULT '',
  living_situation TEXT NOT NULL DEFAULT '',
  education_level TEXT NOT NULL DEFAULT '',
  employment_status TEXT NOT NULL DEFAULT '',
  insurance TEXT NOT NULL DEFAULT '',
  referred_by TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS medications (
  id TEXT PRIMARY KEY,
  patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  medication_class TEXT NOT NULL DEFAULT '',
  dose_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
  dose_unit TEXT NOT NULL DEFAULT '',
  frequency TEXT NOT NULL DEFAULT '',
  route TEXT NOT NULL DEFAULT '',
  start_date TEXT NOT NULL DEFAULT '',
  end_date TEXT NOT NULL DEFAULT '',
  is_current BOOLEAN NOT NULL DEFAULT TRUE,
  effectiveness INTEGER NOT NULL DEFAULT 0,
  adherence INTEGER NOT NULL DEFAULT 0,
  prescriber TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS substance_use (
  id TEXT PRIMARY KEY,
  patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
  substance_type TEXT NOT NULL,
  usage_pattern TEXT NOT NULL DEFAULT '',
  frequency TEXT NOT NULL DEFAULT '',
  amount TEXT NOT NULL DEFAULT '',
  route TEXT NOT NULL DEFAULT '',
  age_of_first_use INTEGER NOT NULL DEFAULT 0,
  last_use_date TEXT NOT NULL DEFAULT '',
  current_status TEXT NOT NULL DEFAULT '',
  severity_score INTEGER NOT NULL DEFAULT 0,
  craving_score INTEGER NOT NULL DEFAULT 0,
  notes TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS lab_results (
  id TEXT PRIMARY KEY,
  patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
  test_name TEXT NOT NULL,
  value TEXT NOT NULL DEFAULT '',
  unit TEXT NOT NULL DEFAULT '',
  reference_range TEXT NOT NULL DEFAULT '',
  flag TEXT NOT NULL DEFAULT '',
  collected_at TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS symptom_assessments (
  id TEXT PRIMARY KEY,
  patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
  assessment_date TEXT NOT NULL DEFAULT '',
  assessment_type TEXT NOT NULL DEFAULT '',
  assessor TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL,
  disorder TEXT NOT NULL,
  symptom_group TEXT NOT NULL DEFAULT '',
  symptom_code TEXT NOT NULL DEFAULT '',
  symptom_name TEXT NOT NULL,
  is_present BOOLEAN NOT NULL DEFAULT FALSE,
  severity TEXT NOT NULL DEFAULT '',
  severity_score INTEGER NOT NULL DEFAULT 0,
  frequency TEXT NOT NULL DEFAULT '',
  duration TEXT NOT NULL DEFAULT '',
  duration_weeks INTEGER NOT NULL DEFAULT 0,
  onset_date TEXT NOT NULL DEFAULT '',
  impact_level TEXT NOT NULL DEFAULT '',
  functional_impairment BOOLEAN NOT NULL DEFAULT FALSE,
  treatment_target BOOLEAN NOT NULL DEFAULT FALSE,
  notes TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS assessments (
  id TEXT PRIMARY KEY,
  patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
  scale_name TEXT NOT NULL,
  administered_by TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  score INTEGER NOT NULL DEFAULT 0,
  severity TEXT NOT NULL DEFAULT '',
  interpretation TEXT NOT NULL DEFAULT '',
  responses_json TEXT NOT NULL,
  started_at BIGINT NOT NULL,
  completed_at BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  display_name TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
  seq BIGSERIAL PRIMARY KEY,
  actor TEXT NOT NULL DEFAULT '',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
