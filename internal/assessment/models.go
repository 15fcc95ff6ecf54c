package assessment

import "errors"

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

var (
	ErrNotFound       = errors.New("assessment not found")
	ErrCompleted      = errors.New("assessment already completed")
	ErrUnknownScale   = errors.New("unknown scale")
	ErrUnknownPatient = errors.New("unknown patient")
)

// Assessment is one administration of a scale to a patient. Responses
// accumulate while the interview is in progress; once submitted the record
// is immutable and carries the derived score and severity.
type Assessment struct {
	ID             string      `json:"id"`
	PatientID      string      `json:"patient_id"`
	ScaleName      string      `json:"scale_name"`
	AdministeredBy string      `json:"administered_by,omitempty"`
	Status         Status      `json:"status"`
	Responses      map[int]int `json:"responses"` // question index -> option index
	Score          int         `json:"score"`
	Severity       string      `json:"severity,omitempty"`
	Interpretation string      `json:"interpretation,omitempty"`
	StartedAt      int64       `json:"started_at"`
	CompletedAt    int64       `json:"completed_at,omitempty"`
}

type ListOpts struct {
	PatientID string
	ScaleName string
	Status    string
	Limit     int
	Offset    int
}
