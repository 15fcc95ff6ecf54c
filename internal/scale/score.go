package scale

import "fmt"

// Kind classifies a scoring failure.
type Kind string

const (
	KindIncompleteResponse Kind = "incomplete_response"
	KindInvalidOption      Kind = "invalid_option"
	KindMisconfiguredScale Kind = "misconfigured_scale"
)

// ScoringError is returned when a response cannot be scored. Incomplete and
// invalid-option errors point at UI/data-entry defects; a misconfigured scale
// means the definition itself is bad and should be treated as fatal.
type ScoringError struct {
	Kind     Kind
	Scale    string
	Question int // index of the offending question, -1 when not applicable
	Detail   string
}

func (e *ScoringError) Error() string {
	if e.Question >= 0 {
		return fmt.Sprintf("scale %s: %s: question %d: %s", e.Scale, e.Kind, e.Question, e.Detail)
	}
	return fmt.Sprintf("scale %s: %s: %s", e.Scale, e.Kind, e.Detail)
}

// Response holds the selected option index per question index. It must cover
// every question before it can be scored.
type Response struct {
	Selected map[int]int
}

// Result is the derived outcome of scoring one complete response. It is
// recomputed on demand and never mutated independently.
type Result struct {
	Scale    string       `json:"scale"`
	Total    int          `json:"total"`
	Severity string       `json:"severity"`
	Band     SeverityBand `json:"band"`
	Selected map[int]int  `json:"selected"`
}

// Score computes the total and severity band for a complete response. Pure:
// no side effects, identical inputs yield identical results. Every question
// must have exactly one valid answer; bands are checked in ascending order
// and exactly one must contain the total.
func Score(def Definition, resp Response) (Result, error) {
	total := 0
	for i, q := range def.Questions {
		sel, ok := resp.Selected[i]
		if !ok {
			return Result{}, &ScoringError{
				Kind: KindIncompleteResponse, Scale: def.Name, Question: i,
				Detail: "no answer selected",
			}
		}
		if sel < 0 || sel >= len(q.Options) {
			return Result{}, &ScoringError{
				Kind: KindInvalidOption, Scale: def.Name, Question: i,
				Detail: fmt.Sprintf("option %d out of range [0,%d]", sel, len(q.Options)-1),
			}
		}
		total += q.Options[sel].Points
	}

	for _, b := range def.Bands {
		if total >= b.Min && total <= b.Max {
			sel := make(map[int]int, len(resp.Selected))
			for k, v := range resp.Selected {
				sel[k] = v
			}
			return Result{
				Scale:    def.Name,
				Total:    total,
				Severity: b.Label,
				Band:     b,
				Selected: sel,
			}, nil
		}
	}
	return Result{}, &ScoringError{
		Kind: KindMisconfiguredScale, Scale: def.Name, Question: -1,
		Detail: fmt.Sprintf("no severity band contains total %d", total),
	}
}
