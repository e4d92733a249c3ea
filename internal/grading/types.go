package grading

import "time"

const StatusAccepted = "ACCEPTED"

type Kind string

const (
	KindTest   Kind = "test"
	KindSubmit Kind = "submit"
)

// Result is the outcome of one test or submit call. Status is opaque apart
// from ACCEPTED.
type Result struct {
	Status          string           `json:"status"`
	PassedCount     int              `json:"passed_count"`
	TotalCount      int              `json:"total_count"`
	ExecutionTimeMS *float64         `json:"execution_time_ms,omitempty"`
	ErrorMessage    string           `json:"error_message,omitempty"`
	Details         []TestCaseResult `json:"details,omitempty"`

	Kind       Kind      `json:"-"`
	ReceivedAt time.Time `json:"-"`
}

type TestCaseResult struct {
	Index          int    `json:"index"`
	Passed         bool   `json:"passed"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	ActualOutput   string `json:"actual_output"`
}

func (r Result) Accepted() bool {
	return r.Status == StatusAccepted
}

// normalize enforces the count invariants on a decoded result.
func (r Result) normalize() Result {
	if r.PassedCount < 0 {
		r.PassedCount = 0
	}
	if r.TotalCount < 0 {
		r.TotalCount = 0
	}
	if r.TotalCount == 0 && len(r.Details) > 0 {
		r.TotalCount = len(r.Details)
	}
	if r.PassedCount > r.TotalCount {
		r.PassedCount = r.TotalCount
	}
	if r.ExecutionTimeMS != nil && *r.ExecutionTimeMS < 0 {
		r.ExecutionTimeMS = nil
	}
	return r
}

type TestRequest struct {
	ProblemID string `json:"problem_id"`
	Scope     string `json:"scope,omitempty"`
	Code      string `json:"code"`
	Language  string `json:"language"`
}

type SubmitRequest struct {
	ProblemID        string `json:"problem_id"`
	Scope            string `json:"scope,omitempty"`
	Code             string `json:"code"`
	Language         string `json:"language"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

type SaveRequest struct {
	ProblemID string `json:"problem_id"`
	Scope     string `json:"scope,omitempty"`
	Code      string `json:"code"`
	Language  string `json:"language"`
}
