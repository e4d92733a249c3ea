package grading

import "context"

// Remote is the grading service boundary.
type Remote interface {
	GradeTest(ctx context.Context, req TestRequest) (Result, error)
	GradeSubmit(ctx context.Context, req SubmitRequest) (Result, error)
	SaveDraft(ctx context.Context, req SaveRequest) error
}

// SubmittedSet is the durable per-scope record of submitted problems.
type SubmittedSet interface {
	AddSubmitted(ctx context.Context, scope, problemID string) error
	ListSubmitted(ctx context.Context, scope string) ([]string, error)
}

// AttemptRecorder receives one row per completed grading call.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt Attempt) error
}

type Attempt struct {
	Scope     string
	ProblemID string
	Kind      Kind
	Status    string
	Passed    int
	Total     int
}
