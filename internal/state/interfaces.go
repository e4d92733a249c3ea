package state

import (
	"context"
	"time"

	"solvedesk/internal/drafts"
	"solvedesk/internal/grading"
)

// Store is the durable local state of the workspace: crash-recovery drafts,
// the submitted set, attempt history, and UI settings.
type Store interface {
	drafts.Cache
	grading.SubmittedSet
	grading.AttemptRecorder

	EnsureSchema(ctx context.Context) error
	ListAttempts(ctx context.Context, scope, problemID string, limit int) ([]AttemptRow, error)
	GetSummary(ctx context.Context, scope string) (Summary, error)
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	Close() error
}

type AttemptRow struct {
	ProblemID string       `json:"problem_id"`
	Kind      grading.Kind `json:"kind"`
	Status    string       `json:"status"`
	Passed    int          `json:"passed"`
	Total     int          `json:"total"`
	TS        time.Time    `json:"ts"`
}

type Summary struct {
	Tests       int
	Submits     int
	Accepted    int
	Submitted   int
	LastAttempt time.Time
}
