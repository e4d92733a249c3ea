package app

import (
	"context"

	"solvedesk/internal/api"
	"solvedesk/internal/grading"
	"solvedesk/internal/navigator"
)

// Backend is the remote surface the workspace talks to. *api.Client is the
// production implementation.
type Backend interface {
	navigator.ListSource
	grading.Remote

	Problem(ctx context.Context, id string) (api.Problem, error)
	SavedDraft(ctx context.Context, scope, problemID string) (api.SavedDraft, bool, error)
	Contest(ctx context.Context, code string) (api.Contest, error)
	Course(ctx context.Context, id string) (api.Course, error)
	Submission(ctx context.Context, contestCode, problemID, userID string) (api.Submission, error)
}

var _ Backend = (*api.Client)(nil)
