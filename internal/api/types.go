package api

import (
	"strings"
	"time"

	"solvedesk/internal/grading"
)

type Problem struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Input         string `json:"input"`
	Output        string `json:"output"`
	ExampleInput  string `json:"example_input"`
	ExampleOutput string `json:"example_output"`
}

type ProblemRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Solved bool   `json:"solved,omitempty"`
}

type Contest struct {
	Code      string       `json:"code"`
	Name      string       `json:"name"`
	StartDate *time.Time   `json:"start_date,omitempty"`
	EndDate   *time.Time   `json:"end_date,omitempty"`
	Status    string       `json:"status,omitempty"`
	Problems  []ProblemRef `json:"problems"`
}

type Course struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Problems []ProblemRef `json:"problems"`
}

type SavedDraft struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Submission is another participant's latest submission, shown read-only.
type Submission struct {
	Code           string          `json:"code"`
	Language       string          `json:"language"`
	TerminalOutput string          `json:"terminal_output,omitempty"`
	GradingDetails *grading.Result `json:"grading_details,omitempty"`
}

const coursePrefix = "course:"

// CourseScope is the draft scope of a course session.
func CourseScope(courseID string) string { return coursePrefix + courseID }

// ParseScope splits a scope into its contest code or course id.
func ParseScope(scope string) (contestCode, courseID string) {
	if id, ok := strings.CutPrefix(scope, coursePrefix); ok {
		return "", id
	}
	return scope, ""
}
