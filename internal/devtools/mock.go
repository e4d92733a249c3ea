package devtools

import (
	"fmt"
	"strings"

	"solvedesk/internal/grading"
)

const failMarker = "solvedesk:fail"

type Manager struct{}

func NewManager() *Manager { return &Manager{} }

// MockGrade never runs code. The first attempt on a problem fails its first
// case, later attempts pass, and code containing the fail marker always
// fails. Tests grade the examples only; submissions add the hidden tests.
func (m *Manager) MockGrade(req MockGradeRequest) grading.Result {
	cases := req.Problem.Examples
	if req.Kind == grading.KindSubmit {
		cases = req.Problem.GradingCases()
	}
	if strings.TrimSpace(req.Code) == "" {
		return grading.Result{
			Status:       "COMPILATION_ERROR",
			TotalCount:   len(cases),
			ErrorMessage: "empty source",
		}
	}
	passed := req.Attempt >= 2 && !strings.Contains(req.Code, failMarker)

	details := make([]grading.TestCaseResult, 0, len(cases))
	passCount := 0
	firstFailureUsed := false
	for i, c := range cases {
		tc := grading.TestCaseResult{Index: i, Passed: true, ExpectedOutput: c.Output, ActualOutput: c.Output}
		if !passed && !firstFailureUsed {
			firstFailureUsed = true
			tc.Passed = false
			tc.ActualOutput = mockActual(c.Output)
		}
		if req.Kind == grading.KindTest || i < len(req.Problem.Examples) {
			tc.Input = c.Input
		} else {
			// Hidden test data stays hidden.
			tc.ExpectedOutput, tc.ActualOutput = "", ""
		}
		if tc.Passed {
			passCount++
		}
		details = append(details, tc)
	}

	status := grading.StatusAccepted
	if passCount < len(cases) {
		status = "WRONG_ANSWER"
	}
	ms := float64(12 + 3*len(cases))
	return grading.Result{
		Status:          status,
		PassedCount:     passCount,
		TotalCount:      len(cases),
		ExecutionTimeMS: &ms,
		Details:         details,
	}
}

func mockActual(expected string) string {
	trimmed := strings.TrimSpace(expected)
	if trimmed == "" {
		return "(no output)"
	}
	return fmt.Sprintf("%s?", trimmed)
}
