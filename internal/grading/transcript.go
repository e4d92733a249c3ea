package grading

import (
	"fmt"
	"strings"
)

// Transcript renders a result as the text shown in the terminal pane.
func Transcript(res Result) string {
	var b strings.Builder
	label := "Test run"
	if res.Kind == KindSubmit {
		label = "Submission"
	}
	status := res.Status
	if status == "" {
		status = "UNKNOWN"
	}
	b.WriteString(fmt.Sprintf("%s: %s (%d/%d passed)", label, status, res.PassedCount, res.TotalCount))
	if res.ExecutionTimeMS != nil {
		b.WriteString(fmt.Sprintf(" in %.0f ms", *res.ExecutionTimeMS))
	}
	b.WriteString("\n")
	if res.ErrorMessage != "" {
		b.WriteString("\nError\n")
		b.WriteString(strings.TrimRight(res.ErrorMessage, "\n") + "\n")
	}
	for _, tc := range res.Details {
		mark := "PASS"
		if !tc.Passed {
			mark = "FAIL"
		}
		b.WriteString(fmt.Sprintf("\n[%s] case %d\n", mark, tc.Index+1))
		if tc.Passed {
			continue
		}
		if tc.Input != "" {
			b.WriteString("input:\n" + indent(tc.Input))
		}
		b.WriteString(lineDiff(normalizeOutput(tc.ExpectedOutput), normalizeOutput(tc.ActualOutput)))
	}
	return b.String()
}

// normalizeOutput folds CRLF and trailing whitespace so the diff only shows
// differences a judge would care about.
func normalizeOutput(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func lineDiff(expected, actual string) string {
	exp := strings.Split(expected, "\n")
	act := strings.Split(actual, "\n")
	n := len(exp)
	if len(act) > n {
		n = len(act)
	}
	var b strings.Builder
	b.WriteString("--- expected\n+++ actual\n")
	for i := 0; i < n; i++ {
		var e, a string
		hasE, hasA := i < len(exp), i < len(act)
		if hasE {
			e = exp[i]
		}
		if hasA {
			a = act[i]
		}
		if hasE && hasA && e == a {
			b.WriteString(" " + e + "\n")
			continue
		}
		if hasE {
			b.WriteString("-" + e + "\n")
		}
		if hasA {
			b.WriteString("+" + a + "\n")
		}
	}
	return b.String()
}

func indent(s string) string {
	s = strings.TrimRight(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}
