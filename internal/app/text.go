package app

import (
	"fmt"
	"strings"
	"time"

	"solvedesk/internal/api"
	"solvedesk/internal/state"

	"github.com/dustin/go-humanize"
)

func problemMarkdown(p api.Problem) string {
	var b strings.Builder
	name := p.Name
	if name == "" {
		name = p.ID
	}
	b.WriteString("# " + name + "\n\n")
	if s := strings.TrimSpace(p.Description); s != "" {
		b.WriteString(s + "\n\n")
	}
	if s := strings.TrimSpace(p.Input); s != "" {
		b.WriteString("## Input\n\n" + s + "\n\n")
	}
	if s := strings.TrimSpace(p.Output); s != "" {
		b.WriteString("## Output\n\n" + s + "\n\n")
	}
	if p.ExampleInput != "" || p.ExampleOutput != "" {
		b.WriteString("## Example\n\n")
		b.WriteString("Input\n\n```\n" + strings.TrimRight(p.ExampleInput, "\n") + "\n```\n\n")
		b.WriteString("Output\n\n```\n" + strings.TrimRight(p.ExampleOutput, "\n") + "\n```\n")
	}
	return b.String()
}

func statsText(scope string, s state.Summary, rows []state.AttemptRow, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scope: %s\n\n", scope)
	fmt.Fprintf(&b, "Test runs:   %d\n", s.Tests)
	fmt.Fprintf(&b, "Submissions: %d\n", s.Submits)
	fmt.Fprintf(&b, "Accepted:    %d\n", s.Accepted)
	fmt.Fprintf(&b, "Submitted problems: %d\n", s.Submitted)
	if !s.LastAttempt.IsZero() {
		fmt.Fprintf(&b, "Last attempt: %s\n", humanize.RelTime(s.LastAttempt, now, "ago", "from now"))
	}
	if len(rows) == 0 {
		b.WriteString("\nNo attempts yet.\n")
		return b.String()
	}
	b.WriteString("\nRecent attempts\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "  %-10s %-6s %-20s %d/%d  %s\n",
			r.ProblemID, r.Kind, r.Status, r.Passed, r.Total,
			humanize.RelTime(r.TS, now, "ago", "from now"))
	}
	return b.String()
}
