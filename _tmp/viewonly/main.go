package main

import (
	"solvedesk/internal/term"
	"solvedesk/internal/ui"
)

func main() {
	pane := term.NewOutputPane(nil)
	v := ui.New(ui.Options{TermPane: pane})
	pane.SetDirty(v.RequestDraw)
	v.SetHeader(ui.HeaderState{Title: "Preview", Scope: "preview", Offline: true})
	v.SetProblem(ui.ProblemState{ID: "echo", Name: "Echo", Markdown: "# Echo\n\nPrint the line you read.", Phase: ui.PhaseReady})
	v.SetEditor(ui.EditorState{ProblemID: "echo", Code: "print(input())\n"})
	_ = v.Run()
}
