package ui

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"solvedesk/internal/layout"
	"solvedesk/internal/term"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
)

type mockController struct {
	mu    sync.Mutex
	calls []string
	edits []string
}

func (m *mockController) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockController) OnEditorChange(problemID, code string, rev uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "edit")
	m.edits = append(m.edits, problemID+":"+code)
}
func (m *mockController) OnTest()                    { m.record("test") }
func (m *mockController) OnSubmit()                  { m.record("submit") }
func (m *mockController) OnSave()                    { m.record("save") }
func (m *mockController) OnNext()                    { m.record("next") }
func (m *mockController) OnPrev()                    { m.record("prev") }
func (m *mockController) OnJump(id string)           { m.record("jump:" + id) }
func (m *mockController) OnCycleLanguage()           { m.record("language") }
func (m *mockController) OnRecoverDraft()            { m.record("recover") }
func (m *mockController) OnToggleSidebar()           { m.record("sidebar") }
func (m *mockController) OnDragStart(k layout.DragKind) {
	m.record(fmt.Sprintf("drag-start:%d", k))
}
func (m *mockController) OnDragMove(x, y int)        { m.record(fmt.Sprintf("drag-move:%d,%d", x, y)) }
func (m *mockController) OnDragEnd()                 { m.record("drag-end") }
func (m *mockController) OnReviewUser(id string)     { m.record("review:" + id) }
func (m *mockController) OnStats()                   { m.record("stats") }
func (m *mockController) OnRetry()                   { m.record("retry") }
func (m *mockController) OnExit()                    { m.record("exit") }
func (m *mockController) OnConfirmExit(confirm bool) { m.record(fmt.Sprintf("confirm-exit:%v", confirm)) }
func (m *mockController) OnResize(int, int)          {}

func (m *mockController) snapshot() ([]string, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...), append([]string(nil), m.edits...)
}

func (m *mockController) waitFor(t *testing.T, call string) []string {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		calls, _ := m.snapshot()
		for _, c := range calls {
			if c == call {
				return calls
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %q, got %v", call, calls)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newTestRoot(t *testing.T) (*Root, *mockController, *term.OutputPane) {
	t.Helper()
	pane := term.NewOutputPane(nil)
	v := New(Options{TermPane: pane, MotionLevel: "off"})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetGeometry(layout.Geometry{
		Width: 120, Height: 27,
		LeftWidth: 60, RightWidth: 60,
		EditorHeight: 19, TerminalHeight: 8,
	}, false)
	return v, ctrl, pane
}

func press(v *Root, code rune, mod tea.KeyMod, text string) {
	_, _ = v.Update(tea.KeyPressMsg{Code: code, Mod: mod, Text: text})
}

func typeText(v *Root, s string) {
	for _, ch := range s {
		press(v, ch, 0, string(ch))
	}
}

func TestTestKeySyncsEditorBeforeAction(t *testing.T) {
	v, ctrl, _ := newTestRoot(t)
	v.SetEditor(EditorState{ProblemID: "echo", Code: "print(1)"})
	typeText(v, "x")

	press(v, tea.KeyF5, 0, "")
	calls := ctrl.waitFor(t, "test")

	_, edits := ctrl.snapshot()
	if len(edits) == 0 || edits[len(edits)-1] != "echo:print(1)x" {
		t.Fatalf("expected latest buffer to be reported, got %v", edits)
	}
	last := -1
	for i, c := range calls {
		if c == "test" {
			last = i
		}
	}
	if last == 0 || calls[last-1] != "edit" {
		t.Fatalf("expected an editor sync right before test, got %v", calls)
	}
}

func TestTabInsertsSpaces(t *testing.T) {
	v, _, _ := newTestRoot(t)
	v.SetEditor(EditorState{ProblemID: "echo"})
	press(v, tea.KeyTab, 0, "")
	if got := v.editor.Value(); got != "    " {
		t.Fatalf("expected four spaces, got %q", got)
	}
}

func TestReadOnlyEditorIgnoresTyping(t *testing.T) {
	v, ctrl, _ := newTestRoot(t)
	v.SetEditor(EditorState{ProblemID: "sum-pair", Code: "print(a + b)", ReadOnly: true})
	typeText(v, "abc")
	press(v, tea.KeyF5, 0, "")
	ctrl.waitFor(t, "test")

	_, edits := ctrl.snapshot()
	if len(edits) != 0 {
		t.Fatalf("read-only editor must not report edits, got %v", edits)
	}
	if !strings.Contains(ansi.Strip(v.renderEditorPanel(60, 19)), "print") {
		t.Fatalf("expected highlighted review code in the editor panel")
	}
}

func TestSetEditorKeepsBufferWhenUnchanged(t *testing.T) {
	v, _, _ := newTestRoot(t)
	v.SetEditor(EditorState{ProblemID: "echo", Code: "a"})
	typeText(v, "b")
	v.SetEditor(EditorState{ProblemID: "echo", Code: "ab"})
	typeText(v, "c")
	if got := v.editor.Value(); got != "abc" {
		t.Fatalf("expected cursor to stay at the end, got %q", got)
	}

	v.SetEditor(EditorState{ProblemID: "sum-pair", Code: ""})
	if v.editor.Value() != "" || v.editorID != "sum-pair" {
		t.Fatalf("expected buffer to switch problems")
	}
}

func TestDisabledEditorKeepsBufferAndRejectsInput(t *testing.T) {
	v, ctrl, _ := newTestRoot(t)
	v.SetEditor(EditorState{ProblemID: "echo", Code: "keep"})
	v.SetEditor(EditorState{ProblemID: "sum-pair", Disabled: true})
	typeText(v, "zz")
	if v.editor.Value() != "keep" {
		t.Fatalf("disabled editor must not change, got %q", v.editor.Value())
	}
	time.Sleep(20 * time.Millisecond)
	if _, edits := ctrl.snapshot(); len(edits) != 0 {
		t.Fatalf("disabled editor must not report edits, got %v", edits)
	}
}

func TestExitConfirmOverlay(t *testing.T) {
	v, ctrl, _ := newTestRoot(t)
	press(v, 'q', tea.ModCtrl, "")
	ctrl.waitFor(t, "exit")

	v.SetExitConfirm(true, []string{"echo"})
	if !strings.Contains(ansi.Strip(v.renderOverlay()), "echo") {
		t.Fatalf("expected dirty problem in the confirmation")
	}
	press(v, 'n', 0, "n")
	ctrl.waitFor(t, "confirm-exit:false")
	if v.exitOpen {
		t.Fatalf("expected overlay to close on cancel")
	}

	v.SetExitConfirm(true, []string{"echo"})
	press(v, tea.KeyEnter, 0, "")
	ctrl.waitFor(t, "confirm-exit:true")
}

func TestSplitDragLifecycle(t *testing.T) {
	v, ctrl, _ := newTestRoot(t)

	_, _ = v.Update(tea.MouseMotionMsg{X: 70, Y: 6})
	_, _ = v.Update(tea.MouseClickMsg{X: 60, Y: 6, Button: tea.MouseLeft})
	ctrl.waitFor(t, fmt.Sprintf("drag-start:%d", layout.DragSplit))
	if v.currentMouseMode() != tea.MouseModeAllMotion {
		t.Fatalf("expected all-motion reporting while dragging")
	}

	_, _ = v.Update(tea.MouseMotionMsg{X: 70, Y: 6})
	ctrl.waitFor(t, "drag-move:70,5")
	_, _ = v.Update(tea.MouseReleaseMsg{X: 70, Y: 6})
	calls := ctrl.waitFor(t, "drag-end")
	if v.currentMouseMode() != tea.MouseModeCellMotion {
		t.Fatalf("expected motion reporting to stop after release")
	}
	moves := 0
	for _, c := range calls {
		if strings.HasPrefix(c, "drag-move") {
			moves++
		}
	}
	if moves != 1 {
		t.Fatalf("motion outside a drag must be ignored, got %v", calls)
	}
}

func TestTerminalBorderStartsTerminalDrag(t *testing.T) {
	v, ctrl, _ := newTestRoot(t)
	_, _ = v.Update(tea.MouseClickMsg{X: 90, Y: 1 + 19, Button: tea.MouseLeft})
	ctrl.waitFor(t, fmt.Sprintf("drag-start:%d", layout.DragTerminal))
}

func TestSidebarClickJumps(t *testing.T) {
	v, ctrl, _ := newTestRoot(t)
	v.SetGeometry(layout.Geometry{
		Width: 120, Height: 27, SidebarWidth: 24,
		LeftWidth: 48, RightWidth: 48,
		EditorHeight: 19, TerminalHeight: 8,
	}, false)
	v.SetProblems([]ProblemItem{
		{ID: "echo", Name: "Echo", Current: true},
		{ID: "sum-pair", Name: "Sum Pair", Dirty: true},
	})
	_, _ = v.Update(tea.MouseClickMsg{X: 5, Y: 3, Button: tea.MouseLeft})
	ctrl.waitFor(t, "jump:sum-pair")
}

func TestReviewPromptOnlyInViewOnly(t *testing.T) {
	v, ctrl, _ := newTestRoot(t)
	press(v, tea.KeyF9, 0, "")
	if v.reviewOpen {
		t.Fatalf("review prompt must stay closed outside view-only mode")
	}

	v.SetHeader(HeaderState{Title: "Sample Cup", ViewOnly: true, UserID: "ada"})
	press(v, tea.KeyF9, 0, "")
	if !v.reviewOpen {
		t.Fatalf("expected review prompt")
	}
	typeText(v, "bob")
	press(v, tea.KeyEnter, 0, "")
	ctrl.waitFor(t, "review:bob")
	if v.reviewOpen {
		t.Fatalf("expected prompt to close after submit")
	}
}

func TestShiftPageUpScrollsOutput(t *testing.T) {
	v, _, pane := newTestRoot(t)
	var b strings.Builder
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	pane.SetText(b.String())

	press(v, tea.KeyPgUp, tea.ModShift, "")
	if snap := pane.Snapshot(40, 5); snap.Offset != 10 || !snap.Scrollback {
		t.Fatalf("expected to scroll up ten lines, got %+v", snap)
	}
	press(v, tea.KeyPgDown, tea.ModShift, "")
	if snap := pane.Snapshot(40, 5); snap.Scrollback {
		t.Fatalf("expected to return to the bottom")
	}
}

func TestStatsOverlayClosesOnEsc(t *testing.T) {
	v, ctrl, _ := newTestRoot(t)
	press(v, tea.KeyF10, 0, "")
	ctrl.waitFor(t, "stats")
	v.SetStats("Test runs:   2\n", true)
	if v.topOverlay() != "stats" {
		t.Fatalf("expected stats overlay")
	}
	press(v, tea.KeyEscape, 0, "")
	if v.statsOpen {
		t.Fatalf("expected stats overlay to close")
	}
}

func TestRenderFillsScreen(t *testing.T) {
	v, _, pane := newTestRoot(t)
	v.SetHeader(HeaderState{Title: "Sample Cup", Scope: "sample-cup"})
	v.SetCountdown("2h 10m 3s", "running")
	v.SetProblem(ProblemState{ID: "echo", Name: "Echo", Markdown: "# Echo\n\nPrint the line you read.", Phase: PhaseReady})
	v.SetEditor(EditorState{ProblemID: "echo", Code: "print(input())", EditorStatus: EditorStatus{ProblemID: "echo", LanguageLabel: "Python"}})
	v.SetResult(ResultState{ProblemID: "echo", Visible: true, Kind: "test", Status: "WRONG_ANSWER", Passed: 0, Total: 1})
	pane.SetText("Test run: WRONG_ANSWER (0/1 passed)\n")

	out := v.renderWorkspace()
	lines := strings.Split(out, "\n")
	if len(lines) != v.rows {
		t.Fatalf("expected %d rows, got %d", v.rows, len(lines))
	}
	for i, line := range lines {
		if w := ansi.StringWidth(line); w > v.cols {
			t.Fatalf("row %d is %d cells wide", i, w)
		}
	}
	plain := ansi.Strip(out)
	for _, want := range []string{"Sample Cup", "2h 10m 3s", "Editor", "Output", "WRONG_ANSWER"} {
		if !strings.Contains(plain, want) {
			t.Fatalf("expected %q in rendered view", want)
		}
	}
}

func TestTooSmallNotice(t *testing.T) {
	v, _, _ := newTestRoot(t)
	v.SetTooSmall(60, 20)
	if !strings.Contains(ansi.Strip(v.renderWorkspace()), "Terminal too small") {
		t.Fatalf("expected too-small notice")
	}
	v.SetGeometry(layout.Geometry{Width: 120, Height: 27, LeftWidth: 60, RightWidth: 60, EditorHeight: 19, TerminalHeight: 8}, false)
	if v.forceTooSmall {
		t.Fatalf("fresh geometry should clear the notice")
	}
}
