package ui

import (
	"time"

	"solvedesk/internal/layout"
)

type Controller interface {
	// OnEditorChange reports the editor buffer for problemID. rev increases
	// with every edit so late deliveries can be dropped.
	OnEditorChange(problemID, code string, rev uint64)
	OnTest()
	OnSubmit()
	OnSave()
	OnNext()
	OnPrev()
	OnJump(problemID string)
	OnCycleLanguage()
	OnRecoverDraft()
	OnToggleSidebar()
	OnDragStart(kind layout.DragKind)
	OnDragMove(x, y int)
	OnDragEnd()
	OnReviewUser(userID string)
	OnStats()
	OnRetry()
	OnExit()
	OnConfirmExit(confirm bool)
	OnResize(cols, rows int)
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetHeader(HeaderState)
	SetCountdown(text string, phase string)
	SetProblems(items []ProblemItem)
	SetProblem(ProblemState)
	SetEditor(EditorState)
	SetEditorStatus(EditorStatus)
	SetActions(ActionState)
	SetResult(ResultState)
	SetGeometry(g layout.Geometry, dragging bool)
	SetExitConfirm(open bool, dirty []string)
	SetStats(text string, open bool)
	SetTooSmall(cols, rows int)
	FlashStatus(msg string)
}

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutCompact
	LayoutTooSmall
)

type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

type HeaderState struct {
	Title    string
	Scope    string
	ViewOnly bool
	UserID   string
	Offline  bool
}

type ProblemItem struct {
	ID        string
	Name      string
	Solved    bool
	Submitted bool
	Dirty     bool
	Current   bool
}

type ProblemState struct {
	ID       string
	Name     string
	Markdown string
	Phase    Phase
	Error    string
}

// EditorState replaces the editor buffer. The buffer is only rewritten when
// the problem or the code differs from what the editor holds.
type EditorState struct {
	ProblemID string
	Code      string
	ReadOnly  bool
	Disabled  bool
	EditorStatus
}

type EditorStatus struct {
	ProblemID     string
	LanguageLabel string
	Lexer         string
	Dirty         bool
	Saved         bool
	SavedAt       time.Time
}

type ActionState struct {
	ProblemID  string
	Testing    bool
	Submitting bool
	Saving     bool
	Closed     bool
	ReadOnly   bool
	HasPrev    bool
	HasNext    bool
	Submitted  bool
}

// Busy reports whether any grading or save call is outstanding.
func (a ActionState) Busy() bool {
	return a.Testing || a.Submitting || a.Saving
}

type ResultState struct {
	ProblemID string
	Visible   bool
	Kind      string
	Status    string
	Passed    int
	Total     int
	Accepted  bool
}
