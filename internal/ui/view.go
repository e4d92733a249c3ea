package ui

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"solvedesk/internal/layout"
	"solvedesk/internal/term"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
)

type applyMsg struct {
	fn func(*Root)
}

type drawMsg struct{}
type clockMsg time.Time
type animateMsg time.Time

type Root struct {
	theme        Theme
	ascii        bool
	debug        bool
	term         term.Pane
	ctrl         Controller
	styleVariant string
	motionLevel  string

	mu      sync.Mutex
	program *tea.Program
	running bool

	layout LayoutMode
	cols   int
	rows   int

	forceTooSmall bool
	tooSmallCols  int
	tooSmallRows  int

	header         HeaderState
	countdown      string
	countdownPhase string
	problems       []ProblemItem
	problem        ProblemState
	status         EditorStatus
	actions        ActionState
	result         ResultState
	geom           layout.Geometry
	dragging       bool
	statusFlash    string
	problemScroll  int

	editor         textarea.Model
	editorID       string
	editorReadOnly bool
	editorDisabled bool
	readOnlyCode   string
	rev            uint64

	mdSource  string
	mdWidth   int
	mdLines   []string
	hlKey     string
	hlLines   []string
	exitOpen  bool
	exitDirty []string
	statsOpen bool
	statsText string
	helpOpen  bool

	reviewOpen bool
	review     textinput.Model

	help       help.Model
	keymap     keyMap
	resultBar  progress.Model
	busySpin   spinner.Model
	logger     *clog.Logger
	sidebarPos float64
	sidebarVel float64
	spring     harmonica.Spring

	drawPending atomic.Bool

	lastInputEvent string
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	TermPane     term.Pane
	StyleVariant string
	MotionLevel  string
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "solvedesk-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	styleVariant := normalizeStyleVariant(opts.StyleVariant)
	theme := ThemeForVariant(styleVariant)
	spring := harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8)
	switch motionLevel {
	case "reduced":
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 0.92)
	case "off":
		spring = harmonica.NewSpring(harmonica.FPS(60), 1000.0, 1.0)
	}
	bar := progress.New(
		progress.WithWidth(20),
		progress.WithColors(lipgloss.Color(theme.BarFrom), lipgloss.Color(theme.BarTo)),
		progress.WithScaled(true),
		progress.WithoutPercentage(),
	)
	busy := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(theme.Accent),
	)

	ed := textarea.New()
	ed.ShowLineNumbers = true
	ed.Prompt = ""
	ed.CharLimit = 0
	ed.MaxHeight = 0
	ed.MaxWidth = 0
	ed.Placeholder = "Write your solution here"

	review := textinput.New()
	review.Prompt = "> "
	review.Placeholder = "user id"
	review.CharLimit = 64

	r := &Root{
		theme:        theme,
		ascii:        opts.ASCIIOnly,
		debug:        opts.Debug,
		term:         opts.TermPane,
		styleVariant: styleVariant,
		motionLevel:  motionLevel,
		layout:       LayoutWide,
		cols:         120,
		rows:         30,
		editor:       ed,
		review:       review,
		help:         h,
		keymap:       newKeyMap(),
		resultBar:    bar,
		busySpin:     busy,
		logger:       logger,
		spring:       spring,
		problem:      ProblemState{Phase: PhaseLoading},
	}
	r.editorDisabled = true
	return r
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(clockTickCmd(), spinnerTickCmd(r.busySpin))
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		if r.layout != LayoutTooSmall {
			r.forceTooSmall = false
		}
		r.dispatchController(func(c Controller) { c.OnResize(msg.Width, msg.Height) })
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.animateIfNeeded()
	case drawMsg:
		r.drawPending.Store(false)
		return r, nil
	case clockMsg:
		return r, clockTickCmd()
	case animateMsg:
		target := r.sidebarTarget()
		r.sidebarPos, r.sidebarVel = r.spring.Update(r.sidebarPos, r.sidebarVel, target)
		if r.shouldAnimate(target) {
			return r, animateTickCmd()
		}
		r.sidebarPos = target
		r.sidebarVel = 0
		return r, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.busySpin, cmd = r.busySpin.Update(msg)
		return r, cmd
	case tea.PasteMsg:
		return r.handlePaste(msg)
	case tea.MouseClickMsg:
		return r.handleMouseClick(msg)
	case tea.MouseMotionMsg:
		return r.handleMouseMotion(msg)
	case tea.MouseReleaseMsg:
		return r.handleMouseRelease(msg)
	case tea.MouseWheelMsg:
		return r.handleMouseWheel(msg)
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			if r.statusFlash == "" {
				r.statusFlash = "Recovered UI panic"
			}
			view = tea.NewView(r.theme.Fail.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}

	base := r.renderWorkspace()
	if overlay := r.renderOverlay(); overlay != "" {
		base = composeOverlay(base, overlay, r.cols, r.rows)
	}
	v := tea.NewView(base)
	v.AltScreen = true
	v.MouseMode = r.currentMouseMode()
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetHeader(h HeaderState) {
	r.apply(func(m *Root) {
		m.header = h
		if !h.ViewOnly {
			m.reviewOpen = false
		}
	})
}

func (r *Root) SetCountdown(text, phase string) {
	r.apply(func(m *Root) {
		m.countdown = text
		m.countdownPhase = phase
	})
}

func (r *Root) SetProblems(items []ProblemItem) {
	r.apply(func(m *Root) {
		m.problems = append([]ProblemItem(nil), items...)
	})
}

func (r *Root) SetProblem(p ProblemState) {
	r.apply(func(m *Root) {
		if p.ID != m.problem.ID {
			m.problemScroll = 0
		}
		m.problem = p
	})
}

// SetEditor only rewrites the buffer when the problem or the code differs
// from what the editor holds, so the cursor survives redundant updates.
func (r *Root) SetEditor(st EditorState) {
	r.apply(func(m *Root) {
		m.editorDisabled = st.Disabled
		m.editorReadOnly = st.ReadOnly
		if st.Disabled {
			m.editor.Blur()
			return
		}
		m.status = st.EditorStatus
		if st.ReadOnly {
			m.editorID = st.ProblemID
			m.readOnlyCode = st.Code
			m.editor.Blur()
			return
		}
		if st.ProblemID != m.editorID || st.Code != m.editor.Value() {
			m.editor.SetValue(st.Code)
			m.editorID = st.ProblemID
		}
		m.editor.Focus()
	})
}

func (r *Root) SetEditorStatus(st EditorStatus) {
	r.apply(func(m *Root) {
		if st.ProblemID != "" && st.ProblemID != m.editorID {
			return
		}
		m.status = st
	})
}

func (r *Root) SetActions(a ActionState) {
	r.apply(func(m *Root) {
		m.actions = a
	})
}

func (r *Root) SetResult(res ResultState) {
	r.apply(func(m *Root) {
		m.result = res
	})
}

func (r *Root) SetGeometry(g layout.Geometry, dragging bool) {
	r.apply(func(m *Root) {
		m.geom = g
		m.dragging = dragging
		m.forceTooSmall = false
		if m.motionLevel == "off" {
			m.sidebarPos = m.sidebarTarget()
			m.sidebarVel = 0
		}
	})
}

func (r *Root) SetExitConfirm(open bool, dirty []string) {
	r.apply(func(m *Root) {
		m.exitOpen = open
		m.exitDirty = append([]string(nil), dirty...)
	})
}

func (r *Root) SetStats(text string, open bool) {
	r.apply(func(m *Root) {
		m.statsText = text
		m.statsOpen = open
	})
}

func (r *Root) SetTooSmall(cols, rows int) {
	r.apply(func(m *Root) {
		m.forceTooSmall = true
		m.tooSmallCols = cols
		m.tooSmallRows = rows
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

func (r *Root) RequestDraw() {
	r.mu.Lock()
	p := r.program
	running := r.running
	r.mu.Unlock()
	if !running || p == nil {
		return
	}
	if !r.drawPending.CompareAndSwap(false, true) {
		return
	}
	time.AfterFunc(16*time.Millisecond, func() {
		r.mu.Lock()
		p := r.program
		running := r.running
		r.mu.Unlock()
		if !running || p == nil {
			r.drawPending.Store(false)
			return
		}
		p.Send(drawMsg{})
	})
}

// apply runs fn on the model. Once the program runs, fn is delivered as a
// message so it executes on the update goroutine.
func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

// dispatchWithEditor hands the controller the latest buffer before fn runs
// on the same goroutine, so actions never see a stale draft.
func (r *Root) dispatchWithEditor(fn func(Controller)) {
	if !r.editable() {
		r.dispatchController(fn)
		return
	}
	r.rev++
	id, code, rev := r.editorID, r.editor.Value(), r.rev
	r.dispatchController(func(c Controller) {
		c.OnEditorChange(id, code, rev)
		fn(c)
	})
}

func (r *Root) editorChanged() {
	r.rev++
	id, code, rev := r.editorID, r.editor.Value(), r.rev
	r.dispatchController(func(c Controller) { c.OnEditorChange(id, code, rev) })
}

func (r *Root) editable() bool {
	return r.editorID != "" && !r.editorReadOnly && !r.editorDisabled
}

func (r *Root) sidebarTarget() float64 {
	if r.geom.SidebarWidth > 0 {
		return 1
	}
	return 0
}

func (r *Root) animateIfNeeded() tea.Cmd {
	if r.shouldAnimate(r.sidebarTarget()) {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) shouldAnimate(target float64) bool {
	if r.motionLevel == "off" {
		return false
	}
	return abs(r.sidebarPos-target) > 0.001 || abs(r.sidebarVel) > 0.001
}

func (r *Root) currentMouseMode() tea.MouseMode {
	if r.dragging {
		return tea.MouseModeAllMotion
	}
	return tea.MouseModeCellMotion
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func normalizeStyleVariant(v string) string {
	switch strings.TrimSpace(v) {
	case "paper", "retro_terminal", "midnight":
		return strings.TrimSpace(v)
	default:
		return "midnight"
	}
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"message_type", msgType,
		"problem", r.problem.ID,
		"layout", r.layout,
		"cols", r.cols,
		"rows", r.rows,
		"overlay", r.topOverlay(),
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
