package ui

import (
	"fmt"
	"strings"

	"solvedesk/internal/layout"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

type keyMap struct {
	Help     key.Binding
	Sidebar  key.Binding
	Prev     key.Binding
	Next     key.Binding
	Test     key.Binding
	Submit   key.Binding
	Save     key.Binding
	Language key.Binding
	Recover  key.Binding
	Review   key.Binding
	Stats    key.Binding
	Retry    key.Binding
	Exit     key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Help:     key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "Keys")),
		Sidebar:  key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "Problems")),
		Prev:     key.NewBinding(key.WithKeys("f3"), key.WithHelp("F3", "Prev")),
		Next:     key.NewBinding(key.WithKeys("f4"), key.WithHelp("F4", "Next")),
		Test:     key.NewBinding(key.WithKeys("f5"), key.WithHelp("F5", "Test")),
		Submit:   key.NewBinding(key.WithKeys("f6"), key.WithHelp("F6", "Submit")),
		Save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("Ctrl+S", "Save")),
		Language: key.NewBinding(key.WithKeys("f7"), key.WithHelp("F7", "Language")),
		Recover:  key.NewBinding(key.WithKeys("f8"), key.WithHelp("F8", "Recover draft")),
		Review:   key.NewBinding(key.WithKeys("f9"), key.WithHelp("F9", "Review user")),
		Stats:    key.NewBinding(key.WithKeys("f10"), key.WithHelp("F10", "Stats")),
		Retry:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("Ctrl+R", "Retry")),
		Exit:     key.NewBinding(key.WithKeys("ctrl+q"), key.WithHelp("Ctrl+Q", "Quit")),
		ScrollUp: key.NewBinding(key.WithKeys("shift+pgup"), key.WithHelp("Shift+PgUp", "Output up")),
		ScrollDn: key.NewBinding(key.WithKeys("shift+pgdown"), key.WithHelp("Shift+PgDn", "Output down")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Test, k.Submit, k.Save, k.Prev, k.Next, k.Sidebar, k.Help, k.Exit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Test, k.Submit, k.Save, k.Language},
		{k.Prev, k.Next, k.Sidebar, k.Recover},
		{k.Review, k.Stats, k.Retry, k.Exit},
		{k.ScrollUp, k.ScrollDn, k.Help},
	}
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	if key.Matches(msg, r.keymap.Exit) {
		if !r.exitOpen {
			r.dispatchWithEditor(func(c Controller) { c.OnExit() })
		}
		return r, nil
	}
	if r.overlayActive() {
		return r.handleOverlayKey(msg)
	}

	switch {
	case key.Matches(msg, r.keymap.Help):
		r.helpOpen = true
		return r, nil
	case key.Matches(msg, r.keymap.Sidebar):
		r.dispatchController(func(c Controller) { c.OnToggleSidebar() })
		return r, nil
	case key.Matches(msg, r.keymap.Prev):
		r.dispatchWithEditor(func(c Controller) { c.OnPrev() })
		return r, nil
	case key.Matches(msg, r.keymap.Next):
		r.dispatchWithEditor(func(c Controller) { c.OnNext() })
		return r, nil
	case key.Matches(msg, r.keymap.Test):
		r.dispatchWithEditor(func(c Controller) { c.OnTest() })
		return r, nil
	case key.Matches(msg, r.keymap.Submit):
		r.dispatchWithEditor(func(c Controller) { c.OnSubmit() })
		return r, nil
	case key.Matches(msg, r.keymap.Save):
		r.dispatchWithEditor(func(c Controller) { c.OnSave() })
		return r, nil
	case key.Matches(msg, r.keymap.Language):
		r.dispatchWithEditor(func(c Controller) { c.OnCycleLanguage() })
		return r, nil
	case key.Matches(msg, r.keymap.Recover):
		r.dispatchController(func(c Controller) { c.OnRecoverDraft() })
		return r, nil
	case key.Matches(msg, r.keymap.Review):
		if !r.header.ViewOnly {
			r.statusFlash = "Reviewing other participants needs view-only mode"
			return r, nil
		}
		r.review.Reset()
		r.reviewOpen = true
		return r, r.review.Focus()
	case key.Matches(msg, r.keymap.Stats):
		r.dispatchController(func(c Controller) { c.OnStats() })
		return r, nil
	case key.Matches(msg, r.keymap.Retry):
		r.dispatchController(func(c Controller) { c.OnRetry() })
		return r, nil
	case key.Matches(msg, r.keymap.ScrollUp):
		if r.term != nil {
			r.term.Scroll(10)
		}
		return r, nil
	case key.Matches(msg, r.keymap.ScrollDn):
		if r.term != nil {
			r.term.Scroll(-10)
		}
		return r, nil
	}

	if !r.editable() {
		return r, nil
	}
	if msg.Code == tea.KeyTab && msg.Mod == 0 {
		r.editor.InsertString("    ")
		r.editorChanged()
		return r, nil
	}
	before := r.editor.Value()
	var cmd tea.Cmd
	r.editor, cmd = r.editor.Update(msg)
	if r.editor.Value() != before {
		r.editorChanged()
	}
	return r, cmd
}

func (r *Root) handleOverlayKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	esc := msg.Code == tea.KeyEsc || msg.Code == tea.KeyEscape

	switch r.topOverlay() {
	case "exit":
		switch {
		case msg.Code == tea.KeyEnter || (msg.Mod == 0 && (msg.Code == 'y' || msg.Code == 'Y')):
			r.exitOpen = false
			r.dispatchController(func(c Controller) { c.OnConfirmExit(true) })
		case esc || (msg.Mod == 0 && (msg.Code == 'n' || msg.Code == 'N')):
			r.exitOpen = false
			r.dispatchController(func(c Controller) { c.OnConfirmExit(false) })
		}
		return r, nil
	case "review":
		switch {
		case esc:
			r.reviewOpen = false
			r.review.Blur()
		case msg.Code == tea.KeyEnter:
			user := strings.TrimSpace(r.review.Value())
			r.reviewOpen = false
			r.review.Blur()
			if user != "" {
				r.dispatchController(func(c Controller) { c.OnReviewUser(user) })
			}
		default:
			var cmd tea.Cmd
			r.review, cmd = r.review.Update(msg)
			return r, cmd
		}
		return r, nil
	}

	if esc || (msg.Mod == 0 && (msg.Code == 'q' || msg.Code == 'Q')) ||
		key.Matches(msg, r.keymap.Help) || key.Matches(msg, r.keymap.Stats) {
		r.closeTopOverlay()
	}
	return r, nil
}

func (r *Root) handlePaste(msg tea.PasteMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("paste:%d", len(msg.Content)))

	if r.topOverlay() == "review" {
		var cmd tea.Cmd
		r.review, cmd = r.review.Update(msg)
		return r, cmd
	}
	if r.overlayActive() || !r.editable() || msg.Content == "" {
		return r, nil
	}
	r.editor.InsertString(strings.ReplaceAll(msg.Content, "\t", "    "))
	r.editorChanged()
	return r, nil
}

func (r *Root) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	m := msg.Mouse()
	r.recordInputEvent(fmt.Sprintf("mouse_click:%d,%d button:%v", m.X, m.Y, m.Button))

	if m.Button != tea.MouseLeft || r.overlayActive() || r.tooSmall() {
		return r, nil
	}
	g := r.geometry()
	y := m.Y - bodyOriginY
	if y < 0 || y >= g.Height {
		return r, nil
	}

	if m.X < r.drawnSidebarWidth(g) {
		idx := y - 1
		if idx >= 0 && idx < len(r.problems) {
			id := r.problems[idx].ID
			r.dispatchWithEditor(func(c Controller) { c.OnJump(id) })
		}
		return r, nil
	}

	split := g.SidebarWidth + g.LeftWidth
	switch {
	case m.X == split-1 || m.X == split:
		r.beginDrag(layout.DragSplit)
	case m.X > split && y == g.EditorHeight:
		r.beginDrag(layout.DragTerminal)
	}
	return r, nil
}

func (r *Root) beginDrag(kind layout.DragKind) {
	r.dragging = true
	r.dispatchController(func(c Controller) { c.OnDragStart(kind) })
}

// Motion only matters while a drag is active; everything else is dropped.
func (r *Root) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if !r.dragging {
		return r, nil
	}
	m := msg.Mouse()
	x, y := m.X, m.Y-bodyOriginY
	r.dispatchController(func(c Controller) { c.OnDragMove(x, y) })
	return r, nil
}

func (r *Root) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if !r.dragging {
		return r, nil
	}
	m := msg.Mouse()
	r.recordInputEvent(fmt.Sprintf("mouse_release:%d,%d", m.X, m.Y))
	r.dragging = false
	r.dispatchController(func(c Controller) { c.OnDragEnd() })
	return r, nil
}

func (r *Root) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	m := msg.Mouse()
	r.recordInputEvent(fmt.Sprintf("mouse_wheel:%d,%d button:%v", m.X, m.Y, m.Button))

	delta := 0
	if m.Button == tea.MouseWheelUp {
		delta = -1
	} else if m.Button == tea.MouseWheelDown {
		delta = 1
	}
	if delta == 0 || r.overlayActive() || r.tooSmall() {
		return r, nil
	}
	g := r.geometry()
	y := m.Y - bodyOriginY
	split := g.SidebarWidth + g.LeftWidth
	switch {
	case m.X >= r.drawnSidebarWidth(g) && m.X < split:
		r.problemScroll = max(0, r.problemScroll+delta*3)
	case m.X >= split && y > g.EditorHeight && r.term != nil:
		r.term.Scroll(-delta * 3)
	}
	return r, nil
}

func (r *Root) topOverlay() string {
	switch {
	case r.exitOpen:
		return "exit"
	case r.reviewOpen:
		return "review"
	case r.statsOpen:
		return "stats"
	case r.helpOpen:
		return "help"
	}
	return ""
}

func (r *Root) overlayActive() bool {
	return r.topOverlay() != ""
}

func (r *Root) closeTopOverlay() {
	switch r.topOverlay() {
	case "stats":
		r.statsOpen = false
	case "help":
		r.helpOpen = false
	case "review":
		r.reviewOpen = false
		r.review.Blur()
	}
}
