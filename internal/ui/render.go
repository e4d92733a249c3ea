package ui

import (
	"fmt"
	"math"
	"strings"

	"solvedesk/internal/layout"

	"charm.land/lipgloss/v2"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

func (r *Root) tooSmall() bool {
	return r.forceTooSmall || DetermineLayoutMode(r.cols, r.rows) == LayoutTooSmall
}

// geometry returns the last published pane geometry, or a locally derived
// one while the controller has not caught up with the window size.
func (r *Root) geometry() layout.Geometry {
	w, h := BodySize(r.cols, r.rows)
	if r.geom.Width == w && r.geom.Height == h {
		return r.geom
	}
	c := layout.New(layout.CellOptions(), func() layout.Bounds { return layout.Bounds{Width: w, Height: h} })
	c.Restore(layout.PaneLayout{SidebarOpen: r.geom.SidebarWidth > 0})
	return c.Geometry()
}

func (r *Root) drawnSidebarWidth(g layout.Geometry) int {
	if g.SidebarWidth == 0 {
		return 0
	}
	if r.motionLevel == "off" {
		return g.SidebarWidth
	}
	w := int(math.Round(float64(g.SidebarWidth) * math.Min(1, math.Max(0, r.sidebarPos))))
	if w < 4 {
		return 0
	}
	return w
}

func (r *Root) renderWorkspace() string {
	w, h := r.cols, r.rows
	mode := DetermineLayoutMode(w, h)
	if r.forceTooSmall {
		mode = LayoutTooSmall
	}
	r.layout = mode

	if mode == LayoutTooSmall {
		cols, rows := w, h
		if r.forceTooSmall {
			cols, rows = r.tooSmallCols, r.tooSmallRows
		}
		msg := []string{
			"Terminal too small",
			fmt.Sprintf("Current: %dx%d", cols, rows),
			fmt.Sprintf("Minimum: %dx%d", minCols, minRows),
			"Resize the terminal to continue.",
		}
		panel := r.drawPanel("Resize Required", msg, min(60, w), min(8, h))
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, panel)
	}

	g := r.geometry()
	out := []string{r.headerText(), r.renderBody(g), r.statusText()}
	if mode == LayoutWide {
		out = append(out, r.helpLine())
	}
	return strings.Join(out, "\n")
}

func (r *Root) renderBody(g layout.Geometry) string {
	sw := r.drawnSidebarWidth(g)
	leftW := g.LeftWidth + g.SidebarWidth - sw

	cols := make([]string, 0, 3)
	if sw > 0 {
		cols = append(cols, r.renderSidebar(sw, g.Height))
	}
	cols = append(cols, r.renderProblemPanel(leftW, g.Height))
	right := lipgloss.JoinVertical(lipgloss.Left,
		r.renderEditorPanel(g.RightWidth, g.EditorHeight),
		r.renderTerminalPanel(g.RightWidth, g.TerminalHeight),
	)
	cols = append(cols, right)
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (r *Root) headerText() string {
	inner := max(1, r.cols-2)
	parts := []string{"SolveDesk"}
	if r.header.Title != "" {
		parts = append(parts, r.header.Title)
	}
	if r.problem.Name != "" {
		parts = append(parts, r.problem.Name)
	}
	left := strings.Join(parts, r.sep())
	var tags []string
	if r.header.ViewOnly {
		tags = append(tags, r.theme.ReadOnly.Render("REVIEW "+r.header.UserID))
	}
	if r.header.Offline {
		tags = append(tags, r.theme.Muted.Render("offline"))
	}
	if r.debug {
		tags = append(tags, fmt.Sprintf("%dx%d %v", r.cols, r.rows, r.layout))
	}
	if len(tags) > 0 {
		left += "  " + strings.Join(tags, " ")
	}

	right := ""
	if r.countdown != "" {
		style := r.theme.Countdown
		if r.countdownPhase == "ended" {
			style = r.theme.Fail
		}
		right = style.Render(r.countdown)
	}
	gap := inner - lipgloss.Width(right)
	left = fitWidth(left, max(0, gap-1))
	txt := left + strings.Repeat(" ", max(0, inner-lipgloss.Width(left)-lipgloss.Width(right))) + right
	return r.theme.Header.Width(max(1, r.cols)).Render(fitWidth(txt, inner))
}

func (r *Root) statusText() string {
	var parts []string
	if r.status.LanguageLabel != "" {
		parts = append(parts, r.status.LanguageLabel)
	}
	switch {
	case r.editorReadOnly:
		parts = append(parts, "read-only")
	case r.status.Dirty:
		parts = append(parts, r.theme.Dirty.Render(r.glyph("●", "*")+" unsaved"))
	case r.status.Saved && !r.status.SavedAt.IsZero():
		parts = append(parts, r.theme.Pass.Render("saved "+humanize.Time(r.status.SavedAt)))
	case r.status.Saved:
		parts = append(parts, r.theme.Pass.Render("saved"))
	}
	if r.actions.Submitted {
		parts = append(parts, "submitted")
	}
	if r.actions.Closed {
		parts = append(parts, r.theme.Fail.Render("contest closed"))
	}
	if busy := r.busyLabel(); busy != "" {
		parts = append(parts, r.theme.Accent.Render(strings.TrimSpace(r.busySpin.View())+" "+busy))
	}
	if r.statusFlash != "" {
		parts = append(parts, r.statusFlash)
	}
	if len(parts) == 0 {
		parts = append(parts, "F1 Keys  Ctrl+Q Quit")
	}
	txt := fitWidth(strings.Join(parts, r.sep()), max(1, r.cols-2))
	return r.theme.Status.Width(max(1, r.cols)).Render(txt)
}

func (r *Root) busyLabel() string {
	switch {
	case r.actions.Submitting:
		return "Submitting..."
	case r.actions.Testing:
		return "Testing..."
	case r.actions.Saving:
		return "Saving..."
	}
	return ""
}

func (r *Root) helpLine() string {
	return r.theme.HelpLine.Render(fitWidth(r.help.View(r.keymap), max(1, r.cols-2)))
}

func (r *Root) renderSidebar(width, height int) string {
	inner := max(1, width-2)
	lines := make([]string, 0, len(r.problems))
	for _, p := range r.problems {
		badge := " "
		switch {
		case p.Solved:
			badge = r.theme.Pass.Render(r.glyph("✓", "v"))
		case p.Submitted:
			badge = r.theme.Pending.Render(r.glyph("•", "s"))
		}
		dirty := " "
		if p.Dirty {
			dirty = r.theme.Dirty.Render(r.glyph("●", "*"))
		}
		name := p.Name
		if name == "" {
			name = p.ID
		}
		line := badge + dirty + " " + trimForWidth(name, max(1, inner-3))
		if p.Current {
			line = r.theme.Selected.Render(fitWidth(ansi.Strip(line), inner))
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = []string{r.theme.Muted.Render("No problems")}
	}
	return r.drawPanel("Problems", lines, width, height)
}

func (r *Root) renderProblemPanel(width, height int) string {
	inner := max(1, width-2)
	innerH := max(1, height-2)
	title := "Problem"

	var lines []string
	switch r.problem.Phase {
	case PhaseError:
		lines = []string{
			r.theme.Fail.Render("Could not load this problem"),
			"",
		}
		lines = append(lines, strings.Split(ansi.Wrap(r.problem.Error, inner, ""), "\n")...)
		lines = append(lines, "", r.theme.Muted.Render("Ctrl+R retries"))
	case PhaseReady:
		if r.problem.Name != "" {
			title = r.problem.Name
		}
		lines = r.markdownLines(inner)
		maxScroll := max(0, len(lines)-innerH)
		if r.problemScroll > maxScroll {
			r.problemScroll = maxScroll
		}
		lines = lines[r.problemScroll:]
	default:
		lines = []string{r.theme.Accent.Render(strings.TrimSpace(r.busySpin.View()) + " Loading problem...")}
	}
	return r.drawPanel(title, lines, width, height)
}

// markdownLines renders the problem statement for width and caches the
// result until either changes.
func (r *Root) markdownLines(width int) []string {
	src := r.problem.Markdown
	if src == r.mdSource && width == r.mdWidth && r.mdLines != nil {
		return r.mdLines
	}
	style := "dark"
	if r.styleVariant == "paper" {
		style = "light"
	}
	text := ""
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(10, width-4)),
	)
	if err == nil {
		text, err = renderer.Render(src)
	}
	if err != nil {
		r.logger.Debug("ui.markdown.render_failed", "problem", r.problem.ID, "error", err)
		text = ansi.Wrap(src, width, "")
	}
	lines := strings.Split(strings.Trim(text, "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(ansi.Strip(lines[0])) == "" {
		lines = lines[1:]
	}
	r.mdSource, r.mdWidth, r.mdLines = src, width, lines
	return lines
}

func (r *Root) renderEditorPanel(width, height int) string {
	inner := max(1, width-2)
	innerH := max(1, height-2)
	title := "Editor"
	if r.status.LanguageLabel != "" {
		title += r.sep() + r.status.LanguageLabel
	}

	edge := r.theme.PanelBorder
	var lines []string
	switch {
	case r.editorDisabled && r.problem.Phase == PhaseError:
		lines = []string{r.theme.Muted.Render("Editor disabled until the problem loads")}
	case r.editorDisabled:
		lines = []string{r.theme.Muted.Render("Loading...")}
	case r.editorReadOnly:
		title += " (read-only)"
		lines = r.highlightedLines(inner)
	default:
		edge = r.theme.ActiveEdge
		r.editor.SetWidth(inner)
		r.editor.SetHeight(innerH)
		lines = strings.Split(r.editor.View(), "\n")
	}
	return r.framePanel(title, lines, width, height, edge)
}

// highlightedLines renders review code through chroma. Line numbers are
// added here so wrapped output keeps its gutter.
func (r *Root) highlightedLines(width int) []string {
	code := r.readOnlyCode
	if strings.TrimSpace(code) == "" {
		return []string{r.theme.Muted.Render("(no code)")}
	}
	lexer := r.status.Lexer
	if lexer == "" {
		lexer = "plaintext"
	}
	cacheKey := lexer + "\x00" + code
	if cacheKey != r.hlKey {
		var b strings.Builder
		out := code
		if err := quick.Highlight(&b, code, lexer, "terminal256", r.theme.ChromaStyle); err == nil {
			out = b.String()
		}
		r.hlKey = cacheKey
		r.hlLines = strings.Split(strings.TrimRight(out, "\n"), "\n")
	}
	gutter := len(fmt.Sprint(len(r.hlLines)))
	lines := make([]string, len(r.hlLines))
	for i, line := range r.hlLines {
		num := r.theme.Muted.Render(fmt.Sprintf("%*d ", gutter, i+1))
		lines[i] = fitWidth(num+line, width)
	}
	return lines
}

func (r *Root) renderTerminalPanel(width, height int) string {
	inner := max(1, width-2)
	innerH := max(1, height-2)

	var lines []string
	if r.result.Visible && r.result.ProblemID == r.problem.ID && innerH > 1 {
		lines = append(lines, r.resultLine(inner))
		innerH--
	}
	if r.term != nil {
		snap := r.term.Snapshot(inner, innerH)
		out := append([]string(nil), snap.Lines...)
		if snap.Scrollback && len(out) > 0 {
			indicator := fmt.Sprintf("[SCROLLBACK %d/%d] ", snap.Offset, snap.Total)
			base := []rune(out[0])
			for i, ch := range []rune(indicator) {
				if i >= len(base) {
					break
				}
				base[i] = ch
			}
			out[0] = string(base)
		}
		lines = append(lines, out...)
	} else {
		lines = append(lines, "No output")
	}

	edge := r.theme.PanelBorder
	if r.dragging {
		edge = r.theme.ActiveEdge
	}
	return r.framePanel("Output", lines, width, height, edge)
}

func (r *Root) resultLine(width int) string {
	label := r.theme.Fail.Render(r.result.Status)
	if r.result.Accepted {
		label = r.theme.Pass.Render(r.result.Status)
	}
	kind := "Test"
	if r.result.Kind == "submit" {
		kind = "Submit"
	}
	ratio := 0.0
	if r.result.Total > 0 {
		ratio = float64(r.result.Passed) / float64(r.result.Total)
	}
	bar := r.resultBar
	bar.SetWidth(min(24, max(8, width/3)))
	line := fmt.Sprintf("%s %s %d/%d ", kind, label, r.result.Passed, r.result.Total) + bar.ViewAs(ratio)
	return fitWidth(line, width)
}

func (r *Root) renderOverlay() string {
	top := r.topOverlay()
	if top == "" {
		return ""
	}
	var title string
	var lines []string
	switch top {
	case "exit":
		title = "Unsaved changes"
		lines = []string{"These problems have edits that were never saved:", ""}
		for _, id := range r.exitDirty {
			lines = append(lines, "  - "+id)
		}
		lines = append(lines, "", "Leave anyway?", "Enter/y: Leave   Esc/n: Stay")
	case "review":
		title = "Review submission"
		lines = []string{"Participant to review:", "", r.review.View(), "", "Enter: Open   Esc: Cancel"}
	case "stats":
		title = "Stats"
		lines = strings.Split(strings.TrimSuffix(r.statsText, "\n"), "\n")
		lines = append(lines, "", "Esc/q: Close")
	case "help":
		title = "Keys"
		h := r.help
		h.ShowAll = true
		lines = strings.Split(h.View(r.keymap), "\n")
		lines = append(lines, "", "Tab inserts four spaces. Drag the pane borders to resize.", "Esc/q: Close")
	}

	w := 0
	for _, line := range lines {
		w = max(w, lipgloss.Width(line))
	}
	w = min(max(48, w+4), max(4, r.cols-4))
	h := min(len(lines)+2, max(3, r.rows-2))
	return r.drawPanel(title, lines, w, h)
}

func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	return r.framePanel(title, lines, width, height, r.theme.PanelBorder)
}

func (r *Root) framePanel(title string, lines []string, width, height int, edge lipgloss.Style) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h, v := "─", "│"
	tl, tr, bl, br := "┌", "┐", "└", "┘"
	if r.ascii {
		h, v = "-", "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := edge.Render(tl + strings.Repeat(h, innerW) + tr)
	if title != "" && innerW > 2 {
		t := trimForWidth(" "+title+" ", innerW-1)
		rest := innerW - 1 - ansi.StringWidth(t)
		top = edge.Render(tl+h) + r.theme.PanelTitle.Render(t) + edge.Render(strings.Repeat(h, rest)+tr)
	}

	out := make([]string, 0, height)
	out = append(out, top)
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		out = append(out, edge.Render(v)+r.theme.PanelBody.Render(fitWidth(line, innerW))+edge.Render(v))
	}
	out = append(out, edge.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

func (r *Root) sep() string {
	if r.ascii {
		return " | "
	}
	return " │ "
}

func (r *Root) glyph(unicode, ascii string) string {
	if r.ascii {
		return ascii
	}
	return unicode
}

// fitWidth truncates or pads s to exactly width cells, keeping escape
// sequences intact.
func fitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\t", "    ")
	if ansi.StringWidth(s) > width {
		s = ansi.Truncate(s, width, "")
	}
	if pad := width - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func padRune(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(s, "\t", "    "))
	if len(r) > width {
		r = r[:width]
	}
	if len(r) < width {
		r = append(r, []rune(strings.Repeat(" ", width-len(r)))...)
	}
	return string(r)
}

// composeOverlay centres overlay on base. Both are flattened to plain text
// first so rune columns line up.
func composeOverlay(base, overlay string, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	baseLines := strings.Split(ansi.Strip(base), "\n")
	if len(baseLines) < rows {
		baseLines = append(baseLines, make([]string, rows-len(baseLines))...)
	}
	for i := 0; i < rows; i++ {
		baseLines[i] = padRune(baseLines[i], cols)
	}

	overlayLines := strings.Split(strings.TrimRight(ansi.Strip(overlay), "\n"), "\n")
	ow := 1
	for _, line := range overlayLines {
		ow = max(ow, len([]rune(line)))
	}
	ow = min(ow, cols)
	oh := min(len(overlayLines), rows)
	startRow := (rows - oh) / 2
	startCol := max(0, (cols-ow)/2)

	for i := 0; i < oh; i++ {
		row := startRow + i
		dst := []rune(baseLines[row])
		src := []rune(overlayLines[i])
		if len(src) > ow {
			src = src[:ow]
		}
		for j := 0; j < ow && startCol+j < len(dst); j++ {
			dst[startCol+j] = ' '
		}
		for j := 0; j < len(src) && startCol+j < len(dst); j++ {
			dst[startCol+j] = src[j]
		}
		baseLines[row] = string(dst)
	}
	return strings.Join(baseLines[:rows], "\n")
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
