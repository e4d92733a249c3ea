package term

import (
	"strings"
	"sync"

	xansi "github.com/charmbracelet/x/ansi"
)

const defaultScrollbackMax = 5000

// OutputPane keeps the grading transcript of one problem as plain lines and
// renders a bottom-anchored window over them. Offset counts lines scrolled
// up from the bottom.
type OutputPane struct {
	mu            sync.Mutex
	lines         []string
	tail          string
	offset        int
	scrollbackMax int
	dirty         func()
}

func NewOutputPane(onDirty func()) *OutputPane {
	return &OutputPane{scrollbackMax: defaultScrollbackMax, dirty: onDirty}
}

// SetDirty updates the redraw callback used when pane content changes.
func (p *OutputPane) SetDirty(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirty = fn
}

func (p *OutputPane) SetText(text string) {
	p.mu.Lock()
	p.lines = nil
	p.tail = ""
	p.offset = 0
	p.appendLocked(text)
	p.mu.Unlock()
	p.markDirty()
}

func (p *OutputPane) Append(text string) {
	p.mu.Lock()
	p.appendLocked(text)
	p.mu.Unlock()
	p.markDirty()
}

func (p *OutputPane) Clear() { p.SetText("") }

func (p *OutputPane) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	all := p.allLinesLocked()
	return strings.Join(all, "\n")
}

func (p *OutputPane) appendLocked(text string) {
	plain := sanitize(text)
	if plain == "" {
		return
	}
	parts := strings.Split(p.tail+plain, "\n")
	p.tail = parts[len(parts)-1]
	p.lines = append(p.lines, parts[:len(parts)-1]...)
	if len(p.lines) > p.scrollbackMax {
		p.lines = p.lines[len(p.lines)-p.scrollbackMax:]
	}
}

func (p *OutputPane) allLinesLocked() []string {
	if p.tail == "" {
		return p.lines
	}
	return append(append([]string(nil), p.lines...), p.tail)
}

func (p *OutputPane) Scroll(delta int) {
	p.mu.Lock()
	p.offset += delta
	total := len(p.allLinesLocked())
	if p.offset > total {
		p.offset = total
	}
	if p.offset < 0 {
		p.offset = 0
	}
	p.mu.Unlock()
	p.markDirty()
}

func (p *OutputPane) ScrollToEnd() {
	p.mu.Lock()
	p.offset = 0
	p.mu.Unlock()
	p.markDirty()
}

// Snapshot wraps content to width and returns exactly height lines padded
// to width.
func (p *OutputPane) Snapshot(width, height int) Snapshot {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	p.mu.Lock()
	src := p.allLinesLocked()
	offset := p.offset
	p.mu.Unlock()

	var wrapped []string
	for _, line := range src {
		if xansi.StringWidth(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}
		wrapped = append(wrapped, strings.Split(xansi.Hardwrap(line, width, true), "\n")...)
	}

	maxOffset := len(wrapped) - height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		offset = maxOffset
	}
	end := len(wrapped) - offset
	start := end - height
	if start < 0 {
		start = 0
	}

	out := Snapshot{
		Lines:      make([]string, height),
		Scrollback: offset > 0,
		Total:      len(wrapped),
		Offset:     offset,
	}
	window := wrapped[start:end]
	for row := 0; row < height; row++ {
		if row < len(window) {
			out.Lines[row] = clipWidth(window[row], width)
		} else {
			out.Lines[row] = strings.Repeat(" ", width)
		}
	}
	return out
}

func (p *OutputPane) markDirty() {
	p.mu.Lock()
	fn := p.dirty
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// sanitize drops escape sequences and carriage returns; remote output can
// carry colour codes from the judge.
func sanitize(text string) string {
	plain := xansi.Strip(text)
	plain = strings.ReplaceAll(plain, "\r\n", "\n")
	plain = strings.ReplaceAll(plain, "\r", "")
	return strings.ReplaceAll(plain, "\t", "    ")
}

func clipWidth(s string, w int) string {
	if w <= 0 {
		return ""
	}
	s = xansi.Truncate(s, w, "")
	if pad := w - xansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}
