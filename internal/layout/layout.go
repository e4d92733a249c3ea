package layout

import (
	"math"
	"sync"
)

type Bounds struct {
	Width  int
	Height int
}

// BoundsFunc reports the current container size.
type BoundsFunc func() Bounds

type DragKind int

const (
	DragNone DragKind = iota
	DragSplit
	DragTerminal
)

type Options struct {
	MinRightPercent     float64
	MaxRightPercent     float64
	DefaultRightPercent float64
	MinLeft             int
	TerminalMin         int
	TerminalRatio       float64
	TerminalReserve     int
	SidebarWidth        int
}

// DefaultOptions uses pixel sizes.
func DefaultOptions() Options {
	return Options{
		MinRightPercent:     20,
		MaxRightPercent:     80,
		DefaultRightPercent: 50,
		MinLeft:             400,
		TerminalMin:         180,
		TerminalRatio:       0.30,
		TerminalReserve:     160,
		SidebarWidth:        250,
	}
}

// CellOptions scales DefaultOptions down to a terminal cell grid.
func CellOptions() Options {
	o := DefaultOptions()
	o.MinLeft = 30
	o.TerminalMin = 6
	o.TerminalReserve = 5
	o.SidebarWidth = 24
	return o
}

type PaneLayout struct {
	RightPercent   float64 `json:"right_percent"`
	TerminalHeight int     `json:"terminal_height"`
	SidebarOpen    bool    `json:"sidebar_open"`
}

// Geometry is the concrete pane sizing for the current container.
type Geometry struct {
	Width          int
	Height         int
	SidebarWidth   int
	LeftWidth      int
	RightWidth     int
	EditorHeight   int
	TerminalHeight int
}

type Controller struct {
	opts   Options
	bounds BoundsFunc

	mu       sync.Mutex
	state    PaneLayout
	dragging DragKind
}

func New(opts Options, bounds BoundsFunc) *Controller {
	if bounds == nil {
		bounds = func() Bounds { return Bounds{} }
	}
	c := &Controller{
		opts:   opts,
		bounds: bounds,
		state:  PaneLayout{RightPercent: opts.DefaultRightPercent},
	}
	c.Recompute()
	return c
}

func (c *Controller) Options() Options { return c.opts }

func (c *Controller) Snapshot() PaneLayout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Restore applies persisted preferences. The terminal height is always
// rederived from the container.
func (c *Controller) Restore(p PaneLayout) {
	c.mu.Lock()
	c.state.SidebarOpen = p.SidebarOpen
	if p.RightPercent > 0 {
		c.state.RightPercent = c.clampPercentLocked(p.RightPercent, c.bounds())
	}
	c.mu.Unlock()
	c.Recompute()
}

func (c *Controller) BeginDrag(kind DragKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dragging = kind
}

func (c *Controller) EndDrag() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dragging = DragNone
}

func (c *Controller) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging != DragNone
}

// Move applies pointer motion to the active drag. It returns false when no
// drag is active.
func (c *Controller) Move(x, y int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bounds()
	switch c.dragging {
	case DragSplit:
		offset := c.sidebarLocked()
		content := b.Width - offset
		if content <= 0 {
			return true
		}
		right := float64(content-(x-offset)) * 100 / float64(content)
		c.state.RightPercent = c.clampPercentLocked(right, b)
		return true
	case DragTerminal:
		c.state.TerminalHeight = c.clampTerminal(b.Height-y, b.Height)
		return true
	default:
		return false
	}
}

// Recompute rederives the terminal height from the container height.
func (c *Controller) Recompute() {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bounds()
	derived := int(math.Round(c.opts.TerminalRatio * float64(b.Height)))
	c.state.TerminalHeight = c.clampTerminal(derived, b.Height)
	c.state.RightPercent = c.clampPercentLocked(c.state.RightPercent, b)
}

func (c *Controller) ToggleSidebar() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SidebarOpen = !c.state.SidebarOpen
	return c.state.SidebarOpen
}

func (c *Controller) SetSidebar(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SidebarOpen = open
}

func (c *Controller) Geometry() Geometry {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bounds()
	g := Geometry{Width: b.Width, Height: b.Height, SidebarWidth: c.sidebarLocked()}
	content := b.Width - g.SidebarWidth
	if content < 0 {
		content = 0
	}
	g.RightWidth = int(math.Round(float64(content) * c.state.RightPercent / 100))
	g.LeftWidth = content - g.RightWidth
	g.TerminalHeight = c.state.TerminalHeight
	g.EditorHeight = b.Height - g.TerminalHeight
	if g.EditorHeight < 0 {
		g.EditorHeight = 0
	}
	return g
}

func (c *Controller) sidebarLocked() int {
	if !c.state.SidebarOpen {
		return 0
	}
	return c.opts.SidebarWidth
}

// clampTerminal bounds v to [TerminalMin, height-TerminalReserve] with the
// minimum winning, then to [0, height].
func (c *Controller) clampTerminal(v, height int) int {
	if upper := height - c.opts.TerminalReserve; v > upper {
		v = upper
	}
	if v < c.opts.TerminalMin {
		v = c.opts.TerminalMin
	}
	if v > height {
		v = height
	}
	if v < 0 {
		v = 0
	}
	return v
}

func (c *Controller) clampPercentLocked(p float64, b Bounds) float64 {
	max := c.opts.MaxRightPercent
	content := b.Width - c.sidebarLocked()
	if content > 0 && c.opts.MinLeft > 0 {
		floor := float64(content-c.opts.MinLeft) * 100 / float64(content)
		if floor < max {
			max = floor
		}
	}
	if p > max {
		p = max
	}
	if p < c.opts.MinRightPercent {
		p = c.opts.MinRightPercent
	}
	return p
}
