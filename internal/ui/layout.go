package ui

const (
	minCols     = 80
	minRows     = 24
	wideCols    = 120
	wideRows    = 30
	bodyOriginY = 1
)

func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < minCols || rows < minRows {
		return LayoutTooSmall
	}
	if cols >= wideCols && rows >= wideRows {
		return LayoutWide
	}
	return LayoutCompact
}

// BodySize is the pane area left after the header, the status bar and, in
// the wide layout, the key help line.
func BodySize(cols, rows int) (int, int) {
	chrome := 2
	if DetermineLayoutMode(cols, rows) == LayoutWide {
		chrome = 3
	}
	return max(0, cols), max(0, rows-chrome)
}
