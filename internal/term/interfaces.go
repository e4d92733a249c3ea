package term

// Pane is the read-only terminal area under the editor.
type Pane interface {
	SetText(text string)
	Append(text string)
	Clear()
	Text() string
	Scroll(delta int)
	ScrollToEnd()
	Snapshot(width, height int) Snapshot
}

type Snapshot struct {
	Lines      []string
	Scrollback bool
	Total      int
	Offset     int
}
