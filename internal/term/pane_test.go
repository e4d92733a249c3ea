package term

import (
	"strings"
	"testing"
)

func TestSnapshotWithoutContent(t *testing.T) {
	p := NewOutputPane(nil)
	snap := p.Snapshot(10, 3)
	if len(snap.Lines) != 3 || snap.Lines[0] != strings.Repeat(" ", 10) {
		t.Fatalf("expected blank padded lines, got %q", snap.Lines)
	}
	if snap.Scrollback {
		t.Fatalf("empty pane should not be in scrollback")
	}
}

func TestSnapshotShowsTail(t *testing.T) {
	p := NewOutputPane(nil)
	p.SetText("one\ntwo\nthree\nfour\n")
	snap := p.Snapshot(5, 2)
	if strings.TrimSpace(snap.Lines[0]) != "three" || strings.TrimSpace(snap.Lines[1]) != "four" {
		t.Fatalf("expected last two lines, got %q", snap.Lines)
	}
	if snap.Total != 4 {
		t.Fatalf("expected 4 lines, got %d", snap.Total)
	}
}

func TestScrollClampsToContent(t *testing.T) {
	p := NewOutputPane(nil)
	p.SetText("a\nb\nc\nd\ne")
	p.Scroll(2)
	snap := p.Snapshot(3, 2)
	if !snap.Scrollback || strings.TrimSpace(snap.Lines[0]) != "b" || strings.TrimSpace(snap.Lines[1]) != "c" {
		t.Fatalf("unexpected scrolled window %q", snap.Lines)
	}
	p.Scroll(100)
	snap = p.Snapshot(3, 2)
	if strings.TrimSpace(snap.Lines[0]) != "a" {
		t.Fatalf("expected top of content, got %q", snap.Lines)
	}
	p.ScrollToEnd()
	if p.Snapshot(3, 2).Scrollback {
		t.Fatalf("expected bottom after ScrollToEnd")
	}
	p.Scroll(-10)
	if p.Snapshot(3, 2).Offset != 0 {
		t.Fatalf("offset must not go negative")
	}
}

func TestSanitizeStripsEscapes(t *testing.T) {
	p := NewOutputPane(nil)
	p.SetText("\x1b[31mred\x1b[0m\r\nok\rdone\tx")
	if got := p.Text(); got != "red\nokdone    x" {
		t.Fatalf("unexpected sanitized text %q", got)
	}
}

func TestLongLinesWrap(t *testing.T) {
	p := NewOutputPane(nil)
	p.SetText("abcdefghij")
	snap := p.Snapshot(4, 3)
	if snap.Lines[0] != "abcd" || snap.Lines[1] != "efgh" || snap.Lines[2] != "ij  " {
		t.Fatalf("unexpected wrapped lines %q", snap.Lines)
	}
}

func TestAppendJoinsPartialLines(t *testing.T) {
	calls := 0
	p := NewOutputPane(func() { calls++ })
	p.Append("hel")
	p.Append("lo\nworld")
	if got := p.Text(); got != "hello\nworld" {
		t.Fatalf("unexpected text %q", got)
	}
	if calls != 2 {
		t.Fatalf("expected dirty callback per append, got %d", calls)
	}
	p.Clear()
	if p.Text() != "" {
		t.Fatalf("expected cleared pane")
	}
}
