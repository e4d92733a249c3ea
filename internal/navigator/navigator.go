package navigator

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

type Summary struct {
	ID     string
	Name   string
	Solved bool
}

// ListSource supplies the ordered problem list of a session scope.
type ListSource interface {
	ListProblems(ctx context.Context, scope string) ([]Summary, error)
}

// DirtyChecker reports which problems hold unsaved edits.
type DirtyChecker interface {
	DirtyIDs() []string
}

// Target is the problem and participant currently on screen.
type Target struct {
	ProblemID string
	UserID    string
	ViewOnly  bool
}

type ExitGate struct {
	Pending bool
	Dirty   []string
}

var ErrEmpty = errors.New("problem list is empty")

type Navigator struct {
	mu       sync.Mutex
	scope    string
	problems []Summary
	index    int
	viewOnly bool
	userID   string
	gate     ExitGate
}

func New(viewOnly bool, userID string) *Navigator {
	return &Navigator{viewOnly: viewOnly, userID: userID}
}

// Load fetches the ordered list once. startID selects the initial problem
// when present in the list.
func (n *Navigator) Load(ctx context.Context, source ListSource, scope, startID string) error {
	list, err := source.ListProblems(ctx, scope)
	if err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scope = scope
	n.problems = append([]Summary(nil), list...)
	n.index = 0
	for i, p := range n.problems {
		if p.ID == startID {
			n.index = i
			break
		}
	}
	if len(n.problems) == 0 {
		return ErrEmpty
	}
	return nil
}

func (n *Navigator) Scope() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.scope
}

func (n *Navigator) Problems() []Summary {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Summary(nil), n.problems...)
}

func (n *Navigator) Index() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index
}

func (n *Navigator) Current() (Summary, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.index < 0 || n.index >= len(n.problems) {
		return Summary{}, false
	}
	return n.problems[n.index], true
}

// Next moves forward one problem. At the last problem it does nothing and
// returns false.
func (n *Navigator) Next() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.index+1 >= len(n.problems) {
		return false
	}
	n.index++
	return true
}

func (n *Navigator) Prev() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.index <= 0 {
		return false
	}
	n.index--
	return true
}

func (n *Navigator) HasNext() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index+1 < len(n.problems)
}

func (n *Navigator) HasPrev() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index > 0
}

func (n *Navigator) Jump(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, p := range n.problems {
		if p.ID == id {
			n.index = i
			return true
		}
	}
	return false
}

// Find resolves query to a problem id: exact id first, then a
// case-insensitive name match, then the nearest name by edit distance.
func (n *Navigator) Find(query string) (Summary, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return find(n.problems, query)
}

func find(problems []Summary, query string) (Summary, bool) {
	q := strings.TrimSpace(query)
	if q == "" || len(problems) == 0 {
		return Summary{}, false
	}
	for _, p := range problems {
		if p.ID == q {
			return p, true
		}
	}
	lq := strings.ToLower(q)
	best, bestDist, bestLen := -1, 0, 0
	for i, p := range problems {
		name := strings.ToLower(p.Name)
		if name == lq {
			return p, true
		}
		d := levenshtein.ComputeDistance(lq, name)
		if strings.Contains(name, lq) {
			d = len(name) - len(lq)
		}
		if best < 0 || d < bestDist {
			best, bestDist, bestLen = i, d, len(name)
		}
	}
	// Reject matches that differ in more than half their characters.
	if bestLen < len(lq) {
		bestLen = len(lq)
	}
	if bestDist*2 > bestLen {
		return Summary{}, false
	}
	return problems[best], true
}

func (n *Navigator) MarkSolved(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.problems {
		if n.problems[i].ID == id {
			n.problems[i].Solved = true
		}
	}
}

func (n *Navigator) ViewOnly() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.viewOnly
}

func (n *Navigator) Target() Target {
	n.mu.Lock()
	defer n.mu.Unlock()
	t := Target{UserID: n.userID, ViewOnly: n.viewOnly}
	if n.index >= 0 && n.index < len(n.problems) {
		t.ProblemID = n.problems[n.index].ID
	}
	return t
}

// SetReviewUser switches the participant under review. It only affects
// view-only sessions.
func (n *Navigator) SetReviewUser(userID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.viewOnly {
		return false
	}
	n.userID = userID
	return true
}

// RequestExit opens the exit gate when any problem in the session is dirty.
// A gate that is not Pending means the caller may leave immediately.
func (n *Navigator) RequestExit(dirty DirtyChecker) ExitGate {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gate = ExitGate{}
	if n.viewOnly || dirty == nil {
		return n.gate
	}
	ids := dirty.DirtyIDs()
	if len(ids) == 0 {
		return n.gate
	}
	n.gate = ExitGate{Pending: true, Dirty: append([]string(nil), ids...)}
	return n.gate
}

func (n *Navigator) ExitPending() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.gate.Pending
}

// ConfirmExit closes a pending gate and reports whether one was open.
func (n *Navigator) ConfirmExit() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	was := n.gate.Pending
	n.gate = ExitGate{}
	return was
}

func (n *Navigator) CancelExit() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gate = ExitGate{}
}
