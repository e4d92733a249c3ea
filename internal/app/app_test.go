package app

import (
	"context"
	"errors"
	"math"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"solvedesk/internal/api"
	"solvedesk/internal/devtools"
	"solvedesk/internal/grading"
	"solvedesk/internal/layout"
	"solvedesk/internal/problemset"
	"solvedesk/internal/state"
	"solvedesk/internal/ui"
)

type fakeView struct {
	mu        sync.Mutex
	header    ui.HeaderState
	countdown string
	problems  []ui.ProblemItem
	problem   ui.ProblemState
	editor    ui.EditorState
	status    ui.EditorStatus
	actions   ui.ActionState
	result    ui.ResultState
	geometry  layout.Geometry
	dragging  bool
	exitOpen  bool
	exitDirty []string
	stats     string
	tooSmall  bool
	flashes   []string
	stopped   bool
}

func (v *fakeView) Run() error                      { return nil }
func (v *fakeView) SetController(ui.Controller)     {}
func (v *fakeView) lock() func()                    { v.mu.Lock(); return v.mu.Unlock }
func (v *fakeView) Stop()                           { defer v.lock()(); v.stopped = true }
func (v *fakeView) SetHeader(h ui.HeaderState)      { defer v.lock()(); v.header = h }
func (v *fakeView) SetCountdown(text, _ string)     { defer v.lock()(); v.countdown = text }
func (v *fakeView) SetProblems(items []ui.ProblemItem) {
	defer v.lock()()
	v.problems = items
}
func (v *fakeView) SetProblem(p ui.ProblemState) { defer v.lock()(); v.problem = p }
func (v *fakeView) SetEditor(e ui.EditorState) {
	defer v.lock()()
	v.editor = e
	v.status = e.EditorStatus
}
func (v *fakeView) SetEditorStatus(s ui.EditorStatus) { defer v.lock()(); v.status = s }
func (v *fakeView) SetActions(s ui.ActionState)       { defer v.lock()(); v.actions = s }
func (v *fakeView) SetResult(s ui.ResultState)        { defer v.lock()(); v.result = s }
func (v *fakeView) SetGeometry(g layout.Geometry, dragging bool) {
	defer v.lock()()
	v.geometry, v.dragging = g, dragging
}
func (v *fakeView) SetExitConfirm(open bool, dirty []string) {
	defer v.lock()()
	v.exitOpen, v.exitDirty = open, dirty
}
func (v *fakeView) SetStats(text string, _ bool) { defer v.lock()(); v.stats = text }
func (v *fakeView) SetTooSmall(int, int)         { defer v.lock()(); v.tooSmall = true }
func (v *fakeView) FlashStatus(msg string) {
	defer v.lock()()
	v.flashes = append(v.flashes, msg)
}

func (v *fakeView) lastFlash() string {
	defer v.lock()()
	if len(v.flashes) == 0 {
		return ""
	}
	return v.flashes[len(v.flashes)-1]
}

// gatedBackend blocks grading and save calls on their release channels and
// can fail problem loads on demand. reviewGate only holds the first review
// fetch.
type gatedBackend struct {
	Backend
	release     chan struct{}
	submitGate  chan struct{}
	saveGate    chan struct{}
	reviewGate  chan struct{}
	tests       atomic.Int32
	submits     atomic.Int32
	saves       atomic.Int32
	reviews     atomic.Int32
	failProblem atomic.Bool
}

func (g *gatedBackend) GradeTest(ctx context.Context, req grading.TestRequest) (grading.Result, error) {
	g.tests.Add(1)
	if g.release != nil {
		<-g.release
	}
	return g.Backend.GradeTest(ctx, req)
}

func (g *gatedBackend) GradeSubmit(ctx context.Context, req grading.SubmitRequest) (grading.Result, error) {
	g.submits.Add(1)
	if g.submitGate != nil {
		<-g.submitGate
	}
	return g.Backend.GradeSubmit(ctx, req)
}

func (g *gatedBackend) SaveDraft(ctx context.Context, req grading.SaveRequest) error {
	g.saves.Add(1)
	if g.saveGate != nil {
		<-g.saveGate
	}
	return g.Backend.SaveDraft(ctx, req)
}

func (g *gatedBackend) Submission(ctx context.Context, contestCode, problemID, userID string) (api.Submission, error) {
	if g.reviews.Add(1) == 1 && g.reviewGate != nil {
		<-g.reviewGate
	}
	return g.Backend.Submission(ctx, contestCode, problemID, userID)
}

func (g *gatedBackend) Problem(ctx context.Context, id string) (api.Problem, error) {
	if g.failProblem.Load() {
		return api.Problem{}, errors.New("connection refused")
	}
	return g.Backend.Problem(ctx, id)
}

type fixture struct {
	url   string
	store *state.SQLiteStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	set, err := problemset.Load(filepath.Join("..", "..", "problemsets", "sample"))
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(devtools.NewServer(set, devtools.ServerOptions{}).Handler())
	t.Cleanup(srv.Close)
	store, err := state.NewSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return &fixture{url: srv.URL, store: store}
}

func (f *fixture) app(t *testing.T, backend *gatedBackend, mutate func(*Config)) (*App, *fakeView) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.APIURL = f.url
	cfg.Contest = "sample-cup"
	cfg.DataDir = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if backend == nil {
		backend = &gatedBackend{}
	}
	backend.Backend = api.NewClient(f.url, "", 5*time.Second)
	view := &fakeView{}
	a := newApp(context.Background(), cfg, Deps{View: view, Backend: backend, Store: f.store})
	t.Cleanup(a.cancel)
	return a, view
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMountLoadsFirstProblemFromRemoteDraft(t *testing.T) {
	a, view := newFixture(t).app(t, nil, nil)
	a.mount(context.Background())

	if a.State() != StateReady {
		t.Fatalf("expected ready, got %s (%s)", a.State(), a.LoadError())
	}
	if view.problem.ID != "echo" || view.problem.Phase != ui.PhaseReady || !strings.Contains(view.problem.Markdown, "# Echo") {
		t.Fatalf("unexpected problem state %+v", view.problem)
	}
	if view.editor.Code != "print(input())\n" || view.editor.Disabled || view.editor.ReadOnly {
		t.Fatalf("expected starter code in an editable editor, got %+v", view.editor)
	}
	if view.status.Dirty {
		t.Fatalf("freshly primed draft must not be dirty")
	}
	if view.header.Title != "Sample Cup" || len(view.problems) != 3 || !view.problems[0].Current {
		t.Fatalf("unexpected header/list %+v %+v", view.header, view.problems)
	}
	if view.actions.HasPrev || !view.actions.HasNext {
		t.Fatalf("unexpected navigation flags %+v", view.actions)
	}
}

func TestTestThenSubmitFlow(t *testing.T) {
	a, view := newFixture(t).app(t, nil, nil)
	a.mount(context.Background())

	a.OnEditorChange("echo", "s = input()\nprint(s)\n", 1)
	if !view.status.Dirty || !view.problems[0].Dirty {
		t.Fatalf("expected edit to mark the draft dirty")
	}

	a.OnTest()
	if !view.result.Visible || view.result.Accepted || view.result.Kind != string(grading.KindTest) {
		t.Fatalf("expected failing test result, got %+v", view.result)
	}
	if !strings.Contains(a.term.Text(), "[FAIL] case 1") {
		t.Fatalf("expected transcript in terminal, got %q", a.term.Text())
	}
	if a.grader.IsSubmitted("echo") || !a.drafts.IsDirty("echo") {
		t.Fatalf("test must not submit or save")
	}

	a.OnSubmit()
	if !view.result.Accepted || view.result.Kind != string(grading.KindSubmit) {
		t.Fatalf("expected accepted submission, got %+v", view.result)
	}
	if !a.grader.IsSubmitted("echo") || a.drafts.IsDirty("echo") || !view.status.Saved {
		t.Fatalf("submit must mark submitted and reconcile the draft")
	}
	if !view.problems[0].Solved || !view.problems[0].Submitted {
		t.Fatalf("expected sidebar badges, got %+v", view.problems[0])
	}
	if !strings.Contains(a.term.Text(), "Submission: ACCEPTED") {
		t.Fatalf("unexpected transcript %q", a.term.Text())
	}

	a.OnStats()
	if !strings.Contains(view.stats, "Test runs:   1") || !strings.Contains(view.stats, "Accepted:    1") {
		t.Fatalf("unexpected stats:\n%s", view.stats)
	}
}

func TestEmptyCodeIsRejectedBeforeNetwork(t *testing.T) {
	backend := &gatedBackend{}
	a, view := newFixture(t).app(t, backend, nil)
	a.mount(context.Background())

	a.OnEditorChange("echo", "  \n", 1)
	a.OnTest()
	if backend.tests.Load() != 0 {
		t.Fatalf("expected no grading call for empty code")
	}
	if !strings.Contains(view.lastFlash(), "Write some code") {
		t.Fatalf("expected validation message, got %q", view.lastFlash())
	}
	if a.State() != StateReady {
		t.Fatalf("expected to stay ready, got %s", a.State())
	}
}

func TestSecondTestWhileInFlightIsIgnored(t *testing.T) {
	backend := &gatedBackend{release: make(chan struct{})}
	a, _ := newFixture(t).app(t, backend, nil)
	a.mount(context.Background())

	done := make(chan struct{})
	go func() {
		a.OnTest()
		close(done)
	}()
	waitFor(t, "first grade call", func() bool { return backend.tests.Load() == 1 })
	if a.State() != StateTesting {
		t.Fatalf("expected testing state, got %s", a.State())
	}

	a.OnTest()
	if backend.tests.Load() != 1 {
		t.Fatalf("expected duplicate request to be ignored, got %d calls", backend.tests.Load())
	}

	close(backend.release)
	<-done
	if a.State() != StateReady {
		t.Fatalf("expected ready after completion, got %s", a.State())
	}
}

func TestSwitchingAwayKeepsOutstandingResult(t *testing.T) {
	backend := &gatedBackend{release: make(chan struct{})}
	a, view := newFixture(t).app(t, backend, nil)
	a.mount(context.Background())

	done := make(chan struct{})
	go func() {
		a.OnTest()
		close(done)
	}()
	waitFor(t, "grade call", func() bool { return backend.tests.Load() == 1 })

	a.OnNext()
	if a.currentID() != "sum-pair" {
		t.Fatalf("expected to move to sum-pair, got %s", a.currentID())
	}
	close(backend.release)
	<-done

	if _, ok := a.grader.CachedResult("echo"); !ok {
		t.Fatalf("expected result cached under its original problem")
	}
	if view.result.ProblemID != "sum-pair" || view.result.Visible {
		t.Fatalf("result for echo must not show on sum-pair, got %+v", view.result)
	}
	if a.term.Text() != "" {
		t.Fatalf("expected empty terminal for sum-pair, got %q", a.term.Text())
	}

	a.OnPrev()
	if !view.result.Visible || !strings.Contains(a.term.Text(), "Test run:") {
		t.Fatalf("expected cached result restored on return, got %+v %q", view.result, a.term.Text())
	}
}

func TestNavigationPreservesUnsavedDrafts(t *testing.T) {
	a, view := newFixture(t).app(t, nil, nil)
	a.mount(context.Background())

	a.OnEditorChange("echo", "print('draft')", 1)
	a.OnNext()
	if view.editor.ProblemID != "sum-pair" || view.editor.Code != "" {
		t.Fatalf("expected empty editor for sum-pair, got %+v", view.editor)
	}
	a.OnPrev()
	if view.editor.Code != "print('draft')" || !view.status.Dirty {
		t.Fatalf("expected in-memory draft to survive navigation, got %+v", view.editor)
	}

	a.OnPrev()
	if a.currentID() != "echo" {
		t.Fatalf("prev at the first problem must be a no-op")
	}
}

func TestStaleEditRevisionsAreDropped(t *testing.T) {
	a, _ := newFixture(t).app(t, nil, nil)
	a.mount(context.Background())

	a.OnEditorChange("echo", "newer", 5)
	a.OnEditorChange("echo", "older", 4)
	if got := a.drafts.Snapshot("echo").CurrentCode; got != "newer" {
		t.Fatalf("expected latest revision to win, got %q", got)
	}
}

func TestLoadFailureEntersErrorAndRetryRecovers(t *testing.T) {
	backend := &gatedBackend{}
	backend.failProblem.Store(true)
	a, view := newFixture(t).app(t, backend, nil)
	a.mount(context.Background())

	if a.State() != StateError || a.LoadError() == "" {
		t.Fatalf("expected error state with message, got %s %q", a.State(), a.LoadError())
	}
	if view.problem.Phase != ui.PhaseError || !view.editor.Disabled {
		t.Fatalf("expected inline error and disabled editor, got %+v %+v", view.problem, view.editor)
	}

	a.OnTest()
	if backend.tests.Load() != 0 {
		t.Fatalf("actions must not run in the error state")
	}

	backend.failProblem.Store(false)
	a.OnRetry()
	if a.State() != StateReady || view.problem.Phase != ui.PhaseReady {
		t.Fatalf("expected retry to recover, got %s", a.State())
	}
}

func TestActionFailureKeepsEdits(t *testing.T) {
	f := newFixture(t)
	a, view := f.app(t, nil, func(c *Config) { c.Problem = "sum-pair" })
	unreachable := api.NewClient("http://127.0.0.1:1", "", time.Second)
	a.grader = grading.NewClient(grading.Options{Remote: unreachable, Drafts: a.drafts, Submitted: f.store, Attempts: f.store})
	a.mount(context.Background())

	a.OnEditorChange("sum-pair", "print(3)", 1)
	a.OnSubmit()
	if !strings.HasPrefix(view.lastFlash(), "submit failed: network unavailable") {
		t.Fatalf("expected network failure notice, got %q", view.lastFlash())
	}
	if a.grader.IsSubmitted("sum-pair") || !a.drafts.IsDirty("sum-pair") || a.State() != StateReady {
		t.Fatalf("failed submit must leave state untouched")
	}
}

func TestExitGateOnDirtyDrafts(t *testing.T) {
	a, view := newFixture(t).app(t, nil, nil)
	a.mount(context.Background())

	a.OnEditorChange("echo", "print(1)", 1)
	a.OnExit()
	if view.stopped || !view.exitOpen || len(view.exitDirty) != 1 || view.exitDirty[0] != "echo" {
		t.Fatalf("expected exit confirmation listing echo, got open=%v dirty=%v stopped=%v", view.exitOpen, view.exitDirty, view.stopped)
	}

	a.OnConfirmExit(false)
	if view.stopped || view.exitOpen || a.drafts.Snapshot("echo").CurrentCode != "print(1)" {
		t.Fatalf("cancel must keep the session intact")
	}

	a.OnExit()
	a.OnConfirmExit(true)
	if !view.stopped {
		t.Fatalf("expected confirmed exit to stop the view")
	}
}

func TestExitWithoutDirtyDraftsLeavesImmediately(t *testing.T) {
	a, view := newFixture(t).app(t, nil, nil)
	a.mount(context.Background())
	a.OnExit()
	if !view.stopped || view.exitOpen {
		t.Fatalf("expected immediate exit")
	}
}

func TestViewOnlyShowsSubmissionAndBlocksWrites(t *testing.T) {
	backend := &gatedBackend{}
	a, view := newFixture(t).app(t, backend, func(c *Config) {
		c.ViewOnly = true
		c.ReviewUser = "ada"
		c.Problem = "sum-pair"
	})
	a.mount(context.Background())

	if !view.editor.ReadOnly || !strings.Contains(view.editor.Code, "print(a + b)") {
		t.Fatalf("expected read-only review code, got %+v", view.editor)
	}
	a.OnEditorChange("sum-pair", "tampered", 1)
	a.OnTest()
	if a.drafts.Visited("sum-pair") || backend.tests.Load() != 0 {
		t.Fatalf("view-only mode must not touch drafts or grade")
	}

	a.OnReviewUser("bob")
	if view.header.UserID != "bob" || !strings.Contains(a.term.Text(), "bob has no submission") {
		t.Fatalf("expected review context to switch to bob, got %+v %q", view.header, a.term.Text())
	}

	a.OnExit()
	if !view.stopped {
		t.Fatalf("view-only sessions exit without a dirty check")
	}
}

func TestReviewUserSwitchDuringLoadOpensNewUser(t *testing.T) {
	backend := &gatedBackend{reviewGate: make(chan struct{})}
	a, view := newFixture(t).app(t, backend, func(c *Config) {
		c.ViewOnly = true
		c.ReviewUser = "bob"
		c.Problem = "sum-pair"
	})

	done := make(chan struct{})
	go func() {
		a.mount(context.Background())
		close(done)
	}()
	waitFor(t, "bob's review fetch", func() bool { return backend.reviews.Load() == 1 })

	a.OnReviewUser("ada")
	close(backend.reviewGate)
	<-done

	if backend.reviews.Load() != 2 {
		t.Fatalf("expected a second review fetch for ada, got %d", backend.reviews.Load())
	}
	view.mu.Lock()
	header, editor := view.header, view.editor
	view.mu.Unlock()
	if header.UserID != "ada" || !strings.Contains(editor.Code, "print(a + b)") {
		t.Fatalf("expected ada's submission, got header=%+v editor=%+v", header, editor)
	}
	if strings.Contains(a.term.Text(), "bob has no submission") {
		t.Fatalf("stale load for bob reached the terminal: %q", a.term.Text())
	}
}

// editDuringAction types a newer buffer while a submit or save is blocked
// and checks that the completed action leaves that buffer current and dirty.
func editDuringAction(t *testing.T, submit bool) {
	t.Helper()
	f := newFixture(t)
	gate := make(chan struct{})
	backend := &gatedBackend{submitGate: gate, saveGate: gate}
	a, view := f.app(t, backend, nil)
	a.mount(context.Background())

	calls, run := &backend.saves, a.OnSave
	if submit {
		calls, run = &backend.submits, a.OnSubmit
	}

	sent := "s = input()\nprint(s)\n"
	newer := sent + "# newer\n"
	a.OnEditorChange("echo", sent, 1)

	done := make(chan struct{})
	go func() {
		run()
		close(done)
	}()
	waitFor(t, "outstanding request", func() bool { return calls.Load() == 1 })
	a.OnEditorChange("echo", newer, 2)
	close(gate)
	<-done

	snap := a.drafts.Snapshot("echo")
	if snap.CurrentCode != newer || snap.SavedCode != sent {
		t.Fatalf("expected newer edit to stay current, got %+v", snap)
	}
	view.mu.Lock()
	status := view.status
	view.mu.Unlock()
	if !status.Dirty || status.Saved {
		t.Fatalf("expected dirty status after the action, got %+v", status)
	}
	entry, ok, err := f.store.GetDraft(context.Background(), "sample-cup", "echo")
	if err != nil || !ok || entry.Code != newer {
		t.Fatalf("expected local draft of the newer edit, got %+v ok=%v err=%v", entry, ok, err)
	}
}

func TestEditsDuringSubmitSurvive(t *testing.T) {
	editDuringAction(t, true)
}

func TestEditsDuringSaveSurvive(t *testing.T) {
	editDuringAction(t, false)
}

func TestRecoverDraftIsExplicit(t *testing.T) {
	f := newFixture(t)
	first, _ := f.app(t, nil, nil)
	first.mount(context.Background())
	first.OnEditorChange("echo", "print('crashed')", 1)

	second, view := f.app(t, nil, nil)
	second.mount(context.Background())
	if view.editor.Code != "print(input())\n" {
		t.Fatalf("local drafts must not be merged on load, got %q", view.editor.Code)
	}

	second.OnRecoverDraft()
	if view.editor.Code != "print('crashed')" || !view.status.Dirty {
		t.Fatalf("expected recovered draft, got %+v", view.editor)
	}
}

func TestFuzzyProblemSelection(t *testing.T) {
	a, view := newFixture(t).app(t, nil, func(c *Config) { c.Problem = "longest rn" })
	a.mount(context.Background())
	if a.currentID() != "max-run" || view.editor.ProblemID != "max-run" {
		t.Fatalf("expected fuzzy match to max-run, got %s", a.currentID())
	}
}

func TestSubmitBlockedAfterContestEnds(t *testing.T) {
	a, view := newFixture(t).app(t, nil, nil)
	a.mount(context.Background())
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	a.OnSubmit()
	if a.grader.IsSubmitted("echo") || !strings.Contains(view.lastFlash(), "submissions are closed") {
		t.Fatalf("expected submit to be refused, got %q", view.lastFlash())
	}
}

func TestLayoutPreferencesPersist(t *testing.T) {
	f := newFixture(t)
	a, view := f.app(t, nil, nil)
	a.OnResize(160, 40)
	a.OnToggleSidebar()
	if view.geometry.SidebarWidth != layout.CellOptions().SidebarWidth {
		t.Fatalf("expected sidebar reservation, got %+v", view.geometry)
	}
	a.OnDragStart(layout.DragSplit)
	if !view.dragging {
		t.Fatalf("expected dragging flag while a drag is active")
	}
	a.OnDragMove(view.geometry.SidebarWidth+60, 10)
	a.OnDragEnd()
	want := a.layout.Snapshot().RightPercent

	b, _ := f.app(t, nil, nil)
	b.OnResize(160, 40)
	b.restoreLayout(context.Background())
	got := b.layout.Snapshot()
	if !got.SidebarOpen || math.Abs(got.RightPercent-want) > 0.01 {
		t.Fatalf("expected restored layout %.2f/open, got %+v", want, got)
	}
}

func TestResizeBelowMinimumShowsTooSmall(t *testing.T) {
	a, view := newFixture(t).app(t, nil, nil)
	a.OnResize(40, 10)
	if !view.tooSmall {
		t.Fatalf("expected too-small notice")
	}
}
