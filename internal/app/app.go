package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"solvedesk/internal/api"
	"solvedesk/internal/apperr"
	"solvedesk/internal/clock"
	"solvedesk/internal/devtools"
	"solvedesk/internal/drafts"
	"solvedesk/internal/grading"
	"solvedesk/internal/layout"
	"solvedesk/internal/navigator"
	"solvedesk/internal/problemset"
	"solvedesk/internal/state"
	"solvedesk/internal/telemetry"
	"solvedesk/internal/term"
	"solvedesk/internal/ui"

	"github.com/google/uuid"
)

const (
	settingRightPercent = "layout.right_percent"
	settingSidebarOpen  = "layout.sidebar_open"
)

type App struct {
	cfg Config

	logger  *telemetry.Logger
	store   state.Store
	backend Backend
	drafts  *drafts.Store
	grader  *grading.Client
	nav     *navigator.Navigator
	layout  *layout.Controller

	view ui.View
	term *term.OutputPane

	sessionID string
	scope     string
	offline   bool

	ctx    context.Context
	cancel context.CancelFunc

	flights *inflight

	boundsMu sync.Mutex
	bounds   layout.Bounds

	editMu  sync.Mutex
	lastRev map[string]uint64

	mu          sync.Mutex
	state       State
	loadErr     string
	loadSeq     uint64
	listLoaded  bool
	title       string
	clockOnce   sync.Once
	closed      bool
	transcripts map[string]string
	openedAt    map[string]time.Time
}

// Deps are the collaborators New would otherwise build itself.
type Deps struct {
	View    ui.View
	Term    *term.OutputPane
	Backend Backend
	Store   state.Store
	Logger  *telemetry.Logger
}

func New(cfg Config) (*App, error) {
	logger, err := telemetry.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	fail := func(err error) (*App, error) {
		cancel()
		_ = logger.Close()
		return nil, err
	}

	store, err := state.Open(ctx, state.OpenOptions{
		Backend:    cfg.State.Backend,
		SQLitePath: filepath.Join(cfg.DataDir, "state.db"),
		RedisURL:   cfg.State.RedisURL,
	})
	if err != nil {
		return fail(err)
	}

	offline := false
	baseURL := cfg.APIURL
	if cfg.OfflineDir != "" {
		set, err := problemset.Load(cfg.OfflineDir)
		if err != nil {
			_ = store.Close()
			return fail(err)
		}
		srv := devtools.NewServer(set, devtools.ServerOptions{Logger: logger.Logger, Token: cfg.APIToken})
		baseURL, err = srv.Start(ctx)
		if err != nil {
			_ = store.Close()
			return fail(err)
		}
		if cfg.Contest == "" && cfg.Course == "" {
			if set.Type == problemset.TypeCourse {
				cfg.Course = set.Code
			} else {
				cfg.Contest = set.Code
			}
		}
		offline = true
	}

	termPane := term.NewOutputPane(nil)
	view := ui.New(ui.Options{
		ASCIIOnly:    cfg.UI.ASCIIOnly,
		Debug:        cfg.UI.Debug,
		TermPane:     termPane,
		StyleVariant: cfg.UI.StyleVariant,
		MotionLevel:  cfg.UI.MotionLevel,
	})
	termPane.SetDirty(view.RequestDraw)

	a := newApp(ctx, cfg, Deps{
		View:    view,
		Term:    termPane,
		Backend: api.NewClient(baseURL, cfg.APIToken, cfg.Timeout),
		Store:   store,
		Logger:  logger,
	})
	stop := a.cancel
	a.cancel = func() {
		stop()
		cancel()
	}
	a.offline = offline
	view.SetController(a)
	return a, nil
}

func newApp(ctx context.Context, cfg Config, deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger, _ = telemetry.New("", cfg.LogLevel)
	}
	termPane := deps.Term
	if termPane == nil {
		termPane = term.NewOutputPane(nil)
	}
	scope := cfg.Scope()

	a := &App{
		cfg:         cfg,
		logger:      logger,
		store:       deps.Store,
		backend:     deps.Backend,
		view:        deps.View,
		term:        termPane,
		sessionID:   uuid.NewString(),
		scope:       scope,
		flights:     newInflight(),
		lastRev:     map[string]uint64{},
		state:       StateLoading,
		transcripts: map[string]string{},
		openedAt:    map[string]time.Time{},
	}
	a.ctx, a.cancel = context.WithCancel(ctx)

	var cache drafts.Cache
	var submitted grading.SubmittedSet
	var attempts grading.AttemptRecorder
	if deps.Store != nil {
		cache, submitted, attempts = deps.Store, deps.Store, deps.Store
	}
	a.drafts = drafts.NewStore(scope, cache)
	a.drafts.SetViewOnly(cfg.ViewOnly)
	a.grader = grading.NewClient(grading.Options{
		Remote:    deps.Backend,
		Drafts:    a.drafts,
		Submitted: submitted,
		Attempts:  attempts,
		Logger:    logger.Logger,
	})
	a.nav = navigator.New(cfg.ViewOnly, cfg.ReviewUser)
	a.layout = layout.New(layout.CellOptions(), a.layoutBounds)
	return a
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", "session", a.sessionID, "scope", a.scope, "view_only", a.cfg.ViewOnly, "offline", a.offline)
	a.restoreLayout(ctx)
	go a.mount(a.ctx)
	return a.view.Run()
}

func (a *App) Close() {
	a.cancel()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error("state.close_failed", "error", err)
		}
	}
	a.logger.Info("app.stop", "session", a.sessionID)
	_ = a.logger.Close()
}

// State reports the orchestrator state of the displayed problem.
func (a *App) State() State {
	a.mu.Lock()
	st := a.state
	a.mu.Unlock()
	if st != StateReady {
		return st
	}
	id := a.currentID()
	switch {
	case a.flights.active(id, actionSubmit):
		return StateSubmitting
	case a.flights.active(id, actionTest):
		return StateTesting
	case a.flights.active(id, actionSave):
		return StateSaving
	}
	return StateReady
}

func (a *App) mount(ctx context.Context) {
	a.mu.Lock()
	loaded := a.listLoaded
	a.mu.Unlock()
	if !loaded {
		a.setState(StateLoading, "")
		a.view.SetProblem(ui.ProblemState{Phase: ui.PhaseLoading})
		if err := a.loadSession(ctx); err != nil {
			a.loadFailed("", apperr.Load("session", err))
			return
		}
	}
	a.openCurrent(ctx)
}

// loadSession fetches the problem list, the contest window or course
// header, and the durable submitted set. It runs once per mount.
func (a *App) loadSession(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	if err := a.nav.Load(ctx, a.backend, a.scope, a.cfg.Problem); err != nil {
		return err
	}
	if q := a.cfg.Problem; q != "" {
		if cur, ok := a.nav.Current(); !ok || cur.ID != q {
			if hit, ok := a.nav.Find(q); ok {
				a.nav.Jump(hit.ID)
			} else {
				a.view.FlashStatus("No problem matches " + strconv.Quote(q))
			}
		}
	}

	contestCode, courseID := api.ParseScope(a.scope)
	title := ""
	if courseID != "" {
		course, err := a.backend.Course(ctx, courseID)
		if err != nil {
			return err
		}
		title = course.Name
	} else {
		contest, err := a.backend.Contest(ctx, contestCode)
		if err != nil {
			return err
		}
		title = contest.Name
		a.startClock(clock.Window{
			Start:  contest.StartDate,
			End:    contest.EndDate,
			Status: clock.Status(contest.Status),
		})
	}

	if err := a.grader.LoadSubmitted(ctx); err != nil {
		a.logger.Warn("grading.submitted.load_failed", "scope", a.scope, "error", err)
	}

	a.mu.Lock()
	a.title = title
	a.listLoaded = true
	a.mu.Unlock()

	a.logger.Info("session.loaded", "scope", a.scope, "problems", len(a.nav.Problems()))
	a.publishHeader()
	a.publishProblems()
	return nil
}

func (a *App) startClock(w clock.Window) {
	a.clockOnce.Do(func() {
		c := clock.New(w)
		a.mu.Lock()
		a.closed = w.Closed(time.Now())
		a.mu.Unlock()
		go c.Run(a.ctx, time.Second, func(r clock.Reading) {
			a.view.SetCountdown(r.Text, r.Phase.String())
			closed := r.Phase == clock.PhaseEnded
			a.mu.Lock()
			changed := closed != a.closed
			a.closed = closed
			a.mu.Unlock()
			if changed {
				a.logger.Info("contest.closed", "scope", a.scope)
				a.publishActions(a.currentID())
			}
		})
	})
}

// openCurrent loads the navigator's current problem. A newer open makes an
// older one stale; its results are dropped without touching the view.
func (a *App) openCurrent(ctx context.Context) {
	target := a.nav.Target()
	id := target.ProblemID

	a.mu.Lock()
	a.loadSeq++
	seq := a.loadSeq
	a.state = StateLoading
	a.loadErr = ""
	a.mu.Unlock()

	a.logger.Info("problem.open", "problem", id, "view_only", target.ViewOnly, "user", target.UserID)
	a.publishProblems()
	a.view.SetProblem(ui.ProblemState{ID: id, Phase: ui.PhaseLoading})
	a.view.SetEditor(ui.EditorState{ProblemID: id, Disabled: true, ReadOnly: target.ViewOnly})
	a.publishActions(id)

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	problem, err := a.backend.Problem(ctx, id)
	if err != nil {
		a.loadFailedSeq(seq, id, apperr.Load("problem", err))
		return
	}

	var (
		code       string
		lang       drafts.Language
		transcript string
	)
	if target.ViewOnly {
		contestCode, _ := api.ParseScope(a.scope)
		sub, err := a.backend.Submission(ctx, contestCode, id, target.UserID)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			transcript = fmt.Sprintf("%s has no submission for this problem.\n", target.UserID)
		case err != nil:
			a.loadFailedSeq(seq, id, apperr.Load("review", err))
			return
		default:
			code = sub.Code
			lang = drafts.ParseLanguage(sub.Language)
			transcript = sub.TerminalOutput
			if transcript == "" && sub.GradingDetails != nil {
				transcript = grading.Transcript(*sub.GradingDetails)
			}
		}
	} else {
		if !a.drafts.Visited(id) {
			saved, ok, err := a.backend.SavedDraft(ctx, a.scope, id)
			if err != nil {
				a.loadFailedSeq(seq, id, apperr.Load("saved draft", err))
				return
			}
			if ok {
				a.drafts.Prime(id, saved.Code, drafts.ParseLanguage(saved.Language))
			} else {
				a.drafts.Prime(id, "", drafts.Languages[0])
			}
		}
		snap := a.drafts.Snapshot(id)
		code, lang = snap.CurrentCode, snap.CurrentLanguage
	}

	a.mu.Lock()
	if seq != a.loadSeq {
		a.mu.Unlock()
		a.logger.Debug("problem.open.stale", "problem", id)
		return
	}
	a.state = StateReady
	if _, ok := a.openedAt[id]; !ok && !target.ViewOnly {
		a.openedAt[id] = time.Now()
	}
	if !target.ViewOnly {
		transcript = a.transcripts[id]
	}
	a.mu.Unlock()

	a.view.SetProblem(ui.ProblemState{
		ID:       id,
		Name:     problem.Name,
		Markdown: problemMarkdown(problem),
		Phase:    ui.PhaseReady,
	})
	a.view.SetEditor(ui.EditorState{
		ProblemID:    id,
		Code:         code,
		ReadOnly:     target.ViewOnly,
		EditorStatus: a.editorStatus(id, lang),
	})
	a.term.SetText(transcript)
	a.publishResult(id)
	a.publishActions(id)
	a.logger.Info("problem.ready", "problem", id)
}

func (a *App) loadFailed(problemID string, err error) {
	a.mu.Lock()
	seq := a.loadSeq
	a.mu.Unlock()
	a.loadFailedSeq(seq, problemID, err)
}

func (a *App) loadFailedSeq(seq uint64, problemID string, err error) {
	msg := apperr.UserMessage(err)
	a.mu.Lock()
	if seq != a.loadSeq {
		a.mu.Unlock()
		return
	}
	a.state = StateError
	a.loadErr = msg
	a.mu.Unlock()

	a.logger.Error("problem.load_failed", "problem", problemID, "kind", apperr.Kind(err).String(), "error", err)
	a.view.SetProblem(ui.ProblemState{ID: problemID, Phase: ui.PhaseError, Error: msg})
	a.view.SetEditor(ui.EditorState{ProblemID: problemID, Disabled: true, ReadOnly: a.nav.ViewOnly()})
	a.publishActions(problemID)
}

// LoadError is the message shown while the workspace is in StateError.
func (a *App) LoadError() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadErr
}

func (a *App) setState(st State, loadErr string) {
	a.mu.Lock()
	a.state = st
	a.loadErr = loadErr
	a.mu.Unlock()
}

func (a *App) currentID() string {
	return a.nav.Target().ProblemID
}

func (a *App) isCurrent(problemID string) bool {
	return problemID != "" && a.currentID() == problemID
}

func (a *App) ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == StateReady
}

func (a *App) OnEditorChange(problemID, code string, rev uint64) {
	if a.nav.ViewOnly() || problemID == "" {
		return
	}
	a.editMu.Lock()
	if rev != 0 && rev <= a.lastRev[problemID] {
		a.editMu.Unlock()
		return
	}
	a.lastRev[problemID] = rev
	lang := a.drafts.Snapshot(problemID).CurrentLanguage
	err := a.drafts.SetCurrent(a.ctx, problemID, code, lang)
	a.editMu.Unlock()
	if err != nil {
		a.logger.Warn("drafts.cache.write_failed", "problem", problemID, "error", err)
	}
	a.publishEditorStatus(problemID)
	a.publishProblems()
}

// actionTarget returns the current problem's buffer when an action may run
// on it. Empty code is rejected before any network call.
func (a *App) actionTarget(op string) (string, string, drafts.Language, bool) {
	if a.nav.ViewOnly() {
		a.view.FlashStatus("Read-only review: " + op + " is disabled")
		return "", "", "", false
	}
	if !a.ready() {
		return "", "", "", false
	}
	id := a.currentID()
	snap := a.drafts.Snapshot(id)
	if strings.TrimSpace(snap.CurrentCode) == "" {
		err := apperr.Validation("code is empty")
		a.logger.Info("action.rejected", "action", op, "problem", id, "error", err)
		a.view.FlashStatus("Write some code before you " + op)
		return "", "", "", false
	}
	return id, snap.CurrentCode, snap.CurrentLanguage, true
}

func (a *App) OnTest() {
	id, code, lang, ok := a.actionTarget("test")
	if !ok {
		return
	}
	if !a.flights.begin(id, actionTest) {
		a.logger.Debug("grading.test.ignored", "problem", id)
		return
	}
	a.publishActions(id)
	defer func() {
		a.flights.finish(id, actionTest)
		a.publishActions(id)
	}()

	ctx, cancel := context.WithTimeout(a.ctx, 2*a.cfg.Timeout)
	defer cancel()
	a.logger.Info("grading.test.start", "problem", id, "language", lang)
	res, err := a.grader.Test(ctx, id, code, lang)
	if err != nil {
		a.actionFailed("test", id, err)
		return
	}
	a.logger.Info("grading.test.done", "problem", id, "status", res.Status, "passed", res.PassedCount, "total", res.TotalCount)
	a.showResult(id, res)
}

func (a *App) OnSubmit() {
	id, code, lang, ok := a.actionTarget("submit")
	if !ok {
		return
	}
	a.mu.Lock()
	closed := a.closed
	opened := a.openedAt[id]
	a.mu.Unlock()
	if closed {
		a.view.FlashStatus("The contest has ended; submissions are closed")
		return
	}
	if !a.flights.begin(id, actionSubmit) {
		a.logger.Debug("grading.submit.ignored", "problem", id)
		return
	}
	a.publishActions(id)
	defer func() {
		a.flights.finish(id, actionSubmit)
		a.publishActions(id)
	}()

	var spent time.Duration
	if !opened.IsZero() {
		spent = time.Since(opened)
	}
	ctx, cancel := context.WithTimeout(a.ctx, 2*a.cfg.Timeout)
	defer cancel()
	a.logger.Info("grading.submit.start", "problem", id, "language", lang, "time_spent_s", int(spent.Seconds()))
	res, err := a.grader.Submit(ctx, id, code, lang, spent)
	if err != nil {
		a.actionFailed("submit", id, err)
		return
	}
	a.logger.Info("grading.submit.done", "problem", id, "status", res.Status, "passed", res.PassedCount, "total", res.TotalCount)
	if res.Accepted() {
		a.nav.MarkSolved(id)
	}
	a.showResult(id, res)
	a.publishEditorStatus(id)
	a.publishProblems()
}

func (a *App) OnSave() {
	id, code, lang, ok := a.actionTarget("save")
	if !ok {
		return
	}
	if !a.flights.begin(id, actionSave) {
		a.logger.Debug("drafts.save.ignored", "problem", id)
		return
	}
	a.publishActions(id)
	defer func() {
		a.flights.finish(id, actionSave)
		a.publishActions(id)
	}()

	ctx, cancel := context.WithTimeout(a.ctx, a.cfg.Timeout)
	defer cancel()
	if err := a.grader.Save(ctx, id, code, lang); err != nil {
		a.actionFailed("save", id, err)
		return
	}
	a.logger.Info("drafts.save.done", "problem", id, "language", lang)
	if a.isCurrent(id) {
		a.view.FlashStatus("Draft saved")
	}
	a.publishEditorStatus(id)
	a.publishProblems()
}

func (a *App) showResult(problemID string, res grading.Result) {
	text := grading.Transcript(res)
	a.mu.Lock()
	a.transcripts[problemID] = text
	a.mu.Unlock()
	if !a.isCurrent(problemID) {
		return
	}
	a.term.SetText(text)
	a.publishResult(problemID)
	label := "Test"
	if res.Kind == grading.KindSubmit {
		label = "Submission"
	}
	a.view.FlashStatus(fmt.Sprintf("%s: %s (%d/%d)", label, res.Status, res.PassedCount, res.TotalCount))
}

func (a *App) actionFailed(op, problemID string, err error) {
	err = apperr.Action(op, err)
	a.logger.Error("action.failed", "action", op, "problem", problemID, "kind", apperr.Kind(err).String(), "error", err)
	a.view.FlashStatus(op + " failed: " + apperr.UserMessage(err))
}

func (a *App) OnNext() {
	if a.nav.Next() {
		a.openCurrent(a.ctx)
	}
}

func (a *App) OnPrev() {
	if a.nav.Prev() {
		a.openCurrent(a.ctx)
	}
}

func (a *App) OnJump(problemID string) {
	if a.isCurrent(problemID) {
		return
	}
	if !a.nav.Jump(problemID) {
		a.view.FlashStatus("Unknown problem " + problemID)
		return
	}
	a.openCurrent(a.ctx)
}

func (a *App) OnCycleLanguage() {
	if a.nav.ViewOnly() || !a.ready() {
		return
	}
	id := a.currentID()
	a.editMu.Lock()
	snap := a.drafts.Snapshot(id)
	next := snap.CurrentLanguage.Next()
	err := a.drafts.SetCurrent(a.ctx, id, snap.CurrentCode, next)
	a.editMu.Unlock()
	if err != nil {
		a.logger.Warn("drafts.cache.write_failed", "problem", id, "error", err)
	}
	a.logger.Info("editor.language", "problem", id, "language", next)
	a.publishEditorStatus(id)
	a.publishProblems()
	a.view.FlashStatus("Language: " + next.Label())
}

// OnRecoverDraft replaces the editor with the locally cached draft, if any.
func (a *App) OnRecoverDraft() {
	if a.nav.ViewOnly() || !a.ready() {
		return
	}
	id := a.currentID()
	ctx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	entry, ok, err := a.drafts.Recover(ctx, id)
	if err != nil {
		a.logger.Warn("drafts.recover_failed", "problem", id, "error", err)
		a.view.FlashStatus("Local draft unavailable")
		return
	}
	if !ok {
		a.view.FlashStatus("No local draft for this problem")
		return
	}
	a.editMu.Lock()
	err = a.drafts.SetCurrent(ctx, id, entry.Code, entry.Language)
	a.editMu.Unlock()
	if err != nil {
		a.logger.Warn("drafts.cache.write_failed", "problem", id, "error", err)
	}
	a.logger.Info("drafts.recovered", "problem", id, "language", entry.Language)
	a.view.SetEditor(ui.EditorState{
		ProblemID:    id,
		Code:         entry.Code,
		EditorStatus: a.editorStatus(id, entry.Language),
	})
	a.publishProblems()
	a.view.FlashStatus("Recovered local draft")
}

func (a *App) OnReviewUser(userID string) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return
	}
	if !a.nav.SetReviewUser(userID) {
		a.view.FlashStatus("Reviewing other participants needs view-only mode")
		return
	}
	a.logger.Info("review.user", "user", userID)
	a.publishHeader()
	a.mu.Lock()
	loaded := a.listLoaded
	a.mu.Unlock()
	if loaded {
		a.openCurrent(a.ctx)
	}
}

func (a *App) OnRetry() {
	if a.State() != StateError {
		return
	}
	a.logger.Info("problem.retry", "problem", a.currentID())
	a.mount(a.ctx)
}

func (a *App) OnStats() {
	if a.store == nil {
		a.view.SetStats("No local state store configured.", true)
		return
	}
	ctx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	summary, err := a.store.GetSummary(ctx, a.scope)
	if err != nil {
		a.logger.Error("stats.load_failed", "error", err)
		a.view.FlashStatus("Stats unavailable")
		return
	}
	rows, err := a.store.ListAttempts(ctx, a.scope, "", 12)
	if err != nil {
		a.logger.Error("stats.load_failed", "error", err)
		a.view.FlashStatus("Stats unavailable")
		return
	}
	a.view.SetStats(statsText(a.scope, summary, rows, time.Now()), true)
}

func (a *App) OnExit() {
	gate := a.nav.RequestExit(a.drafts)
	if !gate.Pending {
		a.quit()
		return
	}
	a.logger.Info("exit.gate", "dirty", strings.Join(gate.Dirty, ","))
	a.view.SetExitConfirm(true, gate.Dirty)
}

func (a *App) OnConfirmExit(confirm bool) {
	if !confirm {
		a.nav.CancelExit()
		a.view.SetExitConfirm(false, nil)
		return
	}
	if a.nav.ConfirmExit() {
		a.logger.Warn("exit.discard_unsaved", "dirty", strings.Join(a.drafts.DirtyIDs(), ","))
	}
	a.quit()
}

func (a *App) quit() {
	a.view.SetExitConfirm(false, nil)
	a.view.Stop()
}

func (a *App) OnToggleSidebar() {
	open := a.layout.ToggleSidebar()
	a.logger.Debug("layout.sidebar", "open", open)
	a.publishGeometry()
	a.persistLayout()
}

func (a *App) OnDragStart(kind layout.DragKind) {
	a.layout.BeginDrag(kind)
	a.publishGeometry()
}

func (a *App) OnDragMove(x, y int) {
	if a.layout.Move(x, y) {
		a.publishGeometry()
	}
}

func (a *App) OnDragEnd() {
	if !a.layout.Dragging() {
		return
	}
	a.layout.EndDrag()
	a.publishGeometry()
	a.persistLayout()
}

func (a *App) OnResize(cols, rows int) {
	mode := ui.DetermineLayoutMode(cols, rows)
	if mode == ui.LayoutTooSmall {
		a.view.SetTooSmall(cols, rows)
		return
	}
	w, h := ui.BodySize(cols, rows)
	a.boundsMu.Lock()
	a.bounds = layout.Bounds{Width: w, Height: h}
	a.boundsMu.Unlock()
	a.layout.Recompute()
	a.publishGeometry()
}

func (a *App) layoutBounds() layout.Bounds {
	a.boundsMu.Lock()
	defer a.boundsMu.Unlock()
	return a.bounds
}

func (a *App) restoreLayout(ctx context.Context) {
	if a.store == nil {
		return
	}
	values, err := a.store.LoadSettings(ctx)
	if err != nil {
		a.logger.Warn("layout.restore_failed", "error", err)
		return
	}
	p := a.layout.Snapshot()
	if v, err := strconv.ParseFloat(values[settingRightPercent], 64); err == nil {
		p.RightPercent = v
	}
	if v, err := strconv.ParseBool(values[settingSidebarOpen]); err == nil {
		p.SidebarOpen = v
	}
	a.layout.Restore(p)
}

func (a *App) persistLayout() {
	if a.store == nil {
		return
	}
	p := a.layout.Snapshot()
	ctx, cancel := context.WithTimeout(a.ctx, 2*time.Second)
	defer cancel()
	err := a.store.SaveSettings(ctx, map[string]string{
		settingRightPercent: strconv.FormatFloat(p.RightPercent, 'f', 2, 64),
		settingSidebarOpen:  strconv.FormatBool(p.SidebarOpen),
	})
	if err != nil {
		a.logger.Warn("layout.persist_failed", "error", err)
	}
}

func (a *App) editorStatus(problemID string, lang drafts.Language) ui.EditorStatus {
	st := ui.EditorStatus{ProblemID: problemID, LanguageLabel: lang.Label(), Lexer: lang.Lexer()}
	if a.nav.ViewOnly() {
		return st
	}
	snap := a.drafts.Snapshot(problemID)
	st.LanguageLabel = snap.CurrentLanguage.Label()
	st.Lexer = snap.CurrentLanguage.Lexer()
	st.Dirty = snap.Dirty()
	st.Saved = snap.Saved()
	st.SavedAt = snap.SavedAt
	return st
}

func (a *App) publishEditorStatus(problemID string) {
	if !a.isCurrent(problemID) {
		return
	}
	a.view.SetEditorStatus(a.editorStatus(problemID, a.drafts.Snapshot(problemID).CurrentLanguage))
}

func (a *App) publishHeader() {
	target := a.nav.Target()
	a.mu.Lock()
	title := a.title
	a.mu.Unlock()
	a.view.SetHeader(ui.HeaderState{
		Title:    title,
		Scope:    a.scope,
		ViewOnly: target.ViewOnly,
		UserID:   target.UserID,
		Offline:  a.offline,
	})
}

func (a *App) publishProblems() {
	problems := a.nav.Problems()
	current := a.nav.Index()
	items := make([]ui.ProblemItem, 0, len(problems))
	for i, p := range problems {
		items = append(items, ui.ProblemItem{
			ID:        p.ID,
			Name:      p.Name,
			Solved:    p.Solved,
			Submitted: a.grader.IsSubmitted(p.ID),
			Dirty:     !a.nav.ViewOnly() && a.drafts.IsDirty(p.ID),
			Current:   i == current,
		})
	}
	a.view.SetProblems(items)
}

func (a *App) publishActions(problemID string) {
	if !a.isCurrent(problemID) {
		return
	}
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	a.view.SetActions(ui.ActionState{
		ProblemID:  problemID,
		Testing:    a.flights.active(problemID, actionTest),
		Submitting: a.flights.active(problemID, actionSubmit),
		Saving:     a.flights.active(problemID, actionSave),
		Closed:     closed,
		ReadOnly:   a.nav.ViewOnly(),
		HasPrev:    a.nav.HasPrev(),
		HasNext:    a.nav.HasNext(),
		Submitted:  a.grader.IsSubmitted(problemID),
	})
}

func (a *App) publishResult(problemID string) {
	res, ok := a.grader.CachedResult(problemID)
	if !ok || a.nav.ViewOnly() {
		a.view.SetResult(ui.ResultState{ProblemID: problemID})
		return
	}
	a.view.SetResult(ui.ResultState{
		ProblemID: problemID,
		Visible:   true,
		Kind:      string(res.Kind),
		Status:    res.Status,
		Passed:    res.PassedCount,
		Total:     res.TotalCount,
		Accepted:  res.Accepted(),
	})
}

func (a *App) publishGeometry() {
	a.view.SetGeometry(a.layout.Geometry(), a.layout.Dragging())
}
