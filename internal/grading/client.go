package grading

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"solvedesk/internal/drafts"

	clog "github.com/charmbracelet/log"
)

// Client wraps the remote grading operations and keeps the per-problem
// result cache and submitted set consistent for one session.
type Client struct {
	remote    Remote
	drafts    *drafts.Store
	submitted SubmittedSet
	attempts  AttemptRecorder
	logger    *clog.Logger
	now       func() time.Time

	mu      sync.Mutex
	results map[string]Result
	marked  map[string]bool
}

type Options struct {
	Remote    Remote
	Drafts    *drafts.Store
	Submitted SubmittedSet
	Attempts  AttemptRecorder
	Logger    *clog.Logger
}

func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = clog.New(io.Discard)
	}
	return &Client{
		remote:    opts.Remote,
		drafts:    opts.Drafts,
		submitted: opts.Submitted,
		attempts:  opts.Attempts,
		logger:    logger,
		now:       time.Now,
		results:   map[string]Result{},
		marked:    map[string]bool{},
	}
}

func (c *Client) scope() string {
	if c.drafts == nil {
		return ""
	}
	return c.drafts.Scope()
}

// LoadSubmitted merges the durable submitted set into memory.
func (c *Client) LoadSubmitted(ctx context.Context) error {
	if c.submitted == nil {
		return nil
	}
	ids, err := c.submitted.ListSubmitted(ctx, c.scope())
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.marked[id] = true
	}
	return nil
}

// Test grades code without persisting it or marking the problem submitted.
func (c *Client) Test(ctx context.Context, problemID, code string, lang drafts.Language) (Result, error) {
	res, err := c.remote.GradeTest(ctx, TestRequest{
		ProblemID: problemID,
		Scope:     c.scope(),
		Code:      code,
		Language:  string(lang),
	})
	if err != nil {
		return Result{}, err
	}
	res = c.store(problemID, KindTest, res)
	c.recordAttempt(ctx, problemID, res)
	return res, nil
}

// Submit grades code as a submission. Any response, accepted or not, marks
// the problem submitted and records the submitted code as saved, because the
// service persists submissions. Edits made since stay dirty.
func (c *Client) Submit(ctx context.Context, problemID, code string, lang drafts.Language, timeSpent time.Duration) (Result, error) {
	res, err := c.remote.GradeSubmit(ctx, SubmitRequest{
		ProblemID:        problemID,
		Scope:            c.scope(),
		Code:             code,
		Language:         string(lang),
		TimeSpentSeconds: int(timeSpent / time.Second),
	})
	if err != nil {
		return Result{}, err
	}

	c.mu.Lock()
	c.marked[problemID] = true
	c.mu.Unlock()
	if c.submitted != nil {
		if err := c.submitted.AddSubmitted(ctx, c.scope(), problemID); err != nil {
			c.logger.Error("grading.submitted.persist_failed", "problem", problemID, "error", err)
		}
	}
	if c.drafts != nil {
		if err := c.drafts.MarkSaved(ctx, problemID, code, lang); err != nil {
			c.logger.Error("grading.drafts.clear_failed", "problem", problemID, "error", err)
		}
	}

	res = c.store(problemID, KindSubmit, res)
	c.recordAttempt(ctx, problemID, res)
	return res, nil
}

// Save persists the draft remotely without grading it.
func (c *Client) Save(ctx context.Context, problemID, code string, lang drafts.Language) error {
	if err := c.remote.SaveDraft(ctx, SaveRequest{
		ProblemID: problemID,
		Scope:     c.scope(),
		Code:      code,
		Language:  string(lang),
	}); err != nil {
		return err
	}
	if c.drafts != nil {
		if err := c.drafts.MarkSaved(ctx, problemID, code, lang); err != nil {
			c.logger.Error("grading.drafts.clear_failed", "problem", problemID, "error", err)
		}
	}
	return nil
}

func (c *Client) CachedResult(problemID string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.results[problemID]
	return res, ok
}

func (c *Client) IsSubmitted(problemID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.marked[problemID]
}

func (c *Client) Submitted() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.marked))
	for id := range c.marked {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (c *Client) store(problemID string, kind Kind, res Result) Result {
	res = res.normalize()
	res.Kind = kind
	res.ReceivedAt = c.now()
	c.mu.Lock()
	c.results[problemID] = res
	c.mu.Unlock()
	return res
}

func (c *Client) recordAttempt(ctx context.Context, problemID string, res Result) {
	if c.attempts == nil {
		return
	}
	err := c.attempts.RecordAttempt(ctx, Attempt{
		Scope:     c.scope(),
		ProblemID: problemID,
		Kind:      res.Kind,
		Status:    res.Status,
		Passed:    res.PassedCount,
		Total:     res.TotalCount,
	})
	if err != nil {
		c.logger.Error("grading.attempt.record_failed", "problem", problemID, "kind", res.Kind, "error", err)
	}
}
