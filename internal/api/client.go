package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"solvedesk/internal/apperr"
	"solvedesk/internal/grading"
	"solvedesk/internal/navigator"
)

const maxErrorBody = 4 << 10

// Client talks to the problem, contest, and grading services.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Problem(ctx context.Context, id string) (Problem, error) {
	var out Problem
	err := c.do(ctx, "problem", http.MethodGet, "/api/problems/"+url.PathEscape(id), nil, &out)
	return out, err
}

// SavedDraft returns the remote saved code for a problem. A 404 means no
// draft and is reported as ok=false without an error.
func (c *Client) SavedDraft(ctx context.Context, scope, problemID string) (SavedDraft, bool, error) {
	var out SavedDraft
	path := "/api/problems/" + url.PathEscape(problemID) + "/draft?scope=" + url.QueryEscape(scope)
	err := c.do(ctx, "saved-draft", http.MethodGet, path, nil, &out)
	if err != nil {
		if isNotFound(err) {
			return SavedDraft{}, false, nil
		}
		return SavedDraft{}, false, err
	}
	return out, true, nil
}

func (c *Client) Contest(ctx context.Context, code string) (Contest, error) {
	var out Contest
	err := c.do(ctx, "contest", http.MethodGet, "/api/contests/"+url.PathEscape(code), nil, &out)
	return out, err
}

func (c *Client) Course(ctx context.Context, id string) (Course, error) {
	var out Course
	err := c.do(ctx, "course", http.MethodGet, "/api/courses/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) Submission(ctx context.Context, contestCode, problemID, userID string) (Submission, error) {
	var out Submission
	path := fmt.Sprintf("/api/contests/%s/problems/%s/submissions/%s",
		url.PathEscape(contestCode), url.PathEscape(problemID), url.PathEscape(userID))
	err := c.do(ctx, "review", http.MethodGet, path, nil, &out)
	return out, err
}

// ListProblems resolves a session scope to its ordered problem list.
func (c *Client) ListProblems(ctx context.Context, scope string) ([]navigator.Summary, error) {
	code, courseID := ParseScope(scope)
	var refs []ProblemRef
	if courseID != "" {
		course, err := c.Course(ctx, courseID)
		if err != nil {
			return nil, err
		}
		refs = course.Problems
	} else {
		contest, err := c.Contest(ctx, code)
		if err != nil {
			return nil, err
		}
		refs = contest.Problems
	}
	out := make([]navigator.Summary, 0, len(refs))
	for _, r := range refs {
		out = append(out, navigator.Summary{ID: r.ID, Name: r.Name, Solved: r.Solved})
	}
	return out, nil
}

func (c *Client) GradeTest(ctx context.Context, req grading.TestRequest) (grading.Result, error) {
	var out grading.Result
	err := c.do(ctx, "grade-test", http.MethodPost, "/api/grade/test", req, &out)
	return out, err
}

func (c *Client) GradeSubmit(ctx context.Context, req grading.SubmitRequest) (grading.Result, error) {
	var out grading.Result
	err := c.do(ctx, "grade-submit", http.MethodPost, "/api/grade/submit", req, &out)
	return out, err
}

func (c *Client) SaveDraft(ctx context.Context, req grading.SaveRequest) error {
	return c.do(ctx, "save-draft", http.MethodPost, "/api/drafts", req, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &apperr.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &apperr.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &apperr.ServiceError{Op: op, Status: resp.StatusCode, Body: errorText(raw)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperr.ServiceError{Op: op, Status: resp.StatusCode, Body: "malformed response: " + err.Error()}
	}
	return nil
}

// errorText pulls the message out of {"error": "..."} bodies and falls back
// to the raw text.
func errorText(raw []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(raw))
}

func isNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
