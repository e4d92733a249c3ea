package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"solvedesk/internal/api"
	"solvedesk/internal/grading"
	"solvedesk/internal/problemset"

	clog "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// SelfUser is the participant id of the local offline user.
const SelfUser = "self"

// Server is an in-process stand-in for the remote problem, contest, and
// grading services, backed by a YAML problem set.
type Server struct {
	set    problemset.Set
	grader Grader
	logger *clog.Logger
	token  string

	mu          sync.Mutex
	drafts      map[string]api.SavedDraft
	attempts    map[string]int
	accepted    map[string]bool
	submissions map[string]api.Submission
}

type ServerOptions struct {
	Grader Grader
	Logger *clog.Logger
	// Token, when set, is required as a bearer token on every /api request.
	Token string
}

func NewServer(set problemset.Set, opts ServerOptions) *Server {
	grader := opts.Grader
	if grader == nil {
		grader = NewManager()
	}
	logger := opts.Logger
	if logger == nil {
		logger = clog.New(io.Discard)
	}
	return &Server{
		set:         set,
		grader:      grader,
		logger:      logger,
		token:       opts.Token,
		drafts:      map[string]api.SavedDraft{},
		attempts:    map[string]int{},
		accepted:    map[string]bool{},
		submissions: map[string]api.Submission{},
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	r.Route("/api", func(v chi.Router) {
		v.Use(s.requireToken)
		v.Get("/problems/{id}", s.getProblem)
		v.Get("/problems/{id}/draft", s.getDraft)
		v.Get("/contests/{code}", s.getContest)
		v.Get("/contests/{code}/problems/{id}/submissions/{user}", s.getSubmission)
		v.Get("/courses/{id}", s.getCourse)
		v.Post("/grade/test", s.gradeTest)
		v.Post("/grade/submit", s.gradeSubmit)
		v.Post("/drafts", s.saveDraft)
	})
	return r
}

// Start serves on a loopback port until ctx is done and returns the base URL.
func (s *Server) Start(ctx context.Context) (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("offline.serve_failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	base := "http://" + ln.Addr().String()
	s.logger.Info("offline.started", "url", base, "set", s.set.Code)
	return base, nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("offline.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			respondError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getProblem(w http.ResponseWriter, r *http.Request) {
	p, err := s.set.Problem(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	out := api.Problem{
		ID:          p.ProblemID,
		Name:        p.Title,
		Description: p.DescriptionMD,
		Input:       p.InputMD,
		Output:      p.OutputMD,
	}
	if len(p.Examples) > 0 {
		out.ExampleInput = p.Examples[0].Input
		out.ExampleOutput = p.Examples[0].Output
	}
	respondJSON(w, http.StatusOK, out)
}

// getDraft serves the saved draft, falling back to the problem's starter
// code for the first language that has one.
func (s *Server) getDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	scope := r.URL.Query().Get("scope")
	s.mu.Lock()
	d, ok := s.drafts[draftKey(scope, id)]
	s.mu.Unlock()
	if ok {
		respondJSON(w, http.StatusOK, d)
		return
	}
	if p, err := s.set.Problem(id); err == nil {
		for _, lang := range []string{"python", "cpp", "java"} {
			if code, ok := p.Starter[lang]; ok {
				respondJSON(w, http.StatusOK, api.SavedDraft{Code: code, Language: lang})
				return
			}
		}
	}
	respondError(w, http.StatusNotFound, "no draft")
}

func (s *Server) getContest(w http.ResponseWriter, r *http.Request) {
	if s.set.Type != problemset.TypeContest || chi.URLParam(r, "code") != s.set.Code {
		respondError(w, http.StatusNotFound, "contest not found")
		return
	}
	respondJSON(w, http.StatusOK, api.Contest{
		Code:      s.set.Code,
		Name:      s.set.Name,
		StartDate: s.set.Start,
		EndDate:   s.set.End,
		Status:    strings.ToUpper(s.set.Status),
		Problems:  s.problemRefs(),
	})
}

func (s *Server) getCourse(w http.ResponseWriter, r *http.Request) {
	if s.set.Type != problemset.TypeCourse || chi.URLParam(r, "id") != s.set.Code {
		respondError(w, http.StatusNotFound, "course not found")
		return
	}
	respondJSON(w, http.StatusOK, api.Course{ID: s.set.Code, Name: s.set.Name, Problems: s.problemRefs()})
}

func (s *Server) getSubmission(w http.ResponseWriter, r *http.Request) {
	problemID := chi.URLParam(r, "id")
	user := chi.URLParam(r, "user")
	if rev, ok := s.set.Review(user, problemID); ok {
		respondJSON(w, http.StatusOK, api.Submission{Code: rev.Code, Language: rev.Language})
		return
	}
	if user == SelfUser {
		s.mu.Lock()
		sub, ok := s.submissions[problemID]
		s.mu.Unlock()
		if ok {
			respondJSON(w, http.StatusOK, sub)
			return
		}
	}
	respondError(w, http.StatusNotFound, "no submission")
}

func (s *Server) gradeTest(w http.ResponseWriter, r *http.Request) {
	var req grading.TestRequest
	if !decode(w, r, &req) {
		return
	}
	res, ok := s.grade(w, req.ProblemID, req.Scope, grading.KindTest, req.Code)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) gradeSubmit(w http.ResponseWriter, r *http.Request) {
	var req grading.SubmitRequest
	if !decode(w, r, &req) {
		return
	}
	if s.closed() {
		respondError(w, http.StatusForbidden, "contest has ended")
		return
	}
	res, ok := s.grade(w, req.ProblemID, req.Scope, grading.KindSubmit, req.Code)
	if !ok {
		return
	}
	s.mu.Lock()
	s.drafts[draftKey(req.Scope, req.ProblemID)] = api.SavedDraft{Code: req.Code, Language: req.Language}
	s.submissions[req.ProblemID] = api.Submission{Code: req.Code, Language: req.Language, GradingDetails: &res}
	if res.Accepted() {
		s.accepted[req.ProblemID] = true
	}
	s.mu.Unlock()
	s.logger.Info("offline.submit", "problem", req.ProblemID, "status", res.Status, "time_spent_s", req.TimeSpentSeconds)
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) saveDraft(w http.ResponseWriter, r *http.Request) {
	var req grading.SaveRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := s.set.Problem(req.ProblemID); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.mu.Lock()
	s.drafts[draftKey(req.Scope, req.ProblemID)] = api.SavedDraft{Code: req.Code, Language: req.Language}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) grade(w http.ResponseWriter, problemID, scope string, kind grading.Kind, code string) (grading.Result, bool) {
	p, err := s.set.Problem(problemID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return grading.Result{}, false
	}
	s.mu.Lock()
	key := draftKey(scope, problemID)
	s.attempts[key]++
	attempt := s.attempts[key]
	s.mu.Unlock()
	return s.grader.MockGrade(MockGradeRequest{Problem: p, Kind: kind, Code: code, Attempt: attempt}), true
}

func (s *Server) closed() bool {
	if strings.EqualFold(s.set.Status, "ENDED") {
		return true
	}
	return s.set.End != nil && time.Now().After(*s.set.End)
}

func (s *Server) problemRefs() []api.ProblemRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.ProblemRef, 0, len(s.set.LoadedProblems))
	for _, p := range s.set.LoadedProblems {
		out = append(out, api.ProblemRef{ID: p.ProblemID, Name: p.Title, Solved: s.accepted[p.ProblemID]})
	}
	return out
}

func draftKey(scope, problemID string) string { return scope + "\x00" + problemID }

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(out); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "failed to marshal response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
