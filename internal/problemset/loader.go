package problemset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"
)

const (
	setFile     = "set.yaml"
	problemFile = "problem.yaml"
	problemsDir = "problems"
)

var ErrProblemNotFound = errors.New("problem not found in set")

// Load reads set.yaml under dir and every enabled problem. Without an explicit
// problems list it scans problems/*/problem.yaml in name order.
func Load(dir string) (Set, error) {
	set, err := readSet(filepath.Join(dir, setFile))
	if err != nil {
		return Set{}, fmt.Errorf("load problemset %s: %w", dir, err)
	}
	set.Path = dir
	if set.Code == "" {
		set.Code = slug.Make(set.Name)
	}

	if len(set.Problems) > 0 {
		set.LoadedProblems, err = readFromManifest(set)
	} else {
		set.LoadedProblems, err = readFromScan(set)
	}
	if err != nil {
		return Set{}, err
	}
	if len(set.LoadedProblems) == 0 {
		return Set{}, fmt.Errorf("%s: problemset has no problems", dir)
	}
	return set, nil
}

func readSet(path string) (Set, error) {
	var set Set
	b, err := os.ReadFile(path)
	if err != nil {
		return set, err
	}
	if err := yaml.Unmarshal(b, &set); err != nil {
		return set, err
	}
	if err := set.Validate(); err != nil {
		return set, err
	}
	return set, nil
}

func readFromManifest(set Set) ([]Problem, error) {
	out := make([]Problem, 0, len(set.Problems))
	for _, ref := range set.Problems {
		if ref.Enabled != nil && !*ref.Enabled {
			continue
		}
		rel := ref.Path
		if rel == "" {
			rel = filepath.Join(problemsDir, ref.ProblemID)
		}
		p, err := loadProblemFile(filepath.Join(set.Path, rel, problemFile))
		if err != nil {
			return nil, err
		}
		if p.ProblemID != ref.ProblemID {
			return nil, fmt.Errorf("%s: problem_id %q does not match set entry %q", p.Path, p.ProblemID, ref.ProblemID)
		}
		out = append(out, p)
	}
	return out, nil
}

func readFromScan(set Set) ([]Problem, error) {
	entries, err := os.ReadDir(filepath.Join(set.Path, problemsDir))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	out := make([]Problem, 0, len(names))
	for _, name := range names {
		path := filepath.Join(set.Path, problemsDir, name, problemFile)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		p, err := loadProblemFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func loadProblemFile(path string) (Problem, error) {
	var p Problem
	b, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("%s: %w", path, err)
	}
	if p.ProblemID == "" && p.Title != "" {
		p.ProblemID = slug.Make(p.Title)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("%s: %w", path, err)
	}
	p.Path = filepath.Dir(path)
	return p, nil
}

func (s Set) Problem(id string) (Problem, error) {
	for _, p := range s.LoadedProblems {
		if p.ProblemID == id {
			return p, nil
		}
	}
	return Problem{}, fmt.Errorf("%w: %q", ErrProblemNotFound, id)
}

func (s Set) Review(userID, problemID string) (Review, bool) {
	for _, r := range s.Reviews {
		if r.UserID == userID && r.ProblemID == problemID {
			return r, true
		}
	}
	return Review{}, false
}
