package problemset

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	SetKind                = "problemset"
	ProblemKind            = "problem"
	SupportedSchemaVersion = 1

	TypeContest = "contest"
	TypeCourse  = "course"
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Set is a contest or course definition loaded from set.yaml.
type Set struct {
	Kind          string       `yaml:"kind"`
	SchemaVersion int          `yaml:"schema_version"`
	Type          string       `yaml:"type"`
	Code          string       `yaml:"code"`
	Name          string       `yaml:"name"`
	Start         *time.Time   `yaml:"start"`
	End           *time.Time   `yaml:"end"`
	Status        string       `yaml:"status"`
	Problems      []ProblemRef `yaml:"problems"`
	Reviews       []Review     `yaml:"reviews"`

	Path           string    `yaml:"-"`
	LoadedProblems []Problem `yaml:"-"`
}

type ProblemRef struct {
	ProblemID string `yaml:"problem_id"`
	Path      string `yaml:"path"`
	Enabled   *bool  `yaml:"enabled"`
}

// Review is a canned participant submission served in view-only mode.
type Review struct {
	UserID    string `yaml:"user_id"`
	ProblemID string `yaml:"problem_id"`
	Language  string `yaml:"language"`
	Code      string `yaml:"code"`
}

type Problem struct {
	Kind          string            `yaml:"kind"`
	SchemaVersion int               `yaml:"schema_version"`
	ProblemID     string            `yaml:"problem_id"`
	Title         string            `yaml:"title"`
	DescriptionMD string            `yaml:"description_md"`
	InputMD       string            `yaml:"input_md"`
	OutputMD      string            `yaml:"output_md"`
	Examples      []Case            `yaml:"examples"`
	Tests         []Case            `yaml:"tests"`
	Starter       map[string]string `yaml:"starter"`

	Path string `yaml:"-"`
}

type Case struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// GradingCases is examples followed by hidden tests.
func (p Problem) GradingCases() []Case {
	out := make([]Case, 0, len(p.Examples)+len(p.Tests))
	out = append(out, p.Examples...)
	return append(out, p.Tests...)
}

func (s Set) Validate() error {
	if s.Kind != SetKind {
		return fmt.Errorf("kind must be %q", SetKind)
	}
	if s.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if s.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported problemset schema_version %d (max supported %d)", s.SchemaVersion, SupportedSchemaVersion)
	}
	switch s.Type {
	case TypeContest, TypeCourse:
	default:
		return fmt.Errorf("type must be %q or %q", TypeContest, TypeCourse)
	}
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Start != nil && s.End != nil && !s.End.After(*s.Start) {
		return fmt.Errorf("end must be after start")
	}
	switch strings.ToUpper(s.Status) {
	case "", "UPCOMING", "ONGOING", "ENDED":
	default:
		return fmt.Errorf("invalid status %q", s.Status)
	}
	seen := map[string]struct{}{}
	for _, p := range s.Problems {
		if p.ProblemID == "" {
			return fmt.Errorf("problems[].problem_id is required")
		}
		if _, ok := seen[p.ProblemID]; ok {
			return fmt.Errorf("duplicate problem_id %q", p.ProblemID)
		}
		seen[p.ProblemID] = struct{}{}
	}
	for _, r := range s.Reviews {
		if r.UserID == "" || r.ProblemID == "" {
			return fmt.Errorf("reviews[] need user_id and problem_id")
		}
	}
	return nil
}

func (p Problem) Validate() error {
	if p.Kind != ProblemKind {
		return fmt.Errorf("kind must be %q", ProblemKind)
	}
	if p.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if p.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported problem schema_version %d (max supported %d)", p.SchemaVersion, SupportedSchemaVersion)
	}
	if !idPattern.MatchString(p.ProblemID) {
		return fmt.Errorf("invalid problem_id %q", p.ProblemID)
	}
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(p.Examples) == 0 {
		return fmt.Errorf("examples must contain at least one case")
	}
	for lang := range p.Starter {
		switch lang {
		case "python", "cpp", "java":
		default:
			return fmt.Errorf("starter has unknown language %q", lang)
		}
	}
	return nil
}
