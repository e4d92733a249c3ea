package problemset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSampleSetLoadsInManifestOrder(t *testing.T) {
	set, err := Load(filepath.Join("..", "..", "problemsets", "sample"))
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if set.Code != "sample-cup" || set.Type != TypeContest {
		t.Fatalf("unexpected set header %+v", set)
	}
	got := []string{}
	for _, p := range set.LoadedProblems {
		got = append(got, p.ProblemID)
	}
	want := []string{"echo", "sum-pair", "max-run"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("problem order mismatch at %d: got %q want %q", i, got[i], want[i])
		}
	}
	p, err := set.Problem("sum-pair")
	if err != nil || len(p.GradingCases()) != 3 {
		t.Fatalf("expected examples plus tests, got %d err=%v", len(p.GradingCases()), err)
	}
	if _, err := set.Problem("nope"); !errors.Is(err, ErrProblemNotFound) {
		t.Fatalf("expected ErrProblemNotFound, got %v", err)
	}
	if r, ok := set.Review("ada", "sum-pair"); !ok || r.Language != "python" {
		t.Fatalf("expected canned review, got %+v", r)
	}
}

func TestScanFallbackAndSlugCode(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "set.yaml"), "kind: problemset\nschema_version: 1\ntype: course\nname: Intro To Loops\n")
	write(t, filepath.Join(dir, "problems", "b", "problem.yaml"),
		"kind: problem\nschema_version: 1\ntitle: Second Thing\nexamples:\n  - input: x\n    output: x\n")
	write(t, filepath.Join(dir, "problems", "a", "problem.yaml"),
		"kind: problem\nschema_version: 1\nproblem_id: first\ntitle: First\nexamples:\n  - input: x\n    output: x\n")

	set, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if set.Code != "intro-to-loops" {
		t.Fatalf("expected slug code, got %q", set.Code)
	}
	if len(set.LoadedProblems) != 2 || set.LoadedProblems[0].ProblemID != "first" || set.LoadedProblems[1].ProblemID != "second-thing" {
		t.Fatalf("unexpected scan result %+v", set.LoadedProblems)
	}
}

func TestManifestIDMismatch(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "set.yaml"), "kind: problemset\nschema_version: 1\ntype: contest\nname: X\nproblems:\n  - problem_id: one\n")
	write(t, filepath.Join(dir, "problems", "one", "problem.yaml"),
		"kind: problem\nschema_version: 1\nproblem_id: two\ntitle: Two\nexamples:\n  - input: x\n    output: x\n")
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected id mismatch error")
	}
}

func write(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}
