package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"solvedesk/internal/drafts"
	"solvedesk/internal/grading"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func TestDraftUpsertGetDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.GetDraft(ctx, "spring", "1"); err != nil || ok {
		t.Fatalf("expected missing draft, got ok=%v err=%v", ok, err)
	}
	if err := store.PutDraft(ctx, "spring", "1", drafts.Entry{Code: "a", Language: drafts.Python}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.PutDraft(ctx, "spring", "1", drafts.Entry{Code: "b", Language: drafts.Java}); err != nil {
		t.Fatalf("put again: %v", err)
	}
	entry, ok, err := store.GetDraft(ctx, "spring", "1")
	if err != nil || !ok || entry.Code != "b" || entry.Language != drafts.Java {
		t.Fatalf("unexpected draft %+v ok=%v err=%v", entry, ok, err)
	}
	if _, ok, _ := store.GetDraft(ctx, "autumn", "1"); ok {
		t.Fatalf("drafts must be scoped")
	}
	if err := store.DeleteDraft(ctx, "spring", "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.GetDraft(ctx, "spring", "1"); ok {
		t.Fatalf("expected draft deleted")
	}
}

func TestSubmittedSetIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"3", "1", "3"} {
		if err := store.AddSubmitted(ctx, "spring", id); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	ids, err := store.ListSubmitted(ctx, "spring")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 || ids[0] != "1" || ids[1] != "3" {
		t.Fatalf("unexpected submitted ids %v", ids)
	}
}

func TestAttemptsAndSummary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		now = now.Add(time.Minute)
		return now
	}

	attempts := []grading.Attempt{
		{Scope: "spring", ProblemID: "1", Kind: grading.KindTest, Status: "WRONG_ANSWER", Passed: 1, Total: 3},
		{Scope: "spring", ProblemID: "1", Kind: grading.KindSubmit, Status: grading.StatusAccepted, Passed: 3, Total: 3},
		{Scope: "spring", ProblemID: "2", Kind: grading.KindSubmit, Status: "TIME_LIMIT", Passed: 0, Total: 3},
		{Scope: "autumn", ProblemID: "1", Kind: grading.KindTest},
	}
	for _, a := range attempts {
		if err := store.RecordAttempt(ctx, a); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	_ = store.AddSubmitted(ctx, "spring", "1")
	_ = store.AddSubmitted(ctx, "spring", "2")

	rows, err := store.ListAttempts(ctx, "spring", "1", 10)
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(rows) != 2 || rows[0].Kind != grading.KindSubmit || rows[1].Kind != grading.KindTest {
		t.Fatalf("expected newest-first attempts for problem 1, got %+v", rows)
	}

	sum, err := store.GetSummary(ctx, "spring")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Tests != 1 || sum.Submits != 2 || sum.Accepted != 1 || sum.Submitted != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if !sum.LastAttempt.Equal(time.Date(2026, time.March, 1, 9, 3, 0, 0, time.UTC)) {
		t.Fatalf("unexpected last attempt %v", sum.LastAttempt)
	}

	empty, err := store.GetSummary(ctx, "winter")
	if err != nil || empty.Tests != 0 || !empty.LastAttempt.IsZero() {
		t.Fatalf("expected empty summary, got %+v err=%v", empty, err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.SaveSettings(ctx, map[string]string{"layout.split": "40", " ": "skip"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveSettings(ctx, map[string]string{"layout.split": "55"}); err != nil {
		t.Fatalf("save again: %v", err)
	}
	got, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got["layout.split"] != "55" {
		t.Fatalf("unexpected settings %v", got)
	}
}

func TestDraftStoreOverSQLite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ds := drafts.NewStore("spring", store)

	_ = ds.SetCurrent(ctx, "4", "print(4)", drafts.Python)
	entry, ok, err := ds.Recover(ctx, "4")
	if err != nil || !ok || entry.Code != "print(4)" {
		t.Fatalf("expected recoverable draft, got %+v ok=%v err=%v", entry, ok, err)
	}
	_ = ds.MarkSaved(ctx, "4", "print(4)", drafts.Python)
	if _, ok, _ := store.GetDraft(ctx, "spring", "4"); ok {
		t.Fatalf("saving must clear the durable draft")
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), OpenOptions{Backend: "etcd"}); err == nil {
		t.Fatalf("expected unknown backend error")
	}
	store, err := Open(context.Background(), OpenOptions{SQLitePath: filepath.Join(t.TempDir(), "nested", "s.db")})
	if err != nil {
		t.Fatalf("open default backend: %v", err)
	}
	_ = store.Close()
}
