package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"solvedesk/internal/drafts"
	"solvedesk/internal/grading"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Grading goroutines write concurrently; serialize on one connection.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS drafts (
			scope TEXT NOT NULL,
			problem_id TEXT NOT NULL,
			code TEXT NOT NULL,
			language TEXT NOT NULL,
			updated_ts TEXT NOT NULL,
			PRIMARY KEY(scope, problem_id)
		);`,
		`CREATE TABLE IF NOT EXISTS submitted (
			scope TEXT NOT NULL,
			problem_id TEXT NOT NULL,
			first_ts TEXT NOT NULL,
			PRIMARY KEY(scope, problem_id)
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scope TEXT NOT NULL,
			problem_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT '',
			passed INTEGER NOT NULL DEFAULT 0,
			total INTEGER NOT NULL DEFAULT 0,
			attempt_ts TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS attempts_scope_problem ON attempts(scope, problem_id);`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) PutDraft(ctx context.Context, scope, problemID string, entry drafts.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drafts(scope, problem_id, code, language, updated_ts)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(scope, problem_id) DO UPDATE SET
			code = excluded.code,
			language = excluded.language,
			updated_ts = excluded.updated_ts
	`, scope, problemID, entry.Code, string(entry.Language), s.now().UTC().Format(timeLayout))
	return err
}

func (s *SQLiteStore) GetDraft(ctx context.Context, scope, problemID string) (drafts.Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT code, language FROM drafts WHERE scope = ? AND problem_id = ?`, scope, problemID)
	var code, lang string
	if err := row.Scan(&code, &lang); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return drafts.Entry{}, false, nil
		}
		return drafts.Entry{}, false, err
	}
	return drafts.Entry{Code: code, Language: drafts.Language(lang)}, true, nil
}

func (s *SQLiteStore) DeleteDraft(ctx context.Context, scope, problemID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE scope = ? AND problem_id = ?`, scope, problemID)
	return err
}

func (s *SQLiteStore) AddSubmitted(ctx context.Context, scope, problemID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO submitted(scope, problem_id, first_ts) VALUES(?, ?, ?)`,
		scope, problemID, s.now().UTC().Format(timeLayout))
	return err
}

func (s *SQLiteStore) ListSubmitted(ctx context.Context, scope string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT problem_id FROM submitted WHERE scope = ? ORDER BY problem_id`, scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) RecordAttempt(ctx context.Context, a grading.Attempt) error {
	if strings.TrimSpace(a.ProblemID) == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts(scope, problem_id, kind, status, passed, total, attempt_ts)
		VALUES(?, ?, ?, ?, ?, ?, ?)
	`, a.Scope, a.ProblemID, string(a.Kind), a.Status, max(0, a.Passed), max(0, a.Total), s.now().UTC().Format(timeLayout))
	return err
}

// ListAttempts returns the newest attempts first. An empty problemID lists
// the whole scope.
func (s *SQLiteStore) ListAttempts(ctx context.Context, scope, problemID string, limit int) ([]AttemptRow, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT problem_id, kind, status, passed, total, attempt_ts FROM attempts WHERE scope = ?`
	args := []any{scope}
	if problemID != "" {
		query += ` AND problem_id = ?`
		args = append(args, problemID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AttemptRow
	for rows.Next() {
		var (
			row   AttemptRow
			kind  string
			tsRaw string
		)
		if err := rows.Scan(&row.ProblemID, &kind, &row.Status, &row.Passed, &row.Total, &tsRaw); err != nil {
			return nil, err
		}
		row.Kind = grading.Kind(kind)
		if t, err := time.Parse(timeLayout, tsRaw); err == nil {
			row.TS = t
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetSummary(ctx context.Context, scope string) (Summary, error) {
	var (
		out    Summary
		lastTS sql.NullString
	)
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN kind = 'test' THEN 1 ELSE 0 END),0) as tests,
			COALESCE(SUM(CASE WHEN kind = 'submit' THEN 1 ELSE 0 END),0) as submits,
			COALESCE(SUM(CASE WHEN kind = 'submit' AND status = ? THEN 1 ELSE 0 END),0) as accepted,
			MAX(attempt_ts) as last_ts
		FROM attempts
		WHERE scope = ?
	`, grading.StatusAccepted, scope)
	if err := row.Scan(&out.Tests, &out.Submits, &out.Accepted, &lastTS); err != nil {
		return Summary{}, err
	}
	if lastTS.Valid {
		if t, err := time.Parse(timeLayout, lastTS.String); err == nil {
			out.LastAttempt = t
		}
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submitted WHERE scope = ?`, scope).Scan(&out.Submitted); err != nil {
		return Summary{}, err
	}
	return out, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO app_settings(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, values[key]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

