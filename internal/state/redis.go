package state

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"solvedesk/internal/drafts"
	"solvedesk/internal/grading"

	"github.com/redis/go-redis/v9"
)

const (
	redisPrefix      = "solvedesk:"
	maxAttemptsKept  = 500
	redisSettingsKey = redisPrefix + "settings"
)

// RedisStore shares drafts and history between machines of one user. Each
// scope owns a draft hash, a submitted set, and a capped attempt list.
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedis(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

// NewRedisURL connects using a redis:// URL.
func NewRedisURL(rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return NewRedis(redis.NewClient(opts)), nil
}

func draftsKey(scope string) string    { return redisPrefix + "drafts:" + scope }
func submittedKey(scope string) string { return redisPrefix + "submitted:" + scope }
func attemptsKey(scope string) string  { return redisPrefix + "attempts:" + scope }

func (s *RedisStore) EnsureSchema(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) PutDraft(ctx context.Context, scope, problemID string, entry drafts.Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, draftsKey(scope), problemID, raw).Err()
}

func (s *RedisStore) GetDraft(ctx context.Context, scope, problemID string) (drafts.Entry, bool, error) {
	raw, err := s.rdb.HGet(ctx, draftsKey(scope), problemID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return drafts.Entry{}, false, nil
		}
		return drafts.Entry{}, false, err
	}
	var entry drafts.Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return drafts.Entry{}, false, err
	}
	return entry, true, nil
}

func (s *RedisStore) DeleteDraft(ctx context.Context, scope, problemID string) error {
	return s.rdb.HDel(ctx, draftsKey(scope), problemID).Err()
}

func (s *RedisStore) AddSubmitted(ctx context.Context, scope, problemID string) error {
	return s.rdb.SAdd(ctx, submittedKey(scope), problemID).Err()
}

func (s *RedisStore) ListSubmitted(ctx context.Context, scope string) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, submittedKey(scope)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *RedisStore) RecordAttempt(ctx context.Context, a grading.Attempt) error {
	if strings.TrimSpace(a.ProblemID) == "" {
		return nil
	}
	raw, err := json.Marshal(AttemptRow{
		ProblemID: a.ProblemID,
		Kind:      a.Kind,
		Status:    a.Status,
		Passed:    max(0, a.Passed),
		Total:     max(0, a.Total),
		TS:        s.now().UTC(),
	})
	if err != nil {
		return err
	}
	key := attemptsKey(a.Scope)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, raw)
		pipe.LTrim(ctx, key, 0, maxAttemptsKept-1)
		return nil
	})
	return err
}

func (s *RedisStore) ListAttempts(ctx context.Context, scope, problemID string, limit int) ([]AttemptRow, error) {
	if limit <= 0 {
		limit = 50
	}
	all, err := s.attempts(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := make([]AttemptRow, 0, limit)
	for _, row := range all {
		if problemID != "" && row.ProblemID != problemID {
			continue
		}
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *RedisStore) GetSummary(ctx context.Context, scope string) (Summary, error) {
	all, err := s.attempts(ctx, scope)
	if err != nil {
		return Summary{}, err
	}
	var out Summary
	for _, row := range all {
		switch row.Kind {
		case grading.KindTest:
			out.Tests++
		case grading.KindSubmit:
			out.Submits++
			if row.Status == grading.StatusAccepted {
				out.Accepted++
			}
		}
		if row.TS.After(out.LastAttempt) {
			out.LastAttempt = row.TS
		}
	}
	n, err := s.rdb.SCard(ctx, submittedKey(scope)).Result()
	if err != nil {
		return Summary{}, err
	}
	out.Submitted = int(n)
	return out, nil
}

func (s *RedisStore) attempts(ctx context.Context, scope string) ([]AttemptRow, error) {
	raws, err := s.rdb.LRange(ctx, attemptsKey(scope), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]AttemptRow, 0, len(raws))
	for _, raw := range raws {
		var row AttemptRow
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *RedisStore) SaveSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	fields := make(map[string]any, len(values))
	for k, v := range values {
		if k = strings.TrimSpace(k); k != "" {
			fields[k] = v
		}
	}
	return s.rdb.HSet(ctx, redisSettingsKey, fields).Err()
}

func (s *RedisStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	return s.rdb.HGetAll(ctx, redisSettingsKey).Result()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
