package drafts

import "context"

// Cache is the durable, per-scope draft cache. Entries are crash-recovery
// hints and never authoritative over the remote service.
type Cache interface {
	PutDraft(ctx context.Context, scope, problemID string, entry Entry) error
	GetDraft(ctx context.Context, scope, problemID string) (Entry, bool, error)
	DeleteDraft(ctx context.Context, scope, problemID string) error
}

type Entry struct {
	Code     string   `json:"code"`
	Language Language `json:"language"`
}
