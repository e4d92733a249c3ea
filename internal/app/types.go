package app

import (
	"sync"
	"time"
)

type action string

const (
	actionTest   action = "test"
	actionSubmit action = "submit"
	actionSave   action = "save"
)

type flightKey struct {
	problemID string
	action    action
}

// inflight tracks outstanding calls per problem and action. A second begin
// for the same key fails instead of queueing.
type inflight struct {
	mu    sync.Mutex
	calls map[flightKey]time.Time
}

func newInflight() *inflight {
	return &inflight{calls: map[flightKey]time.Time{}}
}

func (f *inflight) begin(problemID string, act action) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := flightKey{problemID, act}
	if _, ok := f.calls[k]; ok {
		return false
	}
	f.calls[k] = time.Now()
	return true
}

func (f *inflight) finish(problemID string, act action) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.calls, flightKey{problemID, act})
}

func (f *inflight) active(problemID string, act action) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.calls[flightKey{problemID, act}]
	return ok
}
