package testutil

import "sync"

// CallLog records collaborator invocations in order. Safe for concurrent use.
type CallLog struct {
	mu    sync.Mutex
	calls []string
}

// Record appends name to the log. A nil log ignores the call.
func (l *CallLog) Record(name string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

// Calls returns a copy of the recorded names.
func (l *CallLog) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}
