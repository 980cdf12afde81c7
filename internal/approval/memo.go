package approval

import "sync"

// Memo records "allow all" approvals by action hash for the process lifetime.
// Safe for concurrent use.
type Memo struct {
	mu       sync.RWMutex
	approved map[string]bool
}

// NewMemo creates an empty memo.
func NewMemo() *Memo {
	return &Memo{approved: make(map[string]bool)}
}

// Approve marks hash as pre-approved.
func (m *Memo) Approve(hash string) {
	m.mu.Lock()
	m.approved[hash] = true
	m.mu.Unlock()
}

// Approved reports whether hash was pre-approved.
func (m *Memo) Approved(hash string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.approved[hash]
}

// Len returns the number of pre-approved hashes.
func (m *Memo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.approved)
}
