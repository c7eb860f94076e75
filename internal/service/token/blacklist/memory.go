package blacklist

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process ledger used when no Redis address is configured
// and in tests. Safe for concurrent use; Prune must be called periodically
// to drop entries whose tokens have expired on their own
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]time.Time)}
}

func (m *Memory) Revoke(_ context.Context, tokenID string, until time.Time) error {
	if !time.Now().Before(until) {
		// The token is already past its expiry, nothing to remember
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[tokenID] = until

	return nil
}

func (m *Memory) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.RLock()
	until, ok := m.entries[tokenID]
	m.mu.RUnlock()

	return ok && time.Now().Before(until), nil
}

// Prune removes entries that are no longer effective
func (m *Memory) Prune(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for tokenID, until := range m.entries {
		if !now.Before(until) {
			delete(m.entries, tokenID)
			removed++
		}
	}

	return removed
}
