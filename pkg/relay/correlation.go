// Copyright 2024-2026 Aiku AI

package relay

import (
	"sync"
	"time"
)

// Correlation links a group-side message to its counterpart in a user's
// private chat.
type Correlation struct {
	Owner UserID
	Peer  MessageRef
	// Recorded is when the entry was created, used only for pruning.
	Recorded time.Time
}

// CorrelationTable maps group message refs to correlations. Entries are
// never mutated once recorded. Safe for concurrent use.
type CorrelationTable struct {
	mu      sync.RWMutex
	entries map[MessageRef]Correlation
	now     func() time.Time
}

// NewCorrelationTable creates an empty table.
func NewCorrelationTable() *CorrelationTable {
	return &CorrelationTable{
		entries: make(map[MessageRef]Correlation),
		now:     time.Now,
	}
}

// Record stores the correlation for a group message. A repeated key
// overwrites the previous entry.
func (ct *CorrelationTable) Record(group MessageRef, owner UserID, peer MessageRef) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.entries[group] = Correlation{Owner: owner, Peer: peer, Recorded: ct.now()}
}

// Lookup returns the correlation recorded for a group message.
func (ct *CorrelationTable) Lookup(group MessageRef) (Correlation, bool) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	c, ok := ct.entries[group]
	return c, ok
}

// Len returns the number of recorded correlations. Thread-safe.
func (ct *CorrelationTable) Len() int {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return len(ct.entries)
}

// Prune drops entries recorded before the cutoff and returns how many were
// removed.
func (ct *CorrelationTable) Prune(cutoff time.Time) (removed int) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	for key, c := range ct.entries {
		if c.Recorded.Before(cutoff) {
			delete(ct.entries, key)
			removed++
		}
	}
	return removed
}
