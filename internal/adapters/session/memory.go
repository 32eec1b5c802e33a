package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/outbreak/pkg/metrics"
)

const defaultMaxRevoked = 50000

// node is one revoked session in insertion order.
type node struct {
	sid   string
	until time.Time
	prev  *node
	next  *node
}

func (n *node) reset() {
	*n = node{}
}

// MemoryRevoker keeps revoked session ids in process memory. When full it
// drops expired entries first; if none have expired it evicts the entry
// whose token expires soonest. Expired entries are also dropped on access.
type MemoryRevoker struct {
	mu       sync.Mutex
	entries  map[string]*node
	head     *node // newest
	tail     *node // oldest
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
	now      func() time.Time
}

// MemoryOption configures a MemoryRevoker.
type MemoryOption func(*MemoryRevoker)

// WithMaxSize bounds the number of tracked sessions.
func WithMaxSize(n int) MemoryOption {
	return func(m *MemoryRevoker) {
		if n > 0 {
			m.maxSize = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryRevoker) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryRevoker returns an empty in-memory revocation store.
func NewMemoryRevoker(opts ...MemoryOption) *MemoryRevoker {
	m := &MemoryRevoker{
		entries: make(map[string]*node),
		maxSize: defaultMaxRevoked,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.nodePool = sync.Pool{New: func() any { return &node{} }}
	return m
}

// Revoke implements Revoker.
func (m *MemoryRevoker) Revoke(_ context.Context, sid string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n, ok := m.entries[sid]; ok {
		if until.After(n.until) {
			n.until = until
		}
		return nil
	}
	if len(m.entries) >= m.maxSize {
		m.sweep()
	}
	for len(m.entries) >= m.maxSize {
		m.unlink(m.soonest())
	}

	n := m.nodePool.Get().(*node)
	n.sid, n.until = sid, until
	n.next = m.head
	if m.head != nil {
		m.head.prev = n
	}
	m.head = n
	if m.tail == nil {
		m.tail = n
	}
	m.entries[sid] = n
	m.size.Add(1)
	metrics.UpdateRevokedSessions(int(m.size.Load()))
	return nil
}

// Revoked implements Revoker.
func (m *MemoryRevoker) Revoked(_ context.Context, sid string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.entries[sid]
	if !ok {
		return false, nil
	}
	if !m.now().Before(n.until) {
		m.unlink(n)
		metrics.UpdateRevokedSessions(int(m.size.Load()))
		return false, nil
	}
	return true, nil
}

// Size returns the number of tracked sessions.
func (m *MemoryRevoker) Size() int64 {
	return m.size.Load()
}

// sweep drops every expired entry; callers hold mu.
func (m *MemoryRevoker) sweep() {
	now := m.now()
	for n := m.tail; n != nil; {
		prev := n.prev
		if !now.Before(n.until) {
			m.unlink(n)
		}
		n = prev
	}
}

// soonest returns the live entry closest to expiry; callers hold mu.
func (m *MemoryRevoker) soonest() *node {
	var first *node
	for n := m.tail; n != nil; n = n.prev {
		if first == nil || n.until.Before(first.until) {
			first = n
		}
	}
	return first
}

// unlink removes n; callers hold mu.
func (m *MemoryRevoker) unlink(n *node) {
	if n == nil {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		m.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		m.tail = n.prev
	}
	delete(m.entries, n.sid)
	n.reset()
	m.nodePool.Put(n)
	m.size.Add(-1)
}
