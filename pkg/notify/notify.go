// Package notify holds transient user-facing notifications: short messages
// that expire on their own and are shown oldest first.
package notify

import (
	"sync"
	"time"
)

// Kind classifies a notification.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// DefaultTTL is how long a notification stays active when no ttl is given.
const DefaultTTL = 5 * time.Second

// Notification is a single transient notice.
type Notification struct {
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether n is no longer active at now.
func (n Notification) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}

// Queue is a bounded, insertion-ordered set of notifications. When full,
// the oldest entry is evicted to make room. Safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	items    []Notification
	capacity int
	now      func() time.Time
}

// NewQueue creates a queue holding at most capacity notifications.
// capacity < 1 is treated as 1.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{capacity: capacity, now: time.Now}
}

// Push appends a notification that expires after ttl (DefaultTTL when
// ttl <= 0) and returns it.
func (q *Queue) Push(kind Kind, message string, ttl time.Duration) Notification {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	n := Notification{Kind: kind, Message: message, ExpiresAt: q.now().Add(ttl)}
	if len(q.items) == q.capacity {
		q.items = append(q.items[:0], q.items[1:]...)
	}
	q.items = append(q.items, n)
	return n
}

// Active returns the notifications still live at now, oldest first.
func (q *Queue) Active(now time.Time) []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	active := make([]Notification, 0, len(q.items))
	for _, n := range q.items {
		if !n.Expired(now) {
			active = append(active, n)
		}
	}
	return active
}

// Prune drops expired notifications and returns how many were removed.
func (q *Queue) Prune(now time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	for _, n := range q.items {
		if !n.Expired(now) {
			kept = append(kept, n)
		}
	}
	removed := len(q.items) - len(kept)
	q.items = kept
	return removed
}

// Len returns the number of queued notifications, expired or not.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
