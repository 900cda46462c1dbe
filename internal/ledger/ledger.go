// Package ledger tracks the events a user has saved to their personal
// calendar and applies save/unsave optimistically.
package ledger

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/notifier"
)

// Backend persists saved-event membership.
type Backend interface {
	SavedEventIDs(ctx context.Context, userID string) ([]int64, error)
	AddEventToUser(ctx context.Context, userID string, eventID int64) error
	RemoveEventFromUser(ctx context.Context, userID string, eventID int64) error
}

type Kind string

const (
	KindAdd    Kind = "add"
	KindRemove Kind = "remove"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusReverted  Status = "reverted"
)

// Mutation is one optimistic flip and its settlement.
type Mutation struct {
	ID        uuid.UUID
	EventID   int64
	Title     string
	Kind      Kind
	Status    Status
	Err       error
	CreatedAt time.Time
	SettledAt time.Time
}

// Ledger is the set of saved event ids. Safe for concurrent use.
type Ledger struct {
	backend  Backend
	userID   string
	notifier notifier.Notifier

	mu      sync.RWMutex
	saved   map[int64]struct{}
	pending map[int64]*Mutation
	history []Mutation
}

func New(backend Backend, userID string, n notifier.Notifier) *Ledger {
	if n == nil {
		n = notifier.Func(func(notifier.Notice) {})
	}
	return &Ledger{
		backend:  backend,
		userID:   userID,
		notifier: n,
		saved:    make(map[int64]struct{}),
		pending:  make(map[int64]*Mutation),
	}
}

func (l *Ledger) IsSaved(eventID int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.saved[eventID]
	return ok
}

// IDs returns the saved ids in ascending order.
func (l *Ledger) IDs() []int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]int64, 0, len(l.saved))
	for id := range l.saved {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Pending returns the unsettled mutations.
func (l *Ledger) Pending() []Mutation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Mutation, 0, len(l.pending))
	for _, m := range l.pending {
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b Mutation) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

// History returns every settled mutation in settlement order.
func (l *Ledger) History() []Mutation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.history)
}

// Sync replaces the ledger with the backend's saved set. Events with a
// pending mutation keep their optimistic membership.
func (l *Ledger) Sync(ctx context.Context) error {
	ids, err := l.backend.SavedEventIDs(ctx, l.userID)
	if err != nil {
		logger.Error("Failed to fetch saved events", "error", err)
		return fmt.Errorf("failed to fetch saved events: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	next := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	for id, m := range l.pending {
		if m.Kind == KindAdd {
			next[id] = struct{}{}
		} else {
			delete(next, id)
		}
	}
	l.saved = next
	logger.Debug("Saved events synced", "count", len(next))
	return nil
}

// Toggle flips the membership of eventID immediately, then confirms it with
// the backend. On failure the flip is reverted, exactly one notice is
// raised and the error is returned. A toggle of an event that already has a
// pending mutation is rejected.
func (l *Ledger) Toggle(ctx context.Context, eventID int64, title string) (Mutation, error) {
	l.mu.Lock()
	if _, busy := l.pending[eventID]; busy {
		l.mu.Unlock()
		return Mutation{}, fmt.Errorf("event %d has a pending change", eventID)
	}
	m := &Mutation{
		ID:        uuid.New(),
		EventID:   eventID,
		Title:     title,
		Kind:      KindAdd,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	if _, ok := l.saved[eventID]; ok {
		m.Kind = KindRemove
		delete(l.saved, eventID)
	} else {
		l.saved[eventID] = struct{}{}
	}
	l.pending[eventID] = m
	l.mu.Unlock()

	logger.Debug("Optimistic saved-event change", "mutation", m.ID, "event", eventID, "kind", m.Kind)

	var err error
	if m.Kind == KindAdd {
		err = l.backend.AddEventToUser(ctx, l.userID, eventID)
	} else {
		err = l.backend.RemoveEventFromUser(ctx, l.userID, eventID)
	}

	l.mu.Lock()
	delete(l.pending, eventID)
	m.SettledAt = time.Now()
	if err != nil {
		m.Status = StatusReverted
		m.Err = err
		if m.Kind == KindAdd {
			delete(l.saved, eventID)
		} else {
			l.saved[eventID] = struct{}{}
		}
	} else {
		m.Status = StatusConfirmed
	}
	l.history = append(l.history, *m)
	settled := *m
	l.mu.Unlock()

	if err != nil {
		logger.Error("Saved-event change reverted", "mutation", m.ID, "event", eventID, "kind", m.Kind, "error", err)
		l.notifier.Notify(notifier.Errorf(failureTitle(m.Kind), "%s: %v", displayName(title, eventID), err))
		return settled, fmt.Errorf("failed to %s event %d: %w", m.Kind, eventID, err)
	}
	return settled, nil
}

func failureTitle(k Kind) string {
	if k == KindAdd {
		return "Failed to add event"
	}
	return "Failed to remove event"
}

func displayName(title string, eventID int64) string {
	if title != "" {
		return title
	}
	return fmt.Sprintf("event %d", eventID)
}
