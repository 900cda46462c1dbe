package calendar

import (
	"sync"

	"github.com/google/uuid"

	"github.com/julianstephens/cmucal/internal/models"
)

// Status is the lifecycle position of an optimistic override.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusReverted  Status = "reverted"
)

// Override is a local edit of a display event not yet confirmed upstream.
type Override struct {
	ID     uuid.UUID
	Key    string
	Event  models.Event
	Status Status
}

// Overrides is the highest-priority merge layer. Only pending entries take
// part in a merge; confirming or reverting settles an entry and drops its
// event. Safe for concurrent use.
type Overrides struct {
	mu      sync.RWMutex
	order   []string
	pending map[string]*Override
	settled map[string]Status
}

func NewOverrides() *Overrides {
	return &Overrides{
		pending: make(map[string]*Override),
		settled: make(map[string]Status),
	}
}

// Put records ev as pending under its derived key, replacing any pending
// override for the same key in place.
func (o *Overrides) Put(ev models.Event) Override {
	o.mu.Lock()
	defer o.mu.Unlock()

	key := DeriveKey(ev)
	ov := &Override{ID: uuid.New(), Key: key, Event: ev, Status: StatusPending}
	if _, ok := o.pending[key]; !ok {
		o.order = append(o.order, key)
	}
	o.pending[key] = ov
	delete(o.settled, key)
	return *ov
}

// Get returns the pending override for key.
func (o *Overrides) Get(key string) (Override, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	ov, ok := o.pending[key]
	if !ok {
		return Override{}, false
	}
	return *ov, true
}

// Confirm settles key as confirmed. It reports false when nothing was pending.
func (o *Overrides) Confirm(key string) bool {
	return o.settle(key, StatusConfirmed)
}

// Revert settles key as reverted. It reports false when nothing was pending.
func (o *Overrides) Revert(key string) bool {
	return o.settle(key, StatusReverted)
}

func (o *Overrides) settle(key string, status Status) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.pending[key]; !ok {
		return false
	}
	delete(o.pending, key)
	o.settled[key] = status
	for i, k := range o.order {
		if k == key {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	return true
}

// Status returns the current or last settled status of key.
func (o *Overrides) Status(key string) (Status, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if ov, ok := o.pending[key]; ok {
		return ov.Status, true
	}
	s, ok := o.settled[key]
	return s, ok
}

// Pending returns the pending events in insertion order.
func (o *Overrides) Pending() []models.Event {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]models.Event, 0, len(o.order))
	for _, k := range o.order {
		out = append(out, o.pending[k].Event)
	}
	return out
}

func (o *Overrides) Keys() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]string(nil), o.order...)
}

func (o *Overrides) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.order)
}

// Clear drops every pending and settled entry.
func (o *Overrides) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.order = nil
	o.pending = make(map[string]*Override)
	o.settled = make(map[string]Status)
}
