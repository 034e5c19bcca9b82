package state

import (
	"context"
	"fmt"
	"sync"
)

// AllowListStore is the optional persistence hook behind an AllowList.
type AllowListStore interface {
	AddAllowedUser(ctx context.Context, userID, addedBy string) error
	RemoveAllowedUser(ctx context.Context, userID string) error
	ListAllowedUsers(ctx context.Context) ([]string, error)
}

// AllowList is the set of users permitted in the monitored channel and to
// run admin commands. Iteration follows insertion order.
type AllowList struct {
	mu      sync.RWMutex
	members map[string]struct{}
	order   []string
	store   AllowListStore
}

// NewAllowList seeds the list from initial. store may be nil, in which case
// the list lives only in process memory.
func NewAllowList(initial []string, store AllowListStore) *AllowList {
	a := &AllowList{
		members: make(map[string]struct{}, len(initial)),
		store:   store,
	}
	for _, id := range initial {
		a.insert(id)
	}
	return a
}

// Load merges the persisted entries into the list.
func (a *AllowList) Load(ctx context.Context) (int, error) {
	if a.store == nil {
		return 0, nil
	}

	ids, err := a.store.ListAllowedUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load allow list: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	added := 0
	for _, id := range ids {
		if a.insert(id) {
			added++
		}
	}
	return added, nil
}

// Add inserts userID. It reports false without touching the store when the
// user is already present.
func (a *AllowList) Add(ctx context.Context, userID, addedBy string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.members[userID]; ok {
		return false, nil
	}

	if a.store != nil {
		if err := a.store.AddAllowedUser(ctx, userID, addedBy); err != nil {
			return false, fmt.Errorf("failed to persist allowed user %s: %w", userID, err)
		}
	}

	a.insert(userID)
	return true, nil
}

// Remove deletes userID. It reports false when the user was not present.
func (a *AllowList) Remove(ctx context.Context, userID string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.members[userID]; !ok {
		return false, nil
	}

	if a.store != nil {
		if err := a.store.RemoveAllowedUser(ctx, userID); err != nil {
			return false, fmt.Errorf("failed to remove persisted user %s: %w", userID, err)
		}
	}

	delete(a.members, userID)
	for i, id := range a.order {
		if id == userID {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (a *AllowList) Contains(userID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.members[userID]
	return ok
}

// List returns a copy of the members in insertion order.
func (a *AllowList) List() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

func (a *AllowList) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.order)
}

// insert must be called with mu held (or before the list is shared).
func (a *AllowList) insert(userID string) bool {
	if _, ok := a.members[userID]; ok {
		return false
	}
	a.members[userID] = struct{}{}
	a.order = append(a.order, userID)
	return true
}
