// Package balance holds the cross-account balance cache, the poller that
// refreshes it and the aggregation rules that read from it.
package balance

import (
	"sync"

	"github.com/tradeterm/orderform/internal/domain"
)

// Update notifies subscribers that an account's snapshot was replaced.
type Update struct {
	AccountID string
}

// Store is the process-wide balance cache, keyed by account id. Writes
// replace an account's snapshot wholesale; there is no partial merge.
// The poller is the only writer, so last-write-wins per account is the
// ordering guarantee consumers get.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]domain.BalanceSnapshot
	loading   bool

	subs   map[chan Update]struct{}
	buffer int
}

// NewStore creates a store with the given per-subscriber buffer.
func NewStore(buffer int) *Store {
	if buffer < 1 {
		buffer = 64
	}
	return &Store{
		snapshots: make(map[string]domain.BalanceSnapshot),
		subs:      make(map[chan Update]struct{}),
		buffer:    buffer,
	}
}

// Get returns the cached asset entries for an account, or false when no
// snapshot has been polled for it yet.
func (s *Store) Get(accountID string) ([]domain.AssetEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[accountID]
	if !ok {
		return nil, false
	}
	return snap.Assets, true
}

// Set replaces the snapshot for one account and notifies subscribers.
func (s *Store) Set(accountID string, assets []domain.AssetEntry) {
	s.mu.Lock()
	s.snapshots[accountID] = domain.NewBalanceSnapshot(accountID, assets)
	s.publishLocked(Update{AccountID: accountID})
	s.mu.Unlock()
}

// SetBatch replaces snapshots for every account present in the poll result.
// Accounts absent from the result keep their previous snapshot.
func (s *Store) SetBatch(snapshots []domain.BalanceSnapshot) {
	s.mu.Lock()
	for _, snap := range snapshots {
		if snap.AccountID == "" {
			continue
		}
		s.snapshots[snap.AccountID] = snap
		s.publishLocked(Update{AccountID: snap.AccountID})
	}
	s.mu.Unlock()
}

// SetLoading flips the in-flight poll flag.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

// IsLoading reports whether a poll is currently in flight.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Snapshot returns a copy of the whole cache for UI consumers.
func (s *Store) Snapshot() map[string][]domain.AssetEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]domain.AssetEntry, len(s.snapshots))
	for id, snap := range s.snapshots {
		assets := make([]domain.AssetEntry, len(snap.Assets))
		copy(assets, snap.Assets)
		out[id] = assets
	}
	return out
}

// Subscribe returns a channel that receives updates until Unsubscribe is called.
func (s *Store) Subscribe() chan Update {
	ch := make(chan Update, s.buffer)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (s *Store) Unsubscribe(ch chan Update) {
	s.mu.Lock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
	s.mu.Unlock()
}

func (s *Store) publishLocked(u Update) {
	for ch := range s.subs {
		select {
		case ch <- u:
		default:
			// drop slow consumer
		}
	}
}
