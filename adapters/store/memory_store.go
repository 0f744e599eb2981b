package store

import (
	"context"
	"sync"
	"time"

	"github.com/openaxm/walletgate/core"
	"github.com/openaxm/walletgate/ports"
)

// evictionGrace is how long a challenge outlives its expiry before Sweep
// removes it. Keeping the record briefly lets late polls see a clean
// "expired" outcome instead of "unknown challenge".
const evictionGrace = 5 * time.Minute

// MemoryStore is an in-memory implementation of the Store interface,
// suitable for single-instance deployments and tests.
type MemoryStore struct {
	mu        sync.Mutex
	byID      map[string]*core.Challenge
	byAddress map[string]string // claimed address -> pending challenge id
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:      make(map[string]*core.Challenge),
		byAddress: make(map[string]string),
	}
}

// Put persists a challenge, discarding any pending challenge previously
// issued for the same address. The superseded record is deleted outright
// so it can never be matched again.
func (s *MemoryStore) Put(ctx context.Context, ch *core.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if oldID, ok := s.byAddress[ch.Address]; ok {
		if old, ok := s.byID[oldID]; ok && old.Status == core.StatusPending {
			delete(s.byID, oldID)
		}
	}

	cp := *ch
	s.byID[ch.ID] = &cp
	s.byAddress[ch.Address] = ch.ID
	return nil
}

// GetByID retrieves a challenge by id, or (nil, nil) when absent.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*core.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *ch
	return &cp, nil
}

// FindPendingByCode returns the pending, unexpired challenge with the
// given code, or (nil, nil).
func (s *MemoryStore) FindPendingByCode(ctx context.Context, code string, now time.Time) (*core.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	norm := core.NormalizeMemo(code)
	for _, ch := range s.byID {
		if ch.Status != core.StatusPending || ch.Expired(now) {
			continue
		}
		if core.NormalizeMemo(ch.Code) == norm {
			cp := *ch
			return &cp, nil
		}
	}
	return nil, nil
}

// TryConsume atomically transitions PENDING -> CONSUMED. The whole
// test-and-set runs under the store lock, so of N concurrent callers
// exactly one observes true.
func (s *MemoryStore) TryConsume(ctx context.Context, id, txHash string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	if ch.Status != core.StatusPending || ch.Expired(now) {
		return false, nil
	}

	ch.Status = core.StatusConsumed
	ch.ConsumedTxHash = txHash
	return true, nil
}

// Sweep removes challenges past expiry plus the grace period.
func (s *MemoryStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, ch := range s.byID {
		if now.After(ch.ExpiresAt.Add(evictionGrace)) {
			delete(s.byID, id)
			if s.byAddress[ch.Address] == id {
				delete(s.byAddress, ch.Address)
			}
			removed++
		}
	}
	return removed, nil
}

var _ ports.Store = (*MemoryStore)(nil)
