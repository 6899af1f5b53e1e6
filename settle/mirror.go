// Copyright 2025 The go-aigent Authors
// This file is part of the go-aigent library.
//
// The go-aigent library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-aigent library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-aigent library. If not, see <http://www.gnu.org/licenses/>.

package settle

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	bolt "go.etcd.io/bbolt"
)

const mirrorBucket = "balance-mirror"

// Mirror is the client-local cache of remaining uses per token for one user.
// It exists for UI responsiveness only: every value is superseded by the next
// ledger read, and nothing in the settlement path trusts it for a decision
// that spends money. The snapshot is persisted so balances survive restarts.
type Mirror struct {
	mu   sync.Mutex
	db   *bolt.DB
	user common.Address
	uses map[uint64]uint64
}

// OpenMirror opens (or creates) the persisted mirror at path for user and
// loads the stored snapshot.
func OpenMirror(path string, user common.Address) (*Mirror, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	m := &Mirror{db: db, user: user, uses: make(map[uint64]uint64)}
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(mirrorBucket))
		if err != nil {
			return err
		}
		raw := b.Get(user.Bytes())
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &m.uses); err != nil {
			// A corrupt snapshot is advisory data; drop it.
			log.Warn("Discarding unreadable balance snapshot", "user", user, "err", err)
			m.uses = make(map[uint64]uint64)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

// Close releases the underlying store.
func (m *Mirror) Close() error { return m.db.Close() }

// Get returns the cached remaining uses for a token. Advisory only.
func (m *Mirror) Get(tokenID uint64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uses[tokenID]
}

// Snapshot returns a copy of the full cached map.
func (m *Mirror) Snapshot() map[uint64]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uint64]uint64, len(m.uses))
	for k, v := range m.uses {
		out[k] = v
	}
	return out
}

// Refresh discards the local values for the given tokens and re-reads rental
// and prepaid balances from the ledger. Entries for other tokens are kept.
// Called after any settlement confirms.
func (m *Mirror) Refresh(ctx context.Context, reader Ledger, tokenIDs []uint64) error {
	fresh, err := m.readBalances(ctx, reader, tokenIDs)
	if err != nil {
		return err
	}
	m.mu.Lock()
	for id, uses := range fresh {
		m.uses[id] = uses
	}
	err = m.persistLocked()
	m.mu.Unlock()
	return err
}

// Reconcile replaces the whole snapshot with fresh ledger reads for the
// current agent set: tokens no longer in tokenIDs are dropped, so stale
// entries cannot outlive the agents they belonged to. Called on
// (re)connection and whenever the agent set changes.
func (m *Mirror) Reconcile(ctx context.Context, reader Ledger, tokenIDs []uint64) error {
	fresh, err := m.readBalances(ctx, reader, tokenIDs)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.uses = fresh
	err = m.persistLocked()
	m.mu.Unlock()
	return err
}

func (m *Mirror) readBalances(ctx context.Context, reader Ledger, tokenIDs []uint64) (map[uint64]uint64, error) {
	fresh := make(map[uint64]uint64, len(tokenIDs))
	for _, id := range tokenIDs {
		rental, err := reader.RentalBalance(ctx, id, m.user)
		if err != nil {
			return nil, classify(err)
		}
		prepaid, err := reader.PrepaidInferenceBalance(ctx, id, m.user)
		if err != nil {
			return nil, classify(err)
		}
		fresh[id] = rental.Uint64() + prepaid.Uint64()
	}
	return fresh, nil
}

// DecrementOptimistic applies an immediate local decrement after a confirmed
// consumption, for UI feedback. The next Refresh overwrites it.
func (m *Mirror) DecrementOptimistic(tokenID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uses[tokenID] > 0 {
		m.uses[tokenID]--
	}
	if err := m.persistLocked(); err != nil {
		log.Warn("Failed to persist balance snapshot", "token", tokenID, "err", err)
	}
}

func (m *Mirror) persistLocked() error {
	raw, err := json.Marshal(m.uses)
	if err != nil {
		return err
	}
	return m.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(mirrorBucket)).Put(m.user.Bytes(), raw)
	})
}
