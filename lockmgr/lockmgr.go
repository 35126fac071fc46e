// Package lockmgr implements the advisory, per-entry edit lock protocol.
// Locks are persisted rows, not in-process mutexes, so they survive restarts
// and are visible across replicas of the API layer.
package lockmgr

import (
	"time"

	"elogy.dev/core/model"
	"elogy.dev/core/store"
	"gorm.io/gorm"
)

// GetLock implements the lock acquire/steal/read protocol:
//
//   - acquire == false: returns the current active lock, or nil if none.
//   - acquire == true, no active lock: creates one owned by ip.
//   - acquire == true, active lock owned by ip: returns it unchanged (idempotent).
//   - acquire == true, steal == true, active lock owned by someone else:
//     cancels the existing lock and creates a new one owned by ip.
//   - acquire == true, steal == false, active lock owned by someone else:
//     fails with model.ConflictLockedError carrying the existing lock.
func GetLock(s *store.Store, entryID int, ip string, acquire, steal bool) (*model.Lock, error) {
	var result *model.Lock
	err := s.Transaction(func(tx *gorm.DB) error {
		existing, err := activeLockTx(tx, entryID)
		if err != nil {
			return err
		}

		if !acquire {
			result = existing
			return nil
		}

		if existing == nil {
			now := time.Now().UTC()
			created, err := store.CreateLockTx(tx, &model.Lock{
				EntryID:   entryID,
				CreatedAt: now,
				ExpiresAt: now.Add(model.DefaultLockDuration),
				OwnedByIP: ip,
			})
			if err != nil {
				return err
			}
			result = created
			return nil
		}

		if existing.OwnedByIP == ip {
			result = existing
			return nil
		}

		if !steal {
			return model.NewConflictLocked(entryID, existing)
		}

		now := time.Now().UTC()
		existing.CancelledAt = &now
		existing.CancelledByIP = ip
		if err := store.CancelLockTx(tx, existing); err != nil {
			return err
		}

		created, err := store.CreateLockTx(tx, &model.Lock{
			EntryID:   entryID,
			CreatedAt: now,
			ExpiresAt: now.Add(model.DefaultLockDuration),
			OwnedByIP: ip,
		})
		if err != nil {
			return err
		}
		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelLock cancels lockID on behalf of ip; idempotent on an
// already-cancelled lock.
func CancelLock(s *store.Store, lockID int, ip string) (*model.Lock, error) {
	var result *model.Lock
	err := s.Transaction(func(tx *gorm.DB) error {
		lock, err := s.GetLockByID(lockID)
		if err != nil {
			return err
		}
		if lock.CancelledAt != nil {
			result = lock
			return nil
		}
		now := time.Now().UTC()
		lock.CancelledAt = &now
		lock.CancelledByIP = ip
		if err := store.CancelLockTx(tx, lock); err != nil {
			return err
		}
		result = lock
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelLockIfOwnedBy auto-cancels entryID's active lock when it is owned by
// ip, on a successful edit by that same caller. It is a no-op if no lock is
// active or it is owned by someone else.
func CancelLockIfOwnedBy(tx *gorm.DB, entryID int, ip string) error {
	lock, err := activeLockTx(tx, entryID)
	if err != nil {
		return err
	}
	if lock == nil || lock.OwnedByIP != ip {
		return nil
	}
	now := time.Now().UTC()
	lock.CancelledAt = &now
	lock.CancelledByIP = ip
	return store.CancelLockTx(tx, lock)
}

// activeLockTx reuses the Store's active-lock lookup inside a transaction.
// It is a thin wrapper so lockmgr never talks SQL directly.
func activeLockTx(tx *gorm.DB, entryID int) (*model.Lock, error) {
	return store.ActiveLockTx(tx, entryID)
}
