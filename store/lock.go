package store

import (
	"fmt"
	"time"

	"elogy.dev/core/model"
	"gorm.io/gorm"
)

// ActiveLock returns the currently active lock on entryID, if any. A nil
// result with a nil error means no lock is active.
func (s *Store) ActiveLock(entryID int) (*model.Lock, error) {
	return activeLockTx(s.DB, entryID)
}

// ActiveLockTx is ActiveLock scoped to an existing transaction, so callers
// composing a larger transaction (lockmgr, logbook) can reuse the same lookup.
func ActiveLockTx(tx *gorm.DB, entryID int) (*model.Lock, error) {
	return activeLockTx(tx, entryID)
}

func activeLockTx(tx *gorm.DB, entryID int) (*model.Lock, error) {
	var row EntryLockRow
	err := tx.Where("entry_id = ? AND cancelled_at IS NULL AND expires_at > ?", entryID, time.Now().UTC()).
		Order("id DESC").
		First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: active lock: %w", err)
	}
	return lockFromRow(&row), nil
}

// CreateLockTx inserts a new lock row within tx.
func CreateLockTx(tx *gorm.DB, l *model.Lock) (*model.Lock, error) {
	row := lockToRow(l)
	if err := tx.Create(row).Error; err != nil {
		return nil, fmt.Errorf("store: create lock: %w", err)
	}
	return lockFromRow(row), nil
}

// GetLockByID loads one lock row by id, or model.ErrNotFound.
func (s *Store) GetLockByID(id int) (*model.Lock, error) {
	var row EntryLockRow
	if err := s.DB.First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, model.NewNotFound("lock", id)
		}
		return nil, fmt.Errorf("store: get lock: %w", err)
	}
	return lockFromRow(&row), nil
}

// CancelLockTx marks a lock row cancelled within tx.
func CancelLockTx(tx *gorm.DB, l *model.Lock) error {
	row := lockToRow(l)
	if err := tx.Save(row).Error; err != nil {
		return fmt.Errorf("store: cancel lock: %w", err)
	}
	return nil
}
