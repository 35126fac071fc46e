package store

import (
	"fmt"

	"elogy.dev/core/model"
	"gorm.io/gorm"
)

// CreateEntryTx inserts a new entry row within tx.
func CreateEntryTx(tx *gorm.DB, e *model.Entry) (*model.Entry, error) {
	row := entryToRow(e)
	if err := tx.Create(row).Error; err != nil {
		return nil, fmt.Errorf("store: create entry: %w", err)
	}
	return entryFromRow(row, 0), nil
}

// GetEntry loads one entry by id, or model.ErrNotFound.
func (s *Store) GetEntry(id int) (*model.Entry, error) {
	return s.getEntryTx(s.DB, id)
}

func (s *Store) getEntryTx(tx *gorm.DB, id int) (*model.Entry, error) {
	var row EntryRow
	if err := tx.First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, model.NewNotFound("entry", id)
		}
		return nil, fmt.Errorf("store: get entry: %w", err)
	}
	n, err := s.CountEntryChanges(id)
	if err != nil {
		return nil, err
	}
	return entryFromRow(&row, n), nil
}

// SaveEntryTx overwrites an existing entry row within tx.
func SaveEntryTx(tx *gorm.DB, e *model.Entry) error {
	row := entryToRow(e)
	if err := tx.Save(row).Error; err != nil {
		return fmt.Errorf("store: save entry: %w", err)
	}
	return nil
}

// CreateEntryChangeTx inserts a Change row for an entry mutation.
func CreateEntryChangeTx(tx *gorm.DB, change *model.Change) (*model.Change, error) {
	row := &EntryChangeRow{
		EntryID:       change.SubjectID,
		Changed:       JSONChanged(change.Changed),
		Timestamp:     change.Timestamp,
		ChangeAuthors: JSONAuthors(change.ChangeAuthors),
		ChangeComment: change.ChangeComment,
		ChangeIP:      change.ChangeIP,
	}
	if err := tx.Create(row).Error; err != nil {
		return nil, fmt.Errorf("store: create entry change: %w", err)
	}
	return changeFromEntryRow(row), nil
}

// CountEntryChanges returns the number of changes recorded for an entry,
// which is that entry's current revision_n.
func (s *Store) CountEntryChanges(entryID int) (int, error) {
	var count int64
	if err := s.DB.Model(&EntryChangeRow{}).Where("entry_id = ?", entryID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("store: count entry changes: %w", err)
	}
	return int(count), nil
}

// ListEntryChanges returns every change for an entry, ordered oldest first
// (index 0 is revision 0's change, i.e. the change that produced revision 1).
func (s *Store) ListEntryChanges(entryID int) ([]*model.Change, error) {
	var rows []EntryChangeRow
	if err := s.DB.Where("entry_id = ?", entryID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list entry changes: %w", err)
	}
	out := make([]*model.Change, 0, len(rows))
	for i := range rows {
		out = append(out, changeFromEntryRow(&rows[i]))
	}
	return out, nil
}

// EntryExistsInLogbook reports whether id names an entry belonging to
// logbookID, used to validate that Entry.follows stays within one logbook.
func (s *Store) EntryExistsInLogbook(id, logbookID int) (bool, error) {
	var count int64
	if err := s.DB.Model(&EntryRow{}).Where("id = ? AND logbook_id = ?", id, logbookID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("store: check entry membership: %w", err)
	}
	return count > 0, nil
}

// ListFollowups returns every entry whose follows field points at rootID,
// ordered oldest first.
func (s *Store) ListFollowups(rootID int) ([]*model.Entry, error) {
	var rows []EntryRow
	if err := s.DB.Where("follows = ?", rootID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list followups: %w", err)
	}
	out := make([]*model.Entry, 0, len(rows))
	for i := range rows {
		n, err := s.CountEntryChanges(rows[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, entryFromRow(&rows[i], n))
	}
	return out, nil
}
