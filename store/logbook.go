package store

import (
	"fmt"

	"elogy.dev/core/model"
	"gorm.io/gorm"
)

// CreateLogbookTx inserts a new logbook row within tx and returns the domain
// entity. Callers are expected to wrap this in a Store.Transaction.
func CreateLogbookTx(tx *gorm.DB, lb *model.Logbook) (*model.Logbook, error) {
	row := logbookToRow(lb)
	if err := tx.Create(row).Error; err != nil {
		return nil, fmt.Errorf("store: create logbook: %w", err)
	}
	return logbookFromRow(row, 0), nil
}

// GetLogbook loads one logbook by id, or model.ErrNotFound.
func (s *Store) GetLogbook(id int) (*model.Logbook, error) {
	return s.getLogbookTx(s.DB, id)
}

func (s *Store) getLogbookTx(tx *gorm.DB, id int) (*model.Logbook, error) {
	var row LogbookRow
	if err := tx.First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, model.NewNotFound("logbook", id)
		}
		return nil, fmt.Errorf("store: get logbook: %w", err)
	}
	n, err := s.CountLogbookChanges(id)
	if err != nil {
		return nil, err
	}
	return logbookFromRow(&row, n), nil
}

// SaveLogbookTx overwrites an existing logbook row within tx.
func SaveLogbookTx(tx *gorm.DB, lb *model.Logbook) error {
	row := logbookToRow(lb)
	if err := tx.Save(row).Error; err != nil {
		return fmt.Errorf("store: save logbook: %w", err)
	}
	return nil
}

// ListTopLevelLogbooks returns every logbook with no parent.
func (s *Store) ListTopLevelLogbooks(includeArchived bool) ([]*model.Logbook, error) {
	q := s.DB.Where("parent_id IS NULL")
	if !includeArchived {
		q = q.Where("archived = ?", false)
	}
	var rows []LogbookRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list top-level logbooks: %w", err)
	}
	out := make([]*model.Logbook, 0, len(rows))
	for i := range rows {
		n, err := s.CountLogbookChanges(rows[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, logbookFromRow(&rows[i], n))
	}
	return out, nil
}

// ListChildLogbooks returns the immediate children of parentID.
func (s *Store) ListChildLogbooks(parentID int, includeArchived bool) ([]*model.Logbook, error) {
	q := s.DB.Where("parent_id = ?", parentID)
	if !includeArchived {
		q = q.Where("archived = ?", false)
	}
	var rows []LogbookRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list child logbooks: %w", err)
	}
	out := make([]*model.Logbook, 0, len(rows))
	for i := range rows {
		n, err := s.CountLogbookChanges(rows[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, logbookFromRow(&rows[i], n))
	}
	return out, nil
}

// DescendantLogbookIDs returns every non-archived logbook id that is a
// descendant of root (not including root itself), via a recursive CTE.
func (s *Store) DescendantLogbookIDs(root int) ([]int, error) {
	var ids []int
	rows, err := s.DB.Raw(`
		WITH RECURSIVE descendants(id) AS (
			SELECT id FROM logbook WHERE parent_id = ? AND archived = ?
			UNION ALL
			SELECT l.id FROM logbook l
			JOIN descendants d ON l.parent_id = d.id
			WHERE l.archived = ?
		)
		SELECT id FROM descendants
	`, root, false, false).Rows()
	if err != nil {
		return nil, fmt.Errorf("store: descendant logbooks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan descendant id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AncestorLogbookIDs returns every logbook id on the path from id up to the
// forest root (not including id itself).
func (s *Store) AncestorLogbookIDs(id int) ([]int, error) {
	var ids []int
	rows, err := s.DB.Raw(`
		WITH RECURSIVE ancestors(id, parent_id) AS (
			SELECT id, parent_id FROM logbook WHERE id = ?
			UNION ALL
			SELECT l.id, l.parent_id FROM logbook l
			JOIN ancestors a ON l.id = a.parent_id
		)
		SELECT id FROM ancestors WHERE id != ?
	`, id, id).Rows()
	if err != nil {
		return nil, fmt.Errorf("store: ancestor logbooks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var aid int
		if err := rows.Scan(&aid); err != nil {
			return nil, fmt.Errorf("store: scan ancestor id: %w", err)
		}
		ids = append(ids, aid)
	}
	return ids, rows.Err()
}

// WouldCycle reports whether setting child's parent to newParent would
// introduce a cycle in the logbook forest, i.e. newParent is child or a
// descendant of child.
func (s *Store) WouldCycle(child, newParent int) (bool, error) {
	if child == newParent {
		return true, nil
	}
	descendants, err := s.DescendantLogbookIDs(child)
	if err != nil {
		return false, err
	}
	for _, d := range descendants {
		if d == newParent {
			return true, nil
		}
	}
	return false, nil
}

// CreateLogbookChangeTx inserts a Change row for a logbook mutation.
func CreateLogbookChangeTx(tx *gorm.DB, change *model.Change) (*model.Change, error) {
	row := &LogbookChangeRow{
		LogbookID:     change.SubjectID,
		Changed:       JSONChanged(change.Changed),
		Timestamp:     change.Timestamp,
		ChangeAuthors: JSONAuthors(change.ChangeAuthors),
		ChangeComment: change.ChangeComment,
		ChangeIP:      change.ChangeIP,
	}
	if err := tx.Create(row).Error; err != nil {
		return nil, fmt.Errorf("store: create logbook change: %w", err)
	}
	return changeFromLogbookRow(row), nil
}

// CountLogbookChanges returns the number of changes recorded for a logbook,
// which is that logbook's current revision_n.
func (s *Store) CountLogbookChanges(logbookID int) (int, error) {
	var count int64
	if err := s.DB.Model(&LogbookChangeRow{}).Where("logbook_id = ?", logbookID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("store: count logbook changes: %w", err)
	}
	return int(count), nil
}

// ListLogbookChanges returns every change for a logbook, ordered oldest first.
func (s *Store) ListLogbookChanges(logbookID int) ([]*model.Change, error) {
	var rows []LogbookChangeRow
	if err := s.DB.Where("logbook_id = ?", logbookID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list logbook changes: %w", err)
	}
	out := make([]*model.Change, 0, len(rows))
	for i := range rows {
		out = append(out, changeFromLogbookRow(&rows[i]))
	}
	return out, nil
}
