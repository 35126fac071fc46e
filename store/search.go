package store

import (
	"fmt"

	"elogy.dev/core/model"
)

// FindEntriesInLogbooks returns every entry (optionally including archived
// ones) whose logbook id is in ids. Used by the search package to assemble
// the candidate set for a scoped query before applying text/attribute
// filters in process.
func (s *Store) FindEntriesInLogbooks(ids []int, includeArchived bool) ([]*model.Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := s.DB.Where("logbook_id IN ?", ids)
	if !includeArchived {
		q = q.Where("archived = ?", false)
	}
	var rows []EntryRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: find entries in logbooks: %w", err)
	}
	return s.hydrateEntries(rows)
}

// FindEntriesInLogbooksWithMinPriority returns entries scoped to ids whose
// priority is strictly greater than minPriority, so important entries bubble
// down from ancestor logbooks.
func (s *Store) FindEntriesInLogbooksWithMinPriority(ids []int, minPriority int, includeArchived bool) ([]*model.Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := s.DB.Where("logbook_id IN ? AND priority > ?", ids, minPriority)
	if !includeArchived {
		q = q.Where("archived = ?", false)
	}
	var rows []EntryRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: find priority entries: %w", err)
	}
	return s.hydrateEntries(rows)
}

func (s *Store) hydrateEntries(rows []EntryRow) ([]*model.Entry, error) {
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

// AllNonArchivedLogbookIDs returns every logbook id whose archived flag is
// false, used for the global (no-scope) search case.
func (s *Store) AllNonArchivedLogbookIDs() ([]int, error) {
	var ids []int
	if err := s.DB.Model(&LogbookRow{}).Where("archived = ?", false).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("store: list non-archived logbook ids: %w", err)
	}
	return ids, nil
}
