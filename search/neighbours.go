package search

import (
	"sort"
	"time"

	"elogy.dev/core/model"
	"elogy.dev/core/store"
)

// Neighbours returns the entry immediately before and after e within its
// logbook's thread-root ordering, for "previous/next" navigation between
// entries. Order is `(coalesce(last_changed_at, created_at), id)`, the
// canonical tiebreak for entries whose timestamps can otherwise collide.
func Neighbours(s *store.Store, e *model.Entry) (prev, next *model.Entry, err error) {
	siblings, err := s.FindEntriesInLogbooks([]int{e.LogbookID}, false)
	if err != nil {
		return nil, nil, err
	}

	roots := make([]*model.Entry, 0, len(siblings))
	for _, sib := range siblings {
		if sib.Follows == nil {
			roots = append(roots, sib)
		}
	}

	coalesce := func(e *model.Entry) time.Time {
		if e.LastChangedAt != nil {
			return *e.LastChangedAt
		}
		return e.CreatedAt
	}
	sort.Slice(roots, func(i, j int) bool {
		ti, tj := coalesce(roots[i]), coalesce(roots[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return roots[i].ID < roots[j].ID
	})

	idx := -1
	for i, r := range roots {
		if r.ID == e.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, nil, nil
	}
	if idx > 0 {
		prev = roots[idx-1]
	}
	if idx < len(roots)-1 {
		next = roots[idx+1]
	}
	return prev, next, nil
}
