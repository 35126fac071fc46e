package search

import (
	"sort"

	"elogy.dev/core/model"
	"elogy.dev/core/store"
)

// DistinctAttributeValues returns the distinct values of attribute name held
// by the non-archived entries of logbookID, sorted, for client-side
// attribute-value autocomplete. Text and option values are collected as-is
// and multioption values item by item; number and boolean values are not
// collected. It is a pure read helper, not a validation or auth concern.
func DistinctAttributeValues(s *store.Store, logbookID int, name string) ([]string, error) {
	entries, err := s.FindEntriesInLogbooks([]int{logbookID}, false)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		v, ok := e.Attributes[name]
		if !ok {
			continue
		}
		switch v.Kind {
		case model.KindMultiOption:
			for _, item := range v.MultiOption {
				seen[item] = true
			}
		default:
			if raw := v.Raw(); raw != nil {
				if str, ok := raw.(string); ok {
					seen[str] = true
				}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}
