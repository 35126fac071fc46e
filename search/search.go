// Package search implements the Search Engine: composable filters over
// logbook subtrees with priority inheritance, followup
// aggregation into threads, and pagination.
package search

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"time"

	"elogy.dev/core/model"
	"elogy.dev/core/store"
)

// NameValue is one (name, value) pair for attribute/metadata substring filters.
type NameValue struct {
	Name  string
	Value string
}

// Filter holds every input to Run.
type Filter struct {
	LogbookID        *int
	ChildLogbooks    bool
	IncludeArchived  bool
	ContentFilter    *regexp.Regexp
	TitleFilter      *regexp.Regexp
	AuthorFilter     *regexp.Regexp
	AttachmentFilter *regexp.Regexp
	AttributeFilter  []NameValue
	MetadataFilter   []NameValue
	FromTimestamp    *time.Time
	UntilTimestamp   *time.Time
	Followups        bool
	SortByTimestamp  bool
	N                int
	Offset           int
	CountOnly        bool
}

// ThreadRow is one result row: a thread grouped by coalesce(follows_id, id),
// or a standalone followup when a text filter is active.
type ThreadRow struct {
	Entry           *model.Entry
	NFollowups      int
	Timestamp       time.Time
	FollowupAuthors []model.Author
}

// hasTextFilter reports whether Run should yield standalone followup rows
// instead of collapsing them into their thread's root row.
func (f Filter) hasTextFilter() bool {
	return f.ContentFilter != nil || f.TitleFilter != nil || f.AuthorFilter != nil ||
		f.AttachmentFilter != nil || len(f.AttributeFilter) > 0 || len(f.MetadataFilter) > 0
}

// Run executes the search and returns the matching rows plus the total count
// before pagination. When f.CountOnly is set, rows is nil and only the count
// is meaningful.
func Run(s *store.Store, f Filter) ([]ThreadRow, int, error) {
	entries, err := scopedEntries(s, f)
	if err != nil {
		return nil, 0, err
	}

	byID := make(map[int]*model.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	matched := make([]*model.Entry, 0, len(entries))
	for _, e := range entries {
		if matches(s, e, f) {
			matched = append(matched, e)
		}
	}

	standalone := f.Followups || f.hasTextFilter()

	var rows []ThreadRow
	if standalone {
		for _, e := range matched {
			rows = append(rows, ThreadRow{Entry: e, Timestamp: entryTimestamp(e)})
		}
	} else {
		rows, err = groupThreads(s, matched, byID, f)
		if err != nil {
			return nil, 0, err
		}
	}

	sortRows(rows, f.SortByTimestamp)

	total := len(rows)
	if f.CountOnly {
		return nil, total, nil
	}

	rows = paginate(rows, f.N, f.Offset)
	return rows, total, nil
}

func entryTimestamp(e *model.Entry) time.Time {
	if e.LastChangedAt != nil && e.LastChangedAt.After(e.CreatedAt) {
		return *e.LastChangedAt
	}
	return e.CreatedAt
}

// scopedEntries implements the three logbook-scoping rules: a single
// logbook, a logbook plus its descendants (with important entries bubbling
// down from ancestors), or every non-archived logbook.
func scopedEntries(s *store.Store, f Filter) ([]*model.Entry, error) {
	if f.LogbookID == nil {
		ids, err := s.AllNonArchivedLogbookIDs()
		if err != nil {
			return nil, err
		}
		return s.FindEntriesInLogbooks(ids, f.IncludeArchived)
	}

	if !f.ChildLogbooks {
		return s.FindEntriesInLogbooks([]int{*f.LogbookID}, f.IncludeArchived)
	}

	descendants, err := s.DescendantLogbookIDs(*f.LogbookID)
	if err != nil {
		return nil, err
	}
	scopeIDs := append([]int{*f.LogbookID}, descendants...)
	inScope, err := s.FindEntriesInLogbooks(scopeIDs, f.IncludeArchived)
	if err != nil {
		return nil, err
	}

	ancestors, err := s.AncestorLogbookIDs(*f.LogbookID)
	if err != nil {
		return nil, err
	}
	important, err := s.FindEntriesInLogbooksWithMinPriority(ancestors, model.PriorityPinned, f.IncludeArchived)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(inScope))
	out := make([]*model.Entry, 0, len(inScope)+len(important))
	for _, e := range inScope {
		if !seen[e.ID] {
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	for _, e := range important {
		if !seen[e.ID] {
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	return out, nil
}

func matches(s *store.Store, e *model.Entry, f Filter) bool {
	if f.TitleFilter != nil {
		title := ""
		if e.Title != nil {
			title = *e.Title
		}
		if !f.TitleFilter.MatchString(title) {
			return false
		}
	}
	if f.ContentFilter != nil {
		content := ""
		if e.Content != nil {
			content = *e.Content
		}
		if !f.ContentFilter.MatchString(content) {
			return false
		}
	}
	if f.AuthorFilter != nil && !matchAuthors(f.AuthorFilter, e.Authors) {
		return false
	}
	if f.AttachmentFilter != nil {
		attachments, err := s.ListAttachmentsForEntry(e.ID)
		if err != nil {
			return false
		}
		if !matchAttachments(f.AttachmentFilter, attachments) {
			return false
		}
	}
	for _, av := range f.AttributeFilter {
		if !attributeSubstringMatch(e.Attributes, av) {
			return false
		}
	}
	for _, mv := range f.MetadataFilter {
		if !metadataSubstringMatch(e.Metadata, mv) {
			return false
		}
	}
	if f.FromTimestamp != nil && entryTimestamp(e).Before(*f.FromTimestamp) {
		return false
	}
	if f.UntilTimestamp != nil && entryTimestamp(e).After(*f.UntilTimestamp) {
		return false
	}
	return true
}

func matchAuthors(re *regexp.Regexp, authors []model.Author) bool {
	for _, a := range authors {
		if re.MatchString(a.Name) || re.MatchString(a.Login) || re.MatchString(a.Email) {
			return true
		}
	}
	return false
}

func matchAttachments(re *regexp.Regexp, attachments []*model.Attachment) bool {
	for _, a := range attachments {
		if re.MatchString(a.Filename) || re.MatchString(a.OriginalFilename) {
			return true
		}
	}
	return false
}

// attributeSubstringMatch does a substring match on the JSON-encoded
// attribute value, which lets it match multioption values too.
func attributeSubstringMatch(attrs map[string]model.AttributeValue, nv NameValue) bool {
	v, ok := attrs[nv.Name]
	if !ok {
		return false
	}
	b, err := json.Marshal(v.Raw())
	if err != nil {
		return false
	}
	return strings.Contains(string(b), nv.Value)
}

func metadataSubstringMatch(metadata map[string]interface{}, nv NameValue) bool {
	v, ok := metadata[nv.Name]
	if !ok {
		return false
	}
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return strings.Contains(string(b), nv.Value)
}

// groupThreads collapses matched entries to one row per thread root
// (coalesce(follows_id, id)), aggregating followup count, thread timestamp,
// and followup author sets.
func groupThreads(s *store.Store, matched []*model.Entry, byID map[int]*model.Entry, f Filter) ([]ThreadRow, error) {
	rootIDs := make(map[int]bool)
	for _, e := range matched {
		rootIDs[threadRootID(e)] = true
	}

	rows := make([]ThreadRow, 0, len(rootIDs))
	for rootID := range rootIDs {
		root, ok := byID[rootID]
		if !ok {
			var err error
			root, err = s.GetEntry(rootID)
			if err != nil {
				continue
			}
		}
		followups, err := s.ListFollowups(rootID)
		if err != nil {
			return nil, err
		}

		ts := entryTimestamp(root)
		var followupAuthors []model.Author
		nFollowups := 0
		for _, fu := range followups {
			if fu.Archived && !f.IncludeArchived {
				continue
			}
			nFollowups++
			if t := entryTimestamp(fu); t.After(ts) {
				ts = t
			}
			followupAuthors = append(followupAuthors, fu.Authors...)
		}

		rows = append(rows, ThreadRow{
			Entry:           root,
			NFollowups:      nFollowups,
			Timestamp:       ts,
			FollowupAuthors: followupAuthors,
		})
	}
	return rows, nil
}

func threadRootID(e *model.Entry) int {
	if e.Follows != nil {
		return *e.Follows
	}
	return e.ID
}

// sortRows orders rows by priority DESC, timestamp DESC (or id DESC when
// SortByTimestamp is false), ties broken by id DESC.
func sortRows(rows []ThreadRow, byTimestamp bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Entry, rows[j].Entry
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if byTimestamp {
			ti, tj := rows[i].Timestamp, rows[j].Timestamp
			if !ti.Equal(tj) {
				return ti.After(tj)
			}
		}
		return a.ID > b.ID
	})
}

func paginate(rows []ThreadRow, n, offset int) []ThreadRow {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if n > 0 && n < len(rows) {
		rows = rows[:n]
	}
	return rows
}
