package search

import (
	"testing"
	"time"

	"elogy.dev/core/model"
	"elogy.dev/core/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(discard{})
	s, err := store.Open(store.Config{Driver: "sqlite", DatabaseName: "file::memory:?cache=shared"}, logger)
	require.NoError(t, err)
	return s
}

func createLogbook(t *testing.T, s *store.Store, name string, parent *int) *model.Logbook {
	t.Helper()
	var lb *model.Logbook
	err := s.Transaction(func(tx *gorm.DB) error {
		var err error
		lb, err = store.CreateLogbookTx(tx, &model.Logbook{Name: name, ParentID: parent, CreatedAt: time.Now().UTC()})
		return err
	})
	require.NoError(t, err)
	return lb
}

func createEntry(t *testing.T, s *store.Store, logbookID, priority int, follows *int) *model.Entry {
	t.Helper()
	var e *model.Entry
	err := s.Transaction(func(tx *gorm.DB) error {
		var err error
		e, err = store.CreateEntryTx(tx, &model.Entry{
			LogbookID:   logbookID,
			ContentType: "text/html; charset=UTF-8",
			Priority:    priority,
			Follows:     follows,
			CreatedAt:   time.Now().UTC(),
		})
		return err
	})
	require.NoError(t, err)
	return e
}

// TestImportantEntryInheritance exercises I-priority: a search over a
// logbook with child_logbooks=true returns every entry in a descendant plus
// every important (priority > 100) entry in an ancestor, and no others.
func TestImportantEntryInheritance(t *testing.T) {
	s := newTestStore(t)
	parent := createLogbook(t, s, "L", nil)
	child := createLogbook(t, s, "C", &parent.ID)

	e1 := createEntry(t, s, parent.ID, model.PriorityImportant, nil)
	e2 := createEntry(t, s, child.ID, model.PriorityNormal, nil)

	rows, _, err := Run(s, Filter{LogbookID: &child.ID, ChildLogbooks: true, SortByTimestamp: true})
	require.NoError(t, err)
	ids := rowIDs(rows)
	require.ElementsMatch(t, []int{e1.ID, e2.ID}, ids)

	rows, _, err = Run(s, Filter{LogbookID: &child.ID, ChildLogbooks: false})
	require.NoError(t, err)
	ids = rowIDs(rows)
	require.ElementsMatch(t, []int{e2.ID}, ids)
}

// TestPinnedEntryNotBubbledAncestor confirms the priority > 100 threshold:
// a merely pinned (100) ancestor entry does not bubble down, only entries
// above 100 (such as important ones, 200) do.
func TestPinnedEntryNotBubbledAncestor(t *testing.T) {
	s := newTestStore(t)
	parent := createLogbook(t, s, "L", nil)
	child := createLogbook(t, s, "C", &parent.ID)

	createEntry(t, s, parent.ID, model.PriorityPinned, nil)
	e2 := createEntry(t, s, child.ID, model.PriorityNormal, nil)

	rows, _, err := Run(s, Filter{LogbookID: &child.ID, ChildLogbooks: true})
	require.NoError(t, err)
	require.ElementsMatch(t, []int{e2.ID}, rowIDs(rows))
}

// TestThreadGroupingAndTimestamp exercises I-thread: a grouped (non-text-
// filtered) search collapses a thread to its root row, whose timestamp is
// the max of (last_changed_at, created_at) over the root and its followups.
func TestThreadGroupingAndTimestamp(t *testing.T) {
	s := newTestStore(t)
	lb := createLogbook(t, s, "L", nil)

	root := createEntry(t, s, lb.ID, model.PriorityNormal, nil)
	followup := createEntry(t, s, lb.ID, model.PriorityNormal, &root.ID)

	rows, total, err := Run(s, Filter{LogbookID: &lb.ID, SortByTimestamp: true})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, rows, 1)
	require.Equal(t, root.ID, rows[0].Entry.ID)
	require.Equal(t, 1, rows[0].NFollowups)
	require.True(t, rows[0].Timestamp.Equal(followup.CreatedAt) || rows[0].Timestamp.After(followup.CreatedAt))
}

// TestFollowupsStandaloneWhenFollowupsFlagSet confirms followups=true returns
// individual rows instead of collapsing to thread roots.
func TestFollowupsStandaloneWhenFollowupsFlagSet(t *testing.T) {
	s := newTestStore(t)
	lb := createLogbook(t, s, "L", nil)

	root := createEntry(t, s, lb.ID, model.PriorityNormal, nil)
	followup := createEntry(t, s, lb.ID, model.PriorityNormal, &root.ID)

	rows, total, err := Run(s, Filter{LogbookID: &lb.ID, Followups: true})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.ElementsMatch(t, []int{root.ID, followup.ID}, rowIDs(rows))
}

func rowIDs(rows []ThreadRow) []int {
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Entry.ID)
	}
	return out
}
