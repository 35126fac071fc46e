package logbook

import (
	"testing"

	"elogy.dev/core/action"
	"elogy.dev/core/attachment"
	"elogy.dev/core/model"
	"elogy.dev/core/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(discard{})

	s, err := store.Open(store.Config{Driver: "sqlite", DatabaseName: "file:" + t.Name() + "?mode=memory&cache=shared"}, logger)
	require.NoError(t, err)

	pipeline := &attachment.Pipeline{
		Blobs: &attachment.LocalBlobstore{Root: t.TempDir()},
		Store: s,
	}
	dispatcher := action.New(logger, 1, 8)
	t.Cleanup(dispatcher.Close)

	return New(s, pipeline, dispatcher, logger)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestCreateReadBackRevision(t *testing.T) {
	svc := newTestService(t)

	lb, err := svc.CreateLogbook(CreateLogbookInput{Name: "Test"})
	require.NoError(t, err)

	title := "t"
	content := "c"
	e, err := svc.CreateEntry(CreateEntryInput{
		LogbookID: lb.ID,
		Title:     &title,
		Content:   &content,
	})
	require.NoError(t, err)
	require.Equal(t, 0, e.RevisionN)

	rev0 := 0
	title2 := "t2"
	updated, err := svc.UpdateEntry(UpdateEntryInput{ID: e.ID, RevisionN: &rev0, Title: &title2})
	require.NoError(t, err)
	require.Equal(t, 1, updated.RevisionN)
	require.Equal(t, "t2", *updated.Title)

	old, err := svc.GetEntryRevision(e.ID, 0)
	require.NoError(t, err)
	require.Equal(t, "t", *old.Title)

	changes, err := svc.Store.ListEntryChanges(e.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, "t", changes[0].Changed["title"])
}

func TestStaleUpdateRejected(t *testing.T) {
	svc := newTestService(t)
	lb, err := svc.CreateLogbook(CreateLogbookInput{Name: "L"})
	require.NoError(t, err)

	title := "t"
	e, err := svc.CreateEntry(CreateEntryInput{LogbookID: lb.ID, Title: &title})
	require.NoError(t, err)

	newTitle := "t2"
	_, err = svc.UpdateEntry(UpdateEntryInput{ID: e.ID, Title: &newTitle})
	require.Error(t, err)
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)

	stale := 99
	_, err = svc.UpdateEntry(UpdateEntryInput{ID: e.ID, RevisionN: &stale, Title: &newTitle})
	require.Error(t, err)
	var cs *model.ConflictStaleError
	require.ErrorAs(t, err, &cs)

	rev0 := 0
	_, err = svc.UpdateEntry(UpdateEntryInput{ID: e.ID, RevisionN: &rev0, Title: &newTitle})
	require.NoError(t, err)
}

func TestLeafLogbookHasNoDescendants(t *testing.T) {
	svc := newTestService(t)

	parent, err := svc.CreateLogbook(CreateLogbookInput{Name: "L"})
	require.NoError(t, err)
	child, err := svc.CreateLogbook(CreateLogbookInput{Name: "C", ParentID: &parent.ID})
	require.NoError(t, err)

	_, err = svc.CreateEntry(CreateEntryInput{LogbookID: parent.ID, Priority: model.PriorityImportant})
	require.NoError(t, err)
	_, err = svc.CreateEntry(CreateEntryInput{LogbookID: child.ID, Priority: model.PriorityNormal})
	require.NoError(t, err)

	descendants, err := svc.Store.DescendantLogbookIDs(child.ID)
	require.NoError(t, err)
	require.Empty(t, descendants)
}

func TestAttributeCoercionRequiredMissing(t *testing.T) {
	svc := newTestService(t)
	lb, err := svc.CreateLogbook(CreateLogbookInput{
		Name: "L",
		Attributes: []model.AttributeSpec{
			{Name: "a", Type: model.AttributeNumber, Required: true},
			{Name: "b", Type: model.AttributeMultiOption, Options: []string{"x", "y", "z"}},
		},
	})
	require.NoError(t, err)

	_, err = svc.CreateEntry(CreateEntryInput{LogbookID: lb.ID, Attributes: map[string]interface{}{}})
	require.Error(t, err)
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	require.True(t, ve.Attribute)

	e, err := svc.CreateEntry(CreateEntryInput{
		LogbookID: lb.ID,
		Attributes: map[string]interface{}{
			"a": "3.5",
			"b": []interface{}{"x", "y"},
			"c": "ignored",
		},
	})
	require.NoError(t, err)
	require.Equal(t, 3.5, e.Attributes["a"].Number)
	require.ElementsMatch(t, []string{"x", "y"}, e.Attributes["b"].MultiOption)
	_, hasC := e.Attributes["c"]
	require.False(t, hasC)
}

func TestDuplicateAttributeNameRejected(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateLogbook(CreateLogbookInput{
		Name: "L",
		Attributes: []model.AttributeSpec{
			{Name: "a", Type: model.AttributeText},
			{Name: "a", Type: model.AttributeNumber},
		},
	})
	require.Error(t, err)
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)

	lb, err := svc.CreateLogbook(CreateLogbookInput{
		Name: "M",
		Attributes: []model.AttributeSpec{
			{Name: "a", Type: model.AttributeText},
		},
	})
	require.NoError(t, err)

	_, err = svc.UpdateLogbook(UpdateLogbookInput{
		ID:        lb.ID,
		RevisionN: &lb.RevisionN,
		Attributes: []model.AttributeSpec{
			{Name: "a", Type: model.AttributeText},
			{Name: "a", Type: model.AttributeNumber},
		},
	})
	require.Error(t, err)
	require.ErrorAs(t, err, &ve)
}

func TestTreeExcludesArchived(t *testing.T) {
	svc := newTestService(t)

	parent, err := svc.CreateLogbook(CreateLogbookInput{Name: "Parent"})
	require.NoError(t, err)
	child, err := svc.CreateLogbook(CreateLogbookInput{Name: "Child", ParentID: &parent.ID})
	require.NoError(t, err)
	_, err = svc.CreateLogbook(CreateLogbookInput{Name: "Archived", ParentID: &parent.ID, Archived: true})
	require.NoError(t, err)

	tree, err := svc.Tree(nil)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Equal(t, parent.ID, tree[0].ID)
	require.Len(t, tree[0].Children, 1)
	require.Equal(t, child.ID, tree[0].Children[0].ID)

	sub, err := svc.Tree(&parent.ID)
	require.NoError(t, err)
	require.Len(t, sub, 1)
	require.Equal(t, parent.ID, sub[0].ID)
	require.Len(t, sub[0].Children, 1)
}

func TestFollowsMustBeSameLogbook(t *testing.T) {
	svc := newTestService(t)
	a, err := svc.CreateLogbook(CreateLogbookInput{Name: "A"})
	require.NoError(t, err)
	b, err := svc.CreateLogbook(CreateLogbookInput{Name: "B"})
	require.NoError(t, err)

	root, err := svc.CreateEntry(CreateEntryInput{LogbookID: a.ID})
	require.NoError(t, err)

	_, err = svc.CreateEntry(CreateEntryInput{LogbookID: b.ID, Follows: &root.ID})
	require.Error(t, err)
	var ie *model.IntegrityError
	require.ErrorAs(t, err, &ie)
}
