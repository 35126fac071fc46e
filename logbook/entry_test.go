package logbook

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const onePxPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNk+A8AAQUBAScY42YAAAAASUVORK5CYII="

func TestInlineImageExtraction(t *testing.T) {
	svc := newTestService(t)
	lb, err := svc.CreateLogbook(CreateLogbookInput{Name: "L"})
	require.NoError(t, err)

	_, err = base64.StdEncoding.DecodeString(onePxPNG)
	require.NoError(t, err)

	content := `<p><img src="data:image/png;base64,` + onePxPNG + `"></p>`
	e, err := svc.CreateEntry(CreateEntryInput{LogbookID: lb.ID, Content: &content})
	require.NoError(t, err)

	require.NotNil(t, e.Content)
	require.True(t, strings.Contains(*e.Content, `<a href="/attachments/`))
	require.True(t, strings.Contains(*e.Content, `<img src="/attachments/`))

	attachments, err := svc.Store.ListAttachmentsForEntry(e.ID)
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	require.EqualValues(t, 1, attachments[0].Metadata["width"])
	require.EqualValues(t, 1, attachments[0].Metadata["height"])
}

func TestPriorityOnlyEditDoesNotBumpLastChangedAt(t *testing.T) {
	svc := newTestService(t)
	lb, err := svc.CreateLogbook(CreateLogbookInput{Name: "L"})
	require.NoError(t, err)

	e, err := svc.CreateEntry(CreateEntryInput{LogbookID: lb.ID})
	require.NoError(t, err)
	require.Nil(t, e.LastChangedAt)

	rev0 := 0
	newPriority := 50
	updated, err := svc.UpdateEntry(UpdateEntryInput{ID: e.ID, RevisionN: &rev0, Priority: &newPriority})
	require.NoError(t, err)
	require.Equal(t, 50, updated.Priority)
	require.Nil(t, updated.LastChangedAt)
}

func TestFollowupMustNotBeImportant(t *testing.T) {
	svc := newTestService(t)
	lb, err := svc.CreateLogbook(CreateLogbookInput{Name: "L"})
	require.NoError(t, err)

	root, err := svc.CreateEntry(CreateEntryInput{LogbookID: lb.ID})
	require.NoError(t, err)

	_, err = svc.CreateEntry(CreateEntryInput{LogbookID: lb.ID, Follows: &root.ID, Priority: 200})
	require.Error(t, err)
}
