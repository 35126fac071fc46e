package attachment

import (
	"context"
	"testing"

	"elogy.dev/core/storage"
	"github.com/stretchr/testify/require"
)

func TestS3BlobstoreWriteReadLink(t *testing.T) {
	client := storage.NewMockS3Client()
	bs := NewS3Blobstore(client, "elogy-attachments")

	ctx := context.Background()
	data := []byte("inline image bytes")

	err := bs.Write(ctx, "2026/07/29/1-inline-4-0.png", data)
	require.NoError(t, err)
	require.True(t, client.PutObjectCalled)
	require.Equal(t, "elogy-attachments", client.LastBucket)
	require.Equal(t, "2026/07/29/1-inline-4-0.png", client.LastObjectKey)

	got, err := bs.Read(ctx, "2026/07/29/1-inline-4-0.png")
	require.NoError(t, err)
	require.Equal(t, data, got)

	err = bs.Link(ctx, "2026/07/29/1-inline-4-0.png", "2026/07/29/1-inline-4-0-thumb.png")
	require.NoError(t, err)

	linked, err := bs.Read(ctx, "2026/07/29/1-inline-4-0-thumb.png")
	require.NoError(t, err)
	require.Equal(t, data, linked)
}

func TestS3BlobstoreReadMissingKey(t *testing.T) {
	client := storage.NewMockS3Client()
	bs := NewS3Blobstore(client, "elogy-attachments")

	_, err := bs.Read(context.Background(), "does/not/exist.png")
	require.Error(t, err)
}
