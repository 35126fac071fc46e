package attachment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	coreS3 "elogy.dev/core/storage"
)

// Blobstore is the external filesystem collaborator: the core only records
// paths and content types, and never interprets blob bytes itself beyond
// what the Attachment Pipeline needs (image probing).
type Blobstore interface {
	// Write persists data at relPath, creating any needed directories.
	Write(ctx context.Context, relPath string, data []byte) error
	// Link makes dstRelPath resolve to the same bytes as srcRelPath,
	// hard-linking where possible and falling back to a copy otherwise.
	Link(ctx context.Context, srcRelPath, dstRelPath string) error
	// Read returns the bytes at relPath.
	Read(ctx context.Context, relPath string) ([]byte, error)
}

// LocalBlobstore is the default filesystem-backed Blobstore, rooted at a
// configured UPLOAD_FOLDER.
type LocalBlobstore struct {
	Root string
}

func (l *LocalBlobstore) abs(relPath string) string {
	return filepath.Join(l.Root, filepath.FromSlash(relPath))
}

func (l *LocalBlobstore) Write(_ context.Context, relPath string, data []byte) error {
	full := l.abs(relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("blobstore: mkdir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("blobstore: write: %w", err)
	}
	return nil
}

func (l *LocalBlobstore) Link(_ context.Context, srcRelPath, dstRelPath string) error {
	src, dst := l.abs(srcRelPath), l.abs(dstRelPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("blobstore: mkdir: %w", err)
	}
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	// Hard link failed (e.g. cross-device); fall back to a byte copy.
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("blobstore: read source for copy fallback: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("blobstore: copy fallback write: %w", err)
	}
	return nil
}

func (l *LocalBlobstore) Read(_ context.Context, relPath string) ([]byte, error) {
	data, err := os.ReadFile(l.abs(relPath))
	if err != nil {
		return nil, fmt.Errorf("blobstore: read: %w", err)
	}
	return data, nil
}

// uploadClient is satisfied by *s3.Client (and by any test double that needs
// to exercise multipart behaviour): it is the storage package's S3Client
// abstraction plus the few extra methods manager.Uploader needs to split a
// large object into parts.
type uploadClient interface {
	coreS3.S3Client
	manager.UploadAPIClient
}

// S3Blobstore is the optional S3-backed Blobstore, built on the same
// S3Client abstraction the storage package defines, so it is equally
// exercisable in tests via storage.MockS3Client for the Read/Link paths.
// Writes go through an s3manager.Uploader so an oversized attachment (a
// multi-page PDF, a raw camera image) is split into multipart upload parts
// instead of buffering the whole object into one PutObject call.
type S3Blobstore struct {
	Client   coreS3.S3Client
	Bucket   string
	uploader *manager.Uploader
}

// NewS3Blobstore constructs an S3Blobstore backed by client, wiring an
// upload manager over the same connection for Write.
func NewS3Blobstore(client uploadClient, bucket string) *S3Blobstore {
	return &S3Blobstore{
		Client:   client,
		Bucket:   bucket,
		uploader: newMultipartUploader(client),
	}
}

func (s *S3Blobstore) Write(ctx context.Context, relPath string, data []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(relPath),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("s3 blobstore: put %s: %w", relPath, err)
	}
	return nil
}

// Link has no native hard-link equivalent in S3; it copies the bytes under
// the destination key instead.
func (s *S3Blobstore) Link(ctx context.Context, srcRelPath, dstRelPath string) error {
	data, err := s.Read(ctx, srcRelPath)
	if err != nil {
		return err
	}
	return s.Write(ctx, dstRelPath, data)
}

func (s *S3Blobstore) Read(ctx context.Context, relPath string) ([]byte, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(relPath),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 blobstore: get %s: %w", relPath, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func newMultipartUploader(client manager.UploadAPIClient) *manager.Uploader {
	return manager.NewUploader(client)
}
