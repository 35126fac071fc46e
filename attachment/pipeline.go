package attachment

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"elogy.dev/core/media"
	"elogy.dev/core/model"
	"elogy.dev/core/store"
	"gorm.io/gorm"
)

// Pipeline implements the Attachment save operation: it owns the Blobstore
// and Store collaborators and is the single place attachment bytes are
// written, thumbnailed, and recorded.
type Pipeline struct {
	Blobs Blobstore
	Store *store.Store
}

// SaveResult is what a save produces: the persisted Attachment plus the
// thumbnail bytes, when one was generated, so a caller that also needs to
// serve the thumbnail immediately doesn't have to re-read it.
type SaveResult struct {
	Attachment *model.Attachment
	Thumbnail  []byte
}

// Save writes data through the pipeline and returns the persisted Attachment.
// entryID is nil when the owning entry does not exist yet (e.g. inline
// images extracted while composing a new entry); callers re-bind it once
// the entry is created.
func (p *Pipeline) Save(ctx context.Context, originalFilename, contentType string, data []byte, embedded bool, entryID *int, now time.Time) (*SaveResult, error) {
	today := now.UTC().Format("2006/01/02")
	filename := fmt.Sprintf("%d-%s", now.UTC().Unix(), SanitizeFilename(originalFilename))
	relPath := path.Join(today, filename)

	if err := p.Blobs.Write(ctx, relPath, data); err != nil {
		return nil, fmt.Errorf("attachment: save: %w", err)
	}

	metadata := map[string]interface{}{}
	var thumb []byte
	if strings.HasPrefix(contentType, "image/") {
		thumbBytes, width, height, err := media.Thumbnail(data, 100, 100)
		if err == nil {
			metadata["width"] = width
			metadata["height"] = height
			if thumbBytes != nil {
				thumbRelPath := relPath + ".thumbnail"
				if err := p.Blobs.Write(ctx, thumbRelPath, thumbBytes); err == nil {
					metadata["thumbnail_size"] = len(thumbBytes)
					thumb = thumbBytes
				}
			} else {
				// Already within bounds: the thumbnail is the original, linked
				// rather than duplicated.
				thumbRelPath := relPath + ".thumbnail"
				if err := p.Blobs.Link(ctx, relPath, thumbRelPath); err == nil {
					metadata["thumbnail_size"] = len(data)
					thumb = data
				}
			}
		}
	}

	a := &model.Attachment{
		EntryID:          entryID,
		Filename:         filename,
		OriginalFilename: originalFilename,
		Timestamp:        now,
		Path:             relPath,
		ContentType:      contentType,
		Embedded:         embedded,
		Metadata:         metadata,
	}

	saved, err := store.CreateAttachmentTx(p.Store.DB, a)
	if err != nil {
		return nil, err
	}
	return &SaveResult{Attachment: saved, Thumbnail: thumb}, nil
}

// SaveTx is Save scoped to an existing transaction, for callers (logbook
// package) composing the attachment save into a larger entry create/update
// transaction.
func (p *Pipeline) SaveTx(ctx context.Context, tx *gorm.DB, originalFilename, contentType string, data []byte, embedded bool, entryID *int, now time.Time) (*model.Attachment, error) {
	today := now.UTC().Format("2006/01/02")
	filename := fmt.Sprintf("%d-%s", now.UTC().Unix(), SanitizeFilename(originalFilename))
	relPath := path.Join(today, filename)

	if err := p.Blobs.Write(ctx, relPath, data); err != nil {
		return nil, fmt.Errorf("attachment: save: %w", err)
	}

	metadata := map[string]interface{}{}
	if strings.HasPrefix(contentType, "image/") {
		thumbBytes, width, height, err := media.Thumbnail(data, 100, 100)
		if err == nil {
			metadata["width"] = width
			metadata["height"] = height
			thumbRelPath := relPath + ".thumbnail"
			if thumbBytes != nil {
				if err := p.Blobs.Write(ctx, thumbRelPath, thumbBytes); err == nil {
					metadata["thumbnail_size"] = len(thumbBytes)
				}
			} else if err := p.Blobs.Link(ctx, relPath, thumbRelPath); err == nil {
				metadata["thumbnail_size"] = len(data)
			}
		}
	}

	a := &model.Attachment{
		EntryID:          entryID,
		Filename:         filename,
		OriginalFilename: originalFilename,
		Timestamp:        now,
		Path:             relPath,
		ContentType:      contentType,
		Embedded:         embedded,
		Metadata:         metadata,
	}
	return store.CreateAttachmentTx(tx, a)
}

// inlineImageSaver adapts a Pipeline to attachment.InlineImageSaver for the
// HTML content pipeline: inline images are saved as embedded attachments
// with no owning entry until the caller rebinds them.
type inlineImageSaver struct {
	pipeline *Pipeline
	index    int
	now      time.Time
}

// NewInlineImageSaver returns an InlineImageSaver backed by p, numbering
// synthesised filenames sequentially starting at 0 as ProcessContent
// encounters them, named `inline-<size>-<index>.<ext>`.
func NewInlineImageSaver(p *Pipeline, now time.Time) InlineImageSaver {
	return &inlineImageSaver{pipeline: p, now: now}
}

func (s *inlineImageSaver) SaveInlineImage(ctx context.Context, data []byte, subtype string) (string, error) {
	name := fmt.Sprintf("inline-%d-%d.%s", len(data), s.index, ExtForSubtype(subtype))
	s.index++

	res, err := s.pipeline.Save(ctx, name, "image/"+subtype, data, true, nil, s.now)
	if err != nil {
		return "", err
	}
	return AttachmentURL(res.Attachment), nil
}

// AttachmentURL is the canonical URL an attachment is referenced by once
// saved; the api package mounts the matching GET /attachments/{path} route.
func AttachmentURL(a *model.Attachment) string {
	return "/attachments/" + a.Path
}
