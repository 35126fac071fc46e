package logbook

import (
	"context"
	"fmt"
	"time"

	"elogy.dev/core/attachment"
	"elogy.dev/core/model"
	"gorm.io/gorm"
)

// inlineSaver adapts the Attachment Pipeline to attachment.InlineImageSaver
// for content processed inside a CreateEntry/UpdateEntry transaction.
// Saved attachments are unbound (entryID nil) until the caller binds them
// to the owning entry inside that same transaction.
type inlineSaver struct {
	tx       *gorm.DB
	pipeline *attachment.Pipeline
	now      time.Time
	index    int
	saved    []*model.Attachment
}

func (s *inlineSaver) SaveInlineImage(ctx context.Context, data []byte, subtype string) (string, error) {
	name := fmt.Sprintf("inline-%d-%d.%s", len(data), s.index, attachment.ExtForSubtype(subtype))
	s.index++

	a, err := s.pipeline.SaveTx(ctx, s.tx, name, "image/"+subtype, data, true, nil, s.now)
	if err != nil {
		return "", err
	}
	s.saved = append(s.saved, a)
	return attachment.AttachmentURL(a), nil
}
