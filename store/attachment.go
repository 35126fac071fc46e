package store

import (
	"fmt"

	"elogy.dev/core/model"
	"gorm.io/gorm"
)

// CreateAttachmentTx inserts a new attachment row within tx.
func CreateAttachmentTx(tx *gorm.DB, a *model.Attachment) (*model.Attachment, error) {
	row := attachmentToRow(a)
	if err := tx.Create(row).Error; err != nil {
		return nil, fmt.Errorf("store: create attachment: %w", err)
	}
	return attachmentFromRow(row), nil
}

// GetAttachment loads one attachment by id, or model.ErrNotFound.
func (s *Store) GetAttachment(id int) (*model.Attachment, error) {
	var row AttachmentRow
	if err := s.DB.First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, model.NewNotFound("attachment", id)
		}
		return nil, fmt.Errorf("store: get attachment: %w", err)
	}
	return attachmentFromRow(&row), nil
}

// GetAttachmentByPath loads one attachment by its stable storage path.
func (s *Store) GetAttachmentByPath(path string) (*model.Attachment, error) {
	var row AttachmentRow
	if err := s.DB.First(&row, "path = ?", path).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, model.NewNotFound("attachment", path)
		}
		return nil, fmt.Errorf("store: get attachment by path: %w", err)
	}
	return attachmentFromRow(&row), nil
}

// BindAttachmentTx sets the owning entry id on a previously-unbound attachment.
func BindAttachmentTx(tx *gorm.DB, attachmentID, entryID int) error {
	if err := tx.Model(&AttachmentRow{}).Where("id = ?", attachmentID).
		Update("entry_id", entryID).Error; err != nil {
		return fmt.Errorf("store: bind attachment: %w", err)
	}
	return nil
}

// ListAttachmentsForEntry returns every non-archived attachment bound to entryID.
func (s *Store) ListAttachmentsForEntry(entryID int) ([]*model.Attachment, error) {
	var rows []AttachmentRow
	if err := s.DB.Where("entry_id = ? AND archived = ?", entryID, false).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list attachments: %w", err)
	}
	out := make([]*model.Attachment, 0, len(rows))
	for i := range rows {
		out = append(out, attachmentFromRow(&rows[i]))
	}
	return out, nil
}

// ArchiveAttachmentTx marks an attachment archived; rows are never deleted.
func ArchiveAttachmentTx(tx *gorm.DB, attachmentID int) error {
	if err := tx.Model(&AttachmentRow{}).Where("id = ?", attachmentID).
		Update("archived", true).Error; err != nil {
		return fmt.Errorf("store: archive attachment: %w", err)
	}
	return nil
}
