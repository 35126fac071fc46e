package store

import "elogy.dev/core/model"

func logbookFromRow(r *LogbookRow, revisionN int) *model.Logbook {
	return &model.Logbook{
		ID:                  r.ID,
		Name:                r.Name,
		Description:         r.Description,
		Template:            r.Template,
		TemplateContentType: r.TemplateContentType,
		ParentID:            r.ParentID,
		Attributes:          []model.AttributeSpec(r.Attributes),
		Metadata:            map[string]interface{}(r.Metadata),
		Archived:            r.Archived,
		CreatedAt:           r.CreatedAt,
		LastChangedAt:       r.LastChangedAt,
		RevisionN:           revisionN,
	}
}

func logbookToRow(lb *model.Logbook) *LogbookRow {
	return &LogbookRow{
		ID:                  lb.ID,
		Name:                lb.Name,
		Description:         lb.Description,
		Template:            lb.Template,
		TemplateContentType: lb.TemplateContentType,
		ParentID:            lb.ParentID,
		Attributes:          JSONAttributeSpecs(lb.Attributes),
		Metadata:            JSONMap(lb.Metadata),
		Archived:            lb.Archived,
		CreatedAt:           lb.CreatedAt,
		LastChangedAt:       lb.LastChangedAt,
	}
}

func entryFromRow(r *EntryRow, revisionN int) *model.Entry {
	return &model.Entry{
		ID:            r.ID,
		LogbookID:     r.LogbookID,
		Title:         r.Title,
		Authors:       []model.Author(r.Authors),
		Content:       r.Content,
		ContentType:   r.ContentType,
		Metadata:      map[string]interface{}(r.Metadata),
		Attributes:    map[string]model.AttributeValue(r.Attributes),
		Priority:      r.Priority,
		CreatedAt:     r.CreatedAt,
		LastChangedAt: r.LastChangedAt,
		Follows:       r.Follows,
		Archived:      r.Archived,
		RevisionN:     revisionN,
	}
}

func entryToRow(e *model.Entry) *EntryRow {
	return &EntryRow{
		ID:            e.ID,
		LogbookID:     e.LogbookID,
		Title:         e.Title,
		Authors:       JSONAuthors(e.Authors),
		Content:       e.Content,
		ContentType:   e.ContentType,
		Metadata:      JSONMap(e.Metadata),
		Attributes:    JSONAttributes(e.Attributes),
		Priority:      e.Priority,
		CreatedAt:     e.CreatedAt,
		LastChangedAt: e.LastChangedAt,
		Follows:       e.Follows,
		Archived:      e.Archived,
	}
}

func lockFromRow(r *EntryLockRow) *model.Lock {
	return &model.Lock{
		ID:            r.ID,
		EntryID:       r.EntryID,
		CreatedAt:     r.CreatedAt,
		ExpiresAt:     r.ExpiresAt,
		OwnedByIP:     r.OwnedByIP,
		CancelledAt:   r.CancelledAt,
		CancelledByIP: r.CancelledByIP,
	}
}

func lockToRow(l *model.Lock) *EntryLockRow {
	return &EntryLockRow{
		ID:            l.ID,
		EntryID:       l.EntryID,
		CreatedAt:     l.CreatedAt,
		ExpiresAt:     l.ExpiresAt,
		OwnedByIP:     l.OwnedByIP,
		CancelledAt:   l.CancelledAt,
		CancelledByIP: l.CancelledByIP,
	}
}

func attachmentFromRow(r *AttachmentRow) *model.Attachment {
	return &model.Attachment{
		ID:               r.ID,
		EntryID:          r.EntryID,
		Filename:         r.Filename,
		OriginalFilename: r.OriginalFilename,
		Timestamp:        r.Timestamp,
		Path:             r.Path,
		ContentType:      r.ContentType,
		Embedded:         r.Embedded,
		Metadata:         map[string]interface{}(r.Metadata),
		Archived:         r.Archived,
	}
}

func attachmentToRow(a *model.Attachment) *AttachmentRow {
	return &AttachmentRow{
		ID:               a.ID,
		EntryID:          a.EntryID,
		Filename:         a.Filename,
		OriginalFilename: a.OriginalFilename,
		Timestamp:        a.Timestamp,
		Path:             a.Path,
		ContentType:      a.ContentType,
		Embedded:         a.Embedded,
		Metadata:         JSONMap(a.Metadata),
		Archived:         a.Archived,
	}
}

func changeFromLogbookRow(r *LogbookChangeRow) *model.Change {
	return &model.Change{
		ID:            r.ID,
		SubjectKind:   model.SubjectLogbook,
		SubjectID:     r.LogbookID,
		Changed:       map[string]interface{}(r.Changed),
		Timestamp:     r.Timestamp,
		ChangeAuthors: []model.Author(r.ChangeAuthors),
		ChangeComment: r.ChangeComment,
		ChangeIP:      r.ChangeIP,
	}
}

func changeFromEntryRow(r *EntryChangeRow) *model.Change {
	return &model.Change{
		ID:            r.ID,
		SubjectKind:   model.SubjectEntry,
		SubjectID:     r.EntryID,
		Changed:       map[string]interface{}(r.Changed),
		Timestamp:     r.Timestamp,
		ChangeAuthors: []model.Author(r.ChangeAuthors),
		ChangeComment: r.ChangeComment,
		ChangeIP:      r.ChangeIP,
	}
}
