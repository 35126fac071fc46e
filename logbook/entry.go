package logbook

import (
	"context"
	"time"

	"elogy.dev/core/action"
	"elogy.dev/core/attachment"
	"elogy.dev/core/attribute"
	"elogy.dev/core/lockmgr"
	"elogy.dev/core/model"
	"elogy.dev/core/store"
	"gorm.io/gorm"
)

// CreateEntryInput is the argument to CreateEntry.
type CreateEntryInput struct {
	LogbookID   int
	Title       *string
	Authors     []model.Author
	Content     *string
	ContentType string
	Attributes  map[string]interface{}
	Metadata    map[string]interface{}
	CreatedAt   *time.Time
	Follows     *int
	Priority    int
	Archived    bool
}

// CreateEntry creates a new entry under a logbook: attribute coercion,
// follows validation, and inline image extraction from content inside one
// transaction, then dispatch of new_entry after it commits.
func (svc *Service) CreateEntry(in CreateEntryInput) (*model.Entry, error) {
	lb, err := svc.Store.GetLogbook(in.LogbookID)
	if err != nil {
		return nil, err
	}

	if in.Follows != nil {
		ok, err := svc.Store.EntryExistsInLogbook(*in.Follows, in.LogbookID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, model.NewIntegrityError("follows must reference an entry in the same logbook")
		}
		if in.Priority > model.PriorityPinned {
			return nil, model.NewValidationError("priority", "a followup's priority must not exceed pinned (100)")
		}
	}

	attrs, err := attribute.CheckAttributes(svc.Logger, lb, in.Attributes)
	if err != nil {
		return nil, err
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = model.DefaultContentType
	}

	createdAt := time.Now().UTC()
	if in.CreatedAt != nil {
		createdAt = in.CreatedAt.UTC()
	}

	ctx := context.Background()
	var entry *model.Entry

	err = svc.Store.Transaction(func(tx *gorm.DB) error {
		content := in.Content
		var saved []*model.Attachment
		if in.Content != nil {
			saver := &inlineSaver{tx: tx, pipeline: svc.Pipeline, now: createdAt}
			processed, err := attachment.ProcessContent(ctx, *in.Content, saver)
			if err != nil {
				return err
			}
			content = &processed
			saved = saver.saved
		}

		e := &model.Entry{
			LogbookID:   in.LogbookID,
			Title:       in.Title,
			Authors:     in.Authors,
			Content:     content,
			ContentType: contentType,
			Metadata:    in.Metadata,
			Attributes:  attrs,
			Priority:    in.Priority,
			CreatedAt:   createdAt,
			Follows:     in.Follows,
			Archived:    in.Archived,
		}
		created, err := store.CreateEntryTx(tx, e)
		if err != nil {
			return err
		}

		for _, a := range saved {
			if err := store.BindAttachmentTx(tx, a.ID, created.ID); err != nil {
				return err
			}
		}
		entry = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	svc.Dispatcher.Dispatch(action.SignalNewEntry, entry)
	return entry, nil
}

// UpdateEntryInput is the argument to UpdateEntry; nil fields are "not
// supplied" and left unchanged.
type UpdateEntryInput struct {
	ID            int
	IP            string
	RevisionN     *int
	Title         *string
	Authors       []model.Author
	Content       *string
	ContentType   *string
	Attributes    map[string]interface{}
	Metadata      map[string]interface{}
	Priority      *int
	Follows       *int
	Archived      *bool
	LastChangedAt *time.Time
	ChangeComment string
	ChangeAuthors []model.Author
}

// UpdateEntry applies the update protocol in full: revision_n check
// (409/400), lock check (409), changed-field diff, priority-only edits not
// bumping last_changed_at, inline image extraction on edited content, and
// auto-cancelling a caller-owned lock on success.
func (svc *Service) UpdateEntry(in UpdateEntryInput) (*model.Entry, error) {
	existing, err := svc.Store.GetEntry(in.ID)
	if err != nil {
		return nil, err
	}

	if in.RevisionN == nil {
		return nil, model.NewValidationError("revision_n", "required")
	}
	if *in.RevisionN != existing.RevisionN {
		return nil, model.NewConflictStale(in.ID, existing.RevisionN, *in.RevisionN)
	}

	lock, err := svc.Store.ActiveLock(in.ID)
	if err != nil {
		return nil, err
	}
	if lock != nil && lock.OwnedByIP != in.IP {
		return nil, model.NewConflictLocked(in.ID, lock)
	}

	lb, err := svc.Store.GetLogbook(existing.LogbookID)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	now := time.Now().UTC()
	updated := *existing
	changed := map[string]interface{}{}

	err = svc.Store.Transaction(func(tx *gorm.DB) error {
		if in.Title != nil && differs(existing.Title, in.Title) {
			changed["title"] = existing.Title
			updated.Title = in.Title
		}

		if in.Content != nil {
			saver := &inlineSaver{tx: tx, pipeline: svc.Pipeline, now: now}
			processed, err := attachment.ProcessContent(ctx, *in.Content, saver)
			if err != nil {
				return err
			}
			if differs(existing.Content, &processed) {
				changed["content"] = existing.Content
				updated.Content = &processed
			}
			for _, a := range saver.saved {
				if err := store.BindAttachmentTx(tx, a.ID, in.ID); err != nil {
					return err
				}
			}
		}

		if in.ContentType != nil && differs(existing.ContentType, *in.ContentType) {
			changed["content_type"] = existing.ContentType
			updated.ContentType = *in.ContentType
		}
		if in.Metadata != nil && differs(existing.Metadata, in.Metadata) {
			changed["metadata"] = existing.Metadata
			updated.Metadata = in.Metadata
		}
		if in.Attributes != nil {
			coerced, err := attribute.CheckAttributes(svc.Logger, lb, in.Attributes)
			if err != nil {
				return err
			}
			if differs(existing.Attributes, coerced) {
				changed["attributes"] = existing.Attributes
				updated.Attributes = coerced
			}
		}
		if in.Priority != nil && differs(existing.Priority, *in.Priority) {
			changed["priority"] = existing.Priority
			updated.Priority = *in.Priority
		}
		if in.Follows != nil && differs(existing.Follows, in.Follows) {
			ok, err := svc.Store.EntryExistsInLogbook(*in.Follows, existing.LogbookID)
			if err != nil {
				return err
			}
			if !ok {
				return model.NewIntegrityError("follows must reference an entry in the same logbook")
			}
			changed["follows"] = existing.Follows
			updated.Follows = in.Follows
		}
		if in.Archived != nil && differs(existing.Archived, *in.Archived) {
			changed["archived"] = existing.Archived
			updated.Archived = *in.Archived
		}
		if in.Authors != nil && differs(existing.Authors, in.Authors) {
			changed["authors"] = existing.Authors
			updated.Authors = in.Authors
		}

		if updated.Follows != nil && updated.Priority > model.PriorityPinned {
			return model.NewValidationError("priority", "a followup's priority must not exceed pinned (100)")
		}

		if len(changed) > 0 {
			_, priorityOnly := changed["priority"]
			priorityOnly = priorityOnly && len(changed) == 1

			if !priorityOnly {
				old := existing.LastChangedAt
				if in.LastChangedAt != nil {
					updated.LastChangedAt = in.LastChangedAt
				} else {
					updated.LastChangedAt = &now
				}
				if differs(old, updated.LastChangedAt) {
					changed["last_changed_at"] = old
				}
			}
		}

		if err := store.SaveEntryTx(tx, &updated); err != nil {
			return err
		}

		if len(changed) > 0 {
			if _, err := store.CreateEntryChangeTx(tx, &model.Change{
				SubjectKind:   model.SubjectEntry,
				SubjectID:     in.ID,
				Changed:       changed,
				Timestamp:     now,
				ChangeAuthors: in.ChangeAuthors,
				ChangeComment: in.ChangeComment,
				ChangeIP:      in.IP,
			}); err != nil {
				return err
			}
		}

		return lockmgr.CancelLockIfOwnedBy(tx, in.ID, in.IP)
	})
	if err != nil {
		return nil, err
	}

	result, err := svc.Store.GetEntry(in.ID)
	if err != nil {
		return nil, err
	}
	svc.Dispatcher.Dispatch(action.SignalEditEntry, result)
	return result, nil
}
