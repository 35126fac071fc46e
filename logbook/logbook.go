package logbook

import (
	"fmt"
	"time"

	"elogy.dev/core/action"
	"elogy.dev/core/model"
	"elogy.dev/core/store"
	"gorm.io/gorm"
)

// checkUniqueAttributeNames enforces invariant L2: attribute names within
// one logbook must be unique.
func checkUniqueAttributeNames(attrs []model.AttributeSpec) error {
	seen := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		if seen[a.Name] {
			return model.NewValidationError("attributes", fmt.Sprintf("duplicate attribute name %q", a.Name))
		}
		seen[a.Name] = true
	}
	return nil
}

// CreateLogbookInput is the argument to CreateLogbook.
type CreateLogbookInput struct {
	ParentID            *int
	Name                string
	Description         string
	Template            string
	TemplateContentType string
	Attributes          []model.AttributeSpec
	Metadata            map[string]interface{}
	Archived            bool
}

// CreateLogbook creates a new logbook, optionally nested under a parent,
// enforcing acyclicity and unique attribute names.
func (svc *Service) CreateLogbook(in CreateLogbookInput) (*model.Logbook, error) {
	if in.Name == "" {
		return nil, model.NewValidationError("name", "required")
	}
	if err := checkUniqueAttributeNames(in.Attributes); err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		if _, err := svc.Store.GetLogbook(*in.ParentID); err != nil {
			return nil, err
		}
	}

	lb := &model.Logbook{
		Name:                in.Name,
		Description:         in.Description,
		Template:            in.Template,
		TemplateContentType: in.TemplateContentType,
		ParentID:            in.ParentID,
		Attributes:          in.Attributes,
		Metadata:            in.Metadata,
		Archived:            in.Archived,
		CreatedAt:           time.Now().UTC(),
	}

	var created *model.Logbook
	err := svc.Store.Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = store.CreateLogbookTx(tx, lb)
		return err
	})
	if err != nil {
		return nil, err
	}

	svc.Dispatcher.Dispatch(action.SignalNewLogbook, created)
	return created, nil
}

// UpdateLogbookInput is the argument to UpdateLogbook; nil fields are
// "not supplied" and left unchanged. ParentIDSet distinguishes "not supplied"
// from "explicitly cleared" for the nullable ParentID field.
type UpdateLogbookInput struct {
	ID                   int
	RevisionN            *int
	Name                 *string
	Description          *string
	Template             *string
	TemplateContentType  *string
	ParentIDSet          bool
	ParentID             *int
	Attributes           []model.AttributeSpec
	Metadata             map[string]interface{}
	Archived             *bool
	ChangeComment        string
	ChangeAuthors        []model.Author
	ChangeIP             string
}

// UpdateLogbook applies the update protocol for a Logbook
// subject: revision_n is required and checked (steps 2-3); Logbooks have no
// Lock Manager, so step 4 does not apply to them.
func (svc *Service) UpdateLogbook(in UpdateLogbookInput) (*model.Logbook, error) {
	existing, err := svc.Store.GetLogbook(in.ID)
	if err != nil {
		return nil, err
	}

	if in.RevisionN == nil {
		return nil, model.NewValidationError("revision_n", "required")
	}
	if *in.RevisionN != existing.RevisionN {
		return nil, model.NewConflictStale(in.ID, existing.RevisionN, *in.RevisionN)
	}

	updated := *existing
	changed := map[string]interface{}{}

	if in.Name != nil && differs(existing.Name, *in.Name) {
		changed["name"] = existing.Name
		updated.Name = *in.Name
	}
	if in.Description != nil && differs(existing.Description, *in.Description) {
		changed["description"] = existing.Description
		updated.Description = *in.Description
	}
	if in.Template != nil && differs(existing.Template, *in.Template) {
		changed["template"] = existing.Template
		updated.Template = *in.Template
	}
	if in.TemplateContentType != nil && differs(existing.TemplateContentType, *in.TemplateContentType) {
		changed["template_content_type"] = existing.TemplateContentType
		updated.TemplateContentType = *in.TemplateContentType
	}
	if in.ParentIDSet && differs(existing.ParentID, in.ParentID) {
		if in.ParentID != nil {
			wouldCycle, err := svc.Store.WouldCycle(in.ID, *in.ParentID)
			if err != nil {
				return nil, err
			}
			if wouldCycle {
				return nil, model.NewIntegrityError("reparenting would introduce a cycle")
			}
		}
		changed["parent"] = existing.ParentID
		updated.ParentID = in.ParentID
	}
	if in.Attributes != nil && differs(existing.Attributes, in.Attributes) {
		if err := checkUniqueAttributeNames(in.Attributes); err != nil {
			return nil, err
		}
		changed["attributes"] = existing.Attributes
		updated.Attributes = in.Attributes
	}
	if in.Metadata != nil && differs(existing.Metadata, in.Metadata) {
		changed["metadata"] = existing.Metadata
		updated.Metadata = in.Metadata
	}
	if in.Archived != nil && differs(existing.Archived, *in.Archived) {
		changed["archived"] = existing.Archived
		updated.Archived = *in.Archived
	}

	now := time.Now().UTC()
	if len(changed) > 0 {
		old := existing.LastChangedAt
		updated.LastChangedAt = &now
		if differs(old, updated.LastChangedAt) {
			changed["last_changed_at"] = old
		}
	}

	err = svc.Store.Transaction(func(tx *gorm.DB) error {
		if err := store.SaveLogbookTx(tx, &updated); err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}
		_, err := store.CreateLogbookChangeTx(tx, &model.Change{
			SubjectKind:   model.SubjectLogbook,
			SubjectID:     in.ID,
			Changed:       changed,
			Timestamp:     now,
			ChangeAuthors: in.ChangeAuthors,
			ChangeComment: in.ChangeComment,
			ChangeIP:      in.ChangeIP,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	result, err := svc.Store.GetLogbook(in.ID)
	if err != nil {
		return nil, err
	}
	svc.Dispatcher.Dispatch(action.SignalEditLogbook, result)
	return result, nil
}
