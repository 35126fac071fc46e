// Package revision implements historical-view reconstruction: each Change
// stores the pre-image of exactly the fields that differed, and any
// revision is reconstructed by walking forward from the requested index to
// the current entity.
package revision

import (
	"encoding/json"
	"fmt"

	"elogy.dev/core/model"
)

// valueAt walks forward from revision n to find the most recent recorded
// pre-image of field, falling back to the entity's current value:
//
//	value_at(entity, attr, n):
//	    if attr in change[n].changed: return change[n].changed[attr]
//	    for m in n+1 .. N-1:
//	        if attr in change[m].changed: return change[m].changed[attr]
//	    return getattr(entity, attr)   # still the current value
//
// The bool return reports whether a pre-image was found in any change;
// false means the caller should keep the entity's current value.
func valueAt(changes []*model.Change, field string, n int) (interface{}, bool) {
	N := len(changes)
	if n < N {
		if v, ok := changes[n].Changed[field]; ok {
			return v, true
		}
	}
	for m := n + 1; m < N; m++ {
		if v, ok := changes[m].Changed[field]; ok {
			return v, true
		}
	}
	return nil, false
}

// entryFields lists every Entry field that UpdateEntry can change and thus
// that may appear as a key in an entry Change's `changed` map.
var entryFields = []string{
	"title", "content", "content_type", "metadata", "attributes",
	"priority", "follows", "archived", "authors", "last_changed_at",
}

// GetEntryRevision reconstructs entry as of revision n (0-indexed, oldest
// first; n == len(changes) returns the entity itself).
// changes must be ordered oldest-first and correspond to entry's full
// change history.
func GetEntryRevision(entry *model.Entry, changes []*model.Change, n int) (*model.Entry, error) {
	if n < 0 || n > len(changes) {
		return nil, model.NewNotFound("revision", n)
	}

	view := *entry
	view.RevisionN = n

	for _, field := range entryFields {
		raw, found := valueAt(changes, field, n)
		if !found {
			continue
		}
		if err := applyEntryField(&view, field, raw); err != nil {
			return nil, fmt.Errorf("revision: field %q: %w", field, err)
		}
	}
	return &view, nil
}

func applyEntryField(view *model.Entry, field string, raw interface{}) error {
	switch field {
	case "title":
		return decodeInto(raw, &view.Title)
	case "content":
		return decodeInto(raw, &view.Content)
	case "content_type":
		var s string
		if err := decodeInto(raw, &s); err != nil {
			return err
		}
		view.ContentType = s
		return nil
	case "metadata":
		var m map[string]interface{}
		if err := decodeInto(raw, &m); err != nil {
			return err
		}
		view.Metadata = m
		return nil
	case "attributes":
		var a map[string]model.AttributeValue
		if err := decodeInto(raw, &a); err != nil {
			return err
		}
		view.Attributes = a
		return nil
	case "priority":
		var p float64
		if err := decodeInto(raw, &p); err != nil {
			return err
		}
		view.Priority = int(p)
		return nil
	case "follows":
		return decodeInto(raw, &view.Follows)
	case "archived":
		var b bool
		if err := decodeInto(raw, &b); err != nil {
			return err
		}
		view.Archived = b
		return nil
	case "authors":
		var a []model.Author
		if err := decodeInto(raw, &a); err != nil {
			return err
		}
		view.Authors = a
		return nil
	case "last_changed_at":
		return decodeInto(raw, &view.LastChangedAt)
	default:
		return nil
	}
}

// logbookFields lists every Logbook field that UpdateLogbook can change.
var logbookFields = []string{
	"name", "description", "template", "template_content_type",
	"parent", "attributes", "metadata", "archived", "last_changed_at",
}

// GetLogbookRevision reconstructs lb as of revision n.
func GetLogbookRevision(lb *model.Logbook, changes []*model.Change, n int) (*model.Logbook, error) {
	if n < 0 || n > len(changes) {
		return nil, model.NewNotFound("revision", n)
	}

	view := *lb
	view.RevisionN = n

	for _, field := range logbookFields {
		raw, found := valueAt(changes, field, n)
		if !found {
			continue
		}
		if err := applyLogbookField(&view, field, raw); err != nil {
			return nil, fmt.Errorf("revision: field %q: %w", field, err)
		}
	}
	return &view, nil
}

func applyLogbookField(view *model.Logbook, field string, raw interface{}) error {
	switch field {
	case "name":
		return decodeInto(raw, &view.Name)
	case "description":
		return decodeInto(raw, &view.Description)
	case "template":
		return decodeInto(raw, &view.Template)
	case "template_content_type":
		return decodeInto(raw, &view.TemplateContentType)
	case "parent":
		return decodeInto(raw, &view.ParentID)
	case "attributes":
		var a []model.AttributeSpec
		if err := decodeInto(raw, &a); err != nil {
			return err
		}
		view.Attributes = a
		return nil
	case "metadata":
		var m map[string]interface{}
		if err := decodeInto(raw, &m); err != nil {
			return err
		}
		view.Metadata = m
		return nil
	case "archived":
		var b bool
		if err := decodeInto(raw, &b); err != nil {
			return err
		}
		view.Archived = b
		return nil
	case "last_changed_at":
		return decodeInto(raw, &view.LastChangedAt)
	default:
		return nil
	}
}

// decodeInto round-trips raw (typically a value freshly unmarshalled from a
// JSON-typed `changed` column, so float64/map[string]interface{}/etc) into
// target's concrete type via JSON, which is simpler and safer than a bespoke
// reflection-based coercion for this small, fixed field set.
func decodeInto(raw interface{}, target interface{}) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, target)
}
