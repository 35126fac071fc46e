// Package model defines the logbook domain entities and their invariants:
// Logbook, Entry, Change, Lock, Attachment, and the attribute value sum type.
package model

import "time"

// Priority sort classes for Entry.Priority (spec §3 "Priority semantics").
const (
	PriorityNormal    = 0
	PriorityPinned    = 100
	PriorityImportant = 200
)

// AttributeType enumerates the types an AttributeSpec may declare.
type AttributeType string

const (
	AttributeText        AttributeType = "text"
	AttributeNumber      AttributeType = "number"
	AttributeBoolean     AttributeType = "boolean"
	AttributeOption      AttributeType = "option"
	AttributeMultiOption AttributeType = "multioption"
)

// AttributeSpec declares one attribute a Logbook's entries may carry.
type AttributeSpec struct {
	Name     string        `json:"name"`
	Type     AttributeType `json:"type"`
	Required bool          `json:"required"`
	// Options is meaningful only for AttributeOption/AttributeMultiOption.
	Options []string `json:"options,omitempty"`
}

// AttributeValueKind tags which field of AttributeValue is populated.
type AttributeValueKind string

const (
	KindText        AttributeValueKind = "text"
	KindNumber      AttributeValueKind = "number"
	KindBool        AttributeValueKind = "bool"
	KindOption      AttributeValueKind = "option"
	KindMultiOption AttributeValueKind = "multioption"
)

// AttributeValue is the in-memory sum type backing one entry attribute value
// (spec §9 "Dynamic attribute dictionaries"). Exactly the field matching Kind
// is meaningful; the others are zero.
type AttributeValue struct {
	Kind         AttributeValueKind `json:"kind"`
	Text         string             `json:"text,omitempty"`
	Number       float64            `json:"number,omitempty"`
	Bool         bool               `json:"bool,omitempty"`
	Option       string             `json:"option,omitempty"`
	MultiOption  []string           `json:"multioption,omitempty"`
}

// Raw returns the plain Go value this AttributeValue carries, the shape used
// for JSON marshalling in the entry's `attributes` map and in Change.Changed
// pre-images.
func (v AttributeValue) Raw() interface{} {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return v.Number
	case KindBool:
		return v.Bool
	case KindOption:
		return v.Option
	case KindMultiOption:
		return v.MultiOption
	default:
		return nil
	}
}

// Author identifies one author of an Entry.
type Author struct {
	Name  string `json:"name"`
	Login string `json:"login,omitempty"`
	Email string `json:"email,omitempty"`
}

// Logbook is a node in the logbook forest (spec §3 "Logbook").
type Logbook struct {
	ID                 int                    `json:"id"`
	Name               string                 `json:"name"`
	Description        string                 `json:"description,omitempty"`
	Template           string                 `json:"template,omitempty"`
	TemplateContentType string                `json:"template_content_type,omitempty"`
	ParentID           *int                   `json:"parent"`
	Attributes         []AttributeSpec        `json:"attributes"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
	Archived           bool                   `json:"archived"`
	CreatedAt          time.Time              `json:"created_at"`
	LastChangedAt       *time.Time            `json:"last_changed_at"`
	RevisionN          int                    `json:"revision_n"`
}

// Entry is one post in a Logbook (spec §3 "Entry").
type Entry struct {
	ID            int                       `json:"id"`
	LogbookID     int                       `json:"logbook"`
	Title         *string                   `json:"title"`
	Authors       []Author                  `json:"authors"`
	Content       *string                   `json:"content"`
	ContentType   string                    `json:"content_type"`
	Metadata      map[string]interface{}    `json:"metadata,omitempty"`
	Attributes    map[string]AttributeValue `json:"attributes,omitempty"`
	Priority      int                       `json:"priority"`
	CreatedAt     time.Time                 `json:"created_at"`
	LastChangedAt *time.Time                `json:"last_changed_at"`
	Follows       *int                      `json:"follows"`
	Archived      bool                      `json:"archived"`
	RevisionN     int                       `json:"revision_n"`
}

// DefaultContentType is applied to new entries whose caller did not supply one.
const DefaultContentType = "text/html; charset=UTF-8"

// SubjectKind distinguishes the two Change subject types.
type SubjectKind string

const (
	SubjectLogbook SubjectKind = "logbook"
	SubjectEntry   SubjectKind = "entry"
)

// Change records one atomic mutation of a Logbook or Entry (spec §3 "Change").
// Changed stores only the pre-image of the fields that differed.
type Change struct {
	ID             int                    `json:"id"`
	SubjectKind    SubjectKind            `json:"subject_kind"`
	SubjectID      int                    `json:"subject_id"`
	Changed        map[string]interface{} `json:"changed"`
	Timestamp      time.Time              `json:"timestamp"`
	ChangeAuthors  []Author               `json:"change_authors,omitempty"`
	ChangeComment  string                 `json:"change_comment,omitempty"`
	ChangeIP       string                 `json:"change_ip,omitempty"`
}

// Lock is an advisory edit lock on one Entry (spec §3 "Lock").
type Lock struct {
	ID             int        `json:"id"`
	EntryID        int        `json:"entry"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	OwnedByIP      string     `json:"owned_by_ip"`
	CancelledAt    *time.Time `json:"cancelled_at"`
	CancelledByIP  string     `json:"cancelled_by_ip,omitempty"`
}

// Active reports whether the lock is currently in force.
func (l *Lock) Active(now time.Time) bool {
	return l.CancelledAt == nil && l.ExpiresAt.After(now)
}

// DefaultLockDuration is the lifetime of every lock GetLock creates.
const DefaultLockDuration = time.Hour

// Attachment is metadata for one stored file (spec §3 "Attachment").
type Attachment struct {
	ID               int                    `json:"id"`
	EntryID          *int                   `json:"entry"`
	Filename         string                 `json:"filename"`
	OriginalFilename string                 `json:"original_filename,omitempty"`
	Timestamp        time.Time              `json:"timestamp"`
	Path             string                 `json:"path"`
	ContentType      string                 `json:"content_type"`
	Embedded         bool                   `json:"embedded"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	Archived         bool                   `json:"archived"`
}
