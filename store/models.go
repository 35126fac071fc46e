package store

import (
	"time"

	"gorm.io/gorm"
)

// Row types mirror the persisted layout: one table per entity, JSON-typed
// columns for authors/attributes/metadata/options/changed,
// timestamps normalised to UTC on write (see BeforeSave hooks below).

// LogbookRow is the `logbook` table.
type LogbookRow struct {
	ID                  int `gorm:"primaryKey"`
	Name                string
	Description         string
	Template            string
	TemplateContentType string
	ParentID            *int `gorm:"index"`
	Attributes          JSONAttributeSpecs `gorm:"type:text"`
	Metadata            JSONMap            `gorm:"type:text"`
	Archived            bool
	CreatedAt           time.Time
	LastChangedAt       *time.Time
}

func (LogbookRow) TableName() string { return "logbook" }

// LogbookChangeRow is the `logbookchange` table.
type LogbookChangeRow struct {
	ID            int `gorm:"primaryKey"`
	LogbookID     int `gorm:"index"`
	Changed       JSONChanged `gorm:"type:text"`
	Timestamp     time.Time
	ChangeAuthors JSONAuthors `gorm:"type:text"`
	ChangeComment string
	ChangeIP      string
}

func (LogbookChangeRow) TableName() string { return "logbookchange" }

// EntryRow is the `entry` table.
type EntryRow struct {
	ID            int `gorm:"primaryKey"`
	LogbookID     int `gorm:"index"`
	Title         *string
	Authors       JSONAuthors `gorm:"type:text"`
	Content       *string
	ContentType   string
	Metadata      JSONMap        `gorm:"type:text"`
	Attributes    JSONAttributes `gorm:"type:text"`
	Priority      int            `gorm:"index"`
	CreatedAt     time.Time
	LastChangedAt *time.Time
	Follows       *int `gorm:"index"`
	Archived      bool
}

func (EntryRow) TableName() string { return "entry" }

// EntryChangeRow is the `entrychange` table.
type EntryChangeRow struct {
	ID            int `gorm:"primaryKey"`
	EntryID       int `gorm:"index"`
	Changed       JSONChanged `gorm:"type:text"`
	Timestamp     time.Time
	ChangeAuthors JSONAuthors `gorm:"type:text"`
	ChangeComment string
	ChangeIP      string
}

func (EntryChangeRow) TableName() string { return "entrychange" }

// EntryLockRow is the `entrylock` table.
type EntryLockRow struct {
	ID            int `gorm:"primaryKey"`
	EntryID       int `gorm:"index"`
	CreatedAt     time.Time
	ExpiresAt     time.Time
	OwnedByIP     string
	CancelledAt   *time.Time
	CancelledByIP string
}

func (EntryLockRow) TableName() string { return "entrylock" }

// AttachmentRow is the `attachment` table.
type AttachmentRow struct {
	ID               int  `gorm:"primaryKey"`
	EntryID          *int `gorm:"index"`
	Filename         string
	OriginalFilename string
	Timestamp        time.Time
	Path             string
	ContentType      string
	Embedded         bool
	Metadata         JSONMap `gorm:"type:text"`
	Archived         bool
}

func (AttachmentRow) TableName() string { return "attachment" }

// BeforeSave hooks normalise every timestamp to UTC (spec §4.1). GORM invokes
// these on Create and Save.

func normalizeUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func normalizeUTCPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// BeforeSave implementations below keep every stored timestamp in UTC
// regardless of what timezone the caller constructed it in.

func (r *LogbookRow) BeforeSave(tx *gorm.DB) error {
	r.CreatedAt = normalizeUTC(r.CreatedAt)
	r.LastChangedAt = normalizeUTCPtr(r.LastChangedAt)
	return nil
}

func (r *LogbookChangeRow) BeforeSave(tx *gorm.DB) error {
	r.Timestamp = normalizeUTC(r.Timestamp)
	return nil
}

func (r *EntryRow) BeforeSave(tx *gorm.DB) error {
	r.CreatedAt = normalizeUTC(r.CreatedAt)
	r.LastChangedAt = normalizeUTCPtr(r.LastChangedAt)
	return nil
}

func (r *EntryChangeRow) BeforeSave(tx *gorm.DB) error {
	r.Timestamp = normalizeUTC(r.Timestamp)
	return nil
}

func (r *EntryLockRow) BeforeSave(tx *gorm.DB) error {
	r.CreatedAt = normalizeUTC(r.CreatedAt)
	r.ExpiresAt = normalizeUTC(r.ExpiresAt)
	r.CancelledAt = normalizeUTCPtr(r.CancelledAt)
	return nil
}

func (r *AttachmentRow) BeforeSave(tx *gorm.DB) error {
	r.Timestamp = normalizeUTC(r.Timestamp)
	return nil
}
