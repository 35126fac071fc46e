// Package logbook implements the Domain Model: the write operations
// (CreateLogbook, UpdateLogbook, CreateEntry, UpdateEntry) and the revision
// reads (GetEntryRevision, GetLogbookRevision) that
// compose the Store, Revision Engine, Attribute Engine, Lock Manager,
// Attachment Pipeline, and Action Dispatcher into the transactional update
// protocol.
package logbook

import (
	"elogy.dev/core/action"
	"elogy.dev/core/attachment"
	"elogy.dev/core/store"
	"github.com/sirupsen/logrus"
)

// Service is the Domain Model: the single entry point API handlers use to
// mutate logbooks and entries.
type Service struct {
	Store      *store.Store
	Pipeline   *attachment.Pipeline
	Dispatcher *action.Dispatcher
	Logger     *logrus.Logger
}

// New constructs a Service from its collaborators.
func New(s *store.Store, pipeline *attachment.Pipeline, dispatcher *action.Dispatcher, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{Store: s, Pipeline: pipeline, Dispatcher: dispatcher, Logger: logger}
}
