package logbook

import (
	"elogy.dev/core/model"
	"elogy.dev/core/revision"
)

// GetEntryRevision returns entry as of revision n: n == the entry's current
// revision_n returns the entity itself.
func (svc *Service) GetEntryRevision(entryID, n int) (*model.Entry, error) {
	e, err := svc.Store.GetEntry(entryID)
	if err != nil {
		return nil, err
	}
	changes, err := svc.Store.ListEntryChanges(entryID)
	if err != nil {
		return nil, err
	}
	return revision.GetEntryRevision(e, changes, n)
}

// GetLogbookRevision is GetEntryRevision's Logbook-subject counterpart.
func (svc *Service) GetLogbookRevision(logbookID, n int) (*model.Logbook, error) {
	lb, err := svc.Store.GetLogbook(logbookID)
	if err != nil {
		return nil, err
	}
	changes, err := svc.Store.ListLogbookChanges(logbookID)
	if err != nil {
		return nil, err
	}
	return revision.GetLogbookRevision(lb, changes, n)
}
