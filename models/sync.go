package models

import (
	"strings"
	"time"
)

// SyncStatusComplete marks a resource cursor whose last fetch enumerated
// everything up to the stored cursor.
const SyncStatusComplete = "complete"

// syncStatusIncompletePrefix prefixes the resume marker of an interrupted
// fetch; see ResourceSyncStatus.ResumeMarker.
const syncStatusIncompletePrefix = "incomplete:"

// ResourceSyncStatus is the stored sync cursor of one (resource, event)
// pair. Cursor is the opaque server change marker; Status records whether
// the last fetch completed; Meta fingerprints the fetch parameters so a
// configuration change invalidates the cursor.
type ResourceSyncStatus struct {
	ID        int64    `json:"id"`
	Resource  Resource `json:"resource"`
	EventSlug string   `json:"event_slug"`
	Status    string   `json:"status"`
	Cursor    string   `json:"cursor"`
	Meta      string   `json:"meta"`
}

// ResumeMarker returns the marker of the last record durably merged by an
// interrupted fetch, or "" when the last fetch completed.
func (s ResourceSyncStatus) ResumeMarker() string {
	if marker, ok := strings.CutPrefix(s.Status, syncStatusIncompletePrefix); ok {
		return marker
	}
	return ""
}

// MarkIncomplete records marker as the resume point of an interrupted fetch.
func (s *ResourceSyncStatus) MarkIncomplete(marker string) {
	s.Status = syncStatusIncompletePrefix + marker
}

// SyncStats summarizes one sync cycle.
type SyncStats struct {
	Uploaded   int  `json:"uploaded"`
	Downloaded int  `json:"downloaded"`
	Skipped    bool `json:"skipped"`
}

// SyncState is the persisted orchestrator state.
type SyncState struct {
	LastSync       time.Time `json:"last_sync"`
	LastDownload   time.Time `json:"last_download"`
	LastFailure    time.Time `json:"last_failure"`
	FailureMessage string    `json:"failure_message,omitempty"`
}
