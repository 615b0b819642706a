package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"

	"github.com/eventra/checkpoint/internal/adapter"
	"github.com/eventra/checkpoint/internal/logger"
	"github.com/eventra/checkpoint/internal/store"
	"github.com/eventra/checkpoint/models"
)

// resourceAdapter binds one server collection to the generic download
// machinery. The zero hooks give whole-collection semantics; setting
// cursorParam switches to conditional fetches, and single switches to a
// single-object fetch.
type resourceAdapter struct {
	resource models.Resource

	// organizerScope resources are stored with an empty event slug and
	// fetched from organizer-level endpoints.
	organizerScope bool

	// path returns the request path of the first page relative to the
	// API base URL.
	path func(organizer, event string) string

	// identity extracts the server identity from a decoded payload.
	identity func(payload map[string]any) (string, error)

	// fields extracts the denormalized query columns. Nil means none.
	fields func(raw json.RawMessage) models.ReplicaFields

	// query holds fixed request parameters sent with the first page.
	query url.Values

	// cursorParam names the "changed since" request parameter. When set,
	// the stored cursor is replayed through it and unseen records are
	// only deleted on full enumerations.
	cursorParam string

	// ordering is sent as the "ordering" parameter of conditional
	// fetches so interrupted runs can resume mid-collection.
	ordering string

	// recordMarker extracts the change marker of one payload, used as a
	// resume point and as a fallback page marker.
	recordMarker func(payload map[string]any) string

	// resumable enables persisting a mid-run resume marker when a
	// conditional fetch is interrupted.
	resumable bool

	// tolerateNotFound treats a 404 on the collection as an empty
	// collection instead of a failure.
	tolerateNotFound bool

	// single fetches one object instead of a collection.
	single bool

	// postProcess runs after a successful download with every inserted
	// or updated record, inside the final transaction.
	postProcess func(ctx context.Context, d *downloader, eventSlug string, touched []models.ReplicaRecord) error

	// postDelete runs before unseen records are removed, with the records
	// about to go.
	postDelete func(ctx context.Context, d *downloader, eventSlug string, deleted []models.ReplicaRecord) error
}

// fingerprint identifies the fetch parameters of the adapter. A stored
// cursor whose fingerprint no longer matches is discarded so configuration
// changes trigger a full resync.
func (a resourceAdapter) fingerprint() string {
	return a.cursorParam + "|" + a.ordering + "|" + a.query.Encode()
}

func (a resourceAdapter) eventSlug(event string) string {
	if a.organizerScope {
		return ""
	}
	return event
}

// downloader executes the replication of one resource list against the
// local replica.
type downloader struct {
	store     *store.ClientStorages
	api       adapter.APIClient
	organizer string
	event     string
	log       *logger.Logger
}

// download replicates one resource and returns the number of records
// inserted or updated.
func (d *downloader) download(ctx context.Context, a resourceAdapter) (int, error) {
	var n int
	var err error
	switch {
	case a.single:
		n, err = d.downloadObject(ctx, a)
	case a.cursorParam != "":
		n, err = d.downloadConditional(ctx, a)
	default:
		n, err = d.downloadCollection(ctx, a)
	}
	if err != nil {
		return n, &SyncError{Resource: a.resource, Err: err}
	}
	return n, nil
}

// downloadCollection fetches every page of the collection and reconciles
// the replica against it: new records are inserted, changed ones updated,
// unchanged ones skipped, and records absent from the enumeration deleted.
func (d *downloader) downloadCollection(ctx context.Context, a resourceAdapter) (int, error) {
	slug := a.eventSlug(d.event)
	known, err := d.knownRecords(ctx, a.resource, slug)
	if err != nil {
		return 0, err
	}

	var touched []models.ReplicaRecord
	path := a.path(d.organizer, d.event)
	query := a.query
	for path != "" {
		page, err := d.api.FetchCollection(ctx, path, query)
		if err != nil {
			if a.tolerateNotFound && errors.Is(err, adapter.ErrNotFound) {
				page = models.Page{}
			} else {
				return len(touched), err
			}
		}
		err = d.store.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
			merged, err := d.mergePage(ctx, a, slug, page.Results, known)
			touched = append(touched, merged...)
			return err
		})
		if err != nil {
			return len(touched), err
		}
		path = page.Next
		query = nil
	}

	err = d.store.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := d.deleteUnseen(ctx, a, slug, known); err != nil {
			return err
		}
		if a.postProcess != nil {
			return a.postProcess(ctx, d, slug, touched)
		}
		return nil
	})
	return len(touched), err
}

// downloadConditional fetches only records changed since the stored
// cursor. The new cursor is the change marker of the first page, taken
// before any record of the run was merged, so nothing modified during the
// run can be skipped next time. Unseen records are deleted only when the
// run enumerated the whole collection, which is the case exactly when no
// cursor was replayed.
func (d *downloader) downloadConditional(ctx context.Context, a resourceAdapter) (int, error) {
	slug := a.eventSlug(d.event)

	status, err := d.store.SyncStatus.ResourceStatus(ctx, a.resource, slug)
	if errors.Is(err, store.ErrRecordNotFound) {
		status = models.ResourceSyncStatus{Resource: a.resource, EventSlug: slug}
	} else if err != nil {
		return 0, err
	}
	if status.Meta != "" && status.Meta != a.fingerprint() {
		d.log.Info().Str("resource", string(a.resource)).Msg("fetch parameters changed, discarding cursor")
		status = models.ResourceSyncStatus{Resource: a.resource, EventSlug: slug}
	}

	since := status.Cursor
	if marker := status.ResumeMarker(); marker != "" {
		since = marker
	}

	// Full enumerations need the whole identity index so leftovers can be
	// deleted afterwards. Cursored runs only touch the records on the wire,
	// so they look up each page's identities instead of loading the table.
	fullRun := since == ""
	var known map[string]models.ReplicaRecord
	if fullRun {
		known, err = d.knownRecords(ctx, a.resource, slug)
		if err != nil {
			return 0, err
		}
	}

	query := url.Values{}
	for k, v := range a.query {
		query[k] = v
	}
	if a.ordering != "" {
		query.Set("ordering", a.ordering)
	}
	if since != "" {
		query.Set(a.cursorParam, since)
	}

	var touched []models.ReplicaRecord
	firstMarker := ""
	lastMerged := ""
	path := a.path(d.organizer, d.event)
	for path != "" {
		page, err := d.api.FetchCollection(ctx, path, query)
		if errors.Is(err, adapter.ErrNotModified) {
			return 0, nil
		}
		if err != nil {
			if a.resumable && lastMerged != "" {
				status.MarkIncomplete(lastMerged)
				status.Meta = a.fingerprint()
				if serr := d.store.SyncStatus.SetResourceStatus(ctx, status); serr != nil {
					d.log.Error().Err(serr).Str("resource", string(a.resource)).Msg("failed to persist resume marker")
				}
			}
			return len(touched), err
		}
		if firstMarker == "" {
			firstMarker = page.Marker
		}
		pageKnown := known
		if !fullRun {
			pageKnown, err = d.pageRecords(ctx, a, slug, page.Results)
			if err != nil {
				return len(touched), err
			}
		}
		err = d.store.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
			merged, err := d.mergePage(ctx, a, slug, page.Results, pageKnown)
			touched = append(touched, merged...)
			return err
		})
		if err != nil {
			return len(touched), err
		}
		if a.recordMarker != nil && len(page.Results) > 0 {
			if m := pageTailMarker(page.Results, a.recordMarker); m != "" {
				lastMerged = m
				if firstMarker == "" {
					firstMarker = m
				}
			}
		}
		path = page.Next
		query = nil
	}

	err = d.store.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if fullRun {
			if err := d.deleteUnseen(ctx, a, slug, known); err != nil {
				return err
			}
		}
		if a.postProcess != nil {
			if err := a.postProcess(ctx, d, slug, touched); err != nil {
				return err
			}
		}
		next := firstMarker
		if next == "" {
			next = status.Cursor
		}
		return d.store.SyncStatus.SetResourceStatus(ctx, models.ResourceSyncStatus{
			Resource:  a.resource,
			EventSlug: slug,
			Status:    models.SyncStatusComplete,
			Cursor:    next,
			Meta:      a.fingerprint(),
		})
	})
	return len(touched), err
}

// downloadObject replicates a single-object resource. Duplicate local rows
// for the identity are treated as corruption and collapsed.
func (d *downloader) downloadObject(ctx context.Context, a resourceAdapter) (int, error) {
	slug := a.eventSlug(d.event)
	raw, err := d.api.FetchObject(ctx, a.path(d.organizer, d.event))
	if err != nil {
		if a.tolerateNotFound && errors.Is(err, adapter.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, fmt.Errorf("decode %s payload: %w", a.resource, err)
	}
	id, err := a.identity(payload)
	if err != nil {
		return 0, err
	}

	rec := models.ReplicaRecord{
		Resource:  a.resource,
		EventSlug: slug,
		ServerID:  id,
		Payload:   raw,
	}
	if a.fields != nil {
		rec.Fields = a.fields(raw)
	}

	changed := 0
	err = d.store.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := d.store.Replica.RecordsByServerID(ctx, a.resource, slug, id)
		if err != nil {
			return err
		}
		switch {
		case len(existing) == 1:
			same, err := payloadEqual(existing[0].Payload, raw)
			if err != nil {
				return err
			}
			if same {
				return nil
			}
			rec.LocalID = existing[0].LocalID
			changed = 1
			return d.store.Replica.UpdateRecord(ctx, rec)
		case len(existing) > 1:
			ids := make([]int64, 0, len(existing))
			for _, r := range existing {
				ids = append(ids, r.LocalID)
			}
			d.log.Warn().Str("resource", string(a.resource)).Str("server_id", id).
				Int("rows", len(existing)).Msg("duplicate replica rows, collapsing")
			if err := d.store.Replica.DeleteRecords(ctx, ids); err != nil {
				return err
			}
			fallthrough
		default:
			changed = 1
			return d.store.Replica.InsertRecords(ctx, []models.ReplicaRecord{rec})
		}
	})
	return changed, err
}

// mergePage reconciles one page of server results against the known map.
// Records found in known are consumed from it; whatever remains after the
// last page was not enumerated by the server.
func (d *downloader) mergePage(ctx context.Context, a resourceAdapter, slug string, results []json.RawMessage, known map[string]models.ReplicaRecord) ([]models.ReplicaRecord, error) {
	var touched []models.ReplicaRecord
	var inserts []models.ReplicaRecord
	for _, raw := range results {
		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err != nil {
			return touched, fmt.Errorf("decode %s payload: %w", a.resource, err)
		}
		id, err := a.identity(payload)
		if err != nil {
			return touched, fmt.Errorf("%s identity: %w", a.resource, err)
		}

		rec := models.ReplicaRecord{
			Resource:  a.resource,
			EventSlug: slug,
			ServerID:  id,
			Payload:   raw,
		}
		if a.fields != nil {
			rec.Fields = a.fields(raw)
		}

		existing, seen := known[id]
		if !seen {
			inserts = append(inserts, rec)
			touched = append(touched, rec)
			continue
		}
		delete(known, id)

		same, err := payloadEqual(existing.Payload, raw)
		if err != nil {
			return touched, err
		}
		if same {
			continue
		}
		rec.LocalID = existing.LocalID
		if err := d.store.Replica.UpdateRecord(ctx, rec); err != nil {
			return touched, err
		}
		touched = append(touched, rec)
	}
	if len(inserts) > 0 {
		if err := d.store.Replica.InsertRecords(ctx, inserts); err != nil {
			return touched, err
		}
	}
	return touched, nil
}

// deleteUnseen removes the records left in known after a full enumeration.
func (d *downloader) deleteUnseen(ctx context.Context, a resourceAdapter, slug string, known map[string]models.ReplicaRecord) error {
	if len(known) == 0 {
		return nil
	}
	gone := make([]models.ReplicaRecord, 0, len(known))
	ids := make([]int64, 0, len(known))
	for _, rec := range known {
		gone = append(gone, rec)
		ids = append(ids, rec.LocalID)
	}
	if a.postDelete != nil {
		if err := a.postDelete(ctx, d, slug, gone); err != nil {
			return err
		}
	}
	d.log.Debug().Str("resource", string(a.resource)).Int("count", len(ids)).Msg("removing records gone from server")
	return d.store.Replica.DeleteRecords(ctx, ids)
}

// pageRecords builds the identity index for the identities appearing on one
// page of server results. A server page is far below the batched query's
// chunk size, so unresolved identities simply come back absent.
func (d *downloader) pageRecords(ctx context.Context, a resourceAdapter, slug string, results []json.RawMessage) (map[string]models.ReplicaRecord, error) {
	ids := make([]string, 0, len(results))
	for _, raw := range results {
		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", a.resource, err)
		}
		id, err := a.identity(payload)
		if err != nil {
			return nil, fmt.Errorf("%s identity: %w", a.resource, err)
		}
		ids = append(ids, id)
	}
	known := make(map[string]models.ReplicaRecord, len(ids))
	for rec, err := range d.store.Replica.RecordsByServerIDs(ctx, a.resource, slug, ids) {
		if err != nil {
			return nil, err
		}
		known[rec.ServerID] = rec
	}
	return known, nil
}

// knownRecords builds the identity index of the local replica for one
// resource scope.
func (d *downloader) knownRecords(ctx context.Context, resource models.Resource, slug string) (map[string]models.ReplicaRecord, error) {
	records, err := d.store.Replica.ListRecords(ctx, resource, slug)
	if err != nil {
		return nil, err
	}
	known := make(map[string]models.ReplicaRecord, len(records))
	for _, rec := range records {
		known[rec.ServerID] = rec
	}
	return known, nil
}

// payloadEqual compares two payloads structurally, so key order and
// whitespace differences between server renderings do not count as changes.
func payloadEqual(a, b json.RawMessage) (bool, error) {
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return false, fmt.Errorf("decode stored payload: %w", err)
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false, fmt.Errorf("decode server payload: %w", err)
	}
	return reflect.DeepEqual(av, bv), nil
}

// pageTailMarker returns the change marker of the last record of a page
// that carries one.
func pageTailMarker(results []json.RawMessage, marker func(map[string]any) string) string {
	for i := len(results) - 1; i >= 0; i-- {
		var payload map[string]any
		if err := json.Unmarshal(results[i], &payload); err != nil {
			continue
		}
		if m := marker(payload); m != "" {
			return m
		}
	}
	return ""
}
