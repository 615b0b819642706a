package service

import (
	"context"
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/eventra/checkpoint/internal/store"
	"github.com/eventra/checkpoint/models"
)

// fakeStore is an in-memory stand-in for every repository interface, so
// service tests exercise real control flow without SQLite.
type fakeStore struct {
	records  []models.ReplicaRecord
	checkins []models.LocalCheckIn
	queued   []models.QueuedCheckIn
	receipts []models.Receipt
	closings []models.Closing
	statuses map[string]models.ResourceSyncStatus
	state    map[string]string

	nextRecordID  int64
	nextCheckInID int64
	nextQueueID   int64

	updates int
	inserts int
	deletes int
	lists   int
}

func newFakeStore() (*store.ClientStorages, *fakeStore) {
	f := &fakeStore{
		statuses: make(map[string]models.ResourceSyncStatus),
		state:    make(map[string]string),
	}
	return &store.ClientStorages{
		Replica:    f,
		CheckIns:   f,
		Queue:      f,
		SyncStatus: f,
		Tx:         f,
	}, f
}

func (f *fakeStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeStore) ListRecords(_ context.Context, resource models.Resource, eventSlug string) ([]models.ReplicaRecord, error) {
	f.lists++
	var out []models.ReplicaRecord
	for _, r := range f.records {
		if r.Resource == resource && r.EventSlug == eventSlug {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) RecordsByServerID(_ context.Context, resource models.Resource, eventSlug, serverID string) ([]models.ReplicaRecord, error) {
	var out []models.ReplicaRecord
	for _, r := range f.records {
		if r.Resource == resource && r.EventSlug == eventSlug && r.ServerID == serverID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) RecordsByServerIDs(_ context.Context, resource models.Resource, eventSlug string, serverIDs []string) iter.Seq2[models.ReplicaRecord, error] {
	wanted := make(map[string]bool, len(serverIDs))
	for _, id := range serverIDs {
		wanted[id] = true
	}
	return func(yield func(models.ReplicaRecord, error) bool) {
		for _, r := range f.records {
			if r.Resource == resource && r.EventSlug == eventSlug && wanted[r.ServerID] {
				if !yield(r, nil) {
					return
				}
			}
		}
	}
}

func (f *fakeStore) RecordsBySecret(_ context.Context, resource models.Resource, eventSlug, secret string) ([]models.ReplicaRecord, error) {
	var out []models.ReplicaRecord
	for _, r := range f.records {
		if r.Resource == resource && r.EventSlug == eventSlug && r.Fields.Secret == secret {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) RecordsByOrderCode(_ context.Context, resource models.Resource, eventSlug, orderCode string) ([]models.ReplicaRecord, error) {
	var out []models.ReplicaRecord
	for _, r := range f.records {
		if r.Resource == resource && r.EventSlug == eventSlug && r.Fields.OrderCode == orderCode {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertRecords(_ context.Context, records []models.ReplicaRecord) error {
	for _, r := range records {
		f.nextRecordID++
		r.LocalID = f.nextRecordID
		f.records = append(f.records, r)
		f.inserts++
	}
	return nil
}

func (f *fakeStore) UpdateRecord(_ context.Context, record models.ReplicaRecord) error {
	for i, r := range f.records {
		if r.LocalID == record.LocalID {
			record.Fields.Layout = r.Fields.Layout
			f.records[i] = record
			f.updates++
			return nil
		}
	}
	return store.ErrRecordNotFound
}

func (f *fakeStore) DeleteRecords(_ context.Context, localIDs []int64) error {
	gone := make(map[int64]bool, len(localIDs))
	for _, id := range localIDs {
		gone[id] = true
	}
	kept := f.records[:0]
	for _, r := range f.records {
		if gone[r.LocalID] {
			f.deletes++
			continue
		}
		kept = append(kept, r)
	}
	f.records = kept
	return nil
}

func (f *fakeStore) ReconcileItemLayouts(_ context.Context, eventSlug string, byItem map[string]int64) error {
	for i, r := range f.records {
		if r.Resource != models.ResourceItems || r.EventSlug != eventSlug {
			continue
		}
		f.records[i].Fields.Layout = byItem[r.ServerID]
	}
	return nil
}

func (f *fakeStore) SearchPositions(_ context.Context, eventSlug, query string, filter store.PositionSearchFilter, limit, offset uint64) ([]models.ReplicaRecord, error) {
	q := strings.ToLower(query)
	allowed := make(map[int64]bool, len(filter.Items))
	for _, id := range filter.Items {
		allowed[id] = true
	}
	var out []models.ReplicaRecord
	for _, r := range f.records {
		if r.Resource != models.ResourceOrderPositions || r.EventSlug != eventSlug {
			continue
		}
		if len(allowed) > 0 && !allowed[r.Fields.Item] {
			continue
		}
		if filter.SubEvent != nil && r.Fields.SubEvent != *filter.SubEvent {
			continue
		}
		if strings.Contains(strings.ToLower(r.Fields.Name), q) ||
			strings.Contains(strings.ToLower(r.Fields.Email), q) ||
			strings.HasPrefix(strings.ToLower(r.Fields.OrderCode), q) ||
			strings.HasPrefix(strings.ToLower(r.Fields.Secret), q) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fields.OrderCode < out[j].Fields.OrderCode })
	if offset >= uint64(len(out)) {
		return nil, nil
	}
	out = out[offset:]
	if uint64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) PositionCounts(_ context.Context, eventSlug string) ([]store.PositionCount, error) {
	type key struct {
		item, variation, subevent int64
		status                    string
	}
	counts := make(map[key]int64)
	for _, r := range f.records {
		if r.Resource != models.ResourceOrderPositions || r.EventSlug != eventSlug {
			continue
		}
		counts[key{r.Fields.Item, r.Fields.Variation, r.Fields.SubEvent, r.Fields.Status}]++
	}
	out := make([]store.PositionCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, store.PositionCount{Item: k.item, Variation: k.variation, SubEvent: k.subevent, Status: k.status, Count: n})
	}
	return out, nil
}

func (f *fakeStore) InsertCheckIn(_ context.Context, c models.LocalCheckIn) error {
	f.nextCheckInID++
	c.ID = f.nextCheckInID
	f.checkins = append(f.checkins, c)
	return nil
}

func (f *fakeStore) HasCheckIn(_ context.Context, eventSlug string, listID int64, secret string) (bool, error) {
	for _, c := range f.checkins {
		if c.EventSlug == eventSlug && c.ListID == listID && c.Secret == secret {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) FirstCheckIn(_ context.Context, eventSlug string, listID int64, secret string) (models.LocalCheckIn, error) {
	var first *models.LocalCheckIn
	for i, c := range f.checkins {
		if c.EventSlug != eventSlug || c.ListID != listID || c.Secret != secret || c.Type != models.CheckInTypeEntry {
			continue
		}
		if first == nil || c.Datetime.Before(first.Datetime) {
			first = &f.checkins[i]
		}
	}
	if first == nil {
		return models.LocalCheckIn{}, store.ErrRecordNotFound
	}
	return *first, nil
}

func (f *fakeStore) ReplaceServerCheckIns(_ context.Context, eventSlug, positionID, secret string, checkins []models.CheckIn) error {
	confirmed := make(map[int64]bool, len(checkins))
	for _, c := range checkins {
		confirmed[c.ListID] = true
	}
	kept := f.checkins[:0]
	for _, c := range f.checkins {
		if c.EventSlug == eventSlug && c.PositionID == positionID {
			if c.Source == models.CheckInSourceServer {
				continue
			}
			if confirmed[c.ListID] {
				continue
			}
		}
		kept = append(kept, c)
	}
	f.checkins = kept
	for _, c := range checkins {
		f.nextCheckInID++
		f.checkins = append(f.checkins, models.LocalCheckIn{
			ID:         f.nextCheckInID,
			EventSlug:  eventSlug,
			ListID:     c.ListID,
			PositionID: positionID,
			Secret:     secret,
			Datetime:   c.Datetime,
			Type:       c.Type,
			Source:     models.CheckInSourceServer,
			ServerID:   c.ID,
		})
	}
	return nil
}

func (f *fakeStore) DeleteForPositions(_ context.Context, eventSlug string, positionIDs []string) error {
	gone := make(map[string]bool, len(positionIDs))
	for _, id := range positionIDs {
		gone[id] = true
	}
	kept := f.checkins[:0]
	for _, c := range f.checkins {
		if c.EventSlug == eventSlug && gone[c.PositionID] {
			continue
		}
		kept = append(kept, c)
	}
	f.checkins = kept
	return nil
}

func (f *fakeStore) CheckInCounts(_ context.Context, eventSlug string, listID int64) ([]store.CheckInCount, error) {
	type key struct{ item, variation int64 }
	seen := make(map[key]map[string]bool)
	for _, c := range f.checkins {
		if c.EventSlug != eventSlug || c.ListID != listID || c.Type != models.CheckInTypeEntry {
			continue
		}
		for _, r := range f.records {
			if r.Resource == models.ResourceOrderPositions && r.EventSlug == eventSlug && r.Fields.Secret == c.Secret {
				k := key{r.Fields.Item, r.Fields.Variation}
				if seen[k] == nil {
					seen[k] = make(map[string]bool)
				}
				seen[k][c.Secret] = true
			}
		}
	}
	out := make([]store.CheckInCount, 0, len(seen))
	for k, secrets := range seen {
		out = append(out, store.CheckInCount{Item: k.item, Variation: k.variation, Count: int64(len(secrets))})
	}
	return out, nil
}

func (f *fakeStore) EnqueueCheckIn(_ context.Context, q models.QueuedCheckIn) error {
	f.nextQueueID++
	q.ID = f.nextQueueID
	f.queued = append(f.queued, q)
	return nil
}

func (f *fakeStore) PendingCheckIns(_ context.Context, eventSlug string) ([]models.QueuedCheckIn, error) {
	var out []models.QueuedCheckIn
	for _, q := range f.queued {
		if q.EventSlug == eventSlug {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeStore) HasPendingCheckIn(_ context.Context, eventSlug string, listID int64, secret string) (bool, error) {
	for _, q := range f.queued {
		if q.EventSlug == eventSlug && q.ListID == listID && q.Secret == secret {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) DeleteQueuedCheckIn(_ context.Context, id int64) error {
	kept := f.queued[:0]
	for _, q := range f.queued {
		if q.ID != id {
			kept = append(kept, q)
		}
	}
	f.queued = kept
	return nil
}

func (f *fakeStore) InsertReceipt(_ context.Context, r models.Receipt) (int64, error) {
	r.ID = int64(len(f.receipts) + 1)
	f.receipts = append(f.receipts, r)
	return r.ID, nil
}

func (f *fakeStore) UnsyncedReceipts(_ context.Context, eventSlug string) ([]models.Receipt, error) {
	var out []models.Receipt
	for _, r := range f.receipts {
		if r.EventSlug == eventSlug && !r.Open && r.ServerID == 0 {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkReceiptSynced(_ context.Context, id, serverID int64) error {
	for i := range f.receipts {
		if f.receipts[i].ID == id {
			f.receipts[i].ServerID = serverID
			return nil
		}
	}
	return store.ErrRecordNotFound
}

func (f *fakeStore) InsertClosing(_ context.Context, c models.Closing) (int64, error) {
	c.ID = int64(len(f.closings) + 1)
	f.closings = append(f.closings, c)
	return c.ID, nil
}

func (f *fakeStore) UnsyncedClosings(_ context.Context, eventSlug string) ([]models.Closing, error) {
	var out []models.Closing
	for _, c := range f.closings {
		if c.EventSlug == eventSlug && !c.Open && c.ServerID == 0 {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkClosingSynced(_ context.Context, id, serverID int64) error {
	for i := range f.closings {
		if f.closings[i].ID == id {
			f.closings[i].ServerID = serverID
			return nil
		}
	}
	return store.ErrRecordNotFound
}

func (f *fakeStore) ResourceStatus(_ context.Context, resource models.Resource, eventSlug string) (models.ResourceSyncStatus, error) {
	s, ok := f.statuses[string(resource)+"/"+eventSlug]
	if !ok {
		return models.ResourceSyncStatus{}, store.ErrRecordNotFound
	}
	return s, nil
}

func (f *fakeStore) SetResourceStatus(_ context.Context, status models.ResourceSyncStatus) error {
	f.statuses[string(status.Resource)+"/"+status.EventSlug] = status
	return nil
}

func (f *fakeStore) DeleteResourceStatus(_ context.Context, resource models.Resource, eventSlug string) error {
	delete(f.statuses, string(resource)+"/"+eventSlug)
	return nil
}

func (f *fakeStore) State(_ context.Context, key string) (string, error) {
	return f.state[key], nil
}

func (f *fakeStore) SetState(_ context.Context, key, value string) error {
	f.state[key] = value
	return nil
}

// fixedTime returns a deterministic clock for providers under test.
func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
