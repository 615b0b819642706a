package store

import (
	"context"
	"iter"

	"github.com/eventra/checkpoint/models"
)

// ReplicaRepository is the low-level local replica table. All methods honor
// an active transaction attached to ctx by [TransactionRunner].
type ReplicaRepository interface {
	// ListRecords returns every record of one resource within one event
	// scope ("" for organizer-level resources).
	ListRecords(ctx context.Context, resource models.Resource, eventSlug string) ([]models.ReplicaRecord, error)

	// RecordsByServerID returns all records matching one server identity.
	// More than one row is an integrity violation the caller is expected to
	// self-heal; zero rows is an empty slice, not an error.
	RecordsByServerID(ctx context.Context, resource models.Resource, eventSlug, serverID string) ([]models.ReplicaRecord, error)

	// RecordsByServerIDs streams all records whose server identity is in
	// serverIDs, querying in bounded batches and buffering one batch at a
	// time. The sequence yields ErrUnexpectedEmptyBatch if a non-final
	// batch matches nothing.
	RecordsByServerIDs(ctx context.Context, resource models.Resource, eventSlug string, serverIDs []string) iter.Seq2[models.ReplicaRecord, error]

	// RecordsBySecret returns the records of one resource carrying the
	// given denormalized secret.
	RecordsBySecret(ctx context.Context, resource models.Resource, eventSlug, secret string) ([]models.ReplicaRecord, error)

	// RecordsByOrderCode returns the records of one resource belonging to
	// the given order.
	RecordsByOrderCode(ctx context.Context, resource models.Resource, eventSlug, orderCode string) ([]models.ReplicaRecord, error)

	InsertRecords(ctx context.Context, records []models.ReplicaRecord) error
	UpdateRecord(ctx context.Context, record models.ReplicaRecord) error
	DeleteRecords(ctx context.Context, localIDs []int64) error

	// ReconcileItemLayouts projects layout assignments onto item records:
	// items keyed in byItem get that layout id, every other item of the
	// event gets zero. A full set reconciliation, not an additive update.
	ReconcileItemLayouts(ctx context.Context, eventSlug string, byItem map[string]int64) error

	// SearchPositions matches order positions against attendee name, email,
	// order code, and ticket secret, narrowed by filter. The filter runs
	// inside the query so limit and offset page over matching rows only.
	SearchPositions(ctx context.Context, eventSlug, query string, filter PositionSearchFilter, limit, offset uint64) ([]models.ReplicaRecord, error)

	// PositionCounts aggregates order positions per (item, variation,
	// subevent, order status) for occupancy reporting.
	PositionCounts(ctx context.Context, eventSlug string) ([]PositionCount, error)
}

// CheckInRepository stores confirmed and provisional check-in rows.
type CheckInRepository interface {
	InsertCheckIn(ctx context.Context, c models.LocalCheckIn) error

	// HasCheckIn reports whether any check-in row exists for the ticket on
	// the given list, regardless of source.
	HasCheckIn(ctx context.Context, eventSlug string, listID int64, secret string) (bool, error)

	// FirstCheckIn returns the earliest entry check-in for the ticket on
	// the given list. ErrRecordNotFound when none exists.
	FirstCheckIn(ctx context.Context, eventSlug string, listID int64, secret string) (models.LocalCheckIn, error)

	// ReplaceServerCheckIns reconciles the server-confirmed check-ins of
	// one position: existing server-sourced rows for the position are
	// replaced by checkins, and local provisional rows that the server now
	// confirms (same list) are dropped as redundant.
	ReplaceServerCheckIns(ctx context.Context, eventSlug, positionID, secret string, checkins []models.CheckIn) error

	// DeleteForPositions removes all check-in rows of the given positions.
	DeleteForPositions(ctx context.Context, eventSlug string, positionIDs []string) error

	// CheckInCounts aggregates entry check-ins for one list per item and
	// variation of the checked position.
	CheckInCounts(ctx context.Context, eventSlug string, listID int64) ([]CheckInCount, error)
}

// QueueRepository stores locally originated uploads: queued check-ins,
// receipts, and closings.
type QueueRepository interface {
	EnqueueCheckIn(ctx context.Context, q models.QueuedCheckIn) error
	PendingCheckIns(ctx context.Context, eventSlug string) ([]models.QueuedCheckIn, error)
	HasPendingCheckIn(ctx context.Context, eventSlug string, listID int64, secret string) (bool, error)
	DeleteQueuedCheckIn(ctx context.Context, id int64) error

	InsertReceipt(ctx context.Context, r models.Receipt) (int64, error)
	UnsyncedReceipts(ctx context.Context, eventSlug string) ([]models.Receipt, error)
	MarkReceiptSynced(ctx context.Context, id, serverID int64) error

	InsertClosing(ctx context.Context, c models.Closing) (int64, error)
	UnsyncedClosings(ctx context.Context, eventSlug string) ([]models.Closing, error)
	MarkClosingSynced(ctx context.Context, id, serverID int64) error
}

// SyncStatusRepository stores per-resource sync cursors and the
// orchestrator's key/value state.
type SyncStatusRepository interface {
	// ResourceStatus returns the stored cursor of one (resource, event)
	// pair. ErrRecordNotFound when no fetch has succeeded yet.
	ResourceStatus(ctx context.Context, resource models.Resource, eventSlug string) (models.ResourceSyncStatus, error)
	SetResourceStatus(ctx context.Context, status models.ResourceSyncStatus) error
	DeleteResourceStatus(ctx context.Context, resource models.Resource, eventSlug string) error

	// State returns the value stored under key, or "" when unset.
	State(ctx context.Context, key string) (string, error)
	SetState(ctx context.Context, key, value string) error
}

// TransactionRunner executes a unit of work atomically. Repository calls
// made with the context handed to fn join the same transaction.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// PositionSearchFilter narrows a position search to what one check-in
// list covers.
type PositionSearchFilter struct {
	// Items restricts matches to these item ids. Empty means any item.
	Items []int64

	// SubEvent restricts matches to one date of an event series.
	SubEvent *int64
}

// PositionCount is one row of the position occupancy aggregation.
type PositionCount struct {
	Item      int64
	Variation int64
	SubEvent  int64
	Status    string
	Count     int64
}

// CheckInCount is one row of the check-in aggregation for a list.
type CheckInCount struct {
	Item      int64
	Variation int64
	Count     int64
}
