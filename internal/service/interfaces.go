package service

import (
	"context"

	"github.com/eventra/checkpoint/models"
)

// TicketCheckProvider answers redemption requests for one check-in list.
// Implementations differ in where the answer comes from: the local replica,
// the live server API, or an upstream proxy. Callers can swap one for
// another without changing the flow around a scan.
type TicketCheckProvider interface {
	// Check attempts to redeem the ticket identified by req.Secret.
	// A non-nil error means the check could not be performed at all;
	// a rejected ticket is a successful check with a non-valid result.
	Check(ctx context.Context, req models.CheckRequest) (models.CheckResult, error)

	// Search finds order positions matching the query within the
	// provider's list scope. Queries shorter than the minimum length
	// return no results. Pages are numbered from 1.
	Search(ctx context.Context, query string, page int) ([]models.SearchResult, error)

	// Status reports aggregate check-in counts for the provider's list.
	Status(ctx context.Context) (models.StatusResult, error)
}

// Syncer drives replication between the local replica and the server.
type Syncer interface {
	// Sync runs one synchronization cycle: upload queued local state,
	// then download server changes if the download interval has passed.
	// With force set, interval and cooldown gates are skipped.
	// progress, when non-nil, receives a short label per step.
	Sync(ctx context.Context, force bool, progress func(step string)) (models.SyncStats, error)

	// State reports the timestamps of the last successful and last
	// failed cycle.
	State(ctx context.Context) (models.SyncState, error)
}
