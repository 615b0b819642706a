package store

import (
	"context"
	"fmt"

	"github.com/eventra/checkpoint/internal/config"
	"github.com/eventra/checkpoint/internal/logger"
)

// ClientStorages groups all local storage repositories into a single value
// that can be passed around the service layer. Tests may construct the
// struct directly with mock fields.
type ClientStorages struct {
	Replica    ReplicaRepository
	CheckIns   CheckInRepository
	Queue      QueueRepository
	SyncStatus SyncStatusRepository
	Tx         TransactionRunner
}

// NewClientStorages opens the local SQLite replica, applies pending
// migrations, and wires all repositories over the shared connection.
func NewClientStorages(ctx context.Context, cfg config.Storage, log *logger.Logger) (*ClientStorages, error) {
	db, err := NewConnectSQLite(ctx, cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("connect local replica: %w", err)
	}

	if err = db.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate local replica: %w", err)
	}

	return &ClientStorages{
		Replica:    NewReplicaRepository(db, log),
		CheckIns:   NewCheckInRepository(db, log),
		Queue:      NewQueueRepository(db, log),
		SyncStatus: NewSyncStatusRepository(db, log),
		Tx:         db,
	}, nil
}
