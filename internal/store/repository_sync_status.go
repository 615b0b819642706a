package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eventra/checkpoint/internal/logger"
	"github.com/eventra/checkpoint/models"
)

type syncStatusRepository struct {
	*DB
	logger *logger.Logger
}

func NewSyncStatusRepository(db *DB, logger *logger.Logger) SyncStatusRepository {
	return &syncStatusRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *syncStatusRepository) ResourceStatus(ctx context.Context, resource models.Resource, eventSlug string) (models.ResourceSyncStatus, error) {
	var st models.ResourceSyncStatus
	var res string

	row := r.conn(ctx).QueryRowContext(ctx, getResourceStatus, string(resource), eventSlug)
	err := row.Scan(&st.ID, &res, &st.EventSlug, &st.Status, &st.Cursor, &st.Meta)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ResourceSyncStatus{}, ErrRecordNotFound
	}
	if err != nil {
		return models.ResourceSyncStatus{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	st.Resource = models.Resource(res)
	return st, nil
}

func (r *syncStatusRepository) SetResourceStatus(ctx context.Context, status models.ResourceSyncStatus) error {
	log := logger.FromContext(ctx)

	_, err := r.conn(ctx).ExecContext(ctx, upsertResourceStatus,
		string(status.Resource),
		status.EventSlug,
		status.Status,
		status.Cursor,
		status.Meta,
	)
	if err != nil {
		log.Err(err).
			Str("func", "syncStatusRepository.SetResourceStatus").
			Str("resource", string(status.Resource)).
			Msg("failed to upsert resource sync status")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (r *syncStatusRepository) DeleteResourceStatus(ctx context.Context, resource models.Resource, eventSlug string) error {
	if _, err := r.conn(ctx).ExecContext(ctx, deleteResourceStatus, string(resource), eventSlug); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (r *syncStatusRepository) State(ctx context.Context, key string) (string, error) {
	var value string
	err := r.conn(ctx).QueryRowContext(ctx, getSyncState, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return value, nil
}

func (r *syncStatusRepository) SetState(ctx context.Context, key, value string) error {
	if _, err := r.conn(ctx).ExecContext(ctx, upsertSyncState, key, value); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}
