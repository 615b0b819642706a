package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eventra/checkpoint/internal/logger"
	"github.com/eventra/checkpoint/models"
)

type queueRepository struct {
	*DB
	logger *logger.Logger
}

func NewQueueRepository(db *DB, logger *logger.Logger) QueueRepository {
	return &queueRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *queueRepository) EnqueueCheckIn(ctx context.Context, q models.QueuedCheckIn) error {
	log := logger.FromContext(ctx)

	answers, err := json.Marshal(q.Answers)
	if err != nil {
		return fmt.Errorf("encode queued answers: %w", err)
	}

	_, err = r.conn(ctx).ExecContext(ctx, insertQueuedCheckIn,
		q.EventSlug,
		q.Secret,
		q.ListID,
		q.Datetime,
		q.Nonce,
		string(q.Type),
		string(answers),
	)
	if err != nil {
		log.Err(err).
			Str("func", "queueRepository.EnqueueCheckIn").
			Int64("list_id", q.ListID).
			Str("nonce", q.Nonce).
			Msg("failed to enqueue check-in")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (r *queueRepository) PendingCheckIns(ctx context.Context, eventSlug string) ([]models.QueuedCheckIn, error) {
	log := logger.FromContext(ctx)

	rows, err := r.conn(ctx).QueryContext(ctx, listPendingCheckIns, eventSlug)
	if err != nil {
		log.Err(err).Str("func", "queueRepository.PendingCheckIns").Msg("failed to query queued check-ins")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var pending []models.QueuedCheckIn
	for rows.Next() {
		var q models.QueuedCheckIn
		var qType, answers string

		if err = rows.Scan(&q.ID, &q.EventSlug, &q.Secret, &q.ListID, &q.Datetime, &q.Nonce, &qType, &answers); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		q.Type = models.CheckInType(qType)
		if err = json.Unmarshal([]byte(answers), &q.Answers); err != nil {
			return nil, fmt.Errorf("decode queued answers: %w", err)
		}

		pending = append(pending, q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return pending, nil
}

func (r *queueRepository) HasPendingCheckIn(ctx context.Context, eventSlug string, listID int64, secret string) (bool, error) {
	var count int64
	err := r.conn(ctx).QueryRowContext(ctx, countPendingCheckIns, eventSlug, listID, secret).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count > 0, nil
}

func (r *queueRepository) DeleteQueuedCheckIn(ctx context.Context, id int64) error {
	if _, err := r.conn(ctx).ExecContext(ctx, deleteQueuedCheckIn, id); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (r *queueRepository) InsertReceipt(ctx context.Context, rec models.Receipt) (int64, error) {
	res, err := r.conn(ctx).ExecContext(ctx, insertReceipt,
		rec.EventSlug, rec.ServerID, rec.Open, []byte(rec.Payload), rec.Created)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return res.LastInsertId()
}

func (r *queueRepository) UnsyncedReceipts(ctx context.Context, eventSlug string) ([]models.Receipt, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, listUnsyncedReceipts, eventSlug)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var receipts []models.Receipt
	for rows.Next() {
		var rec models.Receipt
		var payload []byte
		if err = rows.Scan(&rec.ID, &rec.EventSlug, &rec.ServerID, &rec.Open, &payload, &rec.Created); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		rec.Payload = payload
		receipts = append(receipts, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return receipts, nil
}

func (r *queueRepository) MarkReceiptSynced(ctx context.Context, id, serverID int64) error {
	if _, err := r.conn(ctx).ExecContext(ctx, markReceiptSynced, serverID, id); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (r *queueRepository) InsertClosing(ctx context.Context, c models.Closing) (int64, error) {
	res, err := r.conn(ctx).ExecContext(ctx, insertClosing,
		c.EventSlug, c.ServerID, c.Open, []byte(c.Payload), c.Created)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return res.LastInsertId()
}

func (r *queueRepository) UnsyncedClosings(ctx context.Context, eventSlug string) ([]models.Closing, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, listUnsyncedClosings, eventSlug)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var closings []models.Closing
	for rows.Next() {
		var c models.Closing
		var payload []byte
		if err = rows.Scan(&c.ID, &c.EventSlug, &c.ServerID, &c.Open, &payload, &c.Created); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		c.Payload = payload
		closings = append(closings, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return closings, nil
}

func (r *queueRepository) MarkClosingSynced(ctx context.Context, id, serverID int64) error {
	if _, err := r.conn(ctx).ExecContext(ctx, markClosingSynced, serverID, id); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}
