package store

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	sq "github.com/Masterminds/squirrel"

	"github.com/eventra/checkpoint/internal/logger"
	"github.com/eventra/checkpoint/models"
)

type replicaRepository struct {
	*DB
	logger *logger.Logger
}

func NewReplicaRepository(db *DB, logger *logger.Logger) ReplicaRepository {
	return &replicaRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *replicaRepository) ListRecords(ctx context.Context, resource models.Resource, eventSlug string) ([]models.ReplicaRecord, error) {
	return r.queryRecords(ctx, listReplicaRecords, string(resource), eventSlug)
}

func (r *replicaRepository) RecordsByServerID(ctx context.Context, resource models.Resource, eventSlug, serverID string) ([]models.ReplicaRecord, error) {
	return r.queryRecords(ctx, getReplicaByServerID, string(resource), eventSlug, serverID)
}

func (r *replicaRepository) RecordsBySecret(ctx context.Context, resource models.Resource, eventSlug, secret string) ([]models.ReplicaRecord, error) {
	return r.queryRecords(ctx, getReplicaBySecret, string(resource), eventSlug, secret)
}

func (r *replicaRepository) RecordsByOrderCode(ctx context.Context, resource models.Resource, eventSlug, orderCode string) ([]models.ReplicaRecord, error) {
	return r.queryRecords(ctx, getReplicaByOrderCode, string(resource), eventSlug, orderCode)
}

func (r *replicaRepository) RecordsByServerIDs(ctx context.Context, resource models.Resource, eventSlug string, serverIDs []string) iter.Seq2[models.ReplicaRecord, error] {
	return batchedIdentityQuery(serverIDs, identityBatchSize, func(batch []string) ([]models.ReplicaRecord, error) {
		query, args, err := sq.Select(replicaColumns).
			From("replica_records").
			Where(sq.Eq{"resource": string(resource), "event_slug": eventSlug, "server_id": batch}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}

		return r.queryRecords(ctx, query, args...)
	})
}

func (r *replicaRepository) InsertRecords(ctx context.Context, records []models.ReplicaRecord) error {
	log := logger.FromContext(ctx)

	for _, rec := range records {
		f := rec.Fields
		_, err := r.conn(ctx).ExecContext(ctx, insertReplicaRecord,
			string(rec.Resource),
			rec.EventSlug,
			rec.ServerID,
			[]byte(rec.Payload),
			f.Secret,
			f.OrderCode,
			f.Email,
			f.Item,
			f.Variation,
			f.SubEvent,
			f.Status,
			f.Name,
			f.Position,
			f.Layout,
			f.Blocked,
		)
		if err != nil {
			log.Err(err).
				Str("func", "replicaRepository.InsertRecords").
				Str("resource", string(rec.Resource)).
				Str("server_id", rec.ServerID).
				Msg("failed to insert replica record")
			return fmt.Errorf("failed to insert replica record (server_id=%s): %w", rec.ServerID, err)
		}
	}

	return nil
}

func (r *replicaRepository) UpdateRecord(ctx context.Context, rec models.ReplicaRecord) error {
	log := logger.FromContext(ctx)

	f := rec.Fields
	res, err := r.conn(ctx).ExecContext(ctx, updateReplicaRecord,
		[]byte(rec.Payload),
		f.Secret,
		f.OrderCode,
		f.Email,
		f.Item,
		f.Variation,
		f.SubEvent,
		f.Status,
		f.Name,
		f.Position,
		f.Blocked,
		rec.LocalID,
	)
	if err != nil {
		log.Err(err).
			Str("func", "replicaRepository.UpdateRecord").
			Int64("local_id", rec.LocalID).
			Msg("failed to update replica record")
		return fmt.Errorf("failed to update replica record: %w", err)
	}

	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: local_id=%d", ErrRecordNotFound, rec.LocalID)
	}

	return nil
}

func (r *replicaRepository) DeleteRecords(ctx context.Context, localIDs []int64) error {
	log := logger.FromContext(ctx)

	for start := 0; start < len(localIDs); start += identityBatchSize {
		end := min(start+identityBatchSize, len(localIDs))

		query, args, err := sq.Delete("replica_records").
			Where(sq.Eq{"local_id": localIDs[start:end]}).
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}

		if _, err = r.conn(ctx).ExecContext(ctx, query, args...); err != nil {
			log.Err(err).
				Str("func", "replicaRepository.DeleteRecords").
				Int("count", end-start).
				Msg("failed to delete replica records")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	return nil
}

func (r *replicaRepository) ReconcileItemLayouts(ctx context.Context, eventSlug string, byItem map[string]int64) error {
	log := logger.FromContext(ctx)

	if _, err := r.conn(ctx).ExecContext(ctx, clearItemLayouts, eventSlug); err != nil {
		log.Err(err).Str("func", "replicaRepository.ReconcileItemLayouts").Msg("failed to clear layout assignments")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	for itemID, layoutID := range byItem {
		if _, err := r.conn(ctx).ExecContext(ctx, assignItemLayout, layoutID, eventSlug, itemID); err != nil {
			log.Err(err).
				Str("func", "replicaRepository.ReconcileItemLayouts").
				Str("item", itemID).
				Msg("failed to assign layout")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	return nil
}

func (r *replicaRepository) SearchPositions(ctx context.Context, eventSlug, query string, filter PositionSearchFilter, limit, offset uint64) ([]models.ReplicaRecord, error) {
	contains := "%" + query + "%"

	builder := sq.Select(replicaColumns).
		From("replica_records").
		Where(sq.Eq{"resource": string(models.ResourceOrderPositions), "event_slug": eventSlug}).
		Where(sq.Or{
			sq.Like{"name": contains},
			sq.Like{"email": contains},
			sq.Like{"order_code": query + "%"},
			sq.Like{"secret": query + "%"},
		})
	if len(filter.Items) > 0 {
		builder = builder.Where(sq.Eq{"item": filter.Items})
	}
	if filter.SubEvent != nil {
		builder = builder.Where(sq.Eq{"subevent": *filter.SubEvent})
	}

	sqlQuery, args, err := builder.
		OrderBy("order_code ASC", "position ASC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.queryRecords(ctx, sqlQuery, args...)
}

func (r *replicaRepository) PositionCounts(ctx context.Context, eventSlug string) ([]PositionCount, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.Select("item", "variation", "subevent", "status", "COUNT(*)").
		From("replica_records").
		Where(sq.Eq{"resource": string(models.ResourceOrderPositions), "event_slug": eventSlug}).
		GroupBy("item", "variation", "subevent", "status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "replicaRepository.PositionCounts").Msg("failed to query position counts")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var counts []PositionCount
	for rows.Next() {
		var c PositionCount
		if err = rows.Scan(&c.Item, &c.Variation, &c.SubEvent, &c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		counts = append(counts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return counts, nil
}

func (r *replicaRepository) queryRecords(ctx context.Context, query string, args ...any) ([]models.ReplicaRecord, error) {
	log := logger.FromContext(ctx)

	rows, err := r.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "replicaRepository.queryRecords").Msg("failed to query replica records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var records []models.ReplicaRecord
	for rows.Next() {
		rec, err := scanReplicaRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return records, nil
}

func scanReplicaRecord(rows *sql.Rows) (models.ReplicaRecord, error) {
	var rec models.ReplicaRecord
	var resource string
	var serverID, secret, orderCode, email, status, name sql.NullString
	var item, variation, subevent, position, layout sql.NullInt64
	var payload []byte

	err := rows.Scan(
		&rec.LocalID,
		&resource,
		&rec.EventSlug,
		&serverID,
		&payload,
		&secret,
		&orderCode,
		&email,
		&item,
		&variation,
		&subevent,
		&status,
		&name,
		&position,
		&layout,
		&rec.Fields.Blocked,
	)
	if err != nil {
		return models.ReplicaRecord{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	rec.Resource = models.Resource(resource)
	rec.ServerID = serverID.String
	rec.Payload = payload
	rec.Fields.Secret = secret.String
	rec.Fields.OrderCode = orderCode.String
	rec.Fields.Email = email.String
	rec.Fields.Status = status.String
	rec.Fields.Name = name.String
	rec.Fields.Item = item.Int64
	rec.Fields.Variation = variation.Int64
	rec.Fields.SubEvent = subevent.Int64
	rec.Fields.Position = position.Int64
	rec.Fields.Layout = layout.Int64

	return rec, nil
}
