package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/eventra/checkpoint/internal/logger"
	"github.com/eventra/checkpoint/models"
)

type checkInRepository struct {
	*DB
	logger *logger.Logger
}

func NewCheckInRepository(db *DB, logger *logger.Logger) CheckInRepository {
	return &checkInRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *checkInRepository) InsertCheckIn(ctx context.Context, c models.LocalCheckIn) error {
	log := logger.FromContext(ctx)

	_, err := r.conn(ctx).ExecContext(ctx, insertCheckIn,
		c.EventSlug,
		c.ListID,
		c.PositionID,
		c.Secret,
		c.Datetime,
		string(c.Type),
		string(c.Source),
		c.ServerID,
	)
	if err != nil {
		log.Err(err).
			Str("func", "checkInRepository.InsertCheckIn").
			Int64("list_id", c.ListID).
			Msg("failed to insert check-in")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (r *checkInRepository) HasCheckIn(ctx context.Context, eventSlug string, listID int64, secret string) (bool, error) {
	var count int64
	err := r.conn(ctx).QueryRowContext(ctx, countCheckIns, eventSlug, listID, secret).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count > 0, nil
}

func (r *checkInRepository) FirstCheckIn(ctx context.Context, eventSlug string, listID int64, secret string) (models.LocalCheckIn, error) {
	var c models.LocalCheckIn
	var cType, source string

	row := r.conn(ctx).QueryRowContext(ctx, getFirstCheckIn, eventSlug, listID, secret)
	err := row.Scan(&c.ID, &c.EventSlug, &c.ListID, &c.PositionID, &c.Secret, &c.Datetime, &cType, &source, &c.ServerID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LocalCheckIn{}, ErrRecordNotFound
	}
	if err != nil {
		return models.LocalCheckIn{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	c.Type = models.CheckInType(cType)
	c.Source = models.CheckInSource(source)
	return c, nil
}

func (r *checkInRepository) ReplaceServerCheckIns(ctx context.Context, eventSlug, positionID, secret string, checkins []models.CheckIn) error {
	log := logger.FromContext(ctx)

	if _, err := r.conn(ctx).ExecContext(ctx, deleteServerCheckInsForPosition, eventSlug, positionID); err != nil {
		log.Err(err).Str("func", "checkInRepository.ReplaceServerCheckIns").Msg("failed to drop server check-ins")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	for _, c := range checkins {
		// the server copy supersedes any provisional local row for the list
		if _, err := r.conn(ctx).ExecContext(ctx, deleteConfirmedLocalCheckIns, eventSlug, positionID, c.ListID); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}

		err := r.InsertCheckIn(ctx, models.LocalCheckIn{
			EventSlug:  eventSlug,
			ListID:     c.ListID,
			PositionID: positionID,
			Secret:     secret,
			Datetime:   c.Datetime,
			Type:       c.Type,
			Source:     models.CheckInSourceServer,
			ServerID:   c.ID,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *checkInRepository) DeleteForPositions(ctx context.Context, eventSlug string, positionIDs []string) error {
	log := logger.FromContext(ctx)

	for start := 0; start < len(positionIDs); start += identityBatchSize {
		end := min(start+identityBatchSize, len(positionIDs))

		query, args, err := sq.Delete("checkins").
			Where(sq.Eq{"event_slug": eventSlug, "position_id": positionIDs[start:end]}).
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}

		if _, err = r.conn(ctx).ExecContext(ctx, query, args...); err != nil {
			log.Err(err).Str("func", "checkInRepository.DeleteForPositions").Msg("failed to delete check-ins")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	return nil
}

func (r *checkInRepository) CheckInCounts(ctx context.Context, eventSlug string, listID int64) ([]CheckInCount, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.Select("p.item", "p.variation", "COUNT(DISTINCT c.secret)").
		From("checkins c").
		Join("replica_records p ON p.secret = c.secret AND p.event_slug = c.event_slug AND p.resource = ?", string(models.ResourceOrderPositions)).
		Where(sq.Eq{"c.event_slug": eventSlug, "c.list_id": listID, "c.type": string(models.CheckInTypeEntry)}).
		GroupBy("p.item", "p.variation").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "checkInRepository.CheckInCounts").Msg("failed to query check-in counts")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var counts []CheckInCount
	for rows.Next() {
		var c CheckInCount
		if err = rows.Scan(&c.Item, &c.Variation, &c.Count); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		counts = append(counts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return counts, nil
}
