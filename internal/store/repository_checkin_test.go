package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/eventra/checkpoint/internal/logger"
	"github.com/eventra/checkpoint/models"
)

func newTestCheckInRepo(t *testing.T) (*checkInRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.NewLogger("test")
	repo := &checkInRepository{
		DB:     &DB{DB: db, logger: l},
		logger: l,
	}
	return repo, mock, db
}

func TestFirstCheckIn_Found(t *testing.T) {
	repo, mock, db := newTestCheckInRepo(t)
	defer db.Close()

	when := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.
		NewRows([]string{"id", "event_slug", "list_id", "position_id", "secret", "datetime", "type", "source", "server_id"}).
		AddRow(1, "democon", 7, "41", "sec-1", when, "entry", "server", 900)

	mock.ExpectQuery("FROM checkins").
		WithArgs("democon", int64(7), "sec-1").
		WillReturnRows(rows)

	c, err := repo.FirstCheckIn(context.Background(), "democon", 7, "sec-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Type != models.CheckInTypeEntry || c.Source != models.CheckInSourceServer {
		t.Errorf("type/source not decoded: %v / %v", c.Type, c.Source)
	}
	if !c.Datetime.Equal(when) || c.ServerID != 900 {
		t.Errorf("check-in not decoded: %+v", c)
	}
}

func TestFirstCheckIn_NotFound(t *testing.T) {
	repo, mock, db := newTestCheckInRepo(t)
	defer db.Close()

	mock.ExpectQuery("FROM checkins").
		WithArgs("democon", int64(7), "sec-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FirstCheckIn(context.Background(), "democon", 7, "sec-1")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestReplaceServerCheckIns_SupersedesLocalRows(t *testing.T) {
	repo, mock, db := newTestCheckInRepo(t)
	defer db.Close()

	when := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`source = 'server'`).
		WithArgs("democon", "41").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`source = 'local'`).
		WithArgs("democon", "41", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO checkins").
		WithArgs("democon", int64(7), "41", "sec-1", when, "entry", "server", int64(900)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.ReplaceServerCheckIns(context.Background(), "democon", "41", "sec-1", []models.CheckIn{
		{ID: 900, ListID: 7, Datetime: when, Type: models.CheckInTypeEntry},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReplaceServerCheckIns_NoServerCopies(t *testing.T) {
	repo, mock, db := newTestCheckInRepo(t)
	defer db.Close()

	// server rows are dropped even when the position carries no check-ins
	mock.ExpectExec(`source = 'server'`).
		WithArgs("democon", "41").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ReplaceServerCheckIns(context.Background(), "democon", "41", "sec-1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteForPositions(t *testing.T) {
	repo, mock, db := newTestCheckInRepo(t)
	defer db.Close()

	// squirrel renders Eq map keys in sorted order: event_slug, position_id
	mock.ExpectExec("DELETE FROM checkins").
		WithArgs("democon", "41", "42").
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := repo.DeleteForPositions(context.Background(), "democon", []string{"41", "42"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestHasCheckIn(t *testing.T) {
	repo, mock, db := newTestCheckInRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM checkins`).
		WithArgs("democon", int64(7), "sec-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	has, err := repo.HasCheckIn(context.Background(), "democon", 7, "sec-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !has {
		t.Error("expected check-in to be reported")
	}
}

func TestCheckInCounts_JoinsPositions(t *testing.T) {
	repo, mock, db := newTestCheckInRepo(t)
	defer db.Close()

	rows := sqlmock.
		NewRows([]string{"item", "variation", "count"}).
		AddRow(10, 101, 2).
		AddRow(20, 0, 1)

	mock.ExpectQuery("GROUP BY p.item, p.variation").
		WithArgs("orderpositions", "democon", int64(7), "entry").
		WillReturnRows(rows)

	counts, err := repo.CheckInCounts(context.Background(), "democon", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(counts))
	}
	if counts[0].Item != 10 || counts[0].Variation != 101 || counts[0].Count != 2 {
		t.Errorf("first group not decoded: %+v", counts[0])
	}
}
