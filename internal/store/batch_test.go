package store

import (
	"errors"
	"fmt"
	"testing"
)

func collectBatches(t *testing.T, ids []string, size int, fetch func(batch []string) ([]string, error)) ([]string, error) {
	t.Helper()

	var out []string
	for row, err := range batchedIdentityQuery(ids, size, fetch) {
		if err != nil {
			return out, err
		}
		out = append(out, row)
	}
	return out, nil
}

func TestBatchedIdentityQuery_YieldsAllRowsAcrossBatches(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}

	var calls [][]string
	fetch := func(batch []string) ([]string, error) {
		calls = append(calls, batch)
		rows := make([]string, 0, len(batch))
		for _, id := range batch {
			rows = append(rows, "row-"+id)
		}
		return rows, nil
	}

	got, err := collectBatches(t, ids, 2, fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 rows, got %d: %v", len(got), got)
	}
	if got[0] != "row-a" || got[4] != "row-e" {
		t.Errorf("rows out of order: %v", got)
	}
	if len(calls) != 3 {
		t.Errorf("expected 3 batches of size <= 2, got %d", len(calls))
	}
	if len(calls[2]) != 1 || calls[2][0] != "e" {
		t.Errorf("expected final batch [e], got %v", calls[2])
	}
}

func TestBatchedIdentityQuery_NoIDs(t *testing.T) {
	fetch := func(batch []string) ([]string, error) {
		t.Fatal("fetch must not be called for an empty id set")
		return nil, nil
	}

	got, err := collectBatches(t, nil, 500, fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no rows, got %v", got)
	}
}

func TestBatchedIdentityQuery_EmptyNonFinalBatch(t *testing.T) {
	ids := []string{"a", "b", "c"}

	fetch := func(batch []string) ([]string, error) {
		if batch[0] == "a" {
			return nil, nil // first batch resolves nothing
		}
		return batch, nil
	}

	_, err := collectBatches(t, ids, 2, fetch)
	if !errors.Is(err, ErrUnexpectedEmptyBatch) {
		t.Fatalf("expected ErrUnexpectedEmptyBatch, got %v", err)
	}
}

func TestBatchedIdentityQuery_EmptyFinalBatchIsFine(t *testing.T) {
	ids := []string{"a", "b", "c"}

	fetch := func(batch []string) ([]string, error) {
		if len(batch) == 1 { // the trailing batch
			return nil, nil
		}
		return batch, nil
	}

	got, err := collectBatches(t, ids, 2, fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 rows from the full batch, got %v", got)
	}
}

func TestBatchedIdentityQuery_FetchErrorStopsIteration(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	boom := fmt.Errorf("backend gone")

	calls := 0
	fetch := func(batch []string) ([]string, error) {
		calls++
		if calls == 2 {
			return nil, boom
		}
		return batch, nil
	}

	got, err := collectBatches(t, ids, 2, fetch)
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected rows from the first batch only, got %v", got)
	}
	if calls != 2 {
		t.Errorf("expected iteration to stop after the failing batch, got %d calls", calls)
	}
}

func TestBatchedIdentityQuery_StopsWhenConsumerBreaks(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}

	calls := 0
	fetch := func(batch []string) ([]string, error) {
		calls++
		return batch, nil
	}

	var got []string
	for row, err := range batchedIdentityQuery(ids, 2, fetch) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, row)
		if len(got) == 1 {
			break
		}
	}

	if calls != 1 {
		t.Errorf("expected a single fetch before the consumer broke, got %d", calls)
	}
}
