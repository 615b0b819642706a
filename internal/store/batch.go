package store

import "iter"

// identityBatchSize bounds the number of identities bound into a single IN
// query, staying under backend parameter-count ceilings.
const identityBatchSize = 500

// batchedIdentityQuery runs fetch once per bounded batch of ids and yields
// the resulting rows lazily, buffering one batch at a time. Identity sets
// handed in are expected to resolve against local state: a non-final batch
// that produces zero rows is surfaced as ErrUnexpectedEmptyBatch because it
// signals a caller bug, not absence of data. The final batch may be empty.
func batchedIdentityQuery[T any](ids []string, size int, fetch func(batch []string) ([]T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for start := 0; start < len(ids); start += size {
			end := min(start+size, len(ids))

			rows, err := fetch(ids[start:end])
			if err != nil {
				yield(zero, err)
				return
			}
			if len(rows) == 0 && end < len(ids) {
				yield(zero, ErrUnexpectedEmptyBatch)
				return
			}

			for _, row := range rows {
				if !yield(row, nil) {
					return
				}
			}
		}
	}
}
