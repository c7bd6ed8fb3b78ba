package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"

	"github.com/aretw0/notestate/pkg/core"
)

const journalPrefix = "journal/"

// Append implements core.Journal.
func (s *Storage) Append(ctx context.Context, e core.JournalEntry) error {
	if e.ID == "" {
		return errors.New("journal entry has no id")
	}
	db, err := s.handle()
	if err != nil {
		return err
	}
	return db.Update(func(txn *dgbadger.Txn) error {
		return setJSON(txn, journalPrefix+e.ID, e)
	})
}

// Replay calls fn for every journal entry in dispatch order. It stops at the
// first error fn returns.
func (s *Storage) Replay(ctx context.Context, fn func(core.JournalEntry) error) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	prefix := []byte(journalPrefix)
	return db.View(func(txn *dgbadger.Txn) error {
		it := txn.NewIterator(dgbadger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var e core.JournalEntry
			if err := json.Unmarshal(data, &e); err != nil {
				return fmt.Errorf("decode journal entry %s: %w", it.Item().Key(), err)
			}
			if err := fn(e); err != nil {
				return err
			}
		}
		return nil
	})
}

// Entries returns the whole journal in dispatch order.
func (s *Storage) Entries(ctx context.Context) ([]core.JournalEntry, error) {
	var out []core.JournalEntry
	err := s.Replay(ctx, func(e core.JournalEntry) error {
		out = append(out, e)
		return nil
	})
	return out, err
}

// Rebuild folds the journal over initial with reducer and returns the
// resulting state. Journaled SAVE_NOTE entries already carry the stamp they
// received, so the replay clock is stopped at the zero time and never
// restamps them. Entries with unknown tags pass through unchanged.
func (s *Storage) Rebuild(ctx context.Context, reducer core.Reducer, initial core.State) (core.State, error) {
	state := initial
	replay := reducer.At(time.Time{})
	err := s.Replay(ctx, func(e core.JournalEntry) error {
		a, err := e.Decode()
		if err != nil {
			return fmt.Errorf("journal entry %s: %w", e.ID, err)
		}
		state, _ = replay.Reduce(state, a)
		return nil
	})
	return state, err
}
