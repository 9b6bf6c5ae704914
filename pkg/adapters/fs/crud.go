package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/shelter/pkg/core"
)

// Create assigns the next id to rec and appends it. Any id supplied by the
// caller is replaced. The stored record, with id first, is returned.
func (s *Store) Create(ctx context.Context, table string, rec core.Record) (core.Record, error) {
	if rec.Len() == 0 {
		return core.Record{}, fmt.Errorf("%w: record cannot be empty", core.ErrValidation)
	}

	var stored core.Record
	err := s.mutate(ctx, table, func(recs []core.Record) ([]core.Record, bool, error) {
		stored = withID(rec, nextID(recs))
		return append(recs, stored), true, nil
	})
	if err != nil {
		return core.Record{}, err
	}

	s.logger.Debug("record created", "table", table, "id", mustID(stored))
	return stored.Clone(), nil
}

// Import appends every record in one write, assigning consecutive ids.
// It returns the stored records.
func (s *Store) Import(ctx context.Context, table string, recs []core.Record) ([]core.Record, error) {
	for i, r := range recs {
		if r.Len() == 0 {
			return nil, fmt.Errorf("%w: record %d is empty", core.ErrValidation, i)
		}
	}
	if len(recs) == 0 {
		return []core.Record{}, nil
	}

	var stored []core.Record
	err := s.mutate(ctx, table, func(current []core.Record) ([]core.Record, bool, error) {
		id := nextID(current)
		stored = make([]core.Record, 0, len(recs))
		for _, r := range recs {
			stored = append(stored, withID(r, id))
			id++
		}
		return append(current, stored...), true, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneRecords(stored), nil
}

// Read returns the first record whose id equals id.
func (s *Store) Read(ctx context.Context, table string, id int64) (core.Record, bool, error) {
	recs, err := s.snapshot(table)
	if err != nil {
		return core.Record{}, false, err
	}
	if i := indexOf(recs, id); i >= 0 {
		return recs[i], true, nil
	}
	return core.Record{}, false, nil
}

// ReadAll returns the whole table in stored order.
func (s *Store) ReadAll(ctx context.Context, table string) ([]core.Record, error) {
	return s.snapshot(table)
}

// ReadAllBatched splits ReadAll into contiguous chunks of size; the last
// chunk may be shorter.
func (s *Store) ReadAllBatched(ctx context.Context, table string, size int) ([][]core.Record, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", core.ErrValidation, size)
	}
	recs, err := s.snapshot(table)
	if err != nil {
		return nil, err
	}

	batches := make([][]core.Record, 0, len(recs)/size+1)
	for start := 0; start < len(recs); start += size {
		end := start + min(size, len(recs)-start)
		batches = append(batches, recs[start:end:end])
	}
	return batches, nil
}

// Update merges patch over the record with the given id. It returns false,
// and writes nothing, when no record matches. The id itself cannot change.
func (s *Store) Update(ctx context.Context, table string, id int64, patch core.Record) (bool, error) {
	if patch.Len() == 0 {
		return false, fmt.Errorf("%w: patch cannot be empty", core.ErrValidation)
	}
	if v, ok := patch.Get(core.IDField); ok {
		if pid, ok := core.AsInt64(v); !ok || pid != id {
			return false, fmt.Errorf("%w: field %q is immutable", core.ErrValidation, core.IDField)
		}
	}

	found := false
	err := s.mutate(ctx, table, func(recs []core.Record) ([]core.Record, bool, error) {
		i := indexOf(recs, id)
		if i < 0 {
			return recs, false, nil
		}
		found = true
		recs[i] = recs[i].Merge(patch)
		return recs, true, nil
	})
	if err != nil {
		return false, err
	}

	if found {
		s.logger.Debug("record updated", "table", table, "id", id)
	}
	return found, nil
}

// Delete removes the record with the given id, keeping the order of the rest.
func (s *Store) Delete(ctx context.Context, table string, id int64) (bool, error) {
	found := false
	err := s.mutate(ctx, table, func(recs []core.Record) ([]core.Record, bool, error) {
		i := indexOf(recs, id)
		if i < 0 {
			return recs, false, nil
		}
		found = true
		return append(recs[:i], recs[i+1:]...), true, nil
	})
	if err != nil {
		return false, err
	}

	if found {
		s.logger.Debug("record deleted", "table", table, "id", id)
	}
	return found, nil
}

// Drop removes the table file. It reports whether the file existed.
func (s *Store) Drop(ctx context.Context, table string) (bool, error) {
	if err := ValidateTableName(table); err != nil {
		return false, err
	}
	if err := s.checkWritable(); err != nil {
		return false, err
	}

	unlock, err := s.lockTable(ctx, table)
	if err != nil {
		return false, err
	}
	defer unlock()

	s.cache.Delete(table)
	err = os.Remove(s.TablePath(table))
	if isNotExist(err) {
		return false, nil
	}
	if err != nil {
		s.logger.Error("failed to drop table", "table", table, "error", err)
		return false, fmt.Errorf("%w: remove %s: %v", core.ErrIO, table, err)
	}

	s.logger.Debug("table dropped", "table", table)
	return true, nil
}

// Tables lists the table names in the base directory, sorted. A non-empty
// pattern filters names with doublestar glob syntax ("user*", "{a,b}").
func (s *Store) Tables(ctx context.Context, pattern string) ([]string, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: invalid pattern %q", core.ErrValidation, pattern)
	}

	entries, err := os.ReadDir(s.Path)
	if isNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", core.ErrIO, s.Path, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name, ok := tableName(e.Name())
		if !ok || e.IsDir() {
			continue
		}
		if !matchesPattern(pattern, name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// tableName maps a file name in the base directory to a table name.
func tableName(file string) (string, bool) {
	file = filepath.Base(file)
	if filepath.Ext(file) != TableExt || strings.HasPrefix(file, ".") {
		return "", false
	}
	name := strings.TrimSuffix(file, TableExt)
	return name, name != ""
}

// withID returns a copy of rec with id as its first field.
func withID(rec core.Record, id int64) core.Record {
	out := core.NewRecord(core.IDField, id)
	rec.Range(func(k string, v any) bool {
		if k != core.IDField {
			out.Set(k, v)
		}
		return true
	})
	return out.Clone()
}

func mustID(rec core.Record) int64 {
	id, _ := rec.ID()
	return id
}
