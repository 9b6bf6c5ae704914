// Package typed maps Go structs onto shelter tables.
//
// Values are converted through their JSON form, so struct tags decide field
// names. The reserved "id" field is carried by Model.ID and never written
// from T: a struct field tagged `json:"id"` is filled on reads and ignored on
// writes.
package typed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/shelter/pkg/core"
)

// Model is a typed view of one record.
type Model[T any] struct {
	ID    int64
	Data  T
	Saver Saver[T] // Active Record reference
}

// Saver avoids coupling a Model to a concrete table type.
type Saver[T any] interface {
	Save(ctx context.Context, m *Model[T]) error
}

// Save persists the model through the table it came from.
func (m *Model[T]) Save(ctx context.Context) error {
	if m.Saver == nil {
		return fmt.Errorf("model is detached (missing Saver)")
	}
	return m.Saver.Save(ctx, m)
}

// Table wraps a core.Table with conversions to and from T.
type Table[T any] struct {
	table *core.Table
}

// NewTable creates a typed wrapper around an existing table façade.
func NewTable[T any](table *core.Table) *Table[T] {
	return &Table[T]{table: table}
}

// Name returns the underlying table name.
func (t *Table[T]) Name() string { return t.table.Name() }

// Create stores data as a new record.
func (t *Table[T]) Create(ctx context.Context, data T) (*Model[T], error) {
	rec, err := toRecord(data)
	if err != nil {
		return nil, err
	}
	stored, err := t.table.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	return t.fromRecord(stored)
}

// Save creates the model when ID is zero and merges it over the stored
// record otherwise. Fields missing from T are kept on disk.
func (t *Table[T]) Save(ctx context.Context, m *Model[T]) error {
	if m.Saver == nil {
		m.Saver = t
	}
	if m.ID == 0 {
		created, err := t.Create(ctx, m.Data)
		if err != nil {
			return err
		}
		m.ID, m.Data = created.ID, created.Data
		return nil
	}

	rec, err := toRecord(m.Data)
	if err != nil {
		return err
	}
	ok, err := t.table.Update(ctx, m.ID, rec)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("record %d not found in %s", m.ID, t.table.Name())
	}
	return nil
}

// Find returns the record with the given id.
func (t *Table[T]) Find(ctx context.Context, id int64) (*Model[T], bool, error) {
	rec, ok, err := t.table.Find(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	m, err := t.fromRecord(rec)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// All returns every record as T.
func (t *Table[T]) All(ctx context.Context) ([]*Model[T], error) {
	return t.list(t.table.All(ctx))
}

// Where filters by exact field values.
func (t *Table[T]) Where(ctx context.Context, conds map[string]any) ([]*Model[T], error) {
	return t.list(t.table.Where(ctx, conds))
}

// Search finds records whose field contains keyword, ignoring case.
func (t *Table[T]) Search(ctx context.Context, field, keyword string) ([]*Model[T], error) {
	return t.list(t.table.Search(ctx, field, keyword))
}

// OrderBy returns every record sorted by field.
func (t *Table[T]) OrderBy(ctx context.Context, field string, dir core.Direction) ([]*Model[T], error) {
	return t.list(t.table.OrderBy(ctx, field, dir))
}

// Limit returns a page of the stored order.
func (t *Table[T]) Limit(ctx context.Context, count, offset int) ([]*Model[T], error) {
	return t.list(t.table.Limit(ctx, count, offset))
}

// Delete removes the record with the given id.
func (t *Table[T]) Delete(ctx context.Context, id int64) (bool, error) {
	return t.table.Delete(ctx, id)
}

func (t *Table[T]) list(recs []core.Record, err error) ([]*Model[T], error) {
	if err != nil {
		return nil, err
	}
	result := make([]*Model[T], 0, len(recs))
	for _, r := range recs {
		m, err := t.fromRecord(r)
		if err != nil {
			id, _ := r.ID()
			return nil, fmt.Errorf("failed to process record %d: %w", id, err)
		}
		result = append(result, m)
	}
	return result, nil
}

func (t *Table[T]) fromRecord(rec core.Record) (*Model[T], error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: record marshal failed: %v", core.ErrSerialization, err)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: unmarshal to %T failed: %v", core.ErrSerialization, v, err)
	}

	id, _ := rec.ID()
	return &Model[T]{ID: id, Data: v, Saver: t}, nil
}

// toRecord converts a value into a record without its id field.
func toRecord(v any) (core.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return core.Record{}, fmt.Errorf("%w: failed to marshal typed data: %v", core.ErrSerialization, err)
	}
	decoded, err := core.DecodeValue(bytes.NewReader(data))
	if err != nil {
		return core.Record{}, fmt.Errorf("%w: %v", core.ErrSerialization, err)
	}
	rec, ok := decoded.(core.Record)
	if !ok {
		return core.Record{}, fmt.Errorf("%w: %T does not encode to a JSON object", core.ErrValidation, v)
	}
	rec.Delete(core.IDField)
	return rec, nil
}
