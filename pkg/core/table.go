package core

import (
	"context"
	"fmt"
)

// Table binds a Repository to one table name. It only forwards calls.
type Table struct {
	repo Repository
	name string
}

// NewTable creates a Table view.
func NewTable(repo Repository, name string) (*Table, error) {
	if repo == nil {
		return nil, fmt.Errorf("%w: repository is nil", ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: table name cannot be empty", ErrValidation)
	}
	return &Table{repo: repo, name: name}, nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

func (t *Table) Create(ctx context.Context, rec Record) (Record, error) {
	return t.repo.Create(ctx, t.name, rec)
}

func (t *Table) Find(ctx context.Context, id int64) (Record, bool, error) {
	return t.repo.Read(ctx, t.name, id)
}

func (t *Table) All(ctx context.Context) ([]Record, error) {
	return t.repo.ReadAll(ctx, t.name)
}

func (t *Table) Batches(ctx context.Context, size int) ([][]Record, error) {
	return t.repo.ReadAllBatched(ctx, t.name, size)
}

func (t *Table) Update(ctx context.Context, id int64, patch Record) (bool, error) {
	return t.repo.Update(ctx, t.name, id, patch)
}

func (t *Table) Delete(ctx context.Context, id int64) (bool, error) {
	return t.repo.Delete(ctx, t.name, id)
}

func (t *Table) Where(ctx context.Context, conds map[string]any) ([]Record, error) {
	return t.repo.Where(ctx, t.name, conds)
}

func (t *Table) Search(ctx context.Context, field, keyword string) ([]Record, error) {
	return t.repo.Search(ctx, t.name, field, keyword)
}

func (t *Table) OrderBy(ctx context.Context, field string, dir Direction) ([]Record, error) {
	return t.repo.OrderBy(ctx, t.name, field, dir)
}

func (t *Table) Limit(ctx context.Context, count, offset int) ([]Record, error) {
	return t.repo.Limit(ctx, t.name, count, offset)
}

// HasOne, HasMany and BelongsTo address another table; the receiver's name
// is not used, matching the repository methods.
func (t *Table) HasOne(ctx context.Context, related, foreignKey string, localKey any) ([]Record, error) {
	return t.repo.HasOne(ctx, related, foreignKey, localKey)
}

func (t *Table) HasMany(ctx context.Context, related, foreignKey string, localKey any) ([]Record, error) {
	return t.repo.HasMany(ctx, related, foreignKey, localKey)
}

func (t *Table) BelongsTo(ctx context.Context, related, ownerKey string, value any) (Record, bool, error) {
	return t.repo.BelongsTo(ctx, related, ownerKey, value)
}
