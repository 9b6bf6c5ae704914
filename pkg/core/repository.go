package core

import "context"

// Repository defines the contract for storing and querying tables of records.
// Every query is a full scan of the decoded table.
type Repository interface {
	// Create assigns the next id (max existing id + 1) and appends the record.
	Create(ctx context.Context, table string, rec Record) (Record, error)

	// Read returns the record with the given id; ok is false when absent.
	Read(ctx context.Context, table string, id int64) (rec Record, ok bool, err error)

	// ReadAll returns every record of the table in stored order.
	ReadAll(ctx context.Context, table string) ([]Record, error)

	// ReadAllBatched partitions ReadAll into contiguous chunks of size.
	ReadAllBatched(ctx context.Context, table string, size int) ([][]Record, error)

	// Update merges patch over the record with the given id.
	Update(ctx context.Context, table string, id int64, patch Record) (bool, error)

	// Delete removes the record with the given id.
	Delete(ctx context.Context, table string, id int64) (bool, error)

	// Where returns records matching every condition exactly.
	Where(ctx context.Context, table string, conds map[string]any) ([]Record, error)

	// Search returns records whose field contains keyword, ignoring case.
	Search(ctx context.Context, table, field, keyword string) ([]Record, error)

	// OrderBy returns the table stably sorted by field.
	OrderBy(ctx context.Context, table, field string, dir Direction) ([]Record, error)

	// Limit returns up to count records starting at offset.
	Limit(ctx context.Context, table string, count, offset int) ([]Record, error)

	HasOne(ctx context.Context, related, foreignKey string, localKey any) ([]Record, error)
	HasMany(ctx context.Context, related, foreignKey string, localKey any) ([]Record, error)
	BelongsTo(ctx context.Context, related, ownerKey string, value any) (Record, bool, error)
}

// Watchable is implemented by repositories that can report table changes.
type Watchable interface {
	// Watch emits events for tables whose name matches pattern until ctx ends.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}
