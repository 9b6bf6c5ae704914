package fs

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/aretw0/shelter/pkg/core"
)

// Where returns the records matching every condition. Values compare as JSON
// values: numbers by value, no coercion between kinds. No conditions match
// every record.
func (s *Store) Where(ctx context.Context, table string, conds map[string]any) ([]core.Record, error) {
	recs, err := s.snapshot(table)
	if err != nil {
		return nil, err
	}
	return filter(recs, func(r core.Record) bool { return matches(r, conds) }), nil
}

// Search returns the records that have field and whose value, rendered as
// text, contains keyword ignoring case. Case folding is Unicode-aware.
func (s *Store) Search(ctx context.Context, table, field, keyword string) ([]core.Record, error) {
	if field == "" {
		return nil, fmt.Errorf("%w: search field cannot be empty", core.ErrValidation)
	}
	recs, err := s.snapshot(table)
	if err != nil {
		return nil, err
	}

	fold := cases.Fold()
	needle := fold.String(keyword)
	return filter(recs, func(r core.Record) bool {
		v, ok := r.Get(field)
		return ok && strings.Contains(fold.String(core.Text(v)), needle)
	}), nil
}

// OrderBy returns the table stably sorted by field. A missing field counts as
// the smallest value, so those records lead ascending and trail descending.
func (s *Store) OrderBy(ctx context.Context, table, field string, dir core.Direction) ([]core.Record, error) {
	if field == "" {
		return nil, fmt.Errorf("%w: sort field cannot be empty", core.ErrValidation)
	}
	if dir != core.Asc && dir != core.Desc {
		return nil, fmt.Errorf("%w: unknown sort direction %q", core.ErrValidation, dir)
	}
	recs, err := s.snapshot(table)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(recs, func(a, b core.Record) int {
		c := compareField(a, b, field)
		if dir == core.Desc {
			return -c
		}
		return c
	})
	return recs, nil
}

// Limit returns up to count records starting at offset of the stored order.
func (s *Store) Limit(ctx context.Context, table string, count, offset int) ([]core.Record, error) {
	if count < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: count and offset must not be negative", core.ErrValidation)
	}
	recs, err := s.snapshot(table)
	if err != nil {
		return nil, err
	}
	return window(recs, count, offset), nil
}

// HasOne returns the records of related whose foreignKey equals localKey.
// localKey is the value to match, not a field name to dereference; see
// RelatedTo for that.
func (s *Store) HasOne(ctx context.Context, related, foreignKey string, localKey any) ([]core.Record, error) {
	return s.relation(ctx, related, foreignKey, localKey)
}

// HasMany is HasOne without the single-result connotation; both return every
// match.
func (s *Store) HasMany(ctx context.Context, related, foreignKey string, localKey any) ([]core.Record, error) {
	return s.relation(ctx, related, foreignKey, localKey)
}

// BelongsTo returns the first record of related whose ownerKey equals value.
func (s *Store) BelongsTo(ctx context.Context, related, ownerKey string, value any) (core.Record, bool, error) {
	recs, err := s.relation(ctx, related, ownerKey, value)
	if err != nil || len(recs) == 0 {
		return core.Record{}, false, err
	}
	return recs[0], true, nil
}

// RelatedTo returns the records of related whose foreignKey equals the value
// of owner's localKey field. An owner without that field relates to nothing.
func (s *Store) RelatedTo(ctx context.Context, owner core.Record, related, foreignKey, localKey string) ([]core.Record, error) {
	if localKey == "" {
		return nil, fmt.Errorf("%w: local key cannot be empty", core.ErrValidation)
	}
	v, ok := owner.Get(localKey)
	if !ok {
		if err := ValidateTableName(related); err != nil {
			return nil, err
		}
		return []core.Record{}, nil
	}
	return s.relation(ctx, related, foreignKey, v)
}

func (s *Store) relation(ctx context.Context, related, key string, value any) ([]core.Record, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: relation key cannot be empty", core.ErrValidation)
	}
	return s.Where(ctx, related, map[string]any{key: value})
}

func matches(r core.Record, conds map[string]any) bool {
	for field, want := range conds {
		got, ok := r.Get(field)
		if !ok || !core.Equal(got, want) {
			return false
		}
	}
	return true
}

func filter(recs []core.Record, keep func(core.Record) bool) []core.Record {
	out := make([]core.Record, 0, len(recs))
	for _, r := range recs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// compareField orders two records by one field; a missing field is smallest.
func compareField(a, b core.Record, field string) int {
	va, okA := a.Get(field)
	vb, okB := b.Get(field)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	}
	return core.Compare(va, vb)
}

func window(recs []core.Record, count, offset int) []core.Record {
	if offset >= len(recs) || count == 0 {
		return []core.Record{}
	}
	end := len(recs)
	if count < end-offset {
		end = offset + count
	}
	return recs[offset:end]
}
