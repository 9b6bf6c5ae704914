package fs_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/shelter/pkg/adapters/fs"
	"github.com/aretw0/shelter/pkg/core"
)

func seed(t *testing.T, store *fs.Store, table string, recs ...core.Record) {
	t.Helper()
	for _, r := range recs {
		_, err := store.Create(context.Background(), table, r)
		require.NoError(t, err)
	}
}

func TestWhere(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	seed(t, store, "users",
		core.NewRecord("name", "ada", "age", 36, "admin", true),
		core.NewRecord("name", "bob", "age", "36", "admin", false),
		core.NewRecord("name", "cy", "age", 36.0, "admin", true),
		core.NewRecord("name", "dee", "admin", nil),
	)

	yes, name, age := true, "bob", 36
	var nilBool *bool

	tests := []struct {
		name  string
		conds map[string]any
		want  []int64
	}{
		{name: "Pointer To Bool", conds: map[string]any{"admin": &yes}, want: []int64{1, 3}},
		{name: "Pointer To String", conds: map[string]any{"name": &name}, want: []int64{2}},
		{name: "Pointer To Int", conds: map[string]any{"age": &age}, want: []int64{1, 3}},
		{name: "Nil Pointer Is Null", conds: map[string]any{"admin": nilBool}, want: []int64{4}},
		{name: "Number Matches Across Go Types", conds: map[string]any{"age": int64(36)}, want: []int64{1, 3}},
		{name: "Decoded Number", conds: map[string]any{"age": json.Number("36")}, want: []int64{1, 3}},
		{name: "String Does Not Match Number", conds: map[string]any{"age": "36"}, want: []int64{2}},
		{name: "All Conditions Must Hold", conds: map[string]any{"age": 36, "admin": true}, want: []int64{1, 3}},
		{name: "Bool", conds: map[string]any{"admin": false}, want: []int64{2}},
		{name: "Null Requires Present Field", conds: map[string]any{"admin": nil}, want: []int64{4}},
		{name: "Missing Field Never Matches", conds: map[string]any{"email": nil}, want: []int64{}},
		{name: "No Conditions Match All", conds: nil, want: []int64{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Where(ctx, "users", tt.conds)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(t, got))
		})
	}

	t.Run("Nested Values", func(t *testing.T) {
		store := setupStore(t)
		seed(t, store, "t",
			core.NewRecord("tags", []any{"a", "b"}, "meta", core.NewRecord("x", 1, "y", 2)),
			core.NewRecord("tags", []any{"b", "a"}),
		)

		got, err := store.Where(ctx, "t", map[string]any{"tags": []any{"a", "b"}})
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, ids(t, got))

		got, err = store.Where(ctx, "t", map[string]any{"meta": map[string]any{"y": 2, "x": 1}})
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, ids(t, got))
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	seed(t, store, "places",
		core.NewRecord("name", "Hauptstraße", "zip", 10115),
		core.NewRecord("name", "BROADWAY", "zip", 10001),
		core.NewRecord("name", "Rua Augusta"),
		core.NewRecord("zip", 90210),
	)

	tests := []struct {
		name    string
		field   string
		keyword string
		want    []int64
	}{
		{name: "Case Insensitive", field: "name", keyword: "broad", want: []int64{2}},
		{name: "Unicode Folding", field: "name", keyword: "STRASSE", want: []int64{1}},
		{name: "Numbers As Text", field: "zip", keyword: "101", want: []int64{1}},
		{name: "Empty Keyword Matches Present Fields", field: "name", keyword: "", want: []int64{1, 2, 3}},
		{name: "Missing Field Never Matches", field: "zip", keyword: "", want: []int64{1, 2, 4}},
		{name: "No Match", field: "name", keyword: "zzz", want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Search(ctx, "places", tt.field, tt.keyword)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(t, got))
		})
	}

	t.Run("Empty Field", func(t *testing.T) {
		_, err := store.Search(ctx, "places", "", "x")
		assert.ErrorIs(t, err, core.ErrValidation)
	})
}

func TestOrderBy(t *testing.T) {
	ctx := context.Background()

	t.Run("Scenario", func(t *testing.T) {
		store := setupStore(t)
		seed(t, store, "t", core.NewRecord("name", "a"), core.NewRecord("name", "b"))

		got, err := store.OrderBy(ctx, "t", "name", core.Desc)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, []int64{2, 1}, ids(t, got))
		assert.Equal(t, "b", field(got[0], "name"))
		assert.Equal(t, "a", field(got[1], "name"))

		got, err = store.Limit(ctx, "t", 1, 1)
		require.NoError(t, err)
		assert.Equal(t, []int64{2}, ids(t, got))
	})

	store := setupStore(t)
	seed(t, store, "t",
		core.NewRecord("score", 10, "group", "x"),
		core.NewRecord("group", "y"),
		core.NewRecord("score", 2.5, "group", "x"),
		core.NewRecord("score", 10, "group", "z"),
		core.NewRecord("score", "high"),
	)

	t.Run("Ascending Is Stable", func(t *testing.T) {
		got, err := store.OrderBy(ctx, "t", "score", core.Asc)
		require.NoError(t, err)
		// missing < numbers < strings; equal scores keep stored order
		assert.Equal(t, []int64{2, 3, 1, 4, 5}, ids(t, got))
	})

	t.Run("Descending", func(t *testing.T) {
		got, err := store.OrderBy(ctx, "t", "score", core.Desc)
		require.NoError(t, err)
		assert.Equal(t, []int64{5, 1, 4, 3, 2}, ids(t, got))
	})

	t.Run("Does Not Reorder The File", func(t *testing.T) {
		all, err := store.ReadAll(ctx, "t")
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(t, all))
	})

	t.Run("Invalid Direction", func(t *testing.T) {
		_, err := store.OrderBy(ctx, "t", "score", core.Direction("sideways"))
		assert.ErrorIs(t, err, core.ErrValidation)
	})

	t.Run("Empty Field", func(t *testing.T) {
		_, err := store.OrderBy(ctx, "t", "", core.Asc)
		assert.ErrorIs(t, err, core.ErrValidation)
	})
}

func TestLimit(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	for i := 0; i < 5; i++ {
		seed(t, store, "t", core.NewRecord("i", i))
	}

	tests := []struct {
		name          string
		count, offset int
		want          []int64
	}{
		{name: "First Page", count: 2, offset: 0, want: []int64{1, 2}},
		{name: "Middle Page", count: 2, offset: 2, want: []int64{3, 4}},
		{name: "Short Last Page", count: 2, offset: 4, want: []int64{5}},
		{name: "Count Beyond End", count: 100, offset: 1, want: []int64{2, 3, 4, 5}},
		{name: "Offset Out Of Range", count: 2, offset: 5, want: []int64{}},
		{name: "Zero Count", count: 0, offset: 0, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Limit(ctx, "t", tt.count, tt.offset)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(t, got))
		})
	}

	t.Run("Negative Arguments", func(t *testing.T) {
		_, err := store.Limit(ctx, "t", -1, 0)
		assert.ErrorIs(t, err, core.ErrValidation)
		_, err = store.Limit(ctx, "t", 1, -1)
		assert.ErrorIs(t, err, core.ErrValidation)
	})
}

func TestRelations(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t, encrypted)
	seed(t, store, "users",
		core.NewRecord("name", "ada", "team_id", 7),
		core.NewRecord("name", "bob", "team_id", 8),
	)
	seed(t, store, "posts",
		core.NewRecord("user_id", 1, "title", "first"),
		core.NewRecord("user_id", 2, "title", "second"),
		core.NewRecord("user_id", 1, "title", "third"),
	)
	seed(t, store, "teams", core.NewRecord("code", 7, "label", "core"))

	t.Run("HasMany Uses The Literal Value", func(t *testing.T) {
		got, err := store.HasMany(ctx, "posts", "user_id", 1)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 3}, ids(t, got))
	})

	t.Run("HasOne Returns Every Match", func(t *testing.T) {
		got, err := store.HasOne(ctx, "posts", "user_id", 2)
		require.NoError(t, err)
		assert.Equal(t, []int64{2}, ids(t, got))
	})

	t.Run("Pointer Keys", func(t *testing.T) {
		userID, code := 1, 7
		got, err := store.HasMany(ctx, "posts", "user_id", &userID)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 3}, ids(t, got))

		team, ok, err := store.BelongsTo(ctx, "teams", "code", &code)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "core", field(team, "label"))
	})

	t.Run("BelongsTo", func(t *testing.T) {
		team, ok, err := store.BelongsTo(ctx, "teams", "code", 7)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "core", field(team, "label"))

		_, ok, err = store.BelongsTo(ctx, "teams", "code", 99)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("RelatedTo Dereferences The Owner", func(t *testing.T) {
		ada, _, err := store.Read(ctx, "users", 1)
		require.NoError(t, err)

		posts, err := store.RelatedTo(ctx, ada, "posts", "user_id", "id")
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 3}, ids(t, posts))

		teams, err := store.RelatedTo(ctx, ada, "teams", "code", "team_id")
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, ids(t, teams))

		none, err := store.RelatedTo(ctx, ada, "teams", "code", "missing")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Empty Keys", func(t *testing.T) {
		_, err := store.HasMany(ctx, "posts", "", 1)
		assert.ErrorIs(t, err, core.ErrValidation)
		_, err = store.RelatedTo(ctx, core.NewRecord("id", 1), "posts", "user_id", "")
		assert.ErrorIs(t, err, core.ErrValidation)
	})
}
