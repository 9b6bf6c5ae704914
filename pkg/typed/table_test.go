package typed_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/shelter/pkg/adapters/fs"
	"github.com/aretw0/shelter/pkg/codec"
	"github.com/aretw0/shelter/pkg/core"
	"github.com/aretw0/shelter/pkg/typed"
)

type UserProfile struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

func setupTable(t *testing.T) (*typed.Table[UserProfile], *fs.Store) {
	t.Helper()

	c, err := codec.New("k", "iv")
	require.NoError(t, err)
	store, err := fs.NewStore(fs.Config{Path: filepath.Join(t.TempDir(), "data"), Codec: c, Encrypted: true})
	require.NoError(t, err)
	require.NoError(t, store.Initialize(context.Background()))

	table, err := core.NewTable(store, "users")
	require.NoError(t, err)
	return typed.NewTable[UserProfile](table), store
}

func TestTypedTable(t *testing.T) {
	ctx := context.Background()
	users, store := setupTable(t)
	assert.Equal(t, "users", users.Name())

	alice, err := users.Create(ctx, UserProfile{ID: 77, Name: "Alice", Email: "alice@example.com", Age: 30})
	require.NoError(t, err)
	assert.EqualValues(t, 1, alice.ID)
	assert.EqualValues(t, 1, alice.Data.ID, "id field is filled from the store")
	assert.Equal(t, "Alice", alice.Data.Name)

	_, err = users.Create(ctx, UserProfile{Name: "Bob", Email: "bob@example.com", Age: 25})
	require.NoError(t, err)

	t.Run("Find", func(t *testing.T) {
		got, ok, err := users.Find(ctx, 1)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, UserProfile{ID: 1, Name: "Alice", Email: "alice@example.com", Age: 30}, got.Data)

		_, ok, err = users.Find(ctx, 99)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Active Record Save", func(t *testing.T) {
		got, _, err := users.Find(ctx, 2)
		require.NoError(t, err)
		got.Data.Age = 26
		require.NoError(t, got.Save(ctx))

		again, _, err := users.Find(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 26, again.Data.Age)
	})

	t.Run("Save Keeps Unknown Fields", func(t *testing.T) {
		_, err := store.Update(ctx, "users", 1, core.NewRecord("nickname", "ace"))
		require.NoError(t, err)

		got, _, err := users.Find(ctx, 1)
		require.NoError(t, err)
		got.Data.Email = "a@example.com"
		require.NoError(t, users.Save(ctx, got))

		raw, _, err := store.Read(ctx, "users", 1)
		require.NoError(t, err)
		nick, _ := raw.Get("nickname")
		assert.Equal(t, "ace", nick)
	})

	t.Run("Save New Model", func(t *testing.T) {
		m := &typed.Model[UserProfile]{Data: UserProfile{Name: "Cy", Age: 40}}
		require.NoError(t, users.Save(ctx, m))
		assert.EqualValues(t, 3, m.ID)
	})

	t.Run("Queries", func(t *testing.T) {
		byAge, err := users.OrderBy(ctx, "age", core.Desc)
		require.NoError(t, err)
		require.Len(t, byAge, 3)
		assert.Equal(t, "Cy", byAge[0].Data.Name)

		found, err := users.Search(ctx, "name", "ALI")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Alice", found[0].Data.Name)

		exact, err := users.Where(ctx, map[string]any{"age": 26})
		require.NoError(t, err)
		require.Len(t, exact, 1)
		assert.Equal(t, "Bob", exact[0].Data.Name)

		page, err := users.Limit(ctx, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.EqualValues(t, 2, page[0].ID)

		all, err := users.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("Delete", func(t *testing.T) {
		ok, err := users.Delete(ctx, 3)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Detached Model", func(t *testing.T) {
		m := &typed.Model[UserProfile]{ID: 1}
		assert.Error(t, m.Save(ctx))
	})

	t.Run("Missing Record", func(t *testing.T) {
		err := users.Save(ctx, &typed.Model[UserProfile]{ID: 404, Data: UserProfile{Name: "ghost"}})
		assert.Error(t, err)
	})
}

func TestNonObjectType(t *testing.T) {
	ctx := context.Background()
	_, store := setupTable(t)
	table, err := core.NewTable(store, "numbers")
	require.NoError(t, err)

	_, err = typed.NewTable[int](table).Create(ctx, 5)
	assert.ErrorIs(t, err, core.ErrValidation)
}
