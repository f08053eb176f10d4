package db_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/skillstats/internal/db"
	"github.com/udisondev/skillstats/internal/skill"
	"github.com/udisondev/skillstats/internal/testutil"
)

// Один контейнер на все сценарии: каждый подтест работает со своими аккаунтами.
func TestSkillRepository_Postgres(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := testutil.Context(t)

	reg := skill.DefaultRegistry()
	repo := db.NewSkillRepository(pool, "skills", "accounts")
	accounts := db.NewAccountRepository(pool, "accounts")
	store := skill.NewStore(reg, repo)

	newAccount := func(t *testing.T, login string) int64 {
		t.Helper()
		id, err := accounts.CreateAccount(ctx, login, "secret")
		require.NoError(t, err)
		return id
	}

	t.Run("unprovisioned table falls back to defaults", func(t *testing.T) {
		exists, err := repo.TableExists(ctx)
		require.NoError(t, err)
		require.False(t, exists)

		id := newAccount(t, "early")
		rec := store.Load(ctx, id)
		assert.Equal(t, skill.DefaultRecord(reg, id).Skills, rec.Skills)
		require.NoError(t, store.CreateIfMissing(ctx, id))
	})

	t.Run("schema provisioning is idempotent", func(t *testing.T) {
		require.NoError(t, store.EnsureSchema(ctx))
		require.NoError(t, store.EnsureSchema(ctx))

		exists, err := repo.TableExists(ctx)
		require.NoError(t, err)
		assert.True(t, exists)

		var tables int
		err = pool.QueryRow(ctx,
			`SELECT count(*) FROM information_schema.tables WHERE table_name = 'skills'`).Scan(&tables)
		require.NoError(t, err)
		assert.Equal(t, 1, tables)

		var columns int
		err = pool.QueryRow(ctx,
			`SELECT count(*) FROM information_schema.columns WHERE table_name = 'skills'`).Scan(&columns)
		require.NoError(t, err)
		assert.Equal(t, 2*reg.Len()+2, columns)
	})

	t.Run("lazy creation", func(t *testing.T) {
		id := newAccount(t, "lazy")

		row, err := repo.SelectRow(ctx, id)
		require.NoError(t, err)
		require.Nil(t, row)

		first := store.Load(ctx, id)
		for _, key := range reg.Keys() {
			assert.Equal(t, skill.Progress{Level: 1, Experience: 0}, first.Skills[key], key)
		}
		require.NotNil(t, first.UpdatedAt)

		second := store.Load(ctx, id)
		assert.Equal(t, first.Skills, second.Skills)
	})

	t.Run("missing account falls back to defaults", func(t *testing.T) {
		rec := store.Load(ctx, 999_999)
		assert.Equal(t, skill.DefaultRecord(reg, 999_999).Skills, rec.Skills)

		row, err := repo.SelectRow(ctx, 999_999)
		require.NoError(t, err)
		assert.Nil(t, row, "foreign key rejects rows for unknown accounts")
	})

	t.Run("concurrent default inserts", func(t *testing.T) {
		id := newAccount(t, "race")

		const goroutines = 10
		var wg sync.WaitGroup
		errs := make(chan error, goroutines)
		for range goroutines {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- store.CreateIfMissing(ctx, id)
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}

		var n int
		require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM skills WHERE userid = $1`, id).Scan(&n))
		assert.Equal(t, 1, n)
	})

	t.Run("save clamps and touches updated_at", func(t *testing.T) {
		id := newAccount(t, "writer")
		before := store.Load(ctx, id)
		require.NotNil(t, before.UpdatedAt)

		require.NoError(t, store.SetProgress(ctx, id, "construction", skill.Progress{Level: 10, Experience: 500}))
		require.NoError(t, store.SetProgress(ctx, id, "fishing", skill.Progress{Level: 500, Experience: 20_000_000}))

		after := store.Load(ctx, id)
		assert.Equal(t, skill.Progress{Level: 10, Experience: 500}, after.Skills["construction"])
		assert.Equal(t, skill.Progress{Level: 99, Experience: 13_034_431}, after.Skills["fishing"])
		require.NotNil(t, after.UpdatedAt)
		assert.False(t, after.UpdatedAt.Before(*before.UpdatedAt))
	})

	t.Run("out of range stored values are clamped on read", func(t *testing.T) {
		id := newAccount(t, "corrupt")
		require.NoError(t, store.CreateIfMissing(ctx, id))

		_, err := pool.Exec(ctx,
			`UPDATE skills SET cooking_level = 300, cooking_experience = 2000000000 WHERE userid = $1`, id)
		require.NoError(t, err)

		rec := store.Load(ctx, id)
		assert.Equal(t, skill.Progress{Level: 99, Experience: 13_034_431}, rec.Skills["cooking"])
	})

	t.Run("account deletion cascades", func(t *testing.T) {
		id := newAccount(t, "doomed")
		require.NoError(t, store.CreateIfMissing(ctx, id))
		require.NoError(t, accounts.DeleteAccount(ctx, id))

		row, err := repo.SelectRow(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, row)
	})

	t.Run("new registry skill adds columns", func(t *testing.T) {
		extended := skill.MustNewRegistry(append(skill.DefaultDefinitions(),
			skill.Definition{Key: "sailing", DisplayName: "Sailing"}))
		extStore := skill.NewStore(extended, repo)
		require.NoError(t, extStore.EnsureSchema(ctx))

		id := newAccount(t, "sailor")
		rec := extStore.Load(ctx, id)
		assert.Equal(t, skill.Progress{Level: 1, Experience: 0}, rec.Skills["sailing"])
	})
}

func TestAccountRepository_Postgres(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := testutil.Context(t)
	accounts := db.NewAccountRepository(pool, "accounts")

	id, err := accounts.CreateAccount(ctx, "Alice", "pw")
	require.NoError(t, err)
	assert.Positive(t, id)

	acc, err := accounts.GetAccount(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, id, acc.ID)
	assert.Equal(t, "alice", acc.Login)
	assert.NotEqual(t, "pw", acc.PasswordHash)

	missing, err := accounts.GetAccount(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = accounts.CreateAccount(ctx, "alice", "")
	assert.Error(t, err, "duplicate login")
}
