package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadsync/internal/db"
	"leadsync/internal/model"
	"leadsync/internal/store"
)

// ─── Repository ──────────────────────────────────────────────────────────────

func TestRepository_CorruptValueYieldsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, store.KeyProfiles, "{not json"))
	require.NoError(t, kv.Set(ctx, store.KeyLeads, "{not json"))

	repo := store.NewRepository(kv)

	profiles, err := repo.Profiles(ctx)
	require.NoError(t, err)
	assert.NotNil(t, profiles)
	assert.Empty(t, profiles)

	leads, err := repo.Leads(ctx)
	require.NoError(t, err)
	assert.NotNil(t, leads)
	assert.Empty(t, leads)

	st, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Profiles)
	assert.Empty(t, st.Groups)
}

func TestRepository_MissingKeys(t *testing.T) {
	repo := store.NewRepository(store.NewMemoryKV())
	st, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, st.Profiles)
	assert.NotNil(t, st.Leads)
	assert.NotNil(t, st.Groups)
	assert.NotNil(t, st.Connections)

	has, err := repo.HasProfiles(context.Background())
	require.NoError(t, err)
	assert.False(t, has)
}

func TestRepository_MigratesOldProfiles(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, store.KeyProfiles,
		`[{"id":"a","name":"Old","keywords":["x"],"createdAt":"2025-01-01T00:00:00Z"}]`))

	profiles, err := store.NewRepository(kv).Profiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.NotNil(t, profiles[0].ExcludeKeywords)
	assert.Empty(t, profiles[0].ExcludeKeywords)
	assert.Equal(t, model.DefaultNiche, profiles[0].Niche)
	assert.Equal(t, model.DefaultLocation, profiles[0].Location)
}

func TestRepository_UpdateRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := store.NewRepository(store.NewMemoryKV())
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	err := repo.Update(ctx, func(st *store.State) error {
		st.Profiles = append(st.Profiles, model.Profile{ID: "p", Name: "P", Keywords: []string{"k"}, CreatedAt: created})
		st.Leads = append(st.Leads, model.Lead{ID: "l", URL: "https://x.com/a", FileID: "p", Status: "replied"})
		return nil
	})
	require.NoError(t, err)

	st, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, st.Profiles, 1)
	assert.Equal(t, created, st.Profiles[0].CreatedAt)
	require.Len(t, st.Leads, 1)
	assert.Equal(t, "replied", st.Leads[0].Status)

	has, err := repo.HasProfiles(ctx)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestRepository_UpdateErrorSavesNothing(t *testing.T) {
	ctx := context.Background()
	repo := store.NewRepository(store.NewMemoryKV())
	err := repo.Update(ctx, func(st *store.State) error {
		st.Leads = append(st.Leads, model.Lead{ID: "l"})
		return &model.ValidationError{Msg: "nope"}
	})
	require.Error(t, err)

	leads, err := repo.Leads(ctx)
	require.NoError(t, err)
	assert.Empty(t, leads)
}

// batchOnlyKV rejects single-key writes, and fails batches when failBatch is set.
type batchOnlyKV struct {
	*store.MemoryKV
	failBatch bool
	batches   int
}

func (k *batchOnlyKV) Set(context.Context, string, string) error {
	return errors.New("single-key write")
}

func (k *batchOnlyKV) SetMany(ctx context.Context, entries []store.Entry) error {
	k.batches++
	if k.failBatch {
		return errors.New("connection reset")
	}
	return k.MemoryKV.SetMany(ctx, entries)
}

func TestRepository_UpdateWritesOneBatch(t *testing.T) {
	ctx := context.Background()
	kv := &batchOnlyKV{MemoryKV: store.NewMemoryKV()}
	repo := store.NewRepository(kv)

	require.NoError(t, repo.Update(ctx, func(st *store.State) error {
		st.Profiles = append(st.Profiles, model.Profile{ID: "p", Name: "P", Keywords: []string{"k"}})
		st.Leads = append(st.Leads, model.Lead{ID: "l", FileID: "p"})
		return nil
	}))
	assert.Equal(t, 1, kv.batches)

	for _, key := range []string{store.KeyProfiles, store.KeyLeads, store.KeyGroups, store.KeyConnections} {
		_, ok, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, key)
	}
}

func TestRepository_FailedBatchLeavesStateIntact(t *testing.T) {
	ctx := context.Background()
	kv := &batchOnlyKV{MemoryKV: store.NewMemoryKV()}
	repo := store.NewRepository(kv)
	require.NoError(t, repo.Update(ctx, func(st *store.State) error {
		st.Profiles = append(st.Profiles, model.Profile{ID: "p", Name: "P", Keywords: []string{"k"}})
		st.Leads = append(st.Leads, model.Lead{ID: "l", FileID: "p"})
		return nil
	}))

	kv.failBatch = true
	err := repo.Update(ctx, func(st *store.State) error {
		st.Profiles = st.Profiles[:0]
		st.Leads = st.Leads[:0]
		return nil
	})
	require.Error(t, err)

	st, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, st.Profiles, 1)
	assert.Len(t, st.Leads, 1)
}

func TestSQLiteKV_SetManyRollsBack(t *testing.T) {
	kv, err := store.NewSQLiteKV(context.Background(), filepath.Join(t.TempDir(), "leadsync.db"))
	require.NoError(t, err)
	defer kv.Close()
	require.NoError(t, kv.Set(context.Background(), "a", "old"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, kv.SetMany(ctx, []store.Entry{{Key: "a", Value: "new"}, {Key: "b", Value: "x"}}))

	v, _, err := kv.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "old", v)
	_, ok, err := kv.Get(context.Background(), "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	repo := store.NewRepository(store.NewMemoryKV())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.Update(ctx, func(st *store.State) error {
				st.Leads = append(st.Leads, model.Lead{ID: "x"})
				return nil
			})
		}()
	}
	wg.Wait()

	leads, err := repo.Leads(ctx)
	require.NoError(t, err)
	assert.Len(t, leads, 20)
}

// ─── Backends ────────────────────────────────────────────────────────────────

func exerciseKV(t *testing.T, kv store.KV) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "k", "v1"))
	require.NoError(t, kv.Set(ctx, "k", "v2"))
	v, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)

	require.NoError(t, kv.SetMany(ctx, []store.Entry{{Key: "a", Value: "1"}, {Key: "k", Value: "v3"}}))
	v, _, err = kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	v, _, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v3", v)

	require.NoError(t, kv.Ping(ctx))
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, store.NewMemoryKV())
}

func TestFileKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "leadsync.json")
	kv, err := store.NewFileKV(path)
	require.NoError(t, err)
	exerciseKV(t, kv)

	// Values survive a reopen.
	reopened, err := store.NewFileKV(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v3", v)
}

func TestFileKV_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leadsync.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	kv, err := store.NewFileKV(path)
	require.NoError(t, err)
	_, ok, err := kv.Get(context.Background(), store.KeyProfiles)
	require.NoError(t, err)
	assert.False(t, ok)

	exerciseKV(t, kv)
}

func TestSQLiteKV(t *testing.T) {
	kv, err := store.NewSQLiteKV(context.Background(), filepath.Join(t.TempDir(), "leadsync.db"))
	require.NoError(t, err)
	defer kv.Close()
	exerciseKV(t, kv)
}

func TestRedisKV(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	kv := store.NewRedisKV(rdb, store.DefaultRedisPrefix)
	exerciseKV(t, kv)

	got, err := mr.Get(store.DefaultRedisPrefix + "k")
	require.NoError(t, err)
	assert.Equal(t, "v3", got)
}

func TestPostgresKV(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.NewPostgresPool(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	kv, err := store.NewPostgresKV(ctx, pool)
	require.NoError(t, err)
	exerciseKV(t, kv)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	kv, closeFn, err := store.Open(ctx, store.Options{Backend: store.BackendFile, DataPath: filepath.Join(dir, "a.json")})
	require.NoError(t, err)
	closeFn()
	assert.IsType(t, &store.FileKV{}, kv)

	kv, closeFn, err = store.Open(ctx, store.Options{Backend: store.BackendSQLite, SQLitePath: filepath.Join(dir, "a.db")})
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteKV{}, kv)
	closeFn()

	mr := miniredis.RunT(t)
	kv, closeFn, err = store.Open(ctx, store.Options{Backend: store.BackendRedis, RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	exerciseKV(t, kv)
	closeFn()

	_, _, err = store.Open(ctx, store.Options{Backend: "cassandra"})
	assert.Error(t, err)
}
