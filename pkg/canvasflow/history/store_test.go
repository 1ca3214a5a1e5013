package history_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/history"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactory creates a store instance for testing.
type storeFactory func(t *testing.T) history.Store

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(id, graphID string, startOffset time.Duration) history.Record {
	started := base.Add(startOffset)
	return history.Record{
		ID:             id,
		GraphID:        graphID,
		Status:         "completed",
		TotalNodes:     3,
		CompletedNodes: 3,
		StartedAt:      started,
		CompletedAt:    started.Add(25 * time.Millisecond),
		DurationMs:     25,
		Data:           []byte(`{"execution_id":"` + id + `"}`),
	}
}

func ids(recs []history.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

// storeContractTest runs contract tests against any Store implementation.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	ctx := context.Background()

	t.Run(name+"/Append_and_Get", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		rec := record("exec_1", "graph-a", 0)
		rec.FailedNodes = 1
		rec.Status = "partial"
		require.NoError(t, store.Append(ctx, rec))

		got, err := store.Get(ctx, "exec_1")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.GraphID, got.GraphID)
		assert.Equal(t, "partial", got.Status)
		assert.Equal(t, 3, got.TotalNodes)
		assert.Equal(t, 3, got.CompletedNodes)
		assert.Equal(t, 1, got.FailedNodes)
		assert.Equal(t, int64(25), got.DurationMs)
		assert.True(t, got.StartedAt.Equal(rec.StartedAt), "started %v", got.StartedAt)
		assert.True(t, got.CompletedAt.Equal(rec.CompletedAt))
		assert.JSONEq(t, string(rec.Data), string(got.Data))
	})

	t.Run(name+"/Get_NotFound", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		_, err := store.Get(ctx, "exec_missing")
		assert.ErrorIs(t, err, history.ErrNotFound)
	})

	t.Run(name+"/Append_Duplicate", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Append(ctx, record("exec_1", "graph-a", 0)))
		err := store.Append(ctx, record("exec_1", "graph-a", time.Second))
		assert.ErrorIs(t, err, history.ErrDuplicate)

		recs, err := store.List(ctx, "graph-a", 0)
		require.NoError(t, err)
		assert.Len(t, recs, 1)
	})

	t.Run(name+"/Append_Invalid", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		assert.ErrorIs(t, store.Append(ctx, history.Record{GraphID: "g"}), history.ErrInvalidRecord)
		assert.ErrorIs(t, store.Append(ctx, history.Record{ID: "x"}), history.ErrInvalidRecord)
	})

	t.Run(name+"/List_NewestFirst", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Append(ctx, record("exec_b", "graph-a", 2*time.Second)))
		require.NoError(t, store.Append(ctx, record("exec_a", "graph-a", time.Second)))
		require.NoError(t, store.Append(ctx, record("exec_c", "graph-a", 3*time.Second)))
		require.NoError(t, store.Append(ctx, record("exec_other", "graph-b", 4*time.Second)))

		recs, err := store.List(ctx, "graph-a", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"exec_c", "exec_b", "exec_a"}, ids(recs))

		recs, err = store.List(ctx, "graph-a", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"exec_c", "exec_b"}, ids(recs))
	})

	t.Run(name+"/List_Empty", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		recs, err := store.List(ctx, "graph-none", 10)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run(name+"/List_DefaultLimit", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		for i := 0; i < history.DefaultListLimit+5; i++ {
			require.NoError(t, store.Append(ctx, record(fmt.Sprintf("exec_%03d", i), "graph-a", time.Duration(i)*time.Second)))
		}

		recs, err := store.List(ctx, "graph-a", 0)
		require.NoError(t, err)
		require.Len(t, recs, history.DefaultListLimit)
		assert.Equal(t, fmt.Sprintf("exec_%03d", history.DefaultListLimit+4), recs[0].ID)
	})

	t.Run(name+"/Closed", func(t *testing.T) {
		store := factory(t)
		require.NoError(t, store.Close())
		require.NoError(t, store.Close(), "close is idempotent")

		assert.ErrorIs(t, store.Append(ctx, record("exec_1", "g", 0)), history.ErrStoreClosed)
		_, err := store.Get(ctx, "exec_1")
		assert.ErrorIs(t, err, history.ErrStoreClosed)
		_, err = store.List(ctx, "g", 0)
		assert.ErrorIs(t, err, history.ErrStoreClosed)
	})

	t.Run(name+"/Concurrent", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		const workers = 10
		const perWorker = 10
		var wg sync.WaitGroup
		wg.Add(workers)
		for w := 0; w < workers; w++ {
			go func(w int) {
				defer wg.Done()
				for j := 0; j < perWorker; j++ {
					id := fmt.Sprintf("exec_%d_%d", w, j)
					_ = store.Append(ctx, record(id, "graph-a", time.Duration(w*perWorker+j)*time.Second))
					_, _ = store.List(ctx, "graph-a", 5)
				}
			}(w)
		}
		wg.Wait()

		recs, err := store.List(ctx, "graph-a", workers*perWorker)
		require.NoError(t, err)
		assert.Len(t, recs, workers*perWorker)
	})
}

// TestMemoryStore runs contract tests against MemoryStore.
func TestMemoryStore(t *testing.T) {
	factory := func(t *testing.T) history.Store {
		return history.NewMemoryStore()
	}
	storeContractTest(t, "MemoryStore", factory)
}

// TestSQLiteStore runs contract tests against SQLiteStore.
func TestSQLiteStore(t *testing.T) {
	factory := func(t *testing.T) history.Store {
		store, err := history.NewSQLiteStore(":memory:")
		require.NoError(t, err)
		return store
	}
	storeContractTest(t, "SQLiteStore", factory)
}

// TestRedisStore runs contract tests against RedisStore on miniredis.
func TestRedisStore(t *testing.T) {
	factory := func(t *testing.T) history.Store {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		return history.NewRedisStore(client)
	}
	storeContractTest(t, "RedisStore", factory)
}
