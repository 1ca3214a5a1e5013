package benchmarks

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/history"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/persist"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/viewport"
)

func largeState() persist.State {
	return persist.NewState("bench", buildChain(100).Snapshot(), viewport.State{Zoom: 1})
}

func benchmarkSave(b *testing.B, store persist.Store) {
	b.Helper()
	defer store.Close()
	ctx := context.Background()
	state := largeState()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.Save(ctx, state); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkLoad(b *testing.B, store persist.Store) {
	b.Helper()
	defer store.Close()
	ctx := context.Background()
	if err := store.Save(ctx, largeState()); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.Load(ctx, "bench"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkMemoryStore_Save measures in-memory graph save.
func BenchmarkMemoryStore_Save(b *testing.B) {
	benchmarkSave(b, persist.NewMemoryStore())
}

// BenchmarkMemoryStore_Load measures in-memory graph load.
func BenchmarkMemoryStore_Load(b *testing.B) {
	benchmarkLoad(b, persist.NewMemoryStore())
}

// BenchmarkFileStore_Save_JSON measures JSON file save.
func BenchmarkFileStore_Save_JSON(b *testing.B) {
	store, err := persist.NewFileStore(b.TempDir(), persist.FormatJSON)
	if err != nil {
		b.Fatal(err)
	}
	benchmarkSave(b, store)
}

// BenchmarkFileStore_Save_YAML measures YAML file save.
func BenchmarkFileStore_Save_YAML(b *testing.B) {
	store, err := persist.NewFileStore(b.TempDir(), persist.FormatYAML)
	if err != nil {
		b.Fatal(err)
	}
	benchmarkSave(b, store)
}

// BenchmarkSQLiteStore_Save measures SQLite graph save.
func BenchmarkSQLiteStore_Save(b *testing.B) {
	store, err := persist.NewSQLiteStore(filepath.Join(b.TempDir(), "graphs.db"))
	if err != nil {
		b.Fatal(err)
	}
	benchmarkSave(b, store)
}

// BenchmarkSQLiteStore_Load measures SQLite graph load.
func BenchmarkSQLiteStore_Load(b *testing.B) {
	store, err := persist.NewSQLiteStore(filepath.Join(b.TempDir(), "graphs.db"))
	if err != nil {
		b.Fatal(err)
	}
	benchmarkLoad(b, store)
}

// BenchmarkHistory_SQLite_Append measures execution record inserts.
func BenchmarkHistory_SQLite_Append(b *testing.B) {
	store, err := history.NewSQLiteStore(filepath.Join(b.TempDir(), "history.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	now := time.Now()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := history.Record{
			ID:          fmt.Sprintf("exec_%d", i),
			GraphID:     "bench",
			Status:      "completed",
			StartedAt:   now,
			CompletedAt: now,
		}
		if err := store.Append(ctx, rec); err != nil {
			b.Fatal(err)
		}
	}
}
