package store

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/me/schedsim/internal/config"
	"github.com/me/schedsim/pkg/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(":memory:", testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// testRedisStore connects to SCHEDSIM_TEST_REDIS or skips.
func testRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("SCHEDSIM_TEST_REDIS")
	if addr == "" {
		t.Skip("SCHEDSIM_TEST_REDIS not set")
	}
	cfg := DefaultRedisConfig()
	cfg.Address = addr
	cfg.Prefix = "schedsim-test:" + t.Name() + ":"
	st, err := NewRedisStore(cfg, testLogger())
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() {
		st.ClearProcesses(context.Background())
		st.Close()
	})
	return st
}

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store { return testSQLiteStore(t) },
		"redis":  func(t *testing.T) Store { return testRedisStore(t) },
	}
}

func TestStore_AppendListClear(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			st := open(t)
			ctx := context.Background()

			got, err := st.ListProcesses(ctx)
			if err != nil {
				t.Fatalf("ListProcesses: %v", err)
			}
			if len(got) != 0 {
				t.Fatalf("new store has %d processes", len(got))
			}

			want := []model.Process{
				{Name: "B", Arrival: 3, Burst: 2},
				{Name: "A", Arrival: 0, Burst: 5, Priority: 2},
				{Name: "A", Arrival: 1, Burst: 1},
			}
			for _, p := range want {
				if err := st.AppendProcess(ctx, p); err != nil {
					t.Fatalf("AppendProcess: %v", err)
				}
			}

			got, err = st.ListProcesses(ctx)
			if err != nil {
				t.Fatalf("ListProcesses: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("ListProcesses = %+v, want %+v", got, want)
			}

			if err := st.ClearProcesses(ctx); err != nil {
				t.Fatalf("ClearProcesses: %v", err)
			}
			if err := st.ClearProcesses(ctx); err != nil {
				t.Fatalf("second ClearProcesses: %v", err)
			}
			got, _ = st.ListProcesses(ctx)
			if len(got) != 0 {
				t.Errorf("after clear: %d processes", len(got))
			}
		})
	}
}

func TestMemoryStore_ListReturnsCopy(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	st.AppendProcess(ctx, model.Process{Name: "A", Burst: 1})

	got, _ := st.ListProcesses(ctx)
	got[0].Name = "mutated"

	again, _ := st.ListProcesses(ctx)
	if again[0].Name != "A" {
		t.Error("ListProcesses exposes internal storage")
	}
}

func TestMemoryStore_ConcurrentAppend(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.AppendProcess(ctx, model.Process{Name: "P", Burst: 1})
			st.ListProcesses(ctx)
		}()
	}
	wg.Wait()

	got, _ := st.ListProcesses(ctx)
	if len(got) != 50 {
		t.Errorf("len = %d, want 50", len(got))
	}
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	st := testSQLiteStore(t)
	ctx := context.Background()
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	st.AppendProcess(ctx, model.Process{Name: "A", Burst: 1, Priority: 7})
	got, _ := st.ListProcesses(ctx)
	if len(got) != 1 || got[0].Priority != 7 {
		t.Errorf("ListProcesses = %+v", got)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedsim.db")
	ctx := context.Background()

	st, err := Open(ctx, config.StoreConfig{Backend: config.StoreSQLite, DBPath: path}, testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	st.AppendProcess(ctx, model.Process{Name: "A", Arrival: 2, Burst: 3})
	st.Close()

	st, err = Open(ctx, config.StoreConfig{Backend: config.StoreSQLite, DBPath: path}, testLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	got, _ := st.ListProcesses(ctx)
	if len(got) != 1 || got[0].Name != "A" || got[0].Arrival != 2 {
		t.Errorf("after reopen: %+v", got)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, config.StoreConfig{Backend: config.StoreMemory}, testLogger())
	if err != nil {
		t.Fatalf("Open(memory): %v", err)
	}
	if _, ok := st.(*MemoryStore); !ok {
		t.Errorf("Open(memory) = %T", st)
	}

	if _, err := Open(ctx, config.StoreConfig{Backend: "postgres"}, testLogger()); err == nil {
		t.Error("Open(postgres) = nil error")
	}
}
