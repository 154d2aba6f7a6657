package runs

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/mcp-training/gridplanner/game/engine"
	"github.com/wricardo/mcp-training/gridplanner/game/service"
)

func createTestRun(level string) *service.Run {
	return &service.Run{
		Level:     level,
		Variant:   engine.Sokoban,
		Status:    service.StatusSolved,
		Message:   "Path found: (1,1) E",
		Path:      &engine.Path{Origin: engine.Cell{X: 1, Y: 1}, Directions: []engine.Action{engine.East}},
		States:    12,
		Explored:  3,
		Horizon:   engine.DefaultHorizon,
		MaxStates: engine.DefaultMaxStates,
		Duration:  2 * time.Millisecond,
	}
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()

	t.Run("create with custom ID", func(t *testing.T) {
		run := createTestRun("corridor")
		run.ID = "test-run"
		created, err := manager.Create(run)
		if err != nil {
			t.Fatalf("Failed to create run: %v", err)
		}
		if created.ID != "test-run" {
			t.Errorf("Expected run ID 'test-run', got '%s'", created.ID)
		}
		if created.CreatedAt.IsZero() {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		created, err := manager.Create(createTestRun("corridor"))
		if err != nil {
			t.Fatalf("Failed to create run: %v", err)
		}
		if _, err := uuid.Parse(created.ID); err != nil {
			t.Errorf("Expected a UUID run ID, got %q: %v", created.ID, err)
		}
	})

	t.Run("duplicate ID", func(t *testing.T) {
		run := createTestRun("corridor")
		run.ID = "TEST-RUN"
		if _, err := manager.Create(run); !errors.Is(err, ErrRunAlreadyExists) {
			t.Errorf("Expected ErrRunAlreadyExists, got %v", err)
		}
	})

	t.Run("nil run", func(t *testing.T) {
		if _, err := manager.Create(nil); err == nil {
			t.Error("Expected error for nil run")
		}
	})

	t.Run("keeps given timestamp", func(t *testing.T) {
		stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		run := createTestRun("open")
		run.CreatedAt = stamp
		created, err := manager.Create(run)
		if err != nil {
			t.Fatalf("Failed to create run: %v", err)
		}
		if !created.CreatedAt.Equal(stamp) {
			t.Errorf("Expected CreatedAt %v, got %v", stamp, created.CreatedAt)
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	run := createTestRun("corridor")
	run.ID = "Mixed-Case"
	if _, err := manager.Create(run); err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{name: "exact", id: "Mixed-Case"},
		{name: "lower case", id: "mixed-case"},
		{name: "upper case", id: "MIXED-CASE"},
		{name: "missing", id: "other", wantErr: ErrRunNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := manager.Get(tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get(%q): %v", tt.id, err)
			}
			if got != run {
				t.Error("Expected the stored run pointer")
			}
		})
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	created, err := manager.Create(createTestRun("corridor"))
	if err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}

	if err := manager.Delete(created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := manager.Get(created.ID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound after delete, got %v", err)
	}
	if err := manager.Delete(created.ID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound on second delete, got %v", err)
	}
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	if got := manager.List(); len(got) != 0 {
		t.Fatalf("Expected empty list, got %d", len(got))
	}

	for i := 0; i < 3; i++ {
		if _, err := manager.Create(createTestRun(fmt.Sprintf("level-%d", i))); err != nil {
			t.Fatalf("Failed to create run: %v", err)
		}
	}
	if got := manager.List(); len(got) != 3 {
		t.Errorf("Expected 3 runs, got %d", len(got))
	}
	if manager.Count() != 3 {
		t.Errorf("Expected count 3, got %d", manager.Count())
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager()

	old := createTestRun("old")
	old.CreatedAt = time.Now().Add(-2 * time.Hour)
	if _, err := manager.Create(old); err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}
	fresh, err := manager.Create(createTestRun("fresh"))
	if err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}

	if removed := manager.CleanupExpired(time.Hour); removed != 1 {
		t.Errorf("Expected 1 removed run, got %d", removed)
	}
	if _, err := manager.Get(fresh.ID); err != nil {
		t.Errorf("Fresh run should survive cleanup: %v", err)
	}
	if _, err := manager.Get(old.ID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected old run to be gone, got %v", err)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created, err := manager.Create(createTestRun(fmt.Sprintf("level-%d", i)))
			if err != nil {
				t.Errorf("Create: %v", err)
				return
			}
			if _, err := manager.Get(created.ID); err != nil {
				t.Errorf("Get: %v", err)
			}
			_ = manager.List()
		}(i)
	}
	wg.Wait()

	if manager.Count() != 50 {
		t.Errorf("Expected 50 runs, got %d", manager.Count())
	}
}

func TestManagerWithPersistence(t *testing.T) {
	backends := map[string]func(t *testing.T) RunPersistence{
		"file": func(t *testing.T) RunPersistence {
			fp, err := NewFilePersistence(t.TempDir())
			if err != nil {
				t.Fatalf("NewFilePersistence: %v", err)
			}
			return fp
		},
		"sqlite": func(t *testing.T) RunPersistence {
			return tempDB(t)
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			store := open(t)

			first := NewManagerWithPersistence(store)
			created, err := first.Create(createTestRun("corridor"))
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if !store.Exists(created.ID) {
				t.Fatal("Expected run to be persisted on create")
			}

			second := NewManagerWithPersistence(store)
			loaded, err := second.Get(created.ID)
			if err != nil {
				t.Fatalf("Get from persistence: %v", err)
			}
			if loaded.Level != "corridor" || loaded.Status != service.StatusSolved {
				t.Errorf("Unexpected loaded run %+v", loaded)
			}
			if loaded.Path == nil || loaded.Path.String() != "(1,1) E" {
				t.Errorf("Expected path to round trip, got %v", loaded.Path)
			}

			third := NewManagerWithPersistence(store)
			if err := third.LoadPersisted(); err != nil {
				t.Fatalf("LoadPersisted: %v", err)
			}
			if third.Count() != 1 {
				t.Errorf("Expected 1 loaded run, got %d", third.Count())
			}

			if err := third.Delete(created.ID); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if store.Exists(created.ID) {
				t.Error("Expected run to be removed from persistence")
			}
		})
	}
}

func TestManager_LoadPersistedWithoutBackend(t *testing.T) {
	if err := NewManager().LoadPersisted(); err != nil {
		t.Errorf("Expected nil error without persistence, got %v", err)
	}
}
