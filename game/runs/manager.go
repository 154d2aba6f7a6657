package runs

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/mcp-training/gridplanner/game/service"
)

var (
	ErrRunNotFound      = service.ErrRunNotFound
	ErrRunAlreadyExists = errors.New("run already exists")
)

// Manager keeps solve run records in memory, optionally backed by a
// RunPersistence
type Manager struct {
	runs        map[string]*service.Run
	persistence RunPersistence
	mu          sync.RWMutex
}

// NewManager creates a new in-memory run manager
func NewManager() *Manager {
	return &Manager{
		runs: make(map[string]*service.Run),
	}
}

// NewManagerWithPersistence creates a new run manager with persistence
func NewManagerWithPersistence(persistence RunPersistence) *Manager {
	return &Manager{
		runs:        make(map[string]*service.Run),
		persistence: persistence,
	}
}

// Create stores run under a fresh UUID, or under run.ID when one is set
func (m *Manager) Create(run *service.Run) (*service.Run, error) {
	if run == nil {
		return nil, fmt.Errorf("run cannot be nil")
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := strings.ToLower(run.ID)
	if _, exists := m.runs[id]; exists {
		return nil, ErrRunAlreadyExists
	}
	m.runs[id] = run

	// Auto-save if persistence is enabled
	if m.persistence != nil {
		if err := m.persistence.Save(run); err != nil {
			// Log error but don't fail the creation
			log.Printf("Warning: failed to persist run %s: %v", run.ID, err)
		}
	}

	return run, nil
}

// Get retrieves a run by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Run, error) {
	m.mu.RLock()
	run, exists := m.runs[strings.ToLower(id)]
	m.mu.RUnlock()

	if exists {
		return run, nil
	}

	// Try loading from persistence if not in memory
	if m.persistence != nil && m.persistence.Exists(id) {
		run, err := m.persistence.Load(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted run: %w", err)
		}

		m.mu.Lock()
		m.runs[strings.ToLower(id)] = run
		m.mu.Unlock()

		return run, nil
	}

	return nil, ErrRunNotFound
}

// List returns all runs held in memory
func (m *Manager) List() []*service.Run {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Run, 0, len(m.runs))
	for _, run := range m.runs {
		result = append(result, run)
	}

	return result
}

// Delete removes a run from memory and persistence
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	_, inMemory := m.runs[lowerID]
	delete(m.runs, lowerID)

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted run: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrRunNotFound
	}

	return nil
}

// CleanupExpired drops runs older than maxAge from memory. Persisted copies
// are kept.
func (m *Manager) CleanupExpired(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, run := range m.runs {
		if run.CreatedAt.Before(cutoff) {
			delete(m.runs, id)
			removed++
		}
	}

	return removed
}

// Count returns the number of runs in memory
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

// LoadPersisted loads all persisted runs into memory
func (m *Manager) LoadPersisted() error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted runs: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loadedCount := 0
	for _, id := range ids {
		if _, exists := m.runs[strings.ToLower(id)]; exists {
			continue
		}

		run, err := m.persistence.Load(id)
		if err != nil {
			log.Printf("Warning: failed to load persisted run %s: %v", id, err)
			continue
		}

		m.runs[strings.ToLower(id)] = run
		loadedCount++
	}

	if loadedCount > 0 {
		log.Printf("Loaded %d persisted runs from storage", loadedCount)
	}

	return nil
}
