package runs

import "github.com/wricardo/mcp-training/gridplanner/game/service"

// RunPersistence defines the interface for persisting run records
type RunPersistence interface {
	// Save persists a run, replacing any record with the same ID
	Save(run *service.Run) error

	// Load retrieves a run by ID
	Load(id string) (*service.Run, error)

	// Delete removes a run
	Delete(id string) error

	// ListAll returns all persisted run IDs
	ListAll() ([]string, error)

	// Exists checks if a run is persisted
	Exists(id string) bool
}
