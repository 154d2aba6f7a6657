// Package runs records solve runs so they can be listed and fetched later.
//
// A Manager keeps records in memory and can write through to a
// RunPersistence. Two backends are provided: FilePersistence stores one
// JSON document per run, and SQLitePersistence keeps them in a single
// SQLite database.
//
// Usage:
//
//	store, err := runs.NewSQLitePersistence("runs.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	manager := runs.NewManagerWithPersistence(store)
//	if err := manager.LoadPersisted(); err != nil {
//		log.Printf("Warning: %v", err)
//	}
package runs
