// Package memory provides map-backed implementations of the metadata
// repositories. It backs unit tests and the "memory" store driver; data does
// not survive a restart.
package memory

import (
	"context"
	"sync"

	"televault/internal/domain/models"
	"televault/internal/domain/repositories"
)

// Store owns the shared maps behind the file and folder repositories.
type Store struct {
	mu      sync.RWMutex
	txMu    sync.Mutex
	files   map[string]*models.File
	folders map[string]*models.Folder
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		files:   make(map[string]*models.File),
		folders: make(map[string]*models.Folder),
	}
}

// Files returns the file repository view of the store.
func (s *Store) Files() repositories.FileRepository {
	return &fileRepository{store: s}
}

// Folders returns the folder repository view of the store.
func (s *Store) Folders() repositories.FolderRepository {
	return &folderRepository{store: s}
}

// TxManager returns the store's transaction manager.
func (s *Store) TxManager() repositories.TransactionManager {
	return &transactionManager{store: s}
}

// transactionManager serializes whole mutations under one mutex. There is
// no rollback: a failed step leaves prior steps applied. The memory driver
// exists for tests and development, where mid-transaction failure paths are
// not exercised; production uses the postgres TransactionManager.
type transactionManager struct {
	store *Store
}

func (tm *transactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tm.store.txMu.Lock()
	defer tm.store.txMu.Unlock()

	return fn(ctx)
}
