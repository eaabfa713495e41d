package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/congrego/internal/common"
	"github.com/ternarybob/congrego/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db     *BadgerDB
	groups interfaces.GroupStorage
	tasks  interfaces.TaskStore
	logger arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:     db,
		groups: NewGroupStorage(db, logger),
		tasks:  NewTaskStorage(db, logger),
		logger: logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// GroupStorage returns the group storage interface
func (m *Manager) GroupStorage() interfaces.GroupStorage {
	return m.groups
}

// TaskStorage returns the badger-backed task store
func (m *Manager) TaskStorage() interfaces.TaskStore {
	return m.tasks
}

// Close closes the underlying database
func (m *Manager) Close() error {
	return m.db.Close()
}
