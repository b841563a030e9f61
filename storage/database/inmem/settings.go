package inmemdb

import (
	"context"

	"github.com/aissist/aissist/core"
	"github.com/aissist/aissist/core/settings"
	"github.com/aissist/aissist/core/user"
)

type settingsRepository struct {
	db *DB
}

var (
	_ settings.Repository = (*settingsRepository)(nil) // interface compliance check
	_ user.AccountCleaner = (*settingsRepository)(nil)
)

func NewSettingsRepository(db *DB) *settingsRepository {
	return &settingsRepository{db: db}
}

func (repo *settingsRepository) GetSettings(_ context.Context, userID string, _ ...core.DBExecutor) (settings.Settings, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.settings[userID]; ok {
		return *s, nil
	}
	return settings.Settings{}, settings.ErrNotFound
}

func (repo *settingsRepository) UpsertSettings(_ context.Context, s settings.Settings, _ ...core.DBExecutor) (settings.Settings, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.settings[s.UserID] = &s
	return s, nil
}

func (repo *settingsRepository) CleanAccount(_ context.Context, userID string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.settings, userID)
	return nil
}
