package pgrepos

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/aissist/aissist/core"
	"github.com/aissist/aissist/core/settings"
	"github.com/aissist/aissist/core/user"
)

const settingsTable = "user_settings"

var settingsColumns = []string{
	"user_id", "default_model", "temperature", "max_tokens", "response_style",
	"openai_api_key", "gemini_api_key", "updated_at",
}

type settingsRecord struct {
	UserID        string    `db:"user_id"`
	DefaultModel  string    `db:"default_model"`
	Temperature   float64   `db:"temperature"`
	MaxTokens     int       `db:"max_tokens"`
	ResponseStyle string    `db:"response_style"`
	OpenAIAPIKey  string    `db:"openai_api_key"`
	GeminiAPIKey  string    `db:"gemini_api_key"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (rec settingsRecord) toSettings() settings.Settings {
	return settings.Settings(rec)
}

type settingsRepository struct {
	exec core.DBExecutor
}

var (
	_ settings.Repository = (*settingsRepository)(nil) // interface compliance check
	_ user.AccountCleaner = (*settingsRepository)(nil)
)

func NewSettingsRepository(exec core.DBExecutor) *settingsRepository {
	return &settingsRepository{exec: exec}
}

func (repo settingsRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo settingsRepository) GetSettings(ctx context.Context, userID string, exec ...core.DBExecutor) (settings.Settings, error) {
	var recs []settingsRecord
	sb := psql.Select(settingsColumns...).From(settingsTable).Where(squirrel.Eq{"user_id": userID})
	if err := selectAll(ctx, repo.getExec(exec), &recs, sb); err != nil {
		return settings.Settings{}, errors.Wrap(err, "getting settings")
	}
	if len(recs) == 0 {
		return settings.Settings{}, settings.ErrNotFound
	}
	return recs[0].toSettings(), nil
}

func (repo settingsRepository) UpsertSettings(ctx context.Context, s settings.Settings, exec ...core.DBExecutor) (settings.Settings, error) {
	ins := psql.Insert(settingsTable).
		Columns(settingsColumns...).
		Values(s.UserID, s.DefaultModel, s.Temperature, s.MaxTokens, s.ResponseStyle,
			s.OpenAIAPIKey, s.GeminiAPIKey, s.UpdatedAt.UTC()).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			default_model = EXCLUDED.default_model,
			temperature = EXCLUDED.temperature,
			max_tokens = EXCLUDED.max_tokens,
			response_style = EXCLUDED.response_style,
			openai_api_key = EXCLUDED.openai_api_key,
			gemini_api_key = EXCLUDED.gemini_api_key,
			updated_at = EXCLUDED.updated_at`)
	if _, err := execQuery(ctx, repo.getExec(exec), ins); err != nil {
		return settings.Settings{}, errors.Wrap(err, "upserting settings")
	}
	return s, nil
}

func (repo settingsRepository) CleanAccount(ctx context.Context, userID string, exec ...core.DBExecutor) error {
	if _, err := execQuery(ctx, repo.getExec(exec), psql.Delete(settingsTable).Where(squirrel.Eq{"user_id": userID})); err != nil {
		return errors.Wrap(err, "deleting settings")
	}
	return nil
}
