package settings

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/aissist/aissist/core"
)

var ErrNotFound = errors.New("settings not found")

type (
	Repository interface {
		// GetSettings returns ErrNotFound when the user has no row yet.
		GetSettings(ctx context.Context, userID string, exec ...core.DBExecutor) (Settings, error)
		UpsertSettings(ctx context.Context, s Settings, exec ...core.DBExecutor) (Settings, error)
	}

	ServiceInterface interface {
		Get(ctx context.Context, userID string) (Settings, error)
		UpdateAPIKeys(ctx context.Context, userID string, uk UpdateAPIKeys) (Settings, error)
		UpdateModelPrefs(ctx context.Context, userID string, up UpdateModelPrefs) (Settings, error)
		APIKeyFor(ctx context.Context, userID, provider string) string
	}

	Service struct {
		repo Repository
		conf *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil) // interface compliance check

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{repo: repo, conf: conf}
}

// Get returns the user's settings, or the defaults when none are stored yet.
// Reading never creates a row.
func (svc *Service) Get(ctx context.Context, userID string) (Settings, error) {
	return svc.getOrDefaults(ctx, userID)
}

// getOrDefaults loads the stored row or seeds defaults for an upsert.
func (svc *Service) getOrDefaults(ctx context.Context, userID string) (Settings, error) {
	s, err := svc.repo.GetSettings(ctx, userID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return NewDefaults(userID), nil
		}
		return Settings{}, errors.Wrap(err, "getting settings")
	}
	return s, nil
}

func (svc *Service) UpdateAPIKeys(ctx context.Context, userID string, uk UpdateAPIKeys) (Settings, error) {
	s, err := svc.getOrDefaults(ctx, userID)
	if err != nil {
		return Settings{}, err
	}
	if uk.OpenAIAPIKey != nil {
		s.OpenAIAPIKey = *uk.OpenAIAPIKey
	}
	if uk.GeminiAPIKey != nil {
		s.GeminiAPIKey = *uk.GeminiAPIKey
	}
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpsertSettings(ctx, s)
}

func (svc *Service) UpdateModelPrefs(ctx context.Context, userID string, up UpdateModelPrefs) (Settings, error) {
	s, err := svc.getOrDefaults(ctx, userID)
	if err != nil {
		return Settings{}, err
	}
	if up.DefaultModel != nil {
		s.DefaultModel = *up.DefaultModel
	}
	if up.Temperature != nil {
		s.Temperature = *up.Temperature
	}
	if up.MaxTokens != nil {
		s.MaxTokens = *up.MaxTokens
	}
	if up.ResponseStyle != nil {
		s.ResponseStyle = *up.ResponseStyle
	}
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpsertSettings(ctx, s)
}

// APIKeyFor resolves the API key to use for a provider: the user's own key
// when configured, else the process-wide fallback from config.
func (svc *Service) APIKeyFor(ctx context.Context, userID, provider string) string {
	var userKey, confKey string
	if s, err := svc.repo.GetSettings(ctx, userID); err == nil {
		if provider == ProviderGemini {
			userKey = s.GeminiAPIKey
		} else {
			userKey = s.OpenAIAPIKey
		}
	}
	if provider == ProviderGemini {
		confKey = svc.conf.Assistant.GeminiAPIKey
	} else {
		confKey = svc.conf.Assistant.OpenAIAPIKey
	}
	if userKey != "" {
		return userKey
	}
	return confKey
}
