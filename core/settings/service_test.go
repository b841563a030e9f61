package settings_test

import (
	"context"
	"testing"

	"github.com/aissist/aissist/core"
	"github.com/aissist/aissist/core/settings"
	inmemdb "github.com/aissist/aissist/storage/database/inmem"
)

func setup(t *testing.T, conf *core.Config) (*settings.Service, settings.Repository) {
	t.Helper()
	if conf == nil {
		conf = &core.Config{}
	}
	db := inmemdb.Open()
	repo := inmemdb.NewSettingsRepository(db)
	return settings.NewService(repo, conf), repo
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t, nil)

	// defaults are served lazily, reading never creates a row
	s, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get(): %v", err)
	}
	if s.DefaultModel != settings.ProviderOpenAI ||
		s.Temperature != settings.DefaultTemperature ||
		s.MaxTokens != settings.DefaultMaxTokens ||
		s.ResponseStyle != settings.StyleBalanced {
		t.Errorf("Get() defaults = %+v", s)
	}
	if _, err = repo.GetSettings(ctx, "u1"); err != settings.ErrNotFound {
		t.Errorf("GetSettings() after read: error = %v; want %v", err, settings.ErrNotFound)
	}
}

func TestService_UpdateModelPrefs(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t, nil)

	model := settings.ProviderGemini
	temp := 0.2
	s, err := svc.UpdateModelPrefs(ctx, "u1", settings.UpdateModelPrefs{DefaultModel: &model, Temperature: &temp})
	if err != nil {
		t.Fatalf("UpdateModelPrefs(): %v", err)
	}
	if s.DefaultModel != settings.ProviderGemini || s.Temperature != 0.2 {
		t.Errorf("UpdateModelPrefs() = %+v", s)
	}
	// untouched prefs keep their defaults
	if s.MaxTokens != settings.DefaultMaxTokens || s.ResponseStyle != settings.StyleBalanced {
		t.Errorf("UpdateModelPrefs() defaults lost: %+v", s)
	}

	// the first write persists the row
	if _, err = repo.GetSettings(ctx, "u1"); err != nil {
		t.Errorf("GetSettings() after write: %v", err)
	}

	// partial follow-up leaves earlier updates intact
	tokens := 2000
	if s, err = svc.UpdateModelPrefs(ctx, "u1", settings.UpdateModelPrefs{MaxTokens: &tokens}); err != nil {
		t.Fatalf("UpdateModelPrefs(): %v", err)
	}
	if s.DefaultModel != settings.ProviderGemini || s.MaxTokens != 2000 {
		t.Errorf("UpdateModelPrefs() = %+v", s)
	}
}

func TestService_UpdateAPIKeys(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t, nil)

	openAIKey := "sk-test123"
	s, err := svc.UpdateAPIKeys(ctx, "u1", settings.UpdateAPIKeys{OpenAIAPIKey: &openAIKey})
	if err != nil {
		t.Fatalf("UpdateAPIKeys(): %v", err)
	}
	if s.OpenAIAPIKey != openAIKey || s.GeminiAPIKey != "" {
		t.Errorf("UpdateAPIKeys() = %+v", s)
	}

	geminiKey := "AIzaTest456"
	if s, err = svc.UpdateAPIKeys(ctx, "u1", settings.UpdateAPIKeys{GeminiAPIKey: &geminiKey}); err != nil {
		t.Fatalf("UpdateAPIKeys(): %v", err)
	}
	if s.OpenAIAPIKey != openAIKey || s.GeminiAPIKey != geminiKey {
		t.Errorf("UpdateAPIKeys() = %+v", s)
	}
}

func TestService_APIKeyFor(t *testing.T) {
	ctx := context.Background()
	conf := &core.Config{}
	conf.Assistant.OpenAIAPIKey = "sk-fallback"
	svc, _ := setup(t, conf)

	// config fallback when the user has no key
	if key := svc.APIKeyFor(ctx, "u1", settings.ProviderOpenAI); key != "sk-fallback" {
		t.Errorf("APIKeyFor() = %q; want config fallback", key)
	}
	// no fallback configured for gemini
	if key := svc.APIKeyFor(ctx, "u1", settings.ProviderGemini); key != "" {
		t.Errorf("APIKeyFor() = %q; want empty", key)
	}

	// the user's own key wins
	userKey := "sk-mine"
	if _, err := svc.UpdateAPIKeys(ctx, "u1", settings.UpdateAPIKeys{OpenAIAPIKey: &userKey}); err != nil {
		t.Fatalf("UpdateAPIKeys(): %v", err)
	}
	if key := svc.APIKeyFor(ctx, "u1", settings.ProviderOpenAI); key != userKey {
		t.Errorf("APIKeyFor() = %q; want %q", key, userKey)
	}
}
