package settings

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// AI providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Response styles
const (
	StyleCreative = "creative"
	StyleBalanced = "balanced"
	StylePrecise  = "precise"
)

// Defaults applied when a user's settings row is first created.
const (
	DefaultModel         = ProviderOpenAI
	DefaultTemperature   = 0.7
	DefaultMaxTokens     = 1000
	DefaultResponseStyle = StyleBalanced
)

// Settings holds a user's AI preferences and API keys; one row per user,
// created lazily on first write.
type Settings struct {
	UserID        string    `json:"user_id"`
	DefaultModel  string    `json:"default_model"`
	Temperature   float64   `json:"temperature"`
	MaxTokens     int       `json:"max_tokens"`
	ResponseStyle string    `json:"response_style"`
	OpenAIAPIKey  string    `json:"openai_api_key,omitempty"`
	GeminiAPIKey  string    `json:"gemini_api_key,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// NewDefaults returns a settings row seeded with the creation-time defaults.
func NewDefaults(userID string) Settings {
	return Settings{
		UserID:        userID,
		DefaultModel:  DefaultModel,
		Temperature:   DefaultTemperature,
		MaxTokens:     DefaultMaxTokens,
		ResponseStyle: DefaultResponseStyle,
	}
}

// UpdateAPIKeys carries per-provider API keys; provider key formats are
// enforced (OpenAI keys start with "sk-", Gemini keys with "AIza").
type UpdateAPIKeys struct {
	OpenAIAPIKey *string `json:"openai_api_key" validate:"omitempty,startswith=sk-"`
	GeminiAPIKey *string `json:"gemini_api_key" validate:"omitempty,startswith=AIza"`
}

func (uk UpdateAPIKeys) Validate(validate *validator.Validate) error {
	return validate.Struct(uk)
}

// UpdateModelPrefs carries AI model preferences; only non-nil fields are
// applied, defaults fill the rest on first creation.
type UpdateModelPrefs struct {
	DefaultModel  *string  `json:"default_model" validate:"omitempty,oneof=openai gemini"`
	Temperature   *float64 `json:"temperature" validate:"omitempty,gte=0,lte=1"`
	MaxTokens     *int     `json:"max_tokens" validate:"omitempty,gte=100,lte=4000"`
	ResponseStyle *string  `json:"response_style" validate:"omitempty,oneof=creative balanced precise"`
}

func (up UpdateModelPrefs) Validate(validate *validator.Validate) error {
	return validate.Struct(up)
}
