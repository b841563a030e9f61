package assistant

import "github.com/go-playground/validator/v10"

// TaskFields is the structured task outline exchanged with AI providers:
// Analyze extracts it from free text, Generate drafts prose from it.
type TaskFields struct {
	Title     string `json:"title,omitempty"`
	Category  string `json:"category,omitempty"`
	DueDate   string `json:"due_date,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Location  string `json:"location,omitempty"`
	Materials string `json:"materials,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// CallParams carries the per-call provider credentials and tuning taken from
// the user's settings.
type CallParams struct {
	APIKey        string
	Temperature   float64
	MaxTokens     int
	ResponseStyle string
}

type AnalyzeRequest struct {
	Content string `json:"content" validate:"required"`
	// Provider selects openai or gemini; empty falls back to the user's
	// default model preference.
	Provider string `json:"provider" validate:"omitempty,oneof=openai gemini"`
}

func (ar *AnalyzeRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(ar)
}

type GenerateRequest struct {
	TaskFields
	Provider string `json:"provider" validate:"omitempty,oneof=openai gemini"`
}

func (gr *GenerateRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(gr)
}
