package assistant

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/aissist/aissist/core"
	"github.com/aissist/aissist/core/settings"
)

var (
	// generic user-facing errors; provider details are logged, never surfaced
	ErrAnalysisFailed   = errors.New("analysis failed")
	ErrGenerationFailed = errors.New("generation failed")
)

type (
	// Provider is an external AI backend able to extract task fields from free
	// text and to draft prose from task fields.
	Provider interface {
		Analyze(ctx context.Context, p CallParams, content string) (TaskFields, error)
		Generate(ctx context.Context, p CallParams, fields TaskFields) (string, error)
	}

	ServiceInterface interface {
		Analyze(ctx context.Context, userID string, req AnalyzeRequest) (TaskFields, error)
		Generate(ctx context.Context, userID string, req GenerateRequest) (string, error)
	}

	Service struct {
		providers map[string]Provider
		settings  settings.ServiceInterface
		logger    core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil) // interface compliance check

func NewService(settingsSvc settings.ServiceInterface, logger core.Logger, providers map[string]Provider) *Service {
	return &Service{providers: providers, settings: settingsSvc, logger: logger}
}

// resolve picks the provider (explicit or the user's default) and assembles
// the call parameters from the user's settings.
func (svc *Service) resolve(ctx context.Context, userID, provider string) (Provider, CallParams, error) {
	s, err := svc.settings.Get(ctx, userID)
	if err != nil {
		return nil, CallParams{}, errors.Wrap(err, "getting settings")
	}
	if provider == "" {
		provider = s.DefaultModel
	}
	p, ok := svc.providers[provider]
	if !ok {
		return nil, CallParams{}, core.NewValidationError(nil,
			core.FieldError{Field: "provider", Error: "unknown provider"})
	}
	key := svc.settings.APIKeyFor(ctx, userID, provider)
	if key == "" {
		return nil, CallParams{}, core.NewValidationError(nil,
			core.FieldError{Field: "provider", Error: fmt.Sprintf("no %s API key configured", provider)})
	}
	return p, CallParams{
		APIKey:        key,
		Temperature:   s.Temperature,
		MaxTokens:     s.MaxTokens,
		ResponseStyle: s.ResponseStyle,
	}, nil
}

func (svc *Service) Analyze(ctx context.Context, userID string, req AnalyzeRequest) (TaskFields, error) {
	p, params, err := svc.resolve(ctx, userID, req.Provider)
	if err != nil {
		return TaskFields{}, err
	}
	fields, err := p.Analyze(ctx, params, req.Content)
	if err != nil {
		svc.logger.Error("task analysis failed", err)
		return TaskFields{}, ErrAnalysisFailed
	}
	return fields, nil
}

func (svc *Service) Generate(ctx context.Context, userID string, req GenerateRequest) (string, error) {
	p, params, err := svc.resolve(ctx, userID, req.Provider)
	if err != nil {
		return "", err
	}
	text, err := p.Generate(ctx, params, req.TaskFields)
	if err != nil {
		svc.logger.Error("note generation failed", err)
		return "", ErrGenerationFailed
	}
	return text, nil
}
