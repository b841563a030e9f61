package assistantsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/aissist/aissist/core/assistant"
)

const openAIModel = "gpt-4o-mini"

type openAIProvider struct {
	baseURL string
	client  *http.Client
}

var _ assistant.Provider = (*openAIProvider)(nil)

func NewOpenAIProvider() *openAIProvider {
	return &openAIProvider{
		baseURL: "https://api.openai.com/v1",
		client:  &http.Client{Timeout: defaultTimeout * time.Second},
	}
}

type (
	openAIMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	openAIRequest struct {
		Model       string          `json:"model"`
		Messages    []openAIMessage `json:"messages"`
		Temperature float64         `json:"temperature"`
		MaxTokens   int             `json:"max_tokens"`
	}
	openAIResponse struct {
		Choices []struct {
			Message openAIMessage `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
)

func (p *openAIProvider) Analyze(ctx context.Context, params assistant.CallParams, content string) (assistant.TaskFields, error) {
	reply, err := p.complete(ctx, params, analyzeSystemPrompt, content)
	if err != nil {
		return assistant.TaskFields{}, err
	}
	return parseTaskFields(reply)
}

func (p *openAIProvider) Generate(ctx context.Context, params assistant.CallParams, fields assistant.TaskFields) (string, error) {
	sys := generateSystemPrompt + styleInstruction(params.ResponseStyle)
	return p.complete(ctx, params, sys, generateUserPrompt(fields))
}

func (p *openAIProvider) complete(ctx context.Context, params assistant.CallParams, system, user string) (string, error) {
	body, err := json.Marshal(openAIRequest{
		Model: openAIModel,
		Messages: []openAIMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+params.APIKey)

	res, err := p.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling openai")
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", errors.Wrap(err, "reading response")
	}

	var parsed openAIResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", errors.Wrapf(err, "decoding response - status: %d", res.StatusCode)
	}
	if parsed.Error != nil {
		return "", errors.Errorf("openai error - status: %d - %s: %s", res.StatusCode, parsed.Error.Type, parsed.Error.Message)
	}
	if res.StatusCode >= http.StatusBadRequest || len(parsed.Choices) == 0 {
		return "", errors.Errorf("openai error - status: %d - Body: %s", res.StatusCode, data)
	}
	return parsed.Choices[0].Message.Content, nil
}
