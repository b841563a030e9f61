package assistantsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/aissist/aissist/core/assistant"
)

const geminiModel = "gemini-1.5-flash"

type geminiProvider struct {
	baseURL string
	client  *http.Client
}

var _ assistant.Provider = (*geminiProvider)(nil)

func NewGeminiProvider() *geminiProvider {
	return &geminiProvider{
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		client:  &http.Client{Timeout: defaultTimeout * time.Second},
	}
}

type (
	geminiPart struct {
		Text string `json:"text"`
	}
	geminiContent struct {
		Role  string       `json:"role,omitempty"`
		Parts []geminiPart `json:"parts"`
	}
	geminiRequest struct {
		SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
		Contents          []geminiContent `json:"contents"`
		GenerationConfig  struct {
			Temperature     float64 `json:"temperature"`
			MaxOutputTokens int     `json:"maxOutputTokens"`
		} `json:"generationConfig"`
	}
	geminiResponse struct {
		Candidates []struct {
			Content geminiContent `json:"content"`
		} `json:"candidates"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
)

func (p *geminiProvider) Analyze(ctx context.Context, params assistant.CallParams, content string) (assistant.TaskFields, error) {
	reply, err := p.complete(ctx, params, analyzeSystemPrompt, content)
	if err != nil {
		return assistant.TaskFields{}, err
	}
	return parseTaskFields(reply)
}

func (p *geminiProvider) Generate(ctx context.Context, params assistant.CallParams, fields assistant.TaskFields) (string, error) {
	sys := generateSystemPrompt + styleInstruction(params.ResponseStyle)
	return p.complete(ctx, params, sys, generateUserPrompt(fields))
}

func (p *geminiProvider) complete(ctx context.Context, params assistant.CallParams, system, user string) (string, error) {
	payload := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: system}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: user}}}},
	}
	payload.GenerationConfig.Temperature = params.Temperature
	payload.GenerationConfig.MaxOutputTokens = params.MaxTokens

	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "encoding request")
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, geminiModel, params.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling gemini")
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", errors.Wrap(err, "reading response")
	}

	var parsed geminiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", errors.Wrapf(err, "decoding response - status: %d", res.StatusCode)
	}
	if parsed.Error != nil {
		return "", errors.Errorf("gemini error - code: %d - %s", parsed.Error.Code, parsed.Error.Message)
	}
	if res.StatusCode >= http.StatusBadRequest || len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.Errorf("gemini error - status: %d - Body: %s", res.StatusCode, data)
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
