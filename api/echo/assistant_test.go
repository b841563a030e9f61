package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/aissist/aissist/core/assistant"
	"github.com/aissist/aissist/core/settings"
)

type stubProvider struct {
	fields assistant.TaskFields
	text   string
	err    error
}

func (p *stubProvider) Analyze(context.Context, assistant.CallParams, string) (assistant.TaskFields, error) {
	return p.fields, p.err
}

func (p *stubProvider) Generate(context.Context, assistant.CallParams, assistant.TaskFields) (string, error) {
	return p.text, p.err
}

func Test_assistantApi_analyze(t *testing.T) {
	stub := &stubProvider{fields: assistant.TaskFields{Title: "Team meeting", Category: "MEETING", DueDate: "2026-04-01"}}
	env := newTestEnv(t, map[string]assistant.Provider{settings.ProviderOpenAI: stub})
	env.conf.Assistant.OpenAIAPIKey = "sk-fallback"
	alice := env.createUser(t, "Alice", "alice@test.test", "password123")
	token := env.getToken(t, alice)

	tests := []httpTest{
		{name: "Auth required", body: []byte(`{"content":"x"}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "content required", token: token, body: []byte(`{}`), wantCode: http.StatusBadRequest},
		{name: "bad provider", token: token, body: []byte(`{"content":"x","provider":"claude"}`), wantCode: http.StatusBadRequest},
		{
			name: "unwired provider", token: token, body: []byte(`{"content":"x","provider":"gemini"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "ok", token: token, body: []byte(`{"content":"meet the team on April 1st"}`), wantCode: http.StatusOK,
			wantData: marchallObj(t, stub.fields),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/v1/ai/analyze", tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}

	// provider failures surface as a bad gateway, without provider details
	stub.err = context.DeadlineExceeded
	rec := env.do(http.MethodPost, "/v1/ai/analyze", token, []byte(`{"content":"x"}`))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadGateway,
		wantData: marchallObj(t, httpErr{Error: assistant.ErrAnalysisFailed.Error()}),
	}, rec)
}

func Test_assistantApi_generate(t *testing.T) {
	stub := &stubProvider{text: "Dear team, please join the meeting."}
	env := newTestEnv(t, map[string]assistant.Provider{
		settings.ProviderOpenAI: stub,
		settings.ProviderGemini: stub,
	})
	env.conf.Assistant.OpenAIAPIKey = "sk-fallback"
	alice := env.createUser(t, "Alice", "alice@test.test", "password123")
	token := env.getToken(t, alice)

	tests := []httpTest{
		{name: "Auth required", body: []byte(`{}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "ok", token: token, body: []byte(`{"title":"Meeting","due_date":"2026-04-01"}`), wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]string{"text": stub.text}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/v1/ai/generate", tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}

	// a user key on settings unblocks the gemini provider
	key := "AIzaTest"
	if _, err := env.settingsSvc.UpdateAPIKeys(context.Background(), alice.ID, settings.UpdateAPIKeys{GeminiAPIKey: &key}); err != nil {
		t.Fatalf("UpdateAPIKeys(): %v", err)
	}
	rec := env.do(http.MethodPost, "/v1/ai/generate", token, []byte(`{"title":"Meeting","provider":"gemini"}`))
	if rec.Code != http.StatusOK {
		t.Errorf("generate via gemini: code = %d - Body: %s", rec.Code, rec.Body.String())
	}

	stub.err = context.DeadlineExceeded
	rec = env.do(http.MethodPost, "/v1/ai/generate", token, []byte(`{"title":"Meeting"}`))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadGateway,
		wantData: marchallObj(t, httpErr{Error: assistant.ErrGenerationFailed.Error()}),
	}, rec)
}
