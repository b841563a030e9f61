package assistantsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aissist/aissist/core/assistant"
	"github.com/aissist/aissist/core/settings"
)

func Test_parseTaskFields(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    assistant.TaskFields
		wantErr bool
	}{
		{
			name:  "bare json",
			reply: `{"title":"Team meeting","category":"MEETING","due_date":"2026-04-01"}`,
			want:  assistant.TaskFields{Title: "Team meeting", Category: "MEETING", DueDate: "2026-04-01"},
		},
		{
			name:  "fenced json",
			reply: "Here you go:\n```json\n{\"title\":\"Trip\",\"location\":\"Paris\"}\n```\nAnything else?",
			want:  assistant.TaskFields{Title: "Trip", Location: "Paris"},
		},
		{name: "no json", reply: "I could not find a task in that.", wantErr: true},
		{name: "broken json", reply: `{"title": "oops`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTaskFields(tt.reply)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTaskFields() error = %v; wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseTaskFields() = %+v; want %+v", got, tt.want)
			}
		})
	}
}

func Test_styleInstruction(t *testing.T) {
	if got := styleInstruction(settings.StyleBalanced); got != "" {
		t.Errorf("styleInstruction(balanced) = %q; want empty", got)
	}
	if got := styleInstruction(settings.StyleCreative); got == "" {
		t.Error("styleInstruction(creative) = empty")
	}
	if got := styleInstruction(settings.StylePrecise); got == "" {
		t.Error("styleInstruction(precise) = empty")
	}
}

func Test_openAIProvider(t *testing.T) {
	params := assistant.CallParams{APIKey: "sk-test", Temperature: 0.3, MaxTokens: 500}

	var gotReq openAIRequest
	var gotAuth string
	reply := `{"title":"Team meeting","category":"MEETING"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider()
	p.baseURL = srv.URL

	fields, err := p.Analyze(context.Background(), params, "meet the team")
	if err != nil {
		t.Fatalf("Analyze(): %v", err)
	}
	if fields.Title != "Team meeting" || fields.Category != "MEETING" {
		t.Errorf("Analyze() = %+v", fields)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != openAIModel || gotReq.Temperature != 0.3 || gotReq.MaxTokens != 500 {
		t.Errorf("request = %+v", gotReq)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Content != "meet the team" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}

	reply = "Dear team, see you tomorrow."
	text, err := p.Generate(context.Background(), params, assistant.TaskFields{Title: "Meeting"})
	if err != nil {
		t.Fatalf("Generate(): %v", err)
	}
	if text != reply {
		t.Errorf("Generate() = %q; want %q", text, reply)
	}
}

func Test_openAIProvider_apiError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider()
	p.baseURL = srv.URL

	if _, err := p.Analyze(context.Background(), assistant.CallParams{APIKey: "sk-bad"}, "hi"); err == nil {
		t.Error("Analyze() error = nil; want API error")
	}
}

func Test_geminiProvider(t *testing.T) {
	params := assistant.CallParams{APIKey: "AIzaTest", Temperature: 0.5, MaxTokens: 800}

	var gotReq geminiRequest
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		if r.URL.Path != "/models/"+geminiModel+":generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]string{{"text": `{"title":"Field trip","location":"Museum"}`}},
				}},
			},
		})
	}))
	defer srv.Close()

	p := NewGeminiProvider()
	p.baseURL = srv.URL

	fields, err := p.Analyze(context.Background(), params, "organize a field trip")
	if err != nil {
		t.Fatalf("Analyze(): %v", err)
	}
	if fields.Title != "Field trip" || fields.Location != "Museum" {
		t.Errorf("Analyze() = %+v", fields)
	}
	if gotKey != "AIzaTest" {
		t.Errorf("key = %q", gotKey)
	}
	if gotReq.SystemInstruction == nil || len(gotReq.SystemInstruction.Parts) == 0 {
		t.Error("missing system instruction")
	}
	if gotReq.GenerationConfig.Temperature != 0.5 || gotReq.GenerationConfig.MaxOutputTokens != 800 {
		t.Errorf("generation config = %+v", gotReq.GenerationConfig)
	}
}

func Test_geminiProvider_apiError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	p := NewGeminiProvider()
	p.baseURL = srv.URL

	if _, err := p.Generate(context.Background(), assistant.CallParams{APIKey: "nope"}, assistant.TaskFields{}); err == nil {
		t.Error("Generate() error = nil; want API error")
	}
}
