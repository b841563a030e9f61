package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/aissist/aissist/core/room"
	"github.com/aissist/aissist/core/settings"
	"github.com/aissist/aissist/core/task"
	"github.com/aissist/aissist/core/user"
)

func Test_settingsApi_modelPrefs(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice@test.test", "password123")
	token := env.getToken(t, alice)

	// a fresh user reads the defaults
	rec := env.do(http.MethodGet, "/v1/settings/ai-models", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("retrieve code = %d", rec.Code)
	}
	var s settings.Settings
	decodeBody(t, rec, &s)
	if s.DefaultModel != settings.ProviderOpenAI || s.Temperature != settings.DefaultTemperature {
		t.Errorf("defaults = %+v", s)
	}

	tests := []httpTest{
		{name: "Auth required", body: []byte(`{}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "bad model", token: token, body: []byte(`{"default_model":"claude"}`), wantCode: http.StatusBadRequest},
		{name: "temperature too high", token: token, body: []byte(`{"temperature":1.5}`), wantCode: http.StatusBadRequest},
		{name: "max_tokens too low", token: token, body: []byte(`{"max_tokens":10}`), wantCode: http.StatusBadRequest},
		{name: "bad style", token: token, body: []byte(`{"response_style":"sassy"}`), wantCode: http.StatusBadRequest},
		{name: "ok", token: token, body: []byte(`{"default_model":"gemini","temperature":0.2,"response_style":"precise"}`), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPatch, "/v1/settings/ai-models", tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}

	// a failed update never persists anything
	got, err := env.settingsSvc.Get(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("Get(): %v", err)
	}
	if got.DefaultModel != settings.ProviderGemini || got.Temperature != 0.2 || got.ResponseStyle != settings.StylePrecise {
		t.Errorf("settings = %+v", got)
	}
	if got.MaxTokens != settings.DefaultMaxTokens {
		t.Errorf("max tokens = %d; want untouched default", got.MaxTokens)
	}
}

func Test_settingsApi_apiKeys(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice@test.test", "password123")
	token := env.getToken(t, alice)

	tests := []httpTest{
		{name: "bad openai key", token: token, body: []byte(`{"openai_api_key":"nope"}`), wantCode: http.StatusBadRequest},
		{name: "bad gemini key", token: token, body: []byte(`{"gemini_api_key":"nope"}`), wantCode: http.StatusBadRequest},
		{name: "ok", token: token, body: []byte(`{"openai_api_key":"sk-test123","gemini_api_key":"AIzaTest"}`), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPatch, "/v1/settings/api-keys", tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}

	rec := env.do(http.MethodGet, "/v1/settings/api-keys", token)
	var s settings.Settings
	decodeBody(t, rec, &s)
	if s.OpenAIAPIKey != "sk-test123" || s.GeminiAPIKey != "AIzaTest" {
		t.Errorf("keys = %+v", s)
	}
}

func Test_settingsApi_account(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice@test.test", "password123")
	env.createUser(t, "Bob", "taken@test.test", "password123")
	token := env.getToken(t, alice)

	rec := env.do(http.MethodGet, "/v1/settings/account", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("retrieve code = %d", rec.Code)
	}
	var usr user.User
	decodeBody(t, rec, &usr)
	if usr.ID != alice.ID || usr.Email != "alice@test.test" {
		t.Errorf("account = %+v", usr)
	}

	tests := []httpTest{
		{
			name: "new password without current", token: token,
			body:     []byte(`{"new_password":"newpassword1","new_password_confirm":"newpassword1"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "wrong current password", token: token,
			body:     []byte(`{"current_password":"nope","new_password":"newpassword1","new_password_confirm":"newpassword1"}`),
			wantCode: http.StatusBadRequest,
		},
		{name: "email taken", token: token, body: []byte(`{"email":"taken@test.test"}`), wantCode: http.StatusConflict},
		{
			name: "ok", token: token, wantCode: http.StatusOK,
			body: []byte(`{"name":"Alice Cooper","current_password":"password123","new_password":"newpassword1","new_password_confirm":"newpassword1"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPatch, "/v1/settings/account", tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}

	got, err := env.usrSvc.GetByID(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("GetByID(): %v", err)
	}
	if got.Name != "Alice Cooper" {
		t.Errorf("name = %q", got.Name)
	}
	if err = got.CheckPassword("newpassword1"); err != nil {
		t.Errorf("CheckPassword(new): %v", err)
	}
	if err = got.CheckPassword("password123"); err == nil {
		t.Error("CheckPassword(old) still passes")
	}
}

func Test_settingsApi_deleteAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "Alice", "alice@test.test", "password123")
	bob := env.createUser(t, "Bob", "bob@test.test", "password123")
	token := env.getToken(t, alice)

	// alice administers a room with bob in it and owns tasks and settings
	rm, err := env.roomSvc.Create(ctx, alice.ID, room.NewRoom{Name: "Math 101"})
	if err != nil {
		t.Fatalf("room Create(): %v", err)
	}
	if _, err = env.roomSvc.Join(ctx, rm.ID, bob.ID, ""); err != nil {
		t.Fatalf("Join(): %v", err)
	}
	joined, err := env.roomSvc.Create(ctx, bob.ID, room.NewRoom{Name: "Bob's"})
	if err != nil {
		t.Fatalf("room Create(): %v", err)
	}
	if _, err = env.roomSvc.Join(ctx, joined.ID, alice.ID, ""); err != nil {
		t.Fatalf("Join(): %v", err)
	}
	tk, err := env.taskSvc.Create(ctx, alice.ID, task.NewTask{Title: "Mine", DueDate: "2026-04-01"})
	if err != nil {
		t.Fatalf("task Create(): %v", err)
	}
	temp := 0.3
	if _, err = env.settingsSvc.UpdateModelPrefs(ctx, alice.ID, settings.UpdateModelPrefs{Temperature: &temp}); err != nil {
		t.Fatalf("UpdateModelPrefs(): %v", err)
	}

	rec := env.do(http.MethodDelete, "/v1/settings/account/delete", token, []byte(`{"password":"wrong"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("delete with wrong password: code = %d", rec.Code)
	}
	rec = env.do(http.MethodDelete, "/v1/settings/account/delete", token, []byte(`{"password":"password123"}`))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete code = %d - Body: %s", rec.Code, rec.Body.String())
	}

	// the account and everything it anchored are gone
	if _, err = env.usrSvc.GetByID(ctx, alice.ID); err == nil {
		t.Error("user still exists after account deletion")
	}
	if _, err = env.roomSvc.Get(ctx, rm.ID, bob.ID); err == nil {
		t.Error("administered room still exists after account deletion")
	}
	if _, err = env.taskSvc.Get(ctx, tk.ID, alice.ID); err == nil {
		t.Error("task still exists after account deletion")
	}
	// bob's own room survives, minus alice's membership
	detail, err := env.roomSvc.Get(ctx, joined.ID, bob.ID)
	if err != nil {
		t.Fatalf("Get(): %v", err)
	}
	if len(detail.Members) != 1 {
		t.Errorf("members = %+v; want bob only", detail.Members)
	}
}
