package echoapi

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/aissist/aissist/core/room"
	"github.com/aissist/aissist/core/task"
)

func Test_roomApi_create(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice@test.test", "password123")
	token := env.getToken(t, alice)

	tests := []httpTest{
		{name: "Auth required", body: []byte(`{"name":"X"}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "name required", token: token, body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "name is a required field"}),
		},
		{name: "ok public", token: token, body: []byte(`{"name":"Math 101","description":"algebra"}`), wantCode: http.StatusCreated},
		{name: "ok private", token: token, body: []byte(`{"name":"Secret","password":"hunter2"}`), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/v1/rooms", tt.token, tt.body)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusCreated {
				var rm room.Room
				decodeBody(t, rec, &rm)
				if rm.ID == "" {
					t.Error("created room has no id")
				}
				// the join secret never leaves the server
				if rm.JoinSecret != "" || strings.Contains(rec.Body.String(), "hunter2") {
					t.Errorf("join secret leaked: %s", rec.Body.String())
				}

				// the creator is the room's single admin
				detail, err := env.roomSvc.Get(context.Background(), rm.ID, alice.ID)
				if err != nil {
					t.Fatalf("Get(): %v", err)
				}
				if len(detail.Members) != 1 || !detail.Members[0].IsAdmin() {
					t.Errorf("members = %+v; want one admin", detail.Members)
				}
			}
		})
	}
}

func Test_roomApi_query(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "Alice", "alice@test.test", "password123")
	bob := env.createUser(t, "Bob", "bob@test.test", "password123")
	token := env.getToken(t, alice)

	// empty slate serializes as empty lists, not null
	rec := env.do(http.MethodGet, "/v1/rooms", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("query code = %d", rec.Code)
	}
	empty := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, map[string]interface{}{
		"mine": []room.Summary{}, "joined": []room.Summary{},
	})}
	checkCodeAndData(t, empty, rec)

	owned, err := env.roomSvc.Create(ctx, alice.ID, room.NewRoom{Name: "Owned"})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	other, err := env.roomSvc.Create(ctx, bob.ID, room.NewRoom{Name: "Other"})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if _, err = env.roomSvc.Join(ctx, other.ID, alice.ID, ""); err != nil {
		t.Fatalf("Join(): %v", err)
	}
	if _, err = env.taskSvc.Create(ctx, alice.ID, task.NewTask{Title: "T", DueDate: "2026-04-01", RoomID: owned.ID}); err != nil {
		t.Fatalf("task Create(): %v", err)
	}

	rec = env.do(http.MethodGet, "/v1/rooms", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("query code = %d", rec.Code)
	}
	var res struct {
		Mine   []room.Summary `json:"mine"`
		Joined []room.Summary `json:"joined"`
	}
	decodeBody(t, rec, &res)
	if len(res.Mine) != 1 || res.Mine[0].ID != owned.ID || res.Mine[0].TaskCount != 1 {
		t.Errorf("mine = %+v", res.Mine)
	}
	if len(res.Joined) != 1 || res.Joined[0].ID != other.ID || res.Joined[0].MemberCount != 2 {
		t.Errorf("joined = %+v", res.Joined)
	}
}

func Test_roomApi_joinFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "Alice", "alice@test.test", "password123")
	bob := env.createUser(t, "Bob", "bob@test.test", "password123")
	bobToken := env.getToken(t, bob)

	rm, err := env.roomSvc.Create(ctx, alice.ID, room.NewRoom{Name: "Private", Password: "hunter2"})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}

	tests := []httpTest{
		{
			name: "wrong password", path: "/v1/rooms/" + rm.ID + "/join", body: []byte(`{"password":"nope"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: room.ErrBadInviteCode.Error()}),
		},
		{name: "ok", path: "/v1/rooms/" + rm.ID + "/join", body: []byte(`{"password":"hunter2"}`), wantCode: http.StatusCreated},
		{
			name: "already a member", path: "/v1/rooms/" + rm.ID + "/join", body: []byte(`{"password":"hunter2"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: room.ErrAlreadyMember.Error()}),
		},
		{
			name: "unknown room", path: "/v1/rooms/nope/join", body: []byte(`{}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: room.ErrNotFound.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, tt.path, bobToken, tt.body)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusCreated {
				var m room.Member
				decodeBody(t, rec, &m)
				if m.Role != room.RoleMember || m.Name != "Bob" {
					t.Errorf("member = %+v", m)
				}
			}
		})
	}
}

func Test_roomApi_inviteCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "Alice", "alice@test.test", "password123")
	carol := env.createUser(t, "Carol", "carol@test.test", "password123")
	aliceToken := env.getToken(t, alice)
	carolToken := env.getToken(t, carol)

	rm, err := env.roomSvc.Create(ctx, alice.ID, room.NewRoom{Name: "Open"})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}

	// members cannot rotate
	bob := env.createUser(t, "Bob", "bob@test.test", "password123")
	if _, err = env.roomSvc.Join(ctx, rm.ID, bob.ID, ""); err != nil {
		t.Fatalf("Join(): %v", err)
	}
	rec := env.do(http.MethodPost, "/v1/rooms/"+rm.ID+"/update-invite-code", env.getToken(t, bob))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("rotate as member: code = %d; want %d", rec.Code, http.StatusForbidden)
	}

	rec = env.do(http.MethodPost, "/v1/rooms/"+rm.ID+"/update-invite-code", aliceToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("rotate code = %d - Body: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		InviteCode string `json:"invite_code"`
	}
	decodeBody(t, rec, &res)
	if len(res.InviteCode) != room.InviteCodeLength {
		t.Fatalf("invite code = %q; want length %d", res.InviteCode, room.InviteCodeLength)
	}

	// preview resolves the rotated code for an outsider
	rec = env.do(http.MethodGet, "/v1/rooms/check-invite?code="+res.InviteCode, carolToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("check-invite code = %d - Body: %s", rec.Code, rec.Body.String())
	}
	var preview room.InvitePreview
	decodeBody(t, rec, &preview)
	if preview.ID != rm.ID || preview.AdminName != "Alice" || !preview.IsPrivate {
		t.Errorf("preview = %+v", preview)
	}

	// the owner gets a dedicated error
	rec = env.do(http.MethodGet, "/v1/rooms/check-invite?code="+res.InviteCode, aliceToken)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, httpErr{Error: room.ErrOwnRoom.Error()}),
	}, rec)

	// stale codes stop working
	rec = env.do(http.MethodGet, "/v1/rooms/check-invite?code=STALE123", carolToken)
	if rec.Code != http.StatusNotFound {
		t.Errorf("check-invite stale code = %d; want %d", rec.Code, http.StatusNotFound)
	}

	// the rotated code joins the now-private room
	rec = env.do(http.MethodPost, "/v1/rooms/"+rm.ID+"/join", carolToken, marchallObj(t, JoinRoomRequest{Password: res.InviteCode}))
	if rec.Code != http.StatusCreated {
		t.Errorf("join with code = %d - Body: %s", rec.Code, rec.Body.String())
	}
}

func Test_roomApi_updateDestroy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "Alice", "alice@test.test", "password123")
	bob := env.createUser(t, "Bob", "bob@test.test", "password123")
	aliceToken := env.getToken(t, alice)
	bobToken := env.getToken(t, bob)

	rm, err := env.roomSvc.Create(ctx, alice.ID, room.NewRoom{Name: "Old"})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if _, err = env.roomSvc.Join(ctx, rm.ID, bob.ID, ""); err != nil {
		t.Fatalf("Join(): %v", err)
	}
	tk, err := env.taskSvc.Create(ctx, alice.ID, task.NewTask{Title: "T", DueDate: "2026-04-01", RoomID: rm.ID})
	if err != nil {
		t.Fatalf("task Create(): %v", err)
	}

	// only the admin may update
	rec := env.do(http.MethodPatch, "/v1/rooms/"+rm.ID, bobToken, []byte(`{"name":"Nope"}`))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("update as member: code = %d", rec.Code)
	}
	rec = env.do(http.MethodPatch, "/v1/rooms/"+rm.ID, aliceToken, []byte(`{"name":"New"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("update code = %d - Body: %s", rec.Code, rec.Body.String())
	}
	var got room.Room
	decodeBody(t, rec, &got)
	if got.Name != "New" {
		t.Errorf("updated room = %+v", got)
	}

	// deleting a room wipes its memberships and tasks
	rec = env.do(http.MethodDelete, "/v1/rooms/"+rm.ID, bobToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("destroy as member: code = %d", rec.Code)
	}
	rec = env.do(http.MethodDelete, "/v1/rooms/"+rm.ID, aliceToken)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("destroy code = %d - Body: %s", rec.Code, rec.Body.String())
	}
	rec = env.do(http.MethodGet, "/v1/rooms/"+rm.ID, aliceToken)
	if rec.Code != http.StatusNotFound {
		t.Errorf("retrieve after destroy: code = %d", rec.Code)
	}
	rec = env.do(http.MethodGet, "/v1/tasks/"+tk.ID, aliceToken)
	if rec.Code != http.StatusNotFound {
		t.Errorf("task retrieve after room destroy: code = %d", rec.Code)
	}
}
