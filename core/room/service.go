package room

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/aissist/aissist/core"
)

var (
	// errors
	ErrNotFound      = errors.New("room not found")
	ErrNotMember     = errors.New("not a member of this room")
	ErrNotAdmin      = errors.New("only the room admin may do this")
	ErrAlreadyMember = errors.New("already joined this room")
	ErrOwnRoom       = errors.New("this is your own room")
	ErrBadInviteCode = errors.New("invalid invite code")
)

type (
	Repository interface {
		CreateRoom(ctx context.Context, rm Room, exec ...core.DBExecutor) (Room, error)
		CreateMember(ctx context.Context, m Member, exec ...core.DBExecutor) (Member, error)
		GetRoom(ctx context.Context, id string, exec ...core.DBExecutor) (Room, error)
		// GetRoomByJoinSecret never matches rooms without a generated code.
		GetRoomByJoinSecret(ctx context.Context, code string, exec ...core.DBExecutor) (Room, error)
		// GetMember returns ErrNotMember when no such membership exists.
		GetMember(ctx context.Context, roomID, userID string, exec ...core.DBExecutor) (Member, error)
		QueryMembers(ctx context.Context, roomID string, exec ...core.DBExecutor) ([]Member, error)
		// QueryUserRooms returns the rooms the user belongs to, annotated with
		// their role and member/task counts, ordered by updatedAt descending.
		QueryUserRooms(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Summary, error)
		UpdateRoom(ctx context.Context, rm Room, exec ...core.DBExecutor) (Room, error)
		// DeleteRoom cascades to the room's members, tasks and task completions.
		DeleteRoom(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, userID string, nr NewRoom) (Room, error)
		Query(ctx context.Context, userID string) (mine, joined []Summary, err error)
		Get(ctx context.Context, roomID, userID string) (Detail, error)
		GetMember(ctx context.Context, roomID, userID string) (Member, error)
		Members(ctx context.Context, roomID string) ([]Member, error)
		Update(ctx context.Context, roomID, userID string, ur UpdateRoom) (Room, error)
		Delete(ctx context.Context, roomID, userID string) error
		RotateInviteCode(ctx context.Context, roomID, userID string) (string, error)
		CheckInviteCode(ctx context.Context, code, userID string) (InvitePreview, error)
		Join(ctx context.Context, roomID, userID, code string) (Member, error)
	}

	Service struct {
		db   core.DB
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil) // interface compliance check

func NewService(db core.DB, repo Repository) *Service {
	return &Service{db: db, repo: repo}
}

// Create persists the Room and its creator's admin membership in one
// transaction; a room without an admin member must never be observable.
func (svc *Service) Create(ctx context.Context, userID string, nr NewRoom) (Room, error) {
	now := time.Now().UTC()
	rm := Room{
		Name:        nr.Name,
		Description: nr.Description,
		JoinSecret:  nr.Password,
		IsPrivate:   nr.Password != "",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return Room{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if rm, err = svc.repo.CreateRoom(ctx, rm, tx); err != nil {
		return Room{}, errors.Wrap(err, "creating room")
	}
	admin := Member{RoomID: rm.ID, UserID: userID, Role: RoleAdmin, JoinedAt: now}
	if _, err = svc.repo.CreateMember(ctx, admin, tx); err != nil {
		return Room{}, errors.Wrap(err, "creating admin membership")
	}
	if err = tx.Commit(); err != nil {
		return Room{}, errors.Wrap(err, "committing transaction")
	}
	return rm, nil
}

// Query splits the user's rooms into administered ("my rooms") and joined sets.
func (svc *Service) Query(ctx context.Context, userID string) (mine, joined []Summary, err error) {
	all, err := svc.repo.QueryUserRooms(ctx, userID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying user rooms")
	}
	mine = make([]Summary, 0, len(all))
	joined = make([]Summary, 0, len(all))
	for _, s := range all {
		if s.Role == RoleAdmin {
			mine = append(mine, s)
		} else {
			joined = append(joined, s)
		}
	}
	return mine, joined, nil
}

// Get returns the room with its members. The membership check precedes any
// data return.
func (svc *Service) Get(ctx context.Context, roomID, userID string) (Detail, error) {
	rm, err := svc.repo.GetRoom(ctx, roomID)
	if err != nil {
		return Detail{}, err
	}
	if _, err = svc.repo.GetMember(ctx, roomID, userID); err != nil {
		return Detail{}, err
	}
	members, err := svc.repo.QueryMembers(ctx, roomID)
	if err != nil {
		return Detail{}, errors.Wrap(err, "querying members")
	}
	return Detail{Room: rm, Members: members}, nil
}

func (svc *Service) GetMember(ctx context.Context, roomID, userID string) (Member, error) {
	return svc.repo.GetMember(ctx, roomID, userID)
}

func (svc *Service) Members(ctx context.Context, roomID string) ([]Member, error) {
	return svc.repo.QueryMembers(ctx, roomID)
}

// hasRole is the single authorization predicate for role-gated room operations.
func (svc *Service) hasRole(ctx context.Context, roomID, userID, role string) (Room, error) {
	rm, err := svc.repo.GetRoom(ctx, roomID)
	if err != nil {
		return Room{}, err
	}
	m, err := svc.repo.GetMember(ctx, roomID, userID)
	if err != nil {
		return Room{}, err
	}
	if m.Role != role {
		return Room{}, ErrNotAdmin
	}
	return rm, nil
}

func (svc *Service) Update(ctx context.Context, roomID, userID string, ur UpdateRoom) (Room, error) {
	rm, err := svc.hasRole(ctx, roomID, userID, RoleAdmin)
	if err != nil {
		return Room{}, err
	}

	if ur.Name != "" {
		rm.Name = ur.Name
	}
	if ur.Description != nil {
		rm.Description = *ur.Description
	}
	if ur.Password != nil {
		rm.JoinSecret = *ur.Password
		rm.IsPrivate = *ur.Password != ""
	}
	rm.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateRoom(ctx, rm)
}

func (svc *Service) Delete(ctx context.Context, roomID, userID string) error {
	if _, err := svc.hasRole(ctx, roomID, userID, RoleAdmin); err != nil {
		return err
	}
	return svc.repo.DeleteRoom(ctx, roomID)
}

// RotateInviteCode generates a fresh invite code and marks the room private:
// once a room hands out rotating codes it is no longer freely joinable.
func (svc *Service) RotateInviteCode(ctx context.Context, roomID, userID string) (string, error) {
	rm, err := svc.hasRole(ctx, roomID, userID, RoleAdmin)
	if err != nil {
		return "", err
	}

	rm.JoinSecret = core.RandomCode(InviteCodeLength)
	rm.IsPrivate = true
	rm.UpdatedAt = time.Now().UTC()
	if _, err = svc.repo.UpdateRoom(ctx, rm); err != nil {
		return "", errors.Wrap(err, "updating room")
	}
	return rm.JoinSecret, nil
}

// CheckInviteCode resolves an invite code into a privacy-filtered room preview
// for a user who is not yet a member.
func (svc *Service) CheckInviteCode(ctx context.Context, code, userID string) (InvitePreview, error) {
	if code == "" {
		return InvitePreview{}, ErrNotFound
	}
	rm, err := svc.repo.GetRoomByJoinSecret(ctx, code)
	if err != nil {
		return InvitePreview{}, err
	}

	if m, err := svc.repo.GetMember(ctx, rm.ID, userID); err == nil {
		if m.IsAdmin() {
			return InvitePreview{}, ErrOwnRoom
		}
		return InvitePreview{}, ErrAlreadyMember
	} else if errors.Cause(err) != ErrNotMember {
		return InvitePreview{}, errors.Wrap(err, "checking membership")
	}

	preview := InvitePreview{
		ID:          rm.ID,
		Name:        rm.Name,
		Description: rm.Description,
		IsPrivate:   rm.IsPrivate,
	}
	members, err := svc.repo.QueryMembers(ctx, rm.ID)
	if err != nil {
		return InvitePreview{}, errors.Wrap(err, "querying members")
	}
	for _, m := range members {
		if m.IsAdmin() {
			preview.AdminName = m.Name
			break
		}
	}
	return preview, nil
}

func (svc *Service) Join(ctx context.Context, roomID, userID, code string) (Member, error) {
	rm, err := svc.repo.GetRoom(ctx, roomID)
	if err != nil {
		return Member{}, err
	}
	if _, err = svc.repo.GetMember(ctx, roomID, userID); err == nil {
		return Member{}, ErrAlreadyMember
	} else if errors.Cause(err) != ErrNotMember {
		return Member{}, errors.Wrap(err, "checking membership")
	}
	if rm.IsPrivate && code != rm.JoinSecret {
		return Member{}, ErrBadInviteCode
	}

	m := Member{RoomID: roomID, UserID: userID, Role: RoleMember, JoinedAt: time.Now().UTC()}
	if m, err = svc.repo.CreateMember(ctx, m); err != nil {
		return Member{}, errors.Wrap(err, "creating membership")
	}
	return m, nil
}
