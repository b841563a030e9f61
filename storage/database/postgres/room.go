package pgrepos

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/aissist/aissist/core"
	"github.com/aissist/aissist/core/room"
	"github.com/aissist/aissist/core/user"
)

const (
	roomTable   = "room"
	memberTable = "room_member"
)

var (
	roomColumns   = []string{"id", "name", "description", "join_secret", "is_private", "created_at", "updated_at"}
	memberColumns = []string{"room_id", "user_id", "role", "joined_at"}
)

type roomRecord struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	JoinSecret  string    `db:"join_secret"`
	IsPrivate   bool      `db:"is_private"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (rec roomRecord) toRoom() room.Room {
	return room.Room(rec)
}

// memberRecord carries the membership row joined with the user's display name.
type memberRecord struct {
	RoomID   string    `db:"room_id"`
	UserID   string    `db:"user_id"`
	Name     string    `db:"name"`
	Role     string    `db:"role"`
	JoinedAt time.Time `db:"joined_at"`
}

func (rec memberRecord) toMember() room.Member {
	return room.Member(rec)
}

type summaryRecord struct {
	roomRecord
	Role        string `db:"role"`
	MemberCount int    `db:"member_count"`
	TaskCount   int    `db:"task_count"`
}

type roomRepository struct {
	exec core.DBExecutor
}

var (
	_ room.Repository     = (*roomRepository)(nil) // interface compliance check
	_ user.AccountCleaner = (*roomRepository)(nil)
)

func NewRoomRepository(exec core.DBExecutor) *roomRepository {
	return &roomRepository{exec: exec}
}

func (repo roomRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo roomRepository) CreateRoom(ctx context.Context, rm room.Room, exec ...core.DBExecutor) (room.Room, error) {
	rm.ID = uuid.New().String()
	ins := psql.Insert(roomTable).
		Columns(roomColumns...).
		Values(rm.ID, rm.Name, rm.Description, rm.JoinSecret, rm.IsPrivate, rm.CreatedAt.UTC(), rm.UpdatedAt.UTC())
	if _, err := execQuery(ctx, repo.getExec(exec), ins); err != nil {
		return room.Room{}, errors.Wrap(err, "inserting room")
	}
	return rm, nil
}

func (repo roomRepository) CreateMember(ctx context.Context, m room.Member, exec ...core.DBExecutor) (room.Member, error) {
	ins := psql.Insert(memberTable).
		Columns(memberColumns...).
		Values(m.RoomID, m.UserID, m.Role, m.JoinedAt.UTC())
	if _, err := execQuery(ctx, repo.getExec(exec), ins); err != nil {
		return room.Member{}, errors.Wrap(err, "inserting member")
	}
	return m, nil
}

func (repo roomRepository) getRoomBy(ctx context.Context, pred squirrel.Sqlizer, exec []core.DBExecutor) (room.Room, error) {
	var recs []roomRecord
	sb := psql.Select(roomColumns...).From(roomTable).Where(pred)
	if err := selectAll(ctx, repo.getExec(exec), &recs, sb); err != nil {
		return room.Room{}, errors.Wrap(err, "getting room")
	}
	if len(recs) == 0 {
		return room.Room{}, room.ErrNotFound
	}
	return recs[0].toRoom(), nil
}

func (repo roomRepository) GetRoom(ctx context.Context, id string, exec ...core.DBExecutor) (room.Room, error) {
	return repo.getRoomBy(ctx, squirrel.Eq{"id": id}, exec)
}

func (repo roomRepository) GetRoomByJoinSecret(ctx context.Context, code string, exec ...core.DBExecutor) (room.Room, error) {
	return repo.getRoomBy(ctx, squirrel.And{
		squirrel.Eq{"join_secret": code},
		squirrel.NotEq{"join_secret": ""},
	}, exec)
}

func (repo roomRepository) GetMember(ctx context.Context, roomID, userID string, exec ...core.DBExecutor) (room.Member, error) {
	var recs []memberRecord
	sb := psql.Select("m.room_id", "m.user_id", "u.name", "m.role", "m.joined_at").
		From(memberTable + " m").
		Join(userTable + ` u ON u.id = m.user_id`).
		Where(squirrel.Eq{"m.room_id": roomID, "m.user_id": userID})
	if err := selectAll(ctx, repo.getExec(exec), &recs, sb); err != nil {
		return room.Member{}, errors.Wrap(err, "getting member")
	}
	if len(recs) == 0 {
		return room.Member{}, room.ErrNotMember
	}
	return recs[0].toMember(), nil
}

func (repo roomRepository) QueryMembers(ctx context.Context, roomID string, exec ...core.DBExecutor) ([]room.Member, error) {
	var recs []memberRecord
	sb := psql.Select("m.room_id", "m.user_id", "u.name", "m.role", "m.joined_at").
		From(memberTable + " m").
		Join(userTable + ` u ON u.id = m.user_id`).
		Where(squirrel.Eq{"m.room_id": roomID}).
		OrderBy("m.joined_at ASC")
	if err := selectAll(ctx, repo.getExec(exec), &recs, sb); err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	members := make([]room.Member, 0, len(recs))
	for _, rec := range recs {
		members = append(members, rec.toMember())
	}
	return members, nil
}

func (repo roomRepository) QueryUserRooms(ctx context.Context, userID string, exec ...core.DBExecutor) ([]room.Summary, error) {
	var recs []summaryRecord
	sb := psql.Select(
		"r.id", "r.name", "r.description", "r.join_secret", "r.is_private", "r.created_at", "r.updated_at",
		"m.role",
		"(SELECT COUNT(*) FROM room_member mc WHERE mc.room_id = r.id) AS member_count",
		"(SELECT COUNT(*) FROM task t WHERE t.room_id = r.id) AS task_count").
		From(roomTable + " r").
		Join(memberTable + " m ON m.room_id = r.id").
		Where(squirrel.Eq{"m.user_id": userID}).
		OrderBy("r.updated_at DESC")
	if err := selectAll(ctx, repo.getExec(exec), &recs, sb); err != nil {
		return nil, errors.Wrap(err, "querying rooms")
	}
	summaries := make([]room.Summary, 0, len(recs))
	for _, rec := range recs {
		summaries = append(summaries, room.Summary{
			Room:        rec.toRoom(),
			Role:        rec.Role,
			MemberCount: rec.MemberCount,
			TaskCount:   rec.TaskCount,
		})
	}
	return summaries, nil
}

func (repo roomRepository) UpdateRoom(ctx context.Context, rm room.Room, exec ...core.DBExecutor) (room.Room, error) {
	upd := psql.Update(roomTable).
		Set("name", rm.Name).
		Set("description", rm.Description).
		Set("join_secret", rm.JoinSecret).
		Set("is_private", rm.IsPrivate).
		Set("updated_at", rm.UpdatedAt.UTC()).
		Where(squirrel.Eq{"id": rm.ID})

	n, err := execQuery(ctx, repo.getExec(exec), upd)
	if err != nil {
		return room.Room{}, errors.Wrap(err, "updating room")
	}
	if n == 0 {
		return room.Room{}, room.ErrNotFound
	}
	return rm, nil
}

func (repo roomRepository) DeleteRoom(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if _, err := execQuery(ctx, repo.getExec(exec), psql.Delete(roomTable).Where(squirrel.Eq{"id": id})); err != nil {
		return errors.Wrap(err, "deleting room")
	}
	return nil
}

// CleanAccount deletes the rooms administered by the user (members, tasks and
// completions cascade with them) and the user's remaining memberships.
func (repo roomRepository) CleanAccount(ctx context.Context, userID string, exec ...core.DBExecutor) error {
	del := psql.Delete(roomTable).
		Where(squirrel.Expr(
			"id IN (SELECT room_id FROM room_member WHERE user_id = ? AND role = ?)",
			userID, room.RoleAdmin))
	if _, err := execQuery(ctx, repo.getExec(exec), del); err != nil {
		return errors.Wrap(err, "deleting administered rooms")
	}

	if _, err := execQuery(ctx, repo.getExec(exec), psql.Delete(memberTable).Where(squirrel.Eq{"user_id": userID})); err != nil {
		return errors.Wrap(err, "deleting memberships")
	}
	return nil
}
