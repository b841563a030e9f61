package pgrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aissist/aissist/core"
	"github.com/aissist/aissist/core/user"
)

const (
	userTable     = `"user"`
	calendarTable = "calendar"
)

var (
	userColumns     = []string{"id", "name", "email", "image", "password_hash", "created_at", "updated_at", "last_login"}
	calendarColumns = []string{"id", "user_id", "name", "color", "is_default", "created_at"}
)

type userRecord struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Image        string    `db:"image"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func (rec userRecord) toUser() user.User {
	return user.User{
		ID:           rec.ID,
		Name:         rec.Name,
		Email:        rec.Email,
		Image:        rec.Image,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
		LastLogin:    rec.LastLogin.Time,
	}
}

type calendarRecord struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Name      string    `db:"name"`
	Color     string    `db:"color"`
	IsDefault bool      `db:"is_default"`
	CreatedAt time.Time `db:"created_at"`
}

func (rec calendarRecord) toCalendar() user.Calendar {
	return user.Calendar(rec)
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	sb := psql.Select("COUNT(*)").From(userTable).Where(squirrel.Eq{"email": email})
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		sb = sb.Where(squirrel.NotEq{"id": ids})
	}

	q, args, err := sb.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var count int
	if err = repo.getExec(exec).QueryRowContext(ctx, q, args...).Scan(&count); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	ins := psql.Insert(userTable).
		Columns(userColumns...).
		Values(usr.ID, usr.Name, usr.Email, usr.Image, usr.PasswordHash,
			usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(), null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()))
	if _, err := execQuery(ctx, repo.getExec(exec), ins); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) getUserBy(ctx context.Context, pred squirrel.Eq, exec []core.DBExecutor) (user.User, error) {
	var recs []userRecord
	sb := psql.Select(userColumns...).From(userTable).Where(pred)
	if err := selectAll(ctx, repo.getExec(exec), &recs, sb); err != nil {
		return user.User{}, errors.Wrap(err, "getting user")
	}
	if len(recs) == 0 {
		return user.User{}, user.ErrNotFound
	}
	return recs[0].toUser(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUserBy(ctx, squirrel.Eq{"id": id}, exec)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUserBy(ctx, squirrel.Eq{"email": email}, exec)
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	upd := psql.Update(userTable).
		Set("name", usr.Name).
		Set("email", usr.Email).
		Set("image", usr.Image).
		Set("updated_at", usr.UpdatedAt.UTC()).
		Set("last_login", null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero())).
		Where(squirrel.Eq{"id": usr.ID})
	if usr.PasswordHash != nil {
		upd = upd.Set("password_hash", usr.PasswordHash)
	}

	n, err := execQuery(ctx, repo.getExec(exec), upd)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID, exec...)
}

func (repo userRepository) DeleteUser(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if _, err := execQuery(ctx, repo.getExec(exec), psql.Delete(userTable).Where(squirrel.Eq{"id": id})); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return nil
}

func (repo userRepository) CreateCalendar(ctx context.Context, cal user.Calendar, exec ...core.DBExecutor) (user.Calendar, error) {
	cal.ID = uuid.New().String()
	ins := psql.Insert(calendarTable).
		Columns(calendarColumns...).
		Values(cal.ID, cal.UserID, cal.Name, cal.Color, cal.IsDefault, cal.CreatedAt.UTC())
	if _, err := execQuery(ctx, repo.getExec(exec), ins); err != nil {
		return user.Calendar{}, errors.Wrap(err, "inserting calendar")
	}
	return cal, nil
}

func (repo userRepository) QueryUserCalendars(ctx context.Context, userID string, exec ...core.DBExecutor) ([]user.Calendar, error) {
	var recs []calendarRecord
	sb := psql.Select(calendarColumns...).
		From(calendarTable).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at ASC")
	if err := selectAll(ctx, repo.getExec(exec), &recs, sb); err != nil {
		return nil, errors.Wrap(err, "querying calendars")
	}
	cals := make([]user.Calendar, 0, len(recs))
	for _, rec := range recs {
		cals = append(cals, rec.toCalendar())
	}
	return cals, nil
}

func (repo userRepository) DeleteUserCalendars(ctx context.Context, userID string, exec ...core.DBExecutor) error {
	if _, err := execQuery(ctx, repo.getExec(exec), psql.Delete(calendarTable).Where(squirrel.Eq{"user_id": userID})); err != nil {
		return errors.Wrap(err, "deleting calendars")
	}
	return nil
}
