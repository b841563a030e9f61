package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/aissist/aissist/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")

	defaultCalendarName  = "My Calendar"
	defaultCalendarColor = "#3B82F6"
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []User, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (User, error)
		GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (User, error)
		// UpdateUser persists Name, Email, Image, UpdatedAt, LastLogin and,
		// when non-nil, PasswordHash.
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		DeleteUser(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateCalendar(ctx context.Context, cal Calendar, exec ...core.DBExecutor) (Calendar, error)
		QueryUserCalendars(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Calendar, error)
		DeleteUserCalendars(ctx context.Context, userID string, exec ...core.DBExecutor) error
	}

	// AccountCleaner removes rows owned by a user from another domain's tables
	// as part of account deletion. Implemented by the room and task repositories.
	AccountCleaner interface {
		CleanAccount(ctx context.Context, userID string, exec ...core.DBExecutor) error
	}

	ServiceInterface interface {
		Register(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		CheckEmailUniqueness(email string, excludedUsers ...User) error
		UpdateAccount(ctx context.Context, usr User, ua UpdateAccount) (User, error)
		DeleteAccount(ctx context.Context, usr User, password string) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) error
		QueryCalendars(ctx context.Context, userID string) ([]Calendar, error)
	}

	Service struct {
		db       core.DB
		repo     Repository
		mailSvc  core.EmailService
		conf     *core.Config
		cleaners []AccountCleaner
	}
)

var _ ServiceInterface = (*Service)(nil) // interface compliance check

func NewService(db core.DB, repo Repository, mailSvc core.EmailService, conf *core.Config, cleaners ...AccountCleaner) *Service {
	secretKey = []byte(conf.SecretKey)
	passwordResetTimeoutDelta = conf.PasswordResetTimeoutDelta
	return &Service{
		db:       db,
		repo:     repo,
		mailSvc:  mailSvc,
		conf:     conf,
		cleaners: cleaners,
	}
}

func (svc *Service) CheckEmailUniqueness(email string, excludedUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, excludedUsers); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Register creates the User and their default Calendar in one transaction.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if usr, err = svc.repo.CreateUser(ctx, usr, tx); err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	cal := Calendar{
		UserID:    usr.ID,
		Name:      defaultCalendarName,
		Color:     defaultCalendarColor,
		IsDefault: true,
		CreatedAt: now,
	}
	if _, err = svc.repo.CreateCalendar(ctx, cal, tx); err != nil {
		return User{}, errors.Wrap(err, "creating default calendar")
	}
	if err = tx.Commit(); err != nil {
		return User{}, errors.Wrap(err, "committing transaction")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: fmt.Sprintf("Welcome to %s!", svc.conf.AppName),
		Body: fmt.Sprintf("Hi %s,\n\nYour %s account is ready. "+
			"Create your first task or join a room to get started: %s",
			usr.Name, svc.conf.AppName, svc.conf.FrontendBaseURL),
	})
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) UpdateAccount(ctx context.Context, usr User, ua UpdateAccount) (User, error) {
	if ua.Email != "" && ua.Email != usr.Email {
		if err := svc.repo.CheckEmailUniqueness(ctx, ua.Email, []User{usr}); err != nil {
			return User{}, err // ErrEmailExists -> conflict
		}
		usr.Email = ua.Email
	}
	if ua.Name != "" {
		usr.Name = ua.Name
	}
	if ua.Image != "" {
		usr.Image = ua.Image
	}
	if ua.NewPassword != "" {
		if err := usr.CheckPassword(ua.CurrentPassword); err != nil {
			return User{}, core.NewValidationError(nil,
				core.FieldError{Field: "current_password", Error: "incorrect password"})
		}
		if err := usr.SetPassword(ua.NewPassword); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// DeleteAccount verifies the password then removes, in one transaction, the
// user's memberships, solely-administered rooms, tasks, completions, calendars
// and finally the user row itself.
func (svc *Service) DeleteAccount(ctx context.Context, usr User, password string) error {
	if err := usr.CheckPassword(password); err != nil {
		return core.NewValidationError(nil,
			core.FieldError{Field: "password", Error: "incorrect password"})
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, cleaner := range svc.cleaners {
		if err = cleaner.CleanAccount(ctx, usr.ID, tx); err != nil {
			return errors.Wrap(err, "cleaning account data")
		}
	}
	if err = svc.repo.DeleteUserCalendars(ctx, usr.ID, tx); err != nil {
		return errors.Wrap(err, "deleting calendars")
	}
	if err = svc.repo.DeleteUser(ctx, usr.ID, tx); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/password-reset?uid=%s&token=%s",
		svc.conf.FrontendBaseURL, EncodeUID(usr), MakeToken(usr))
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: fmt.Sprintf("%s password reset", svc.conf.AppName),
		Body: fmt.Sprintf("Hi %s,\n\nFollow this link to reset your password:\n%s\n\n"+
			"If you did not request a reset, you can safely ignore this email.", usr.Name, link),
	})
	return nil
}

func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "updating user")
}

func (svc *Service) QueryCalendars(ctx context.Context, userID string) ([]Calendar, error) {
	return svc.repo.QueryUserCalendars(ctx, userID)
}
