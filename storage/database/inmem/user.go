package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/aissist/aissist/core"
	"github.com/aissist/aissist/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers []user.User, _ ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email != email {
			continue
		}
		excluded := false
		for _, ex := range excludedUsers {
			if ex.ID == usr.ID {
				excluded = true
				break
			}
		}
		if !excluded {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr.ID = uuid.New().String()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	orig.Name = usr.Name
	orig.Email = usr.Email
	orig.Image = usr.Image
	orig.UpdatedAt = usr.UpdatedAt
	orig.LastLogin = usr.LastLogin
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	return *orig, nil
}

func (repo *userRepository) DeleteUser(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.users, id)
	return nil
}

func (repo *userRepository) CreateCalendar(_ context.Context, cal user.Calendar, _ ...core.DBExecutor) (user.Calendar, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	cal.ID = uuid.New().String()
	repo.db.calendars[cal.ID] = &cal
	return cal, nil
}

func (repo *userRepository) QueryUserCalendars(_ context.Context, userID string, _ ...core.DBExecutor) ([]user.Calendar, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	cals := make([]user.Calendar, 0)
	for _, cal := range repo.db.calendars {
		if cal.UserID == userID {
			cals = append(cals, *cal)
		}
	}
	sort.Slice(cals, func(i, j int) bool { return cals[i].CreatedAt.Before(cals[j].CreatedAt) })
	return cals, nil
}

func (repo *userRepository) DeleteUserCalendars(_ context.Context, userID string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for id, cal := range repo.db.calendars {
		if cal.UserID == userID {
			delete(repo.db.calendars, id)
		}
	}
	return nil
}
