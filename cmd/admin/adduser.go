package main

import (
	"context"
	"time"

	"github.com/aissist/aissist/core"
	"github.com/aissist/aissist/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, email, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Name:      name,
			Email:     email,
			CreatedAt: now,
		}
	}
	usr.Name = name
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID != "" {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
		return err
	}

	if usr, err = cli.usrRepo.CreateUser(ctx, usr); err != nil {
		return err
	}
	// seed the default calendar new accounts get at registration
	_, err = cli.usrRepo.CreateCalendar(ctx, user.Calendar{
		UserID:    usr.ID,
		Name:      "My Calendar",
		Color:     "#3B82F6",
		IsDefault: true,
		CreatedAt: now,
	})
	return err
}
