package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iypan/shiksha/core"
	"github.com/iypan/shiksha/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		nu := user.NewUser{
			Name:     uname,
			Username: uname,
			Email:    email,
			Password: pwd,
		}
		if isAdmin {
			nu.Roles = user.AllRoles
		}
		_, err := cli.usrSvc.Create(ctx, nu)
		return err
	}

	active := true
	uu := user.UpdateUser{
		Username: uname,
		Email:    email,
		Password: pwd,
		IsActive: &active,
	}
	if isAdmin {
		uu.Roles = user.AllRoles
	}
	_, err = cli.usrSvc.Update(ctx, usr.ID, uu)
	return err
}
