package main

import (
	"context"

	"github.com/trezcool/darasa/core/user"
)

// addAdmin creates a new ADMIN account; the password policy applies.
func (cli *commandLine) addAdmin(name, email, pwd string) error {
	ctx := context.Background()

	data := user.NewUser{
		Name:     name,
		Email:    email,
		Password: pwd,
		Role:     user.RoleAdmin,
	}
	if err := data.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		return err
	}

	_, err := cli.usrSvc.Create(ctx, data)
	return err
}
