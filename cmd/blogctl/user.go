package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/service"
)

func newUserCmd(a *app) *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	user.AddCommand(&cobra.Command{
		Use:   "add <username>",
		Short: "Create an account; the password is read from the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := a.readPassword("Password: ")
			if err != nil {
				return err
			}
			if password == "" {
				return errors.New("password must not be empty")
			}

			db, err := a.open()
			if err != nil {
				return err
			}
			defer db.Close()

			// No session is opened, so no session starter is needed.
			svc := service.NewAuthService(db.Users(), nil, auth.NewPasswordService(a.cfg.BcryptCost), a.logger)
			u, err := svc.CreateUser(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "created user %s (%s)\n", u.Username, u.ID)
			return nil
		},
	})

	return user
}
