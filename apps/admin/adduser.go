package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/trezcool/convocatorias/core"
	"github.com/trezcool/convocatorias/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var email, name string
	var roles []string
	var isAdmin bool

	cmd := &cobra.Command{
		Use:   "adduser --email EMAIL --name NAME [--role ROLE]... [--admin]",
		Short: "Create a user, or update it when the email exists. The password is prompted next.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			if isAdmin {
				roles = user.AllRoles
			}
			_, err = cli.addUser(cmd, name, email, pwd, roles)
			return err
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "the user's email")
	cmd.Flags().StringVar(&name, "name", "", "the user's full name")
	cmd.Flags().StringSliceVar(&roles, "role", []string{user.RoleTeacher}, "role of the user: "+strings.Join(user.AllRoles, ", "))
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "grant every role")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// addUser updates or creates a user.User
func (cli *commandLine) addUser(cmd *cobra.Command, name, email, pwd string, roles []string) (user.User, error) {
	ctx := cmd.Context()
	email = core.CleanString(email, true /* lower */)

	for _, role := range roles {
		if user.RolePriority(role) == 0 {
			return user.User{}, core.NewFieldValidationError("role", "unknown role "+role)
		}
	}

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return user.User{}, err
		}
		usr = user.User{Email: email}
	}
	usr.Fullname = core.CapitalizeSentence(name)
	usr.Roles = roles
	usr.IsActive = true
	if err = usr.SetPassword(pwd); err != nil {
		return user.User{}, err
	}
	return cli.usrRepo.UpdateOrCreateUser(ctx, usr)
}
