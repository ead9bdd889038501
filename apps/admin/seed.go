package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trezcool/convocatorias/core"
	sqlxrepos "github.com/trezcool/convocatorias/storage/database/sqlx"
)

func (cli *commandLine) seedCmd() *cobra.Command {
	var opts sqlxrepos.SeedOptions
	var prompt bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace every record with demo data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.AdminEmail = core.CleanString(opts.AdminEmail, true /* lower */)
			if prompt {
				pwd, err := cli.promptPassword(cmd)
				if err != nil {
					return err
				}
				opts.AdminPassword = pwd
			}

			res, err := cli.seeder.Seed(cmd.Context(), opts)
			if err != nil {
				return err
			}
			cli.logger.Info(fmt.Sprintf("database seeded: admin %s, %d convocatorias, %d projects",
				res.Admin.Email, len(res.Convocatorias), len(res.Projects)))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.AdminEmail, "admin-email", "admin@email.com", "email of the demo admin")
	cmd.Flags().BoolVar(&prompt, "prompt", false, "prompt for the admin password instead of using the demo one")
	return cmd
}
