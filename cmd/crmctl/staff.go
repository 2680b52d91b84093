package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/repository/postgres"
	"github.com/aidar/member-crm/internal/service"
)

func staffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage staff accounts",
	}
	cmd.AddCommand(staffCreateCmd())
	return cmd
}

func staffCreateCmd() *cobra.Command {
	var email, name, password, role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account that can log in to the API",
		Example: `  crmctl staff create --email ops@example.com --name "Ops" --password 's3cret-pass' --role admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			// Токены CLI не выпускает, поэтому секрет JWT не нужен
			auth := service.NewAuthService(postgres.NewStaffRepository(pool), "", 0)
			user, err := auth.CreateStaff(ctx, email, name, password, domain.StaffRole(role))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", user.Email, user.Role, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 8 characters")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleStaff), "admin or staff")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
