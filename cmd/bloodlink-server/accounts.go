package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bloodlink/bloodlink/internal/domain/account"
	"github.com/bloodlink/bloodlink/internal/platform/auth"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account administration",
	}

	var req account.AddStaffRequest
	createAdmin := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the first administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, pool, logger, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			req.Role = auth.RoleAdmin
			svc := account.NewService(account.NewRepo(pool), nil, nil, logger)
			a, err := svc.AddStaff(ctx, req)
			if errors.Is(err, account.ErrEmailTaken) {
				return fmt.Errorf("an account with email %s already exists", req.Email)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", a.Email, a.ID)
			return nil
		},
	}
	f := createAdmin.Flags()
	f.StringVar(&req.Email, "email", "", "login email")
	f.StringVar(&req.Password, "password", os.Getenv("BLOODLINK_ADMIN_PASSWORD"), "login password")
	f.StringVar(&req.FullName, "name", "Administrator", "display name")
	f.StringVar(&req.Phone, "phone", "", "contact phone")
	_ = createAdmin.MarkFlagRequired("email")

	cmd.AddCommand(createAdmin)
	return cmd
}
