package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/catalogue/internal/db"
	"github.com/Skotchmaster/catalogue/internal/hash"
	"github.com/Skotchmaster/catalogue/internal/repo"
	"github.com/Skotchmaster/catalogue/internal/service"
	"github.com/Skotchmaster/catalogue/internal/transport"
)

var adminReq transport.SignupRequest

// createadmin bootstraps the first staff account; every admin endpoint
// needs one to exist.
var createAdminCmd = &cobra.Command{
	Use:   "createadmin",
	Short: "Create a staff user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		gdb, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		svc := &service.UserService{Repo: repo.New(gdb), Passwords: hash.New(cfg.Password.BcryptCost)}
		user, err := svc.CreateAdmin(cmd.Context(), adminReq)
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created staff user %q (id %d)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	f := createAdminCmd.Flags()
	f.StringVar(&adminReq.Username, "username", "", "username (required)")
	f.StringVar(&adminReq.Email, "email", "", "email address (required)")
	f.StringVar(&adminReq.Password, "password", "", "password (required)")
	f.StringVar(&adminReq.FirstName, "first-name", "", "first name")
	f.StringVar(&adminReq.LastName, "last-name", "", "last name")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}
