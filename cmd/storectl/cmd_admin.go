package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/jinsharnam/internal/config"
	"github.com/example/jinsharnam/internal/database"
	"github.com/example/jinsharnam/internal/services"
)

var adminEmail string

// storectl make-admin --email user@example.com
var makeAdminCmd = &cobra.Command{
	Use:   "make-admin",
	Short: "Grant the ADMIN role to a registered account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminEmail == "" {
			return errors.New("--email is required")
		}

		db, err := bootDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		auth := services.NewAuthService(db, &config.Config{})
		if err := auth.PromoteAdmin(cmd.Context(), adminEmail); err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				return fmt.Errorf("no registered account with email %s", adminEmail)
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin.\n", adminEmail)
		return nil
	},
}

func init() {
	makeAdminCmd.Flags().StringVar(&adminEmail, "email", "", "email of the account to promote")
}
