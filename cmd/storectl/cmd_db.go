package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/jinsharnam/internal/database"
)

// storectl migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bootDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
		return nil
	},
}

// storectl seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the store catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bootDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		n, err := database.SeedCatalog(db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d products.\n", n)
		return nil
	},
}
