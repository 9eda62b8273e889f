package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/example/jinsharnam/internal/config"
	"github.com/example/jinsharnam/internal/database"
	"github.com/example/jinsharnam/internal/logging"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "storectl",
	Short:         "Operational commands for the Jinsharnam store backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(os.Getenv("LOG_LEVEL"))
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(makeAdminCmd)
}

// bootDB opens the database and applies migrations.
func bootDB() (*gorm.DB, error) {
	return database.Connect(config.DatabaseURL())
}
