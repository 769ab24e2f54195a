// Package main implements the resumind CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/resumind/resumind/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long:  "Applies the embedded schema migrations to the configured database. Migrations are idempotent; re-running is safe.",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(_ *cobra.Command, _ []string) error {
	stmts, err := migrations.All()
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.db.ApplyMigrations(ctx, stmts); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "Applied %d migration files\n", len(stmts))
	return nil
}
