package main

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/pdoflow/pdoflow/jobs"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the queue schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			connString, err := jobs.ConnStringFromEnv()
			if err != nil {
				return err
			}
			conn, err := pgx.Connect(ctx, connString)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer conn.Close(ctx)

			if err := jobs.MigrateDatabase(ctx, conn); err != nil {
				return err
			}
			fmt.Println("Schema is up to date.")
			return nil
		},
	}
}
