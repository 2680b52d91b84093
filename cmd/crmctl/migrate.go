package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aidar/member-crm/migrations"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Apply or roll back the database schema",
		Long: `Apply or roll back the database schema embedded in the binary.

Examples:
  crmctl migrate up
  crmctl migrate down`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			switch args[0] {
			case "up":
				file = migrations.InitUp
			case "down":
				file = migrations.InitDown
			default:
				return fmt.Errorf("unknown direction %q, expected up or down", args[0])
			}

			sql, err := migrations.FS.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read migration: %w", err)
			}

			ctx := cmd.Context()
			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			// Без аргументов pgx использует simple protocol, поэтому файл выполняется целиком
			if _, err := pool.Exec(ctx, string(sql)); err != nil {
				return fmt.Errorf("apply %s: %w", file, err)
			}

			newLogger().Info("Migration applied", zap.String("file", file))
			return nil
		},
	}
	return cmd
}
