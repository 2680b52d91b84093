// Command crmctl выполняет служебные операции CRM: миграции, импорт CSV, создание сотрудников
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aidar/member-crm/internal/config"
	"github.com/aidar/member-crm/internal/logger"
)

var (
	logLevel string
	verbose  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "crmctl",
		Short:         "Operator tool for the member CRM",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print row errors and extra details")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(staffCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openPool подключается к БД по настройкам из окружения
func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// newLogger пишет в консольном формате, удобном для терминала
func newLogger() *zap.Logger {
	log, err := logger.New(logLevel, "console")
	if err != nil {
		return logger.NewNop()
	}
	return log
}
