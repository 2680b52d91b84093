package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/notify"
	"github.com/aidar/member-crm/internal/repository/postgres"
	"github.com/aidar/member-crm/internal/service"
)

var importActor string

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [members|applications|team_members] [file.csv]",
		Short: "Import records from a CSV file",
		Long: `Import records from a CSV file with fixed headers.

members, applications: first_name, last_name, email, phone, business_name
team_members:          first_name, last_name, email, phone, owner_email, role

Rows without an email fail, rows with an existing email are skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := domain.ImportKind(args[0])
			if !kind.Valid() {
				return fmt.Errorf("unknown import kind %q", args[0])
			}

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			ctx := cmd.Context()
			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			log := newLogger()
			defer func() { _ = log.Sync() }()

			memberRepo := postgres.NewMemberRepository(pool)
			recorder := service.NewRecorder(postgres.NewActivityRepository(pool), notify.Noop{}, log)
			svc := service.NewImportService(
				memberRepo,
				postgres.NewApplicationRepository(pool),
				postgres.NewTeamMemberRepository(pool),
				postgres.NewImportRepository(pool),
				recorder,
			)

			history, err := svc.Import(ctx, importActor, kind, filepath.Base(args[1]), f)
			if err != nil {
				return err
			}

			log.Info("Import finished",
				zap.String("kind", string(kind)),
				zap.Int("total", history.TotalRows),
				zap.Int("imported", history.Imported),
				zap.Int("skipped", history.Skipped),
				zap.Int("failed", history.Failed),
			)

			if verbose && len(history.Errors) > 0 {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(history.Errors)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&importActor, "actor", "crmctl", "name recorded as the importer")
	return cmd
}
