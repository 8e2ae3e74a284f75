package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/healthguard/assistant/internal/config"
	"github.com/healthguard/assistant/internal/domain/records"
	"github.com/healthguard/assistant/internal/platform/db"
	"github.com/healthguard/assistant/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "assistant-server",
		Short: "HealthGuard hospital assistant API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	if os.Getenv("ENV") == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the assistant API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _ := cmd.Flags().GetInt("to")

			migrator, closeFn, err := openMigrator(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			count, err := migrator.UpTo(cmd.Context(), target)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().Int("to", 0, "Apply migrations up to and including this version (0 = all)")
	cmd.AddCommand(upCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeFn, err := openMigrator(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			statuses, err := migrator.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func openMigrator(ctx context.Context) (*db.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return db.NewMigrator(pool, migrations.FS), pool.Close, nil
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load staff, wards and patients from a JSON fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")

			data, err := readSeedFile(file)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := records.NewService(records.NewPatientRepo(pool), records.NewStaffRepo(pool), records.NewWardRepo(pool), newLogger()).
				WithTx(func(ctx context.Context, fn func(ctx context.Context) error) error {
					return db.WithTx(ctx, pool, fn)
				})

			res, err := svc.Seed(ctx, data)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d staff, %d ward(s), %d patient(s).\n", res.Staff, res.Wards, res.Patients)
			return nil
		},
	}
	cmd.Flags().String("file", "seed.json", "Path to the seed fixture")
	return cmd
}

func readSeedFile(path string) (*records.SeedData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var data records.SeedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &data, nil
}
