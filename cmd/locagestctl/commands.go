package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"locagest/internal/clients"
	"locagest/internal/config"
	"locagest/internal/ledger"
	"locagest/internal/repository"
	"locagest/internal/service"
	"locagest/migrations"
	"locagest/pkg/database/postgres"
	"locagest/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func openDB(ctx context.Context, cfg config.AppConfig) (*sql.DB, error) {
	return postgres.NewPostgresConnection(ctx, postgres.ConnectionInfo{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Username: cfg.Postgres.User,
		DBName:   cfg.Postgres.DBName,
		SSLMode:  cfg.Postgres.SSLMode,
		Password: cfg.Postgres.Password,
	})
}

// rentService builds a rent service without websocket or mail delivery.
func rentService(db *sql.DB, log *logrus.Logger) *service.RentService {
	return service.NewRentService(
		repository.NewTransactor(db),
		repository.NewLeaseRepository(db),
		repository.NewRentRepository(db),
		repository.NewRentPaymentRepository(db),
		nil,
		clients.NewEventPublisher(nil, log),
		nil,
		log,
	)
}

// parseDay reads a YYYY-MM-DD flag, defaulting to today in the configured zone.
func parseDay(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return ledger.Day(time.Now().In(loc)), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw)
	}
	return t, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			cfg := config.Load()
			log := logger.New(cfg.LogLevel)

			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer postgres.Close(db)

			if dryRun {
				pending, err := migrations.Pending(cmd.Context(), db)
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No pending migrations.")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Pending migrations:")
				for _, name := range pending {
					fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", name)
				}
				return nil
			}
			return migrations.Up(cmd.Context(), db, log)
		},
	}
	cmd.Flags().Bool("dry-run", false, "list pending migrations without applying them")
	return cmd
}

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Refresh the status of unsettled rents and flag late ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("date")
			cfg := config.Load()
			today, err := parseDay(raw, cfg.Location())
			if err != nil {
				return err
			}
			log := logger.New(cfg.LogLevel)

			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer postgres.Close(db)

			res, err := rentService(db, log).RefreshStatuses(cmd.Context(), today)
			if perr := printJSON(cmd, res); perr != nil {
				return perr
			}
			return err
		},
	}
	cmd.Flags().String("date", "", "evaluate statuses as of this date (YYYY-MM-DD), default today")
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create the monthly rent of every active lease",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("month")
			cfg := config.Load()
			month := ledger.Day(time.Now().In(cfg.Location()))
			if raw != "" {
				t, err := time.Parse("2006-01", raw)
				if err != nil {
					return fmt.Errorf("invalid month %q, want YYYY-MM", raw)
				}
				month = t
			}
			log := logger.New(cfg.LogLevel)

			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer postgres.Close(db)

			res, err := rentService(db, log).GenerateRents(cmd.Context(), month)
			if perr := printJSON(cmd, res); perr != nil {
				return perr
			}
			return err
		},
	}
	cmd.Flags().String("month", "", "month to generate (YYYY-MM), default current month")
	return cmd
}

func indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rent indexation tools",
	}
	cmd.AddCommand(indexPreviewCmd())
	return cmd
}

func indexPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Compute an indexed rent without touching the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			values := map[string]decimal.Decimal{}
			for _, name := range []string{"rent", "old", "new"} {
				raw, _ := cmd.Flags().GetString(name)
				d, err := decimal.NewFromString(raw)
				if err != nil {
					return fmt.Errorf("--%s must be a decimal, got %q", name, raw)
				}
				values[name] = d
			}
			from, _ := cmd.Flags().GetString("from")
			effective, err := parseDay(from, time.UTC)
			if err != nil {
				return err
			}

			rev, err := ledger.ComputeIndexation(values["rent"], values["old"], values["new"], effective)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{
				"old_rent":            rev.OldRent.StringFixed(2),
				"new_rent":            rev.NewRent.StringFixed(2),
				"increase_percentage": rev.IncreasePercentage.StringFixed(2),
				"calculation_formula": rev.CalculationFormula,
				"applied_from":        rev.AppliedFrom.Format("2006-01-02"),
			})
		},
	}
	cmd.Flags().String("rent", "", "current rent")
	cmd.Flags().String("old", "", "index the rent was set against")
	cmd.Flags().String("new", "", "new index value")
	cmd.Flags().String("from", "", "effective date (YYYY-MM-DD), default today")
	_ = cmd.MarkFlagRequired("rent")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}
