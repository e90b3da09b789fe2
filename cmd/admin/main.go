package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"mindpulse-be/config"
	"mindpulse-be/internal/database"
	"mindpulse-be/internal/models"
	"mindpulse-be/internal/repository"
	"mindpulse-be/internal/services"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mindpulse-admin",
	Short: "Operational tooling for the MindPulse backend",
}

var resyncOlderThan time.Duration

var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Reset stuck pending/failed messages for reprocessing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMongo(cmd.Context(), func(ctx context.Context, db *database.MongoDB, cfg *config.Config) error {
			messageRepo := repository.NewMessageRepository(db.Database)
			aggregateRepo := repository.NewAggregateRepository(db.Database)
			maintenance := services.NewMaintenanceService(messageRepo, aggregateRepo, nil, cfg.MessageRetentionDays, cfg.AggregateRetentionDays)

			n, err := maintenance.ResyncPending(ctx, resyncOlderThan)
			if err != nil {
				return err
			}
			fmt.Printf("reset %d messages for reprocessing\n", n)
			return nil
		})
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete messages and aggregates past their retention windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMongo(cmd.Context(), func(ctx context.Context, db *database.MongoDB, cfg *config.Config) error {
			messageRepo := repository.NewMessageRepository(db.Database)
			aggregateRepo := repository.NewAggregateRepository(db.Database)
			maintenance := services.NewMaintenanceService(messageRepo, aggregateRepo, nil, cfg.MessageRetentionDays, cfg.AggregateRetentionDays)

			messages, aggregates, err := maintenance.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d messages, %d aggregates\n", messages, aggregates)
			return nil
		})
	},
}

var (
	aggregateDate       string
	aggregatePeriodType string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Recompute wellbeing aggregates for the bucket containing a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		periodType := models.PeriodType(aggregatePeriodType)
		if !models.IsPeriodType(aggregatePeriodType) {
			return fmt.Errorf("invalid period type %q", aggregatePeriodType)
		}

		at := time.Now().UTC()
		if aggregateDate != "" {
			parsed, err := time.Parse("2006-01-02", aggregateDate)
			if err != nil {
				return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", aggregateDate)
			}
			at = parsed
		}

		return withMongo(cmd.Context(), func(ctx context.Context, db *database.MongoDB, cfg *config.Config) error {
			messageRepo := repository.NewMessageRepository(db.Database)
			aggregateRepo := repository.NewAggregateRepository(db.Database)
			aggregation := services.NewAggregationService(messageRepo, aggregateRepo)

			start, end := services.PeriodWindow(at, periodType)
			report, err := aggregation.RecomputePeriod(ctx, start, end, periodType)
			if err != nil {
				return err
			}
			fmt.Printf("period %s to %s: %d messages, %d groups, %d upserted, %d failed\n",
				report.PeriodStart.Format(time.RFC3339), report.PeriodEnd.Format(time.RFC3339),
				report.Messages, report.Groups, report.Upserted, report.Failed)
			return nil
		})
	},
}

func withMongo(ctx context.Context, fn func(context.Context, *database.MongoDB, *config.Config) error) error {
	cfg := config.Load()
	db, err := database.NewMongoDB(cfg.MongoDBURI, cfg.MongoDBDatabase)
	if err != nil {
		return err
	}
	defer db.Disconnect()
	return fn(ctx, db, cfg)
}

func init() {
	resyncCmd.Flags().DurationVar(&resyncOlderThan, "older-than", 10*time.Minute, "only reset messages stuck longer than this")
	aggregateCmd.Flags().StringVar(&aggregateDate, "date", "", "recompute the bucket containing this date (YYYY-MM-DD), defaults to now")
	aggregateCmd.Flags().StringVar(&aggregatePeriodType, "period-type", "daily", "bucket granularity: hourly, daily, weekly, monthly")

	rootCmd.AddCommand(resyncCmd, cleanupCmd, aggregateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
