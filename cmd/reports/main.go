// Command reports generates the monthly report of every user that has an
// active budget for the period and no report yet.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pocketbook/internal/config"
	"pocketbook/internal/database"
	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/logger"
	"pocketbook/internal/services"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(os.Args[1:]); err != nil {
		logger.Get().Fatalf("Report generation error: %v", err)
	}
}

func run(args []string) error {
	month, year, err := parsePeriod(args, time.Now().UTC())
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbManager, err := database.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			logger.Get().Warnf("database close error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := generateAll(ctx, services.NewReportService(dbManager.DB()), month, year, cfg.ReportWorkers)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d reports failed", summary.Failed, summary.Pending)
	}
	return nil
}

// parsePeriod reads -month and -year; both default to the calendar month
// before now.
func parsePeriod(args []string, now time.Time) (int, int, error) {
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)

	fs := flag.NewFlagSet("reports", flag.ContinueOnError)
	month := fs.Int("month", int(prev.Month()), "report month (1-12)")
	year := fs.Int("year", prev.Year(), "report year")
	if err := fs.Parse(args); err != nil {
		return 0, 0, err
	}
	if *month < 1 || *month > 12 {
		return 0, 0, fmt.Errorf("invalid month %d", *month)
	}
	if *year < 2000 || *year > 9999 {
		return 0, 0, fmt.Errorf("invalid year %d", *year)
	}
	return *month, *year, nil
}

type batchSummary struct {
	Pending   int
	Generated int64
	Skipped   int64
	Failed    int64
}

// generateAll generates the pending reports of the period with at most
// workers in flight. A failing user does not stop the others.
func generateAll(ctx context.Context, reports services.ReportServicer, month, year, workers int) (batchSummary, error) {
	log := logger.Get()

	userIDs, err := reports.PendingReportUsers(month, year)
	if err != nil {
		return batchSummary{}, fmt.Errorf("failed to list pending users: %w", err)
	}
	summary := batchSummary{Pending: len(userIDs)}
	log.Infow("generating monthly reports", "month", month, "year", year, "pending", len(userIDs), "workers", workers)

	var generated, skipped, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(max(workers, 1))

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			break
		}
		userID := userID
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			report, err := reports.GenerateReport(userID, month, year)
			switch {
			case err == nil:
				generated.Add(1)
				log.Infow("report generated", "user_id", userID, "report_id", report.ID, "margin", report.Margin.String())
			case errors.Is(err, apperrors.ErrReportExists), errors.Is(err, apperrors.ErrNoActiveBudgetForPeriod):
				skipped.Add(1)
				log.Infow("report skipped", "user_id", userID, "reason", err.Error())
			default:
				failed.Add(1)
				log.Errorw("report failed", "user_id", userID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary.Generated = generated.Load()
	summary.Skipped = skipped.Load()
	summary.Failed = failed.Load()
	log.Infow("monthly reports done", "generated", summary.Generated, "skipped", summary.Skipped, "failed", summary.Failed)

	return summary, ctx.Err()
}
