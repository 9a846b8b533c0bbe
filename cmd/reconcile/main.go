// Command reconcile repairs enrollments that lost their section and backfills missing enrollment codes.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/app"
	"github.com/noah-isme/lms-api/pkg/config"
	"github.com/noah-isme/lms-api/pkg/logger"
	"github.com/noah-isme/lms-api/pkg/report"
)

func main() {
	printer := report.NewPrinter(os.Stdout)
	if err := newRootCmd(printer).Execute(); err != nil {
		printer.Error(err)
		os.Exit(1)
	}
}

func newRootCmd(printer *report.Printer) *cobra.Command {
	root := &cobra.Command{
		Use:           "reconcile",
		Short:         "Give every orphaned enrollment a section",
		Long:          "Finds subject offerings whose enrollments reference no valid section, reuses or creates a section for each and points the enrollments at it.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container) error {
				printer.Heading("Reconcile orphaned enrollments")
				result, err := c.Reconcile.Reconcile(ctx, printer.Offering)
				if err != nil {
					return err
				}
				printer.ReconcileSummary(result)
				return nil
			})
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "pending",
		Short: "List subject offerings that still have orphaned enrollments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container) error {
				offerings, err := c.Reconcile.Pending(ctx)
				if err != nil {
					return err
				}
				printer.Heading("Pending offerings")
				printer.Pending(offerings)
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "backfill-codes",
		Short: "Assign an enrollment code to every section stored without one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container) error {
				printer.Heading("Backfill enrollment codes")
				result, err := c.Reconcile.BackfillCodes(ctx, printer.SectionCode)
				if err != nil {
					return err
				}
				printer.BackfillSummary(result)
				return nil
			})
		},
	})

	return root
}

func withContainer(parent context.Context, fn func(context.Context, *app.Container) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	c, err := app.Open(ctx, cfg, logr)
	if err != nil {
		logr.Error("failed to open database", zap.Error(err))
		return err
	}
	defer c.Close()

	return fn(ctx, c)
}
