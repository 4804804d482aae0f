// Package cmd implements the bbmctl operator commands.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/juanketo/BBMApp-sub000/internal/repository"
	"github.com/juanketo/BBMApp-sub000/internal/service"
	"github.com/juanketo/BBMApp-sub000/pkg/config"
	"github.com/juanketo/BBMApp-sub000/pkg/database"
	"github.com/juanketo/BBMApp-sub000/pkg/logger"
)

var (
	logLevel string
	timeout  time.Duration

	cfg  *config.Config
	logr *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bbmctl",
	Short: "Operate BBM pricing from the command line",
	Long: `bbmctl quotes payments, seeds pricing catalogs and lists priced
memberships against the database configured for the API.

Examples:
  bbmctl quote --price-base pb-2024 --disciplines 2 --siblings 1
  bbmctl quote --price-base pb-2024 --mixed 2,1,3 --timing LATE_ACTIVE
  bbmctl seed --file pricing.yaml
  bbmctl memberships --price-base pb-2024`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		level := logLevel
		if level == "" {
			level = cfg.Log.Level
		}
		logr, err = logger.NewCLI(level)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logr != nil {
			_ = logr.Sync()
		}
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (defaults to LOG_LEVEL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "timeout for database work")

	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(membershipsCmd)
}

func openDB(ctx context.Context) (*sqlx.DB, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func newCalculator(db *sqlx.DB) *service.PaymentCalculator {
	return service.NewPaymentCalculator(repository.NewPricingRepository(db), service.CalculatorConfig{
		EnrollmentFee:  decimal.NewNullDecimal(cfg.Pricing.EnrollmentFee),
		CurrencySymbol: cfg.Pricing.CurrencySymbol,
	}, nil, logr)
}
