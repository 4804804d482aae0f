package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/juanketo/BBMApp-sub000/internal/repository"
	"github.com/juanketo/BBMApp-sub000/internal/seed"
	"github.com/juanketo/BBMApp-sub000/internal/service"
	"github.com/juanketo/BBMApp-sub000/pkg/cache"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert price bases, memberships and operators from a YAML file",
	RunE:  runSeed,
}

var (
	seedFile   string
	seedDryRun bool
)

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "seed file [REQUIRED]")
	seedCmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "validate the file without writing")

	_ = seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, args []string) error {
	file, err := seed.LoadFile(seedFile)
	if err != nil {
		return err
	}

	if seedDryRun {
		if err := seed.NewSeeder(nil, nil, nil, logr).Validate(file); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d price bases, %d memberships, %d users\n",
			seedFile, len(file.PriceBases), len(file.Memberships), len(file.Users))
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	pricingRepo := repository.NewPricingRepository(db)

	var invalidator interface {
		Invalidate(ctx context.Context) error
	}
	if cfg.Pricing.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, pricing cache not invalidated", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			cacheSvc := service.NewCacheService(repository.NewCacheRepository(client, logr), nil, cfg.Pricing.CacheTTL, logr, true)
			invalidator = service.NewCachedPricingProvider(pricingRepo, cacheSvc, logr)
		}
	}

	seeder := seed.NewSeeder(pricingRepo, repository.NewUserRepository(db), invalidator, logr)
	res, err := seeder.Apply(ctx, file)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d price bases, %d memberships, %d users\n", res.PriceBases, res.Memberships, res.Users)
	return nil
}
