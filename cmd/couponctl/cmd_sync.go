package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"couponly/internal/aggregator"
	"couponly/internal/env"
	"couponly/internal/takeads"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull merchants and coupons from Takeads",
	Long: `Fetch the Takeads merchant and coupon feeds and upsert them into the
catalog. Uses TAKEADS_API_KEY and the TAKEADS_* page limits.

Available subcommands:
  merchants - Sync stores only
  coupons   - Sync coupons only
  all       - Merchants first, then coupons`,
}

var syncMerchantsCmd = &cobra.Command{
	Use:   "merchants",
	Short: "Sync Takeads merchants into stores",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, func(ctx context.Context, s *aggregator.Syncer) (any, error) {
			return s.SyncMerchants(ctx)
		})
	},
}

var syncCouponsCmd = &cobra.Command{
	Use:   "coupons",
	Short: "Sync Takeads coupons",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, func(ctx context.Context, s *aggregator.Syncer) (any, error) {
			return s.SyncCoupons(ctx)
		})
	},
}

var syncAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Sync merchants, then coupons",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, func(ctx context.Context, s *aggregator.Syncer) (any, error) {
			return s.SyncAll(ctx)
		})
	},
}

func runSync(cmd *cobra.Command, do func(ctx context.Context, s *aggregator.Syncer) (any, error)) error {
	apiKey := os.Getenv("TAKEADS_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("TAKEADS_API_KEY is not set")
	}

	c, err := openCatalog()
	if err != nil {
		return err
	}
	defer c.close()

	client := takeads.NewClient(
		env.GetString("TAKEADS_BASE_URL", takeads.DefaultBaseURL),
		apiKey,
		env.GetDuration("TAKEADS_TIMEOUT", takeads.DefaultTimeout),
	)
	syncer := aggregator.NewSyncer(client, c.sink, c.store.SyncRuns, logger, aggregator.Limits{
		MerchantPages: env.GetInt("TAKEADS_MAX_MERCHANT_PAGES", takeads.MaxMerchantPages),
		CouponPages:   env.GetInt("TAKEADS_MAX_COUPON_PAGES", takeads.MaxCouponPages),
		PageSize:      env.GetInt("TAKEADS_PAGE_SIZE", takeads.DefaultLimit),
	})

	ctx, cancel := commandContext(cmd)
	defer cancel()

	res, err := do(ctx, syncer)
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
