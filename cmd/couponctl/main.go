package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"couponly/internal/aggregator"
	"couponly/internal/db"
	"couponly/internal/domain/storage"
	"couponly/internal/env"
	"couponly/internal/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dbAddr  string
	timeout time.Duration
	verbose bool

	logger *zap.SugaredLogger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "couponctl",
	Short: "Operate the Couponly catalog from the command line",
	Long: `couponctl runs the maintenance jobs of the Couponly backend outside
the HTTP server: schema migrations, Takeads syncs and bulk imports from
spreadsheets or the legacy Firestore and MongoDB data sets.

Configuration is read from the environment (and an optional .env file),
using the same variables as the API server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		if verbose {
			logger.Infow("configuration", "timeout", timeout.String(), "db", dbAddr != "")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// catalog holds the connections a command needs; close releases them.
type catalog struct {
	pool  *pgxpool.Pool
	store *storage.Container
	sink  *aggregator.PGSink
}

func openCatalog() (*catalog, error) {
	if dbAddr == "" {
		return nil, fmt.Errorf("no database configured: set DB_ADDR or pass --db")
	}
	pool, err := db.New(dbAddr, int32(env.GetInt("DB_MAX_OPEN_CONNS", 5)), env.GetString("DB_MAX_IDLE_TIME", "15m"))
	if err != nil {
		return nil, err
	}
	store := storage.NewContainer(pool)
	return &catalog{pool: pool, store: store, sink: aggregator.NewPGSink(store)}, nil
}

func (c *catalog) close() {
	c.pool.Close()
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func init() {
	// .env is optional
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&dbAddr, "db", os.Getenv("DB_ADDR"), "Postgres connection string (default: DB_ADDR)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	syncCmd.AddCommand(syncMerchantsCmd)
	syncCmd.AddCommand(syncCouponsCmd)
	syncCmd.AddCommand(syncAllCmd)

	importCmd.PersistentFlags().StringVarP(&importResource, "resource", "r", aggregator.ResourceStores, "What the rows hold: stores or coupons")
	importCmd.AddCommand(importFileCmd)
	importCmd.AddCommand(importFirestoreCmd)
	importCmd.AddCommand(importMongoCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
