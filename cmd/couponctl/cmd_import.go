package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"couponly/internal/aggregator"
	"couponly/internal/domain/stores"
	"couponly/internal/legacy"
	"couponly/internal/legacy/firestoresrc"
	"couponly/internal/legacy/mongosrc"
	"couponly/internal/normalize"
	"couponly/internal/spreadsheet"

	"github.com/spf13/cobra"
)

var (
	importResource   string
	importCollection string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk import stores or coupons",
	Long: `Load rows from a spreadsheet or a legacy database and upsert them
through the same normalization as the Takeads sync. Rows without a store id
(or coupon id) are skipped and counted.

Available subcommands:
  file      - Import an .xlsx or .csv file
  firestore - Import a Firestore collection (FIRESTORE_PROJECT_ID)
  mongo     - Import a MongoDB collection (MONGO_URI, MONGO_DATABASE)`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return checkResource(importResource)
	},
}

var importFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Import an .xlsx or .csv spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := readSpreadsheet(args[0])
		if err != nil {
			return err
		}
		return runImport(cmd, rows, stores.SourceImport)
	},
}

var importFirestoreCmd = &cobra.Command{
	Use:   "firestore",
	Short: "Import a legacy Firestore collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID := os.Getenv("FIRESTORE_PROJECT_ID")
		if projectID == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is not set")
		}

		return runLegacyImport(cmd, func(ctx context.Context) (legacy.Source, error) {
			return firestoresrc.New(ctx, projectID, os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		})
	},
}

var importMongoCmd = &cobra.Command{
	Use:   "mongo",
	Short: "Import a legacy MongoDB collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		uri := os.Getenv("MONGO_URI")
		if uri == "" {
			return fmt.Errorf("MONGO_URI is not set")
		}

		return runLegacyImport(cmd, func(ctx context.Context) (legacy.Source, error) {
			return mongosrc.New(ctx, uri, envOr("MONGO_DATABASE", "couponly"))
		})
	},
}

func init() {
	importFirestoreCmd.Flags().StringVar(&importCollection, "collection", "", "Collection name (default: the resource name)")
	importMongoCmd.Flags().StringVar(&importCollection, "collection", "", "Collection name (default: the resource name)")
}

func checkResource(resource string) error {
	switch resource {
	case aggregator.ResourceStores, aggregator.ResourceCoupons:
		return nil
	}
	return fmt.Errorf("unknown resource %q: expected %s or %s", resource, aggregator.ResourceStores, aggregator.ResourceCoupons)
}

func collectionFor(resource string) string {
	if importCollection != "" {
		return importCollection
	}
	if resource == aggregator.ResourceCoupons {
		return legacy.CollectionCoupons
	}
	return legacy.CollectionStores
}

func runLegacyImport(cmd *cobra.Command, open func(ctx context.Context) (legacy.Source, error)) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	src, err := open(ctx)
	if err != nil {
		return err
	}
	defer src.Close(ctx)

	collection := collectionFor(importResource)
	rows, err := src.Rows(ctx, collection)
	if err != nil {
		return fmt.Errorf("read %s: %w", collection, err)
	}
	logger.Infow("legacy rows loaded", "collection", collection, "rows", len(rows))
	return runImport(cmd, rows, stores.SourceLegacy)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func readSpreadsheet(path string) ([]normalize.Row, error) {
	format, err := spreadsheet.FormatFromName(filepath.Base(path))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return spreadsheet.Parse(f, format)
}

func runImport(cmd *cobra.Command, rows []normalize.Row, source string) error {
	c, err := openCatalog()
	if err != nil {
		return err
	}
	defer c.close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	res, err := importRows(ctx, aggregator.NewImporter(c.sink, logger), importResource, rows, source)
	if err != nil {
		return err
	}
	logger.Infow("import finished", "resource", res.Resource, "rows", res.Rows, "upserted", res.Upserted, "skipped", res.Skipped)
	return printJSON(cmd, res)
}

func importRows(ctx context.Context, im *aggregator.Importer, resource string, rows []normalize.Row, source string) (aggregator.ImportResult, error) {
	switch resource {
	case aggregator.ResourceStores:
		return im.ImportStores(ctx, rows, source)
	case aggregator.ResourceCoupons:
		return im.ImportCoupons(ctx, rows, source)
	}
	return aggregator.ImportResult{}, checkResource(resource)
}
