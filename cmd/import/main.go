package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"expert-hub/config"
	"expert-hub/models"
	"expert-hub/providers"
	"expert-hub/services"
	"expert-hub/storage"
)

type importFlags struct {
	merge   bool
	dryRun  bool
	memory  bool
	verbose bool
}

func newRootCmd() *cobra.Command {
	var flags importFlags
	cmd := &cobra.Command{
		Use:   "expert-import FILE...",
		Short: "Import expert records from CSV or JSON files",
		Long: `Liest Expertendatensätze aus CSV- oder JSON-Dateien, normalisiert sie
und legt neue Experten an. Vorhandene Experten (gleiche E-Mail, gleicher
Name) werden übersprungen oder mit --merge ergänzt.

Beispiele:
  expert-import experten.csv
  expert-import --merge --dry-run export.json
  expert-import --memory liste.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), args, flags)
		},
	}
	cmd.Flags().BoolVar(&flags.merge, "merge", false, "merge new fields into existing experts instead of skipping them")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "normalize and deduplicate without writing")
	cmd.Flags().BoolVar(&flags.memory, "memory", false, "use an empty in-memory store instead of the database")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "print per-record outcomes")
	return cmd
}

func runImport(ctx context.Context, files []string, flags importFlags) error {
	logging, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}
	defer logging.Sync()

	var (
		experts storage.ExpertStore
		runs    storage.ImportRunStore
	)
	opts := services.ImportOptions{Mode: services.ModeSkipExisting, DryRun: flags.dryRun}
	if flags.merge {
		opts.Mode = services.ModeMergeExisting
	}

	if flags.memory {
		experts = storage.NewMemoryExpertStore()
	} else {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config load error: %w", err)
		}
		db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := storage.AutoMigrate(db); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
		experts = storage.NewGormExpertStore(db)
		runs = storage.NewGormImportRunStore(db)
		opts.RecordTimeout = cfg.ImportRecordTimeout
		if cfg.ImportMergeExisting {
			opts.Mode = services.ModeMergeExisting
		}
	}
	importer := services.NewImportService(experts, runs, nil, logging)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, file := range files {
		records, err := readFile(ctx, file, logging)
		if err != nil {
			return err
		}
		result, err := importer.Run(ctx, filepath.Base(file), records, opts)
		if !flags.verbose && result != nil {
			result.Outcomes = nil
		}
		if encErr := enc.Encode(result); encErr != nil {
			return encErr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func readFile(ctx context.Context, path string, logging *zap.Logger) ([]models.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := providers.ForFile(filepath.Base(path), data, logging)
	if err != nil {
		return nil, err
	}
	return p.Read(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
