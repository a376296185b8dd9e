package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appledger "github.com/tindahan/backend/internal/application/ledger"
	"github.com/tindahan/backend/internal/infrastructure/backfill"
	"github.com/tindahan/backend/internal/infrastructure/config"
	"github.com/tindahan/backend/internal/infrastructure/logger"
	"github.com/tindahan/backend/internal/infrastructure/persistence"
)

func main() {
	var (
		filePath string
		tenantID string
		asOfFlag string
		logLevel string
	)
	flag.StringVar(&filePath, "file", "", "Path to the opening balance CSV file")
	flag.StringVar(&tenantID, "tenant", "", "Tenant ID to seed customers into")
	flag.StringVar(&asOfFlag, "as-of", "", "Opening balance date, YYYY-MM-DD (default: today)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.New(config.LogConfig{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if filePath == "" || tenantID == "" {
		printUsage()
		os.Exit(1)
	}

	tenant, err := uuid.Parse(tenantID)
	if err != nil {
		log.Fatal("invalid tenant id", zap.String("tenant", tenantID))
	}

	asOf := time.Now().UTC()
	if asOfFlag != "" {
		asOf, err = time.Parse("2006-01-02", asOfFlag)
		if err != nil {
			log.Fatal("invalid as-of date, expected YYYY-MM-DD", zap.String("as_of", asOfFlag))
		}
	}

	file, err := os.Open(filePath)
	if err != nil {
		log.Fatal("failed to open file", zap.String("file", filePath), zap.Error(err))
	}
	defer file.Close()

	rows, rowErrors, err := backfill.ParseOpeningBalances(file)
	if err != nil {
		log.Fatal("failed to parse file", zap.String("file", filePath), zap.Error(err))
	}
	for _, rowErr := range rowErrors {
		log.Warn("skipped row", zap.Int("line", rowErr.Line), zap.String("reason", rowErr.Error()))
	}
	if len(rows) == 0 {
		log.Fatal("no valid rows to seed", zap.Int("rows_skipped", len(rowErrors)))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()

	// Fail fast on an unknown tenant instead of per row.
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	if _, err := tenantRepo.FindByID(ctx, tenant); err != nil {
		log.Fatal("tenant not found", zap.String("tenant_id", tenant.String()), zap.Error(err))
	}

	scope := persistence.NewGormTransactionScope(db.DB, cfg.Database.LockTimeout)
	service := appledger.NewBackfillService(scope, log)

	records := make([]appledger.OpeningBalance, 0, len(rows))
	for _, row := range rows {
		records = append(records, appledger.OpeningBalance{
			Name:         row.Name,
			Phone:        row.Phone,
			Balance:      row.OpeningBalance,
			InterestRate: row.InterestRate,
		})
	}

	result, err := service.Seed(ctx, tenant, records, asOf)
	if err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}

	for _, failure := range result.Failures {
		log.Warn("failed to seed customer",
			zap.String("name", failure.Name),
			zap.String("reason", failure.Reason),
		)
	}
	log.Info("seed finished",
		zap.Int("customers_created", result.CustomersCreated),
		zap.Int("entries_created", result.EntriesCreated),
		zap.Int("rows_skipped", len(rowErrors)),
		zap.Int("failures", len(result.Failures)),
	)
}

func printUsage() {
	fmt.Println(`Utang Ledger Customer Seeder

Imports customers and their opening utang balances from a CSV file.
Each seeded balance becomes the customer's starting ledger entry.

Usage:
  seed -file <csv> -tenant <tenant-id> [flags]

CSV columns:
  name             Customer name (required)
  phone            Contact number
  opening_balance  Outstanding utang amount (required, non-negative)
  interest_rate    Monthly interest rate override in percent

Flags:
  -file string       Path to the opening balance CSV file
  -tenant string     Tenant ID to seed customers into
  -as-of string      Opening balance date, YYYY-MM-DD (default: today)
  -log-level string  Log level: debug, info, warn, error (default: info)

Database settings come from config.toml or UTANG_DATABASE_* environment
variables.`)
}
