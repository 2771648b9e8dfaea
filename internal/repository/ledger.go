package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/datecheck-bot/pkg/config"
	"github.com/noah-isme/datecheck-bot/pkg/database"
)

// LedgerReader is a read-only view of the booking ledger. BookedDates returns
// the raw date column in ledger order with header rows removed; entries are
// not trimmed and may be blank.
type LedgerReader interface {
	Name() string
	BookedDates(ctx context.Context) ([]string, error)
	Close() error
}

// NewLedger builds the reader selected by cfg.Backend.
func NewLedger(ctx context.Context, cfg config.LedgerConfig, logger *zap.Logger) (LedgerReader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case config.LedgerSheets:
		provider, err := NewSheetsServiceProvider(cfg)
		if err != nil {
			return nil, err
		}
		svc, err := provider.SheetsService(ctx)
		if err != nil {
			return nil, fmt.Errorf("sheets client: %w", err)
		}
		logger.Info("ledger configured", zap.String("backend", cfg.Backend), zap.String("credentials", provider.Describe()))
		return NewSheetsLedgerRepository(svc, cfg.SpreadsheetID, cfg.SheetName, cfg.HeaderRows), nil
	case config.LedgerWorkbook:
		logger.Info("ledger configured", zap.String("backend", cfg.Backend), zap.String("path", cfg.WorkbookPath))
		return NewWorkbookLedgerRepository(cfg.WorkbookPath, cfg.SheetName, cfg.HeaderRows), nil
	case config.LedgerPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		logger.Info("ledger configured", zap.String("backend", cfg.Backend), zap.String("host", cfg.Database.Host))
		return NewPostgresLedgerRepository(db), nil
	case config.LedgerRedis:
		client, err := database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		logger.Info("ledger configured", zap.String("backend", cfg.Backend), zap.String("key", cfg.RedisKey))
		return NewRedisLedgerRepository(client, cfg.RedisKey), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

func skipHeader(values []string, headerRows int) []string {
	if headerRows <= 0 {
		return values
	}
	if headerRows >= len(values) {
		return []string{}
	}
	return values[headerRows:]
}
