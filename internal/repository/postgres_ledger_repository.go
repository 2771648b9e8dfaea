package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/datecheck-bot/pkg/config"
)

// bookedDatesQuery renders dates in the ledger's DD.MM.YYYY form. NULL rows
// come back blank and are dropped by the checker like empty sheet cells.
const bookedDatesQuery = `SELECT COALESCE(to_char(booked_on, 'DD.MM.YYYY'), '') FROM booked_dates ORDER BY booked_on`

// PostgresLedgerRepository reads booked dates from the booked_dates table.
type PostgresLedgerRepository struct {
	db *sqlx.DB
}

// NewPostgresLedgerRepository instantiates a Postgres-backed ledger.
func NewPostgresLedgerRepository(db *sqlx.DB) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{db: db}
}

func (r *PostgresLedgerRepository) Name() string { return config.LedgerPostgres }

func (r *PostgresLedgerRepository) BookedDates(ctx context.Context) ([]string, error) {
	var dates []string
	if err := r.db.SelectContext(ctx, &dates, bookedDatesQuery); err != nil {
		return nil, fmt.Errorf("select booked dates: %w", err)
	}
	if dates == nil {
		dates = []string{}
	}
	return dates, nil
}

// Close releases the connection pool.
func (r *PostgresLedgerRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
