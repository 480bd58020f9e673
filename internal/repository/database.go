package repository

import (
	"context"
	"errors"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Global error declarations.
var (
	ErrIntervalNotSupported = errors.New("timeframe not supported")
	ErrMarketNotFound       = errors.New("market not found in datasource")
	ErrNoCandles            = errors.New("no candles found in datasource")
)

type candlesRepository interface {
	SelectCandles(ctx context.Context, arg selectCandlesParams) ([]candleRow, error)
	UpsertCandles(ctx context.Context, rows []candleRow) error
}

type marketsRepository interface {
	SelectMarket(ctx context.Context, arg marketParams) (marketRow, error)
}

// Database holds the connection pool and the queries run against it.
type Database struct {
	candles candlesRepository
	markets marketsRepository
	conn    *pgxpool.Pool
	logger  *zap.Logger
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(ctx context.Context, dbURL string, logger *zap.Logger) (*Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	// Ensure the connection is established.
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	q := &queries{pool: conn}
	return &Database{
		candles: q,
		markets: q,
		conn:    conn,
		logger:  logger,
	}, nil
}

// log tolerates a Database built without NewDatabase.
func (db *Database) log() *zap.Logger {
	if db.logger == nil {
		return zap.NewNop()
	}
	return db.logger
}

// Migrate creates the candles table when it does not exist yet.
func (db *Database) Migrate(ctx context.Context) error {
	if _, err := db.conn.Exec(ctx, createCandlesTable); err != nil {
		return fmt.Errorf("migrate candles: %w", err)
	}
	return nil
}

func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}
