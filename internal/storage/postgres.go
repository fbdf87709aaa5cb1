package storage

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fullcount-labs/fullcount/pkg/types"
)

// PostgresStorage implements Storage using PostgreSQL. Schema management is
// external; the tables below are expected to exist:
//
//	trades(market_id, bettor, outcome, share_delta, cost, p_ball, p_strike, executed_at)
//	resolutions(id, market_id, outcome, winners, losers, total_payout, resolved_at)
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// newPostgresWithDB wraps an existing connection; tests inject sqlmock here.
func newPostgresWithDB(db *sql.DB, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{db: db, logger: logger}
}

// StoreTrade stores a trade receipt in PostgreSQL.
func (p *PostgresStorage) StoreTrade(ctx context.Context, receipt *types.TradeReceipt) error {
	query := `
		INSERT INTO trades (
			market_id, bettor, outcome, share_delta, cost,
			p_ball, p_strike, executed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		receipt.MarketID,
		receipt.Bettor.Hex(),
		string(receipt.Outcome),
		receipt.ShareDelta,
		receipt.Cost,
		receipt.PBall,
		receipt.PStrike,
		receipt.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}

	p.logger.Debug("trade-stored",
		zap.String("market-id", receipt.MarketID),
		zap.String("bettor", receipt.Bettor.Hex()))

	return nil
}

// StoreResolution stores a resolution record. Winners and losers land in
// JSONB columns; the record is small and read back whole.
func (p *PostgresStorage) StoreResolution(ctx context.Context, result *types.ResolutionResult) error {
	winners, err := json.Marshal(result.Winners)
	if err != nil {
		return fmt.Errorf("encode winners: %w", err)
	}
	losers, err := json.Marshal(result.Losers)
	if err != nil {
		return fmt.Errorf("encode losers: %w", err)
	}

	query := `
		INSERT INTO resolutions (
			id, market_id, outcome, winners, losers, total_payout, resolved_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = p.db.ExecContext(ctx, query,
		result.ID,
		result.MarketID,
		string(result.Outcome),
		winners,
		losers,
		result.TotalPayout,
		result.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("insert resolution: %w", err)
	}

	p.logger.Debug("resolution-stored",
		zap.String("resolution-id", result.ID),
		zap.String("market-id", result.MarketID))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
